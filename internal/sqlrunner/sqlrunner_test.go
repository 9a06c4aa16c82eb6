package sqlrunner

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aiedail92/DBBranchManager/internal/dbbmerr"
)

func fakeSqlcmd(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake sqlcmd fixture is a POSIX shell script")
	}
	path := filepath.Join(t.TempDir(), "sqlcmd")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestExecuteScriptSuccess(t *testing.T) {
	bin := fakeSqlcmd(t, "cat >/dev/null; exit 0")
	r := &Runner{Binary: bin}
	require.NoError(t, r.ExecuteScript("conn", "SELECT 1;"))
}

func TestExecuteScriptFailureIsSqlFailure(t *testing.T) {
	bin := fakeSqlcmd(t, "cat >/dev/null; echo 'boom' 1>&2; exit 1")
	r := &Runner{Binary: bin}

	err := r.ExecuteScript("conn", "SELECT 1;")
	require.Error(t, err)
	var derr *dbbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbbmerr.KindSqlFailure, derr.Kind)
}

func TestRestoreDatabase(t *testing.T) {
	bin := fakeSqlcmd(t, "cat >/dev/null; exit 0")
	r := &Runner{Binary: bin}
	require.NoError(t, r.RestoreDatabase("conn", "app", "/backups/app.bak"))
}

func TestBackupDatabase(t *testing.T) {
	bin := fakeSqlcmd(t, "cat >/dev/null; exit 0")
	r := &Runner{Binary: bin}
	require.NoError(t, r.BackupDatabase("conn", "app", "/caches/app/deadbeef"))
}
