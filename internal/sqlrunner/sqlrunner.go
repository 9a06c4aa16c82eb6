// Package sqlrunner provides the concrete os/exec-backed implementations of
// the three external SQL collaborators spec §6 describes but leaves to the
// deployment environment: sqlCmdExec, restoreDatabase, and backupDatabase.
//
// Grounded on runtime/executor/shell_worker.go's subprocess-wrapping idiom
// (spawn, capture stdout/stderr separately, translate a non-zero exit into
// a rich error) simplified down to the one-shot, non-interactive commands
// these three operations need — none of them require the worker's
// long-lived shell session or streaming control protocol.
package sqlrunner

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/aiedail92/DBBranchManager/internal/dbbmerr"
)

// Runner implements transform.SqlExecutor, transform.DatabaseRestorer, and
// cache.BackupStreamer by shelling out to sqlcmd. Binary defaults to
// "sqlcmd" when empty, so tests can point it at a stub executable.
type Runner struct {
	Binary string
}

func (r *Runner) binary() string {
	if r.Binary != "" {
		return r.Binary
	}
	return "sqlcmd"
}

func (r *Runner) run(args []string, stdin string) (string, error) {
	cmd := exec.Command(r.binary(), args...)
	if stdin != "" {
		cmd.Stdin = bytes.NewBufferString(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), dbbmerr.Wrap(dbbmerr.KindSqlFailure,
			fmt.Sprintf("%s %v: %s", r.binary(), args, stderr.String()), err)
	}
	return stdout.String(), nil
}

// ExecuteScript runs scriptText against connection (the `sqlCmdExec`
// collaborator). A non-zero exit surfaces as dbbmerr.KindSqlFailure.
func (r *Runner) ExecuteScript(connection, scriptText string) error {
	_, err := r.run([]string{"-S", connection, "-b"}, scriptText)
	return err
}

// RestoreDatabase restores dbName on connection from backupPath (the
// `restoreDatabase` collaborator).
func (r *Runner) RestoreDatabase(connection, dbName, backupPath string) error {
	script := fmt.Sprintf(
		"RESTORE DATABASE [%s] FROM DISK = N'%s' WITH REPLACE, RECOVERY;",
		dbName, backupPath)
	_, err := r.run([]string{"-S", connection, "-b"}, script)
	return err
}

// BackupDatabase streams a native backup of dbName on connection to
// outPath (the `backupDatabase` collaborator, used by internal/cache's
// CacheManager.Add to populate a fresh cache entry).
func (r *Runner) BackupDatabase(connection, dbName, outPath string) error {
	script := fmt.Sprintf(
		"BACKUP DATABASE [%s] TO DISK = N'%s' WITH INIT, COMPRESSION;",
		dbName, outPath)
	_, err := r.run([]string{"-S", connection, "-b"}, script)
	return err
}
