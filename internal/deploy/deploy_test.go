package deploy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aiedail92/DBBranchManager/internal/config"
	"github.com/aiedail92/DBBranchManager/internal/logx"
	_ "github.com/aiedail92/DBBranchManager/internal/task/copytask"
)

type fakeRestorer struct {
	restored []string
}

func (f *fakeRestorer) RestoreDatabase(connection, dbName, backupPath string) error {
	f.restored = append(f.restored, dbName+"@"+backupPath)
	return nil
}

type fakeStreamer struct{}

func (fakeStreamer) BackupDatabase(connection, dbName, outPath string) error {
	return os.WriteFile(outPath, []byte("backup"), 0o644)
}

// TestFreshDeployAppliesFeaturesInOrder mirrors spec example 1: a fresh
// deploy with no cache and no resume file restores the baseline backup and
// applies every release's features, copying files in feature order.
func TestFreshDeployAppliesFeaturesInOrder(t *testing.T) {
	root := t.TempDir()

	backupDir := filepath.Join(root, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))
	backupPath := filepath.Join(backupDir, "R0_app.bak")
	require.NoError(t, os.WriteFile(backupPath, []byte("seed"), 0o644))

	f1Src := filepath.Join(root, "f1-src")
	require.NoError(t, os.MkdirAll(f1Src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f1Src, "a.sql"), []byte("select 1;"), 0o644))

	f2Src := filepath.Join(root, "f2-src")
	require.NoError(t, os.MkdirAll(f2Src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f2Src, "b.sql"), []byte("select 2;"), 0o644))

	outDir := filepath.Join(root, "out")

	project := &config.Project{Databases: []string{"app"}}
	user := &config.User{
		BackupDirectory: backupDir,
		BackupRegex:     `(?P<release>[^_]+)_(?P<dbName>[^.]+)\.bak`,
		Connection:      "test-connection",
	}
	releases := []config.ReleaseDoc{
		{Name: "R0"},
		{Name: "R1", Baseline: "R0", Features: []string{"f1"}},
		{Name: "R2", Baseline: "R1", Features: []string{"f2"}},
	}
	features := []config.FeatureDoc{
		{
			Name:          "f1",
			BaseDirectory: root,
			Recipe: []map[string]map[string]any{
				{"copy": {"from": "f1-src", "to": filepath.Join(outDir, "f1"), "regex": `\.sql$`}},
			},
		},
		{
			Name:          "f2",
			BaseDirectory: root,
			Recipe: []map[string]map[string]any{
				{"copy": {"from": "f2-src", "to": filepath.Join(outDir, "f2"), "regex": `\.sql$`}},
			},
		},
	}

	log, err := logx.New(false)
	require.NoError(t, err)
	restorer := &fakeRestorer{}

	d := New(Options{
		Project:        project,
		User:           user,
		Releases:       releases,
		Features:       features,
		ActiveRelease:  "R2",
		NoCache:        true,
		ResumeFilePath: filepath.Join(root, ".dbbm.resume"),
		Restorer:       restorer,
		Streamer:       fakeStreamer{},
		NoBeeps:        true,
		Log:            log,
	})

	require.NoError(t, d.Deploy())

	require.Len(t, restorer.restored, 1)
	require.Equal(t, "app@"+backupPath, restorer.restored[0])

	require.FileExists(t, filepath.Join(outDir, "f1", "a.sql"))
	require.FileExists(t, filepath.Join(outDir, "f2", "b.sql"))
	require.NoFileExists(t, filepath.Join(root, ".dbbm.resume"))
}

func TestDeployUnknownFeatureError(t *testing.T) {
	root := t.TempDir()
	backupDir := filepath.Join(root, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(backupDir, "R0_app.bak"), []byte("seed"), 0o644))

	project := &config.Project{Databases: []string{"app"}}
	user := &config.User{
		BackupDirectory: backupDir,
		BackupRegex:     `(?P<release>[^_]+)_(?P<dbName>[^.]+)\.bak`,
	}
	releases := []config.ReleaseDoc{
		{Name: "R0"},
		{Name: "R1", Baseline: "R0", Features: []string{"missing"}},
	}

	log, err := logx.New(false)
	require.NoError(t, err)

	d := New(Options{
		Project:       project,
		User:          user,
		Releases:      releases,
		ActiveRelease: "R1",
		NoCache:       true,
		Restorer:      &fakeRestorer{},
		NoBeeps:       true,
		Log:           log,
	})

	err = d.Deploy()
	require.Error(t, err)
}
