package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aiedail92/DBBranchManager/internal/dbbmerr"
)

func writeJSON(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFindProjectFileWalksUpward(t *testing.T) {
	root := t.TempDir()
	writeJSON(t, root, "project.json", `{"databases":["app"],"releases":"releases.json","features":"features/*.json","tasks":"tasks/*.json"}`)
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindProjectFile(nested)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "project.json"), found)
}

func TestFindProjectFileMissingIsNoProject(t *testing.T) {
	root := t.TempDir()
	_, err := FindProjectFile(root)
	require.Error(t, err)
	var derr *dbbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbbmerr.KindNoProject, derr.Kind)
}

func TestLoadProject(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "project.json", `{
		"databases": ["app", "reporting"],
		"releases": "releases.json",
		"features": ["features/*.json"],
		"tasks": "tasks/*.json"
	}`)

	p, err := LoadProject(path)
	require.NoError(t, err)
	require.Equal(t, []string{"app", "reporting"}, p.Databases)
	require.Equal(t, "releases.json", p.Releases)
	require.Equal(t, Globs{"features/*.json"}, p.Features)
}

func TestLoadProjectInvalidIsConfigParse(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "project.json", `{"databases": "not-an-array"}`)

	_, err := LoadProject(path)
	require.Error(t, err)
	var derr *dbbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbbmerr.KindConfigParse, derr.Kind)
}

func TestLoadUser(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "user.json", `{
		"backupDirectory": "/var/backups",
		"backupRegex": "(?P<release>.+)_(?P<dbName>.+)\\.bak",
		"connection": "sqlserver://localhost",
		"rootPath": "/srv/dbbm",
		"maxCacheSize": 1073741824,
		"autoGC": true,
		"minDeployTime": 5000
	}`)

	u, err := LoadUser(path)
	require.NoError(t, err)
	require.Equal(t, "/var/backups", u.BackupDirectory)
	require.True(t, u.AutoGC)
	require.Equal(t, int64(5000), u.MinDeployTimeMS)
}

func TestLoadReleases(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "releases.json", `[
		{"name": "2024.1", "features": ["base"]},
		{"name": "2024.2", "baseline": "2024.1", "features": ["base", "reporting"]}
	]`)

	releases, err := LoadReleases(path)
	require.NoError(t, err)
	require.Len(t, releases, 2)
	require.Equal(t, "2024.1", releases[1].Baseline)
}

func TestLoadFeaturesResolvesGlob(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "features/base.json", `{"name": "base", "recipe": [{"copy": {"from": "seed", "to": "out"}}]}`)
	writeJSON(t, dir, "features/reporting.json", `{"name": "reporting", "recipe": [{"sql": {"path": "reports"}}]}`)
	project := &Project{Features: Globs{"features/*.json"}}

	docs, err := LoadFeatures(project, dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "base", docs[0].Name)
	require.Equal(t, "reporting", docs[1].Name)
}

func TestLoadTasksResolvesGlob(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "tasks/build.json", `{"name": "build", "commands": {"run": []}}`)
	project := &Project{Tasks: Globs{"tasks/*.json"}}

	docs, err := LoadTasks(project, dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "build", docs[0].Name)
}
