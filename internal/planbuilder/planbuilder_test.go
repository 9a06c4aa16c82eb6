package planbuilder

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/aiedail92/DBBranchManager/internal/dbbmerr"
	"github.com/aiedail92/DBBranchManager/internal/transform"
)

var backupRegex = regexp.MustCompile(`^(?P<dbName>\w+)\.(?P<release>\w+)(?:\.(?P<env>\w+))?\.bak$`)

func writeBackup(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestBuildFindsCompleteBackupAtActiveRelease(t *testing.T) {
	dir := t.TempDir()
	writeBackup(t, dir, "db1.R0.dev.bak")
	writeBackup(t, dir, "db2.R0.dev.bak")

	idx, err := IndexBackups(dir, backupRegex)
	require.NoError(t, err)

	releases := NewReleaseSet([]Release{
		{Name: "R0"},
		{Name: "R1", Baseline: "R0", Features: []string{"f1"}},
		{Name: "R2", Baseline: "R1", Features: []string{"f2"}},
	})

	b := &PlanBuilder{Releases: releases, Backups: idx, Databases: []string{"db1", "db2"}, PreferredEnv: "dev"}
	plan, err := b.Build("R2")
	require.NoError(t, err)
	require.Len(t, plan.Databases, 2)
	require.Len(t, plan.Releases, 2)
	require.Equal(t, "R1", plan.Releases[0].Name)
	require.Equal(t, "R2", plan.Releases[1].Name)
}

// TestBuildProducesExpectedPlanStructure diffs the whole resulting
// ActionPlan against a hand-built expected value, catching any field the
// per-assertion tests above don't individually check (backup path wiring,
// release ordering and contents together).
func TestBuildProducesExpectedPlanStructure(t *testing.T) {
	dir := t.TempDir()
	writeBackup(t, dir, "db1.R0.dev.bak")
	writeBackup(t, dir, "db2.R0.dev.bak")

	idx, err := IndexBackups(dir, backupRegex)
	require.NoError(t, err)

	releases := NewReleaseSet([]Release{
		{Name: "R0"},
		{Name: "R1", Baseline: "R0", Features: []string{"f1"}},
		{Name: "R2", Baseline: "R1", Features: []string{"f2"}},
	})

	b := &PlanBuilder{Releases: releases, Backups: idx, Databases: []string{"db1", "db2"}, PreferredEnv: "dev"}
	plan, err := b.Build("R2")
	require.NoError(t, err)

	want := &ActionPlan{
		Databases: []transform.DatabaseBackup{
			{Name: "db1", BackupPath: filepath.Join(dir, "db1.R0.dev.bak")},
			{Name: "db2", BackupPath: filepath.Join(dir, "db2.R0.dev.bak")},
		},
		Releases: []Release{
			{Name: "R1", Baseline: "R0", Features: []string{"f1"}},
			{Name: "R2", Baseline: "R1", Features: []string{"f2"}},
		},
	}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Fatalf("ActionPlan mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWalksToBaselineWhenActiveHasNoBackups(t *testing.T) {
	dir := t.TempDir()
	writeBackup(t, dir, "db1.R0.dev.bak")
	writeBackup(t, dir, "db2.R0.dev.bak")

	idx, err := IndexBackups(dir, backupRegex)
	require.NoError(t, err)

	releases := NewReleaseSet([]Release{
		{Name: "R0"},
		{Name: "R1", Baseline: "R0", Features: []string{"f1"}},
	})

	b := &PlanBuilder{Releases: releases, Backups: idx, Databases: []string{"db1", "db2"}, PreferredEnv: "dev"}
	plan, err := b.Build("R1")
	require.NoError(t, err)
	require.Len(t, plan.Releases, 1)
	require.Equal(t, "R1", plan.Releases[0].Name)
}

func TestBuildEnvAgnosticBackupMatchesAnyEnv(t *testing.T) {
	dir := t.TempDir()
	writeBackup(t, dir, "db1.R0.bak") // no env group captured
	writeBackup(t, dir, "db2.R0.bak")

	idx, err := IndexBackups(dir, backupRegex)
	require.NoError(t, err)

	releases := NewReleaseSet([]Release{{Name: "R0"}})
	b := &PlanBuilder{Releases: releases, Backups: idx, Databases: []string{"db1", "db2"}, PreferredEnv: "prod"}
	plan, err := b.Build("R0")
	require.NoError(t, err)
	require.Len(t, plan.Databases, 2)
}

func TestBuildNoBaselineFails(t *testing.T) {
	dir := t.TempDir()
	idx, err := IndexBackups(dir, backupRegex)
	require.NoError(t, err)

	releases := NewReleaseSet([]Release{{Name: "R0"}})
	b := &PlanBuilder{Releases: releases, Backups: idx, Databases: []string{"db1"}, PreferredEnv: "dev"}
	_, err = b.Build("R0")
	require.Error(t, err)
}

func TestBuildUnknownReleaseSuggestsClosest(t *testing.T) {
	dir := t.TempDir()
	idx, err := IndexBackups(dir, backupRegex)
	require.NoError(t, err)

	releases := NewReleaseSet([]Release{{Name: "release-one"}})
	b := &PlanBuilder{Releases: releases, Backups: idx, Databases: []string{"db1"}, PreferredEnv: "dev"}
	_, err = b.Build("release-on")
	require.Error(t, err)
	var derr *dbbmerr.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, dbbmerr.KindUnknownRelease, derr.Kind)
	require.Contains(t, derr.Suggestion, "release-one")
}
