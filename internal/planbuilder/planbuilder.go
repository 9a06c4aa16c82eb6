// Package planbuilder resolves the baseline backups and release stack a
// deployment will run (spec §4.5 PlanBuilder), walking the release DAG
// backwards from the active release until it finds one with a complete set
// of backups on disk.
//
// Grounded on runtime/planner/planner.go's overall "resolve target, walk
// structure, build result, typed PlanError with Suggestion on failure"
// shape; findClosestMatch/fuzzy is reused via internal/suggest.
package planbuilder

import (
	"github.com/aiedail92/DBBranchManager/internal/dbbmerr"
	"github.com/aiedail92/DBBranchManager/internal/invariant"
	"github.com/aiedail92/DBBranchManager/internal/suggest"
	"github.com/aiedail92/DBBranchManager/internal/transform"
)

// ActionPlan is PlanBuilder's result (spec §4.5): the baseline backups to
// restore, and the stack of releases to apply afterward in push order
// reversed (baseline-adjacent first, active release last).
type ActionPlan struct {
	Databases []transform.DatabaseBackup
	Releases  []Release
}

// PlanBuilder resolves an ActionPlan for an active release.
type PlanBuilder struct {
	Releases     *ReleaseSet
	Backups      *BackupIndex
	Databases    []string // project-declared database names, in order
	PreferredEnv string
}

// Build walks the baseline DAG backwards from activeRelease (spec §4.5
// steps 1-2).
func (b *PlanBuilder) Build(activeRelease string) (*ActionPlan, error) {
	var stack []Release
	head := activeRelease
	visited := map[string]bool{}

	for {
		invariant.Invariant(!visited[head],
			"planbuilder: cyclic baseline chain revisits release %q", head)
		visited[head] = true

		release, ok := b.Releases.Lookup(head)
		if !ok {
			err := dbbmerr.New(dbbmerr.KindUnknownRelease, "release not found: "+head).
				WithContext("resolving baseline for active release " + activeRelease)
			if hint := suggest.Hint("release", head, b.Releases.Names()); hint != "" {
				err = err.WithSuggestion(hint)
			}
			return nil, err
		}

		// head itself is never pushed onto the stack when it supplies the
		// restored backups: its state is restored directly, not re-derived
		// by re-running its features.
		if paths, ok := b.Backups.complete(head, b.PreferredEnv, b.Databases); ok {
			return b.finish(stack, paths), nil
		}
		for _, env := range b.Backups.discoveryEnvs(head) {
			if env == b.PreferredEnv {
				continue // already tried above
			}
			if paths, ok := b.Backups.complete(head, env, b.Databases); ok {
				return b.finish(stack, paths), nil
			}
		}

		if release.Baseline == "" {
			return nil, dbbmerr.New(dbbmerr.KindNoBaseline,
				"no baseline backups found walking the release DAG from "+activeRelease).
				WithContext("stopped at release " + head)
		}

		stack = append(stack, release)
		head = release.Baseline
	}
}

func (b *PlanBuilder) finish(stack []Release, backupPaths []string) *ActionPlan {
	databases := make([]transform.DatabaseBackup, len(b.Databases))
	for i, db := range b.Databases {
		databases[i] = transform.DatabaseBackup{Name: db, BackupPath: backupPaths[i]}
	}

	// stack was pushed baseline-ward (most recent push = closest to the
	// backup we found); releases apply in the reverse order: oldest
	// (closest to the baseline) first, active release last.
	releases := make([]Release, len(stack))
	for i, r := range stack {
		releases[len(stack)-1-i] = r
	}

	return &ActionPlan{Databases: databases, Releases: releases}
}
