// Package transform implements IStateTransform (spec §4.3): the leaf
// contract every ExecutionNode transform node satisfies, plus the two
// concrete transforms the core requires (CopyTransform, SqlTransform) and
// the baseline/cache restore transform (RestoreDatabasesTransform).
//
// Grounded on core/plan/dsl.go / core/transform/transform.go's "pure
// calculate, side-effecting run, same resulting hash" shape.
package transform

import (
	"github.com/aiedail92/DBBranchManager/internal/logx"
	"github.com/aiedail92/DBBranchManager/internal/statehash"
)

// Transform is a leaf operation that deterministically maps an input
// StateHash to an output StateHash and, in RunTransform, performs the
// matching side effects. CalculateTransform(h) must equal
// RunTransform(h, dryRun=true, discardingLog) for every Transform
// implementation (spec §4.3 invariant).
type Transform interface {
	// CalculateTransform is pure: no side effects, no I/O beyond reading
	// whatever input files are needed to compute the fingerprint.
	CalculateTransform(in statehash.StateHash) (statehash.StateHash, error)

	// GetRequirements reports preconditions (existing paths, reachable
	// servers) into sink. Called during the requirements pass, strictly
	// before any RunTransform in the same deployment.
	GetRequirements(sink *RequirementSink)

	// RunTransform performs the side effects (when dryRun is false) and
	// returns the same hash CalculateTransform(in) would. In dryRun mode it
	// only logs the intended effects through log.
	RunTransform(in statehash.StateHash, dryRun bool, log *logx.Logger) (statehash.StateHash, error)
}
