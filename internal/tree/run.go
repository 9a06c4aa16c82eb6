package tree

import (
	"fmt"
	"time"

	"github.com/aiedail92/DBBranchManager/internal/logx"
	"github.com/aiedail92/DBBranchManager/internal/statehash"
)

// CacheAdder is the subset of CacheManager the Run pass writes through
// (spec §4.4 rule 2 / §4.6 add). internal/cache.Manager implements it.
type CacheAdder interface {
	Add(connection, dbName string, hash statehash.StateHash) error
}

// ResumeWriter persists the last-successful hash after every leaf (spec §4.4
// rule 2). internal/resume implements it.
type ResumeWriter interface {
	Save(hash statehash.StateHash) error
}

// RunContext carries everything the Run pass needs beyond the tree and the
// threaded hash.
type RunContext struct {
	Cache         CacheAdder
	Databases     []string
	Connection    string
	Resume        ResumeWriter
	DryRun        bool
	MinDeployTime time.Duration
	Log           *logx.Logger
}

// Run executes the two-pass protocol's second pass over n, threading in as
// the inbound hash. Call with first=true, last=true at the root (spec §4.4
// "Run pass").
func Run(n *Node, in statehash.StateHash, rctx *RunContext, first, last bool) (statehash.StateHash, error) {
	if n.IsLeaf() {
		return runLeaf(n, in, rctx, first, last)
	}
	return runGroup(n, in, rctx, first, last)
}

func runGroup(n *Node, in statehash.StateHash, rctx *RunContext, first, last bool) (statehash.StateHash, error) {
	rctx.Log.Log(n.Label)

	childRctx := *rctx
	childRctx.Log = rctx.Log.Indent()

	hash := in
	lastIndex := len(n.Children) - 1
	for i, child := range n.Children {
		childFirst := first && i == 0
		childLast := last && i == lastIndex
		out, err := Run(child, hash, &childRctx, childFirst, childLast)
		if err != nil {
			return statehash.StateHash{}, err
		}
		hash = out
	}

	rctx.Log.Log(fmt.Sprintf("done: %s", n.Label))
	return hash, nil
}

func runLeaf(n *Node, in statehash.StateHash, rctx *RunContext, first, last bool) (statehash.StateHash, error) {
	start := time.Now()
	out, err := n.Transform.RunTransform(in, rctx.DryRun, rctx.Log)
	if err != nil {
		return statehash.StateHash{}, err
	}
	elapsed := time.Since(start)

	if rctx.DryRun {
		return out, nil
	}

	if rctx.Resume != nil {
		if err := rctx.Resume.Save(out); err != nil {
			return statehash.StateHash{}, fmt.Errorf("run: saving resume point: %w", err)
		}
	}

	if !first && !last && elapsed >= rctx.MinDeployTime && rctx.Cache != nil {
		for _, db := range rctx.Databases {
			if err := rctx.Cache.Add(rctx.Connection, db, out); err != nil {
				rctx.Log.Warn(fmt.Sprintf("cache: failed to add %s at %s: %v", db, out, err))
			}
		}
	}

	return out, nil
}
