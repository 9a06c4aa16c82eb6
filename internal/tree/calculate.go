package tree

import (
	"github.com/aiedail92/DBBranchManager/internal/statehash"
	"github.com/aiedail92/DBBranchManager/internal/transform"
)

// CacheLookup is the subset of CacheManager the Calculate pass consults
// (spec §4.4 rule 1c). internal/cache.Manager implements it.
type CacheLookup interface {
	TryGet(dbName string, hash statehash.StateHash, updateHit bool) (path string, ok bool)
}

// CalculateContext carries everything Calculate needs beyond the tree and
// the threaded hash: the project's declared databases (in the fixed order
// spec §4.4 rule 1c folds them in), the cache to consult, the connection
// string and restorer a cache-substitution leaf is built with, and an
// optional resume point.
type CalculateContext struct {
	Cache        CacheLookup
	Databases    []string
	Connection   string
	Restorer     transform.DatabaseRestorer
	StartingHash *statehash.StateHash
}

// Result is calculate's per-node return value (spec §4.4: "(node_out?,
// hash_out, changed, cacheHash?)").
type Result struct {
	Node      *Node // nil when the node is elided (resume-jump or empty group)
	HashOut   statehash.StateHash
	Changed   bool
	CacheHash *statehash.StateHash
}

// Calculate runs the two-pass protocol's first pass over n, threading in as
// the inbound hash. It never mutates n; it returns a rewritten tree.
func Calculate(n *Node, in statehash.StateHash, cctx *CalculateContext) (Result, error) {
	if n.IsLeaf() {
		return calculateLeaf(n, in, cctx)
	}
	return calculateGroup(n, in, cctx)
}

func calculateLeaf(n *Node, in statehash.StateHash, cctx *CalculateContext) (Result, error) {
	h, err := n.Transform.CalculateTransform(in)
	if err != nil {
		return Result{}, err
	}

	if cctx.StartingHash != nil && h.Equal(*cctx.StartingHash) {
		// Resume point: drop this leaf (and, via the group rule, everything
		// accumulated before it) from the rewritten tree.
		return Result{Node: nil, HashOut: h, Changed: true, CacheHash: nil}, nil
	}

	if cctx.Cache != nil && len(cctx.Databases) > 0 {
		backups := make([]transform.DatabaseBackup, 0, len(cctx.Databases))
		complete := true
		for _, db := range cctx.Databases {
			path, ok := cctx.Cache.TryGet(db, h, false)
			if !ok {
				complete = false
				break
			}
			backups = append(backups, transform.DatabaseBackup{Name: db, BackupPath: path})
		}
		if complete {
			cacheHash := h
			replacement := Group("Restoring state from cache…", Leaf(&transform.RestoreDatabasesTransform{
				Connection: cctx.Connection,
				Databases:  backups,
				ResultHash: &cacheHash,
				Restorer:   cctx.Restorer,
			}))
			return Result{Node: replacement, HashOut: h, Changed: true, CacheHash: &cacheHash}, nil
		}
	}

	return Result{Node: n, HashOut: h, Changed: false}, nil
}

func calculateGroup(n *Node, in statehash.StateHash, cctx *CalculateContext) (Result, error) {
	hash := in
	changed := false
	var cacheHash *statehash.StateHash
	var accumulated []*Node

	for _, child := range n.Children {
		res, err := Calculate(child, hash, cctx)
		if err != nil {
			return Result{}, err
		}
		hash = res.HashOut

		if res.Changed {
			changed = true
			// The resume/cache step supersedes every leaf accumulated
			// before it in this group.
			accumulated = nil
		}
		if res.Node != nil {
			accumulated = append(accumulated, res.Node)
		}
		if res.CacheHash != nil {
			cacheHash = res.CacheHash
		}
	}

	if len(accumulated) == 0 {
		return Result{Node: nil, HashOut: hash, Changed: changed, CacheHash: cacheHash}, nil
	}
	return Result{Node: Group(n.Label, accumulated...), HashOut: hash, Changed: changed, CacheHash: cacheHash}, nil
}
