// Package tree implements ExecutionNode (spec §4.4): a rooted tree of group
// and leaf nodes, planned once by PlanBuilder and then put through the
// Calculate/Requirements/Run passes described there.
//
// Grounded on runtime/executor/tree_runner.go's recursive switch-on-node-type
// traversal (here a two-field struct plays the role of that sum type, since
// a leaf's only payload is a single transform.Transform) and on
// core/plan/types.go's ExecutionStep/Children tree, whose GraphHash first
// suggested "hash the tree deterministically" as a first-class idea — lifted
// here from a debug fingerprint into the cache key itself.
package tree

import (
	"github.com/aiedail92/DBBranchManager/internal/invariant"
	"github.com/aiedail92/DBBranchManager/internal/transform"
)

// Node is either a group (Transform == nil, zero or more Children) or a leaf
// (Transform != nil, no Children) — never both, per spec §4 invariants.
type Node struct {
	Label     string
	Children  []*Node
	Transform transform.Transform
}

// Group builds an interior node. label is the line logged before/after its
// children run (spec §4.4 Run pass rule 1).
func Group(label string, children ...*Node) *Node {
	return &Node{Label: label, Children: children}
}

// Leaf builds a transform node.
func Leaf(t transform.Transform) *Node {
	return &Node{Transform: t}
}

// IsLeaf reports whether n is a transform node. Every Calculate/Run
// traversal step calls this, so it doubles as the enforcement point for the
// "group or transform, never both" invariant.
func (n *Node) IsLeaf() bool {
	leaf := n.Transform != nil
	invariant.Invariant(!leaf || len(n.Children) == 0,
		"tree: node %q has both a Transform and Children", n.Label)
	return leaf
}
