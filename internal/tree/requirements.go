package tree

import "github.com/aiedail92/DBBranchManager/internal/transform"

// CheckRequirements walks n depth-first, asking every leaf transform to
// report its preconditions into sink (spec §4.4 "Requirements pass").
func CheckRequirements(n *Node, sink *transform.RequirementSink) {
	if n.IsLeaf() {
		n.Transform.GetRequirements(sink)
		return
	}
	for _, child := range n.Children {
		CheckRequirements(child, sink)
	}
}
