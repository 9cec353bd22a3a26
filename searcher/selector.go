package searcher

import (
	"cmp"
	"slices"

	"triz/tree"
)

type candidate struct {
	node  *tree.Node
	visit int // Pre-order rank among qualifying nodes
}

// FindExpandable returns every unexpanded node above maxDepth, deepest first.
// Nodes on the same level keep their left-to-right reading order, so expansion
// keeps drilling along the current branch before backfilling shallower ones.
func FindExpandable(root *tree.Node, maxDepth int) []*tree.Node {
	var candidates []candidate
	tree.Walk(root, func(n *tree.Node) bool {
		// Keep descending below expanded nodes
		if !n.Expanded && n.Level < maxDepth {
			candidates = append(candidates, candidate{node: n, visit: len(candidates)})
		}
		return true
	})

	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := cmp.Compare(b.node.Level, a.node.Level); c != 0 {
			return c
		}
		return cmp.Compare(a.visit, b.visit)
	})

	nodes := make([]*tree.Node, len(candidates))
	for i, c := range candidates {
		nodes[i] = c.node
	}
	return nodes
}
