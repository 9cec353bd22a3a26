package tree

// Stats are derived from a full traversal and never stored.
type Stats struct {
	TotalNodes      int `json:"totalNodes"`
	ExpandedNodes   int `json:"expandedNodes"`
	UnexpandedNodes int `json:"unexpandedNodes"`
	MaxLevel        int `json:"maxLevel"`
}

func CountNodes(node *Node) int {
	if node == nil {
		return 0
	}
	count := 1
	for _, child := range node.Children {
		count += CountNodes(child)
	}
	return count
}

func ComputeStats(root *Node) Stats {
	var stats Stats
	Walk(root, func(n *Node) bool {
		stats.TotalNodes++
		if n.Expanded {
			stats.ExpandedNodes++
		}
		if n.Level > stats.MaxLevel {
			stats.MaxLevel = n.Level
		}
		return true
	})
	stats.UnexpandedNodes = stats.TotalNodes - stats.ExpandedNodes
	return stats
}
