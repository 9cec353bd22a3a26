package tree

// RootID is the id of every freshly created root node.
const RootID = "root"

// DefaultPrompt is the problem statement used when no root prompt is configured.
const DefaultPrompt = "How to design an efficient mechanical system"

// Node is one problem statement in the expansion tree.
// A published Node is never modified; updates build new nodes and share
// untouched subtrees by pointer.
type Node struct {
	ID       string  `json:"id" yaml:"id"`
	Prompt   string  `json:"prompt" yaml:"prompt"`
	Level    int     `json:"level" yaml:"level"`
	Score    float64 `json:"score" yaml:"score"`
	Expanded bool    `json:"isExpanded" yaml:"expanded"`
	Children []*Node `json:"children" yaml:"children,omitempty"`
	ParentID string  `json:"parentId,omitempty" yaml:"parentId,omitempty"`
}

// NewRoot returns a single unexpanded root node at level 0.
func NewRoot(prompt string) *Node {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &Node{
		ID:       RootID,
		Prompt:   prompt,
		Level:    0,
		Score:    0,
		Expanded: false,
		Children: []*Node{},
	}
}

// Walk visits nodes in pre-order, children left to right.
// It stops as soon as fn returns false and reports whether the walk finished.
func Walk(node *Node, fn func(*Node) bool) bool {
	if node == nil {
		return true
	}
	if !fn(node) {
		return false
	}
	for _, child := range node.Children {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}

// Find returns the node with the given id, or nil.
func Find(root *Node, id string) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}
