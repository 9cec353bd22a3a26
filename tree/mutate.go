package tree

// ApplyChildren returns a new tree in which the node with parentID is marked
// expanded and has newChildren appended to its existing children.
// Only the path from root to that node is copied. If no node has parentID the
// input root is returned unchanged.
func ApplyChildren(root *Node, parentID string, newChildren []*Node) *Node {
	updated, _ := ApplyChildrenFound(root, parentID, newChildren)
	return updated
}

// ApplyChildrenFound is ApplyChildren that also reports whether parentID matched.
func ApplyChildrenFound(root *Node, parentID string, newChildren []*Node) (*Node, bool) {
	if root == nil {
		return nil, false
	}

	if root.ID == parentID {
		children := make([]*Node, 0, len(root.Children)+len(newChildren))
		children = append(children, root.Children...)
		children = append(children, newChildren...)

		updated := *root
		updated.Expanded = true
		updated.Children = children
		return &updated, true
	}

	for i, child := range root.Children {
		newChild, found := ApplyChildrenFound(child, parentID, newChildren)
		if !found {
			continue
		}
		// Ids are unique, so the first match is the only one on this level
		children := make([]*Node, len(root.Children))
		copy(children, root.Children)
		children[i] = newChild

		updated := *root
		updated.Children = children
		return &updated, true
	}

	return root, false
}
