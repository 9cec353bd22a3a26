package oracle

import (
	"context"

	"triz/tree"
)

// Oracle turns one node into its children.
// Returned children must have Level = node.Level+1, ParentID = node.ID,
// Expanded = false, no children of their own and an id that is unique
// across the whole tree.
type Oracle interface {
	Expand(ctx context.Context, node *tree.Node) ([]*tree.Node, error)
}

// Func adapts a plain function to the Oracle interface.
type Func func(ctx context.Context, node *tree.Node) ([]*tree.Node, error)

func (f Func) Expand(ctx context.Context, node *tree.Node) ([]*tree.Node, error) {
	return f(ctx, node)
}
