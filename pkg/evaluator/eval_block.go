package evaluator

import (
	"context"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
)

// evalBlock evaluates a parenthesized sequence of expressions in a fresh
// child frame. Each expression is evaluated against the previous
// expression's result (the first against the block's input), and the
// block's value is the value of its last expression.
//
func (ec *evalContext) evalBlock(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	if len(node.Items) == 0 {
		return ec.p.Undefined(), nil
	}

	child := frame.NewChild()

	cur := input
	for _, expr := range node.Items {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		r, err := ec.eval(ctx, expr, cur, child)
		if err != nil {
			return 0, err
		}
		cur = r
	}
	return cur, nil
}
