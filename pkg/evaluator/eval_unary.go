package evaluator

import (
	"context"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
)

// evalUnary dispatches the two unary operators: numeric negation and array
// construction ([a, b, c]).
//
func (ec *evalContext) evalUnary(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	switch node.UOp {
	case types.UnaryMinus:
		return ec.evalNegate(ctx, node, input, frame)
	case types.UnaryArrayConstructor:
		return ec.evalArrayConstructor(ctx, node, input, frame)
	default:
		return 0, types.NewError(types.ErrNotImplemented, "unsupported unary operator", node.Position)
	}
}

func (ec *evalContext) evalNegate(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	v, err := ec.eval(ctx, node.LHS, input, frame)
	if err != nil {
		return 0, err
	}
	if ec.p.IsUndefined(v) {
		return v, nil
	}
	if !ec.p.IsNumber(v) {
		return 0, types.NewError(types.ErrNegatingNonNumeric, "cannot negate a non-numeric value", node.Position)
	}
	return ec.p.Number(-ec.p.NumberValue(v)), nil
}

// evalArrayConstructor builds an array literal, carrying the Cons flag iff
// node.ConsArray. Each item is evaluated; an item that is
// itself a nested array-constructor literal (e.g. the inner `[1,2]` of
// `[[1,2]]`) is appended as a single element, preserving the nesting --
// anything else is routed through the host append operation's splicing
// (flattens one level of an array result, skips Undefined).
func (ec *evalContext) evalArrayConstructor(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	var flags pool.ArrayFlags
	if node.ConsArray {
		flags = pool.Cons
	}
	result := ec.p.ArrayWithCapacity(len(node.Items), flags)
	for _, item := range node.Items {
		v, err := ec.eval(ctx, item, input, frame)
		if err != nil {
			return 0, err
		}
		if ec.p.IsUndefined(v) {
			continue
		}
		if item.Kind == types.NodeUnary && item.UOp == types.UnaryArrayConstructor {
			ec.p.Push(result, v)
			continue
		}
		appendFlattened(ec.p, result, v)
	}
	return result, nil
}
