package evaluator

import (
	"context"
	"math"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
)

// evalFilterNode evaluates a NodeFilter: e[pred] first evaluates the base
// expression e against input, then applies the predicate to the base's
// result.
func (ec *evalContext) evalFilterNode(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	base, err := ec.eval(ctx, node.LHS, input, frame)
	if err != nil {
		return 0, err
	}
	return ec.evalFilter(ctx, node.RHS, base, frame)
}

// evalFilter implements evaluate_filter(node, input, frame): input is
// wrapped into an array if not already; a bare numeric-literal predicate
// resolves a single index (negative-from-end); otherwise every item is
// tested, either via a numeric-index result (array of indices included) or
// via host boolean coercion of a non-numeric result.
//
// Used both for NodeFilter's predicate and for a step's per-member stages
// and a node's attached predicates.
func (ec *evalContext) evalFilter(ctx context.Context, inner *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	p := ec.p
	if inner == nil {
		// A nil predicate selects all items.
		return input, nil
	}
	items := p.WrapInArrayIfNeeded(input, pool.Wrapped)
	members := p.Members(items)

	if inner.Kind == types.NodeNumber {
		idx := resolveIndex(inner.Number, len(members))
		if idx < 0 || idx >= len(members) {
			return p.Undefined(), nil
		}
		item := members[idx]
		if p.IsArray(item) {
			// Replace the result with the array itself -- no re-wrapping in
			// an outer SEQUENCE.
			return item, nil
		}
		result := p.Array(pool.Sequence)
		p.Push(result, item)
		return result, nil
	}

	result := p.Array(pool.Sequence)
	for i, item := range members {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		v, err := ec.eval(ctx, inner, item, frame)
		if err != nil {
			return 0, err
		}

		if p.IsNumber(v) && !math.IsNaN(p.NumberValue(v)) {
			v = p.WrapInArray(v, pool.Sequence)
		}

		if p.IsArray(v) && allFiniteNumbers(p, v) {
			for _, idxVal := range p.Members(v) {
				idx := resolveIndex(p.NumberValue(idxVal), len(members))
				if idx == i {
					p.Push(result, item)
					break
				}
			}
			continue
		}

		if ec.truthy(v) {
			p.Push(result, item)
		}
	}
	return result, nil
}

// resolveIndex applies the negative-from-end indexing rule: floor(n), then
// add length if negative.
func resolveIndex(n float64, length int) int {
	idx := int(math.Floor(n))
	if idx < 0 {
		idx += length
	}
	return idx
}

func allFiniteNumbers(p *pool.Pool, arr pool.Handle) bool {
	for _, m := range p.Members(arr) {
		if !p.IsNumber(m) || math.IsNaN(p.NumberValue(m)) {
			return false
		}
	}
	return true
}
