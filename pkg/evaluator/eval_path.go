package evaluator

import (
	"context"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
)

// evalPath evaluates a step-by-step path expression. A bare
// object constructor ({k: v, ...} with no navigation in front of it) is
// represented as a NodePath with zero Steps and a non-nil GroupBy: the step
// loop below is then a no-op and evalGroup runs directly against input,
// which is exactly how an object constructor delegates to group evaluation.
//
// This evaluator supports name, binary/unary/function and filter steps;
// wildcard/descendant/parent steps are rejected when each step is
// dispatched, by eval_dispatch.go's top-level switch.
func (ec *evalContext) evalPath(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	p := ec.p

	cur := input
	if !p.IsArray(cur) || (len(node.Steps) > 0 && node.Steps[0].Kind == types.NodeVar) {
		cur = p.WrapInArray(cur, pool.Wrapped)
	}

	var result pool.Handle = cur
	for i, step := range node.Steps {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		last := i == len(node.Steps)-1

		if i == 0 && step.ConsArray {
			r, err := ec.eval(ctx, step, input, frame)
			if err != nil {
				return 0, err
			}
			result = r
		} else {
			r, err := ec.evalStep(ctx, step, result, frame, last)
			if err != nil {
				return 0, err
			}
			result = r
		}

		if p.IsUndefined(result) || (p.IsArray(result) && p.IsEmpty(result)) {
			break
		}
	}

	if node.KeepSingletonArray {
		if !p.IsArray(result) {
			result = p.WrapInArray(result, pool.Sequence|pool.Singleton)
		} else if p.HasFlags(result, pool.Cons) && !p.HasFlags(result, pool.Sequence) {
			wrapped := p.ArrayWithCapacity(1, pool.Sequence|pool.Singleton)
			p.Push(wrapped, result)
			result = wrapped
		} else {
			p.AddFlags(result, pool.Singleton)
		}
	}

	if node.GroupBy != nil {
		return ec.evalGroup(ctx, node.GroupBy, result, frame)
	}

	return result, nil
}

// evalStep evaluates one path step against every member of input: the
// step's own primary result, then its stages (per-member post-step
// filters), collected into a fresh SEQUENCE and then flattened one level
// (unless this is the last step and the sequence degenerates to a single
// bare, non-SEQUENCE array).
func (ec *evalContext) evalStep(ctx context.Context, step *types.Node, input pool.Handle, frame *Frame, last bool) (pool.Handle, error) {
	p := ec.p

	if step.Kind == types.NodeSort {
		return 0, types.NewError(types.ErrNotImplemented, "sort expressions are not implemented", step.Position)
	}

	seq := p.Array(pool.Sequence)
	members := stepInputMembers(p, input)
	for _, member := range members {
		v, err := ec.eval(ctx, step, member, frame)
		if err != nil {
			return 0, err
		}
		for _, stage := range step.Stages {
			v, err = ec.evalFilter(ctx, stage, v, frame)
			if err != nil {
				return 0, err
			}
		}
		if !p.IsUndefined(v) {
			p.Push(seq, v)
		}
	}

	if last && p.Len(seq) == 1 {
		only := p.Members(seq)[0]
		if p.IsArray(only) && !p.HasFlags(only, pool.Sequence) {
			return only, nil
		}
	}

	flattened := p.Array(pool.Sequence)
	for _, v := range p.Members(seq) {
		if p.IsArray(v) && !p.HasFlags(v, pool.Cons) {
			for _, m := range p.Members(v) {
				p.Push(flattened, m)
			}
			continue
		}
		p.Push(flattened, v)
	}
	return flattened, nil
}

// stepInputMembers returns the members to iterate a step over: an array's
// members, or the single value itself for a non-array input.
func stepInputMembers(p *pool.Pool, input pool.Handle) []pool.Handle {
	if p.IsArray(input) {
		return p.Members(input)
	}
	return []pool.Handle{input}
}

// collapseSequence applies post-dispatch sequence
// collapsing rule to a handle that may carry SEQUENCE. eval calls it on
// every node's result, so SEQUENCE arrays built by evalStep, evalFilter or
// evalRange are finished here rather than by their builders.
func collapseSequence(p *pool.Pool, h pool.Handle, keepArray bool) pool.Handle {
	if !p.IsArray(h) || !p.HasFlags(h, pool.Sequence) {
		return h
	}
	if keepArray {
		p.AddFlags(h, pool.Singleton)
	}
	switch p.Len(h) {
	case 0:
		return p.Undefined()
	case 1:
		if p.HasFlags(h, pool.Singleton) {
			return h
		}
		return p.Members(h)[0]
	default:
		return h
	}
}
