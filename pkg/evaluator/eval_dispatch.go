package evaluator

import (
	"context"
	"log/slog"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
)

// evalContext carries the state shared across one Evaluate call's recursive
// descent: the pool, logging options and the live recursion-depth counter.
// The host function registry is not carried here -- Evaluate binds its
// functions into the root Frame once, up front, so name resolution for a
// registry function is ordinary Frame lookup like any other binding. The
// lexical Frame itself is threaded explicitly through eval's parameter
// rather than stored here, since it changes at every block/lambda/path-step
// boundary while the rest stays fixed.
//
// The recursion counter is a plain struct field here; the context.Context
// that carries cancellation is passed as a parameter alongside this struct.
type evalContext struct {
	p        *pool.Pool
	logger   *slog.Logger
	debug    bool
	maxDepth int
	depth    int
}

// eval dispatches node for evaluation against input in frame, enforcing
// cancellation and the recursion-depth guard on every call, then applies
// the node's attached predicates and sequence post-processing: predicates
// run in order against the primary result, then a SEQUENCE-flagged result
// is collapsed per node.KeepArray.
func (ec *evalContext) eval(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	if node == nil {
		return ec.p.Undefined(), nil
	}

	result, err := ec.dispatch(ctx, node, input, frame)
	if err != nil {
		return 0, err
	}

	for _, pred := range node.Predicates {
		result, err = ec.evalFilter(ctx, pred, result, frame)
		if err != nil {
			return 0, err
		}
	}

	return collapseSequence(ec.p, result, node.KeepArray), nil
}

// dispatch performs primary node-kind evaluation, before predicates and
// sequence post-processing are applied by eval.
func (ec *evalContext) dispatch(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	if ec.maxDepth > 0 {
		ec.depth++
		if ec.depth > ec.maxDepth {
			ec.depth--
			return 0, types.NewError(types.ErrRecursionTooDeep, "maximum recursion depth exceeded", node.Position)
		}
		defer func() { ec.depth-- }()
	}

	if ec.debug {
		ec.logger.Debug("evaluating node", "kind", node.Kind, "position", node.Position, "depth", ec.depth)
	}

	switch node.Kind {
	case types.NodeNull:
		return ec.p.Null(), nil
	case types.NodeBool:
		return ec.p.Bool(node.Bool), nil
	case types.NodeNumber:
		return ec.p.Number(node.Number), nil
	case types.NodeString:
		return ec.p.String(node.Str), nil
	case types.NodeVar:
		return ec.evalVar(node, input, frame)
	case types.NodeName:
		return ec.evalName(node, input)
	case types.NodeBlock:
		return ec.evalBlock(ctx, node, input, frame)
	case types.NodeUnary:
		return ec.evalUnary(ctx, node, input, frame)
	case types.NodeBinary:
		return ec.evalBinary(ctx, node, input, frame)
	case types.NodeTernary:
		return ec.evalTernary(ctx, node, input, frame)
	case types.NodePath:
		return ec.evalPath(ctx, node, input, frame)
	case types.NodeFilter:
		return ec.evalFilterNode(ctx, node, input, frame)
	case types.NodeLambda:
		return ec.evalLambda(node, input, frame)
	case types.NodeFunction:
		return ec.evalFunction(ctx, node, input, frame)
	case types.NodeSort:
		return 0, types.NewError(types.ErrNotImplemented, "sort expressions are not implemented", node.Position)
	case types.NodeWildcard, types.NodeDescendant, types.NodeParent:
		return 0, types.NewError(types.ErrNotImplemented, "wildcard, descendant and parent navigation are not implemented", node.Position)
	default:
		return 0, types.NewError(types.ErrNotImplemented, "unrecognized node kind", node.Position)
	}
}

// evalVar resolves a $-prefixed variable reference. $ (empty name) yields
// the current input directly, unwrapping one WRAPPED layer if input happens
// to still be the synthetic one-element array evalPath wraps non-arrays in
// for iteration uniformity; all other names
// resolve through the lexical frame chain, defaulting to Undefined when
// unbound.
func (ec *evalContext) evalVar(node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	if node.Str == "" {
		p := ec.p
		if p.IsArray(input) && p.HasFlags(input, pool.Wrapped) && p.Len(input) == 1 {
			return p.Members(input)[0], nil
		}
		return input, nil
	}
	if v, ok := frame.Lookup(node.Str); ok {
		return v, nil
	}
	return ec.p.Undefined(), nil
}

// evalName resolves a bare field name against input via the lookup host
// function.
func (ec *evalContext) evalName(node *types.Node, input pool.Handle) (pool.Handle, error) {
	return hostLookupValue(ec.p, input, node.Str)
}

// hostLookupValue is the convenience wrapper evalName uses to call
// hostLookup with a Go string key; hostLookup itself never actually errors
// (bad key types yield Undefined), so the returned error is always nil.
func hostLookupValue(p *pool.Pool, target pool.Handle, key string) (pool.Handle, error) {
	v, err := hostLookup(context.Background(), p, []pool.Handle{target, p.String(key)})
	return v, err
}
