package evaluator

import (
	"context"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
)

// evalTernary evaluates cond ? truthy : falsy. Only one branch is
// evaluated. A false condition with no falsy branch yields Undefined.
func (ec *evalContext) evalTernary(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	cond, err := ec.eval(ctx, node.Cond, input, frame)
	if err != nil {
		return 0, err
	}
	if ec.truthy(cond) {
		return ec.eval(ctx, node.Truthy, input, frame)
	}
	if node.Falsy == nil {
		return ec.p.Undefined(), nil
	}
	return ec.eval(ctx, node.Falsy, input, frame)
}

// truthy coerces h via the host boolean function.
func (ec *evalContext) truthy(h pool.Handle) bool {
	v, err := hostBoolean(context.Background(), ec.p, []pool.Handle{h})
	if err != nil {
		return false
	}
	return ec.p.BoolValue(v)
}
