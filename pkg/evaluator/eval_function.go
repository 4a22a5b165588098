package evaluator

import (
	"context"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
)

// evalLambda allocates a lambda value referencing node, closing over frame
// by reference: later lookups from the call frame walk up
// through this captured frame, so bindings made after the lambda is
// created but before it is called are still visible if they land on an
// ancestor frame reachable from here. input is captured too -- the body
// evaluates against the value in scope where the lambda literal itself
// appeared, not against whatever a future call passes as its first
// argument (see callLambda).
func (ec *evalContext) evalLambda(node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	return ec.p.Lambda(node.LambdaName, node, frame, input), nil
}

// evalFunction evaluates a Function{proc, args} call node:
// resolve proc to a callable, evaluate arguments left-to-right, then apply.
func (ec *evalContext) evalFunction(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	p := ec.p

	proc, err := ec.eval(ctx, node.Proc, input, frame)
	if err != nil {
		return 0, err
	}

	if p.IsUndefined(proc) {
		return 0, ec.notAFunctionError(node, frame)
	}
	if !p.IsCallable(proc) {
		return 0, types.NewError(types.ErrInvokedNonFunction, "the expression being invoked is not a function", node.Position)
	}

	args := acquireArgs(len(node.Arguments))
	defer func() { releaseArgs(args) }()
	for _, argNode := range node.Arguments {
		v, err := ec.eval(ctx, argNode, input, frame)
		if err != nil {
			return 0, err
		}
		args = append(args, v)
	}

	return ec.apply(ctx, proc, args, input, node.Position)
}

// notAFunctionError distinguishes the two ways proc can fail to resolve to
// a callable: if proc is a bare-name path whose
// first step names an existing variable, the user likely forgot the `$`
// sigil.
func (ec *evalContext) notAFunctionError(node *types.Node, frame *Frame) error {
	if name, ok := firstPathName(node.Proc); ok {
		if _, bound := frame.Lookup(name); bound {
			return types.NewError(types.ErrInvokedNonFunctionSuggest, "the expression being invoked is not a function, did you mean '$"+name+"'?", node.Position)
		}
	}
	return types.NewError(types.ErrInvokedNonFunction, "the expression being invoked is not a function", node.Position)
}

// firstPathName reports the bare name of proc's first step, if proc is a
// Path whose first step is a Name, or if proc is itself a bare Name.
func firstPathName(proc *types.Node) (string, bool) {
	switch proc.Kind {
	case types.NodeName:
		return proc.Str, true
	case types.NodePath:
		if len(proc.Steps) > 0 && proc.Steps[0].Kind == types.NodeName {
			return proc.Steps[0].Str, true
		}
	}
	return "", false
}

// apply dispatches a resolved callable against args.
// input is the value in scope at the call site, used only for NativeFnN's
// arity-1/actuals-0 context-injection rule.
func (ec *evalContext) apply(ctx context.Context, callable pool.Handle, args []pool.Handle, input pool.Handle, pos int) (pool.Handle, error) {
	p := ec.p

	switch {
	case p.IsLambda(callable):
		return ec.callLambda(ctx, callable, args, pos)
	case p.IsNativeFn(callable):
		return ec.callNative(ctx, callable, args, input, pos)
	default:
		return 0, types.NewError(types.ErrInvokedNonFunction, "the expression being invoked is not a function", pos)
	}
}

// callLambda creates a child frame from the lambda's captured closure,
// binds each formal parameter to its positional actual (missing actuals
// bind Undefined), and evaluates the body against the input captured at the
// lambda's definition site -- not against the call's first
// actual argument. A body that references params sees them normally; a
// body that references `$` sees the value `$` meant when the lambda
// literal was written: the call frame is a new child of the closure frame,
// and the input comes from the lambda value itself (LambdaInput), not from
// an argument.
func (ec *evalContext) callLambda(ctx context.Context, lambda pool.Handle, args []pool.Handle, pos int) (pool.Handle, error) {
	p := ec.p
	node := p.LambdaNode(lambda)
	closure, _ := p.LambdaClosure(lambda).(*Frame)

	callFrame := closure.NewChild()
	for i, name := range node.Params {
		if i < len(args) {
			callFrame.Bind(name, args[i])
		} else {
			callFrame.Bind(name, p.Undefined())
		}
	}

	return ec.eval(ctx, node.Body, p.LambdaInput(lambda), callFrame)
}

// callNative applies a NativeFnN: an arity-1 function
// called with zero actuals is instead given the current context input as
// its sole argument, enabling method-call-style chaining
// (e.g. value.$string()); any other arity mismatch is ArgumentNotValid.
func (ec *evalContext) callNative(ctx context.Context, fn pool.Handle, args []pool.Handle, input pool.Handle, pos int) (pool.Handle, error) {
	p := ec.p
	arity := p.NativeArity(fn)
	name := p.NativeName(fn)
	impl, _ := p.NativeImpl(fn).(NativeFunc)

	if arity == 1 && len(args) == 0 {
		args = []pool.Handle{input}
	}

	if len(args) != arity {
		return 0, types.NewError(types.ErrArgumentNotValid, "invalid number of arguments to function '"+name+"'", pos)
	}

	return impl(ctx, p, args)
}
