package evaluator

import (
	"context"
	"math"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
)

const maxRangeSize = 10_000_000

// evalBinary dispatches a binary operator node. Every binary operator
// evaluates its rhs operand before its lhs operand -- a deliberate quirk,
// not the naive left-to-right reading a comma-separated operator table
// might suggest. Bind is the degenerate case: its rhs is evaluated and its
// lhs is never evaluated as a value at all (lhs must be a Var node naming
// the binding target).
func (ec *evalContext) evalBinary(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	if node.Op == types.OpBind {
		return ec.evalBind(ctx, node, input, frame)
	}

	rhs, err := ec.eval(ctx, node.RHS, input, frame)
	if err != nil {
		return 0, err
	}
	lhs, err := ec.eval(ctx, node.LHS, input, frame)
	if err != nil {
		return 0, err
	}

	switch node.Op {
	case types.OpAdd, types.OpSub, types.OpMul, types.OpDiv, types.OpMod:
		return ec.evalArith(node, lhs, rhs)
	case types.OpLt, types.OpLte, types.OpGt, types.OpGte:
		return ec.evalCompare(node, lhs, rhs)
	case types.OpEq:
		return ec.evalEquality(lhs, rhs, false)
	case types.OpNeq:
		return ec.evalEquality(lhs, rhs, true)
	case types.OpRange:
		return ec.evalRange(node, lhs, rhs)
	case types.OpConcat:
		return ec.evalConcat(lhs, rhs)
	default:
		return 0, types.NewError(types.ErrNotImplemented, "unsupported binary operator", node.Position)
	}
}

func (ec *evalContext) evalArith(node *types.Node, lhs, rhs pool.Handle) (pool.Handle, error) {
	p := ec.p
	if p.IsUndefined(lhs) || p.IsUndefined(rhs) {
		return p.Undefined(), nil
	}
	if !p.IsNumber(lhs) {
		return 0, types.NewError(types.ErrLeftSideNotNumber, "left side of arithmetic operator must be a number", node.Position)
	}
	if !p.IsNumber(rhs) {
		return 0, types.NewError(types.ErrRightSideNotNumber, "right side of arithmetic operator must be a number", node.Position)
	}
	a, b := p.NumberValue(lhs), p.NumberValue(rhs)
	var result float64
	switch node.Op {
	case types.OpAdd:
		result = a + b
	case types.OpSub:
		result = a - b
	case types.OpMul:
		result = a * b
	case types.OpDiv:
		result = a / b
	case types.OpMod:
		result = math.Mod(a, b)
	}
	if math.IsInf(result, 0) {
		return 0, types.NewError(types.ErrNumberOutOfRange, "the result of the arithmetic operation is out of range", node.Position)
	}
	return p.Number(result), nil
}

func (ec *evalContext) evalCompare(node *types.Node, lhs, rhs pool.Handle) (pool.Handle, error) {
	p := ec.p
	if p.IsUndefined(lhs) || p.IsUndefined(rhs) {
		return p.Undefined(), nil
	}

	var cmp int
	switch {
	case p.IsNumber(lhs) && p.IsNumber(rhs):
		a, b := p.NumberValue(lhs), p.NumberValue(rhs)
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	case p.IsString(lhs) && p.IsString(rhs):
		a, b := p.StringValue(lhs), p.StringValue(rhs)
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	case (p.IsNumber(lhs) || p.IsString(lhs)) && (p.IsNumber(rhs) || p.IsString(rhs)):
		return 0, types.NewError(types.ErrBinaryOpMismatch, "the sides of a comparison operator must be of the same type", node.Position)
	default:
		return 0, types.NewError(types.ErrBinaryOpTypes, "the sides of a comparison operator must be numbers or strings", node.Position)
	}

	var result bool
	switch node.Op {
	case types.OpLt:
		result = cmp < 0
	case types.OpLte:
		result = cmp <= 0
	case types.OpGt:
		result = cmp > 0
	case types.OpGte:
		result = cmp >= 0
	}
	return p.Bool(result), nil
}

// evalEquality implements `=`/`!=`: either side Undefined yields false,
// never Undefined itself -- unlike most other operators, equality never
// propagates Undefined to its result.
func (ec *evalContext) evalEquality(lhs, rhs pool.Handle, negate bool) (pool.Handle, error) {
	p := ec.p
	if p.IsUndefined(lhs) || p.IsUndefined(rhs) {
		return p.Bool(false), nil
	}
	eq := p.Equal(lhs, rhs)
	if negate {
		eq = !eq
	}
	return p.Bool(eq), nil
}

// evalRange implements `..`: both bounds must be Undefined or non-negative
// integers; Undefined on either side, or lhs > rhs, yields Undefined rather
// than an error; spans over maxRangeSize elements are rejected.
func (ec *evalContext) evalRange(node *types.Node, lhs, rhs pool.Handle) (pool.Handle, error) {
	p := ec.p

	start, ok, err := rangeBound(p, lhs, types.ErrLeftSideNotInteger, node.Position)
	if err != nil {
		return 0, err
	}
	if !ok {
		return p.Undefined(), nil
	}
	end, ok, err := rangeBound(p, rhs, types.ErrRightSideNotInteger, node.Position)
	if err != nil {
		return 0, err
	}
	if !ok {
		return p.Undefined(), nil
	}

	if start > end {
		return p.Undefined(), nil
	}
	if end-start+1 > maxRangeSize {
		return 0, types.NewError(types.ErrRangeTooLarge, "the size of the sequence allocated by the range expression exceeds the built-in limit", node.Position)
	}

	size := int(end-start) + 1
	result := p.ArrayWithCapacity(size, pool.Sequence)
	for i := int64(0); i < int64(size); i++ {
		p.Push(result, p.Number(float64(start+i)))
	}
	return result, nil
}

// rangeBound validates a range endpoint: Undefined reports (0, false, nil);
// a non-negative integer reports (n, true, nil); anything else errors.
func rangeBound(p *pool.Pool, h pool.Handle, code types.ErrorCode, pos int) (int64, bool, error) {
	if p.IsUndefined(h) {
		return 0, false, nil
	}
	if !p.IsNumber(h) {
		return 0, false, types.NewError(code, "range bound must evaluate to an integer", pos)
	}
	n := p.NumberValue(h)
	if n != math.Trunc(n) || n < 0 {
		return 0, false, types.NewError(code, "range bound must evaluate to a non-negative integer", pos)
	}
	return int64(n), true, nil
}

// evalConcat coerces both sides to string via the host string function,
// treating Undefined as empty string -- a special case the general-purpose
// string() host function itself does not apply (see hostfns.go).
func (ec *evalContext) evalConcat(lhs, rhs pool.Handle) (pool.Handle, error) {
	p := ec.p
	a, err := concatOperand(p, lhs)
	if err != nil {
		return 0, err
	}
	b, err := concatOperand(p, rhs)
	if err != nil {
		return 0, err
	}
	return p.String(a + b), nil
}

func concatOperand(p *pool.Pool, h pool.Handle) (string, error) {
	if p.IsUndefined(h) {
		return "", nil
	}
	s, err := hostString(context.Background(), p, []pool.Handle{h})
	if err != nil {
		return "", err
	}
	return p.StringValue(s), nil
}

// evalBind implements `:=`: rhs is evaluated first, then bound to the
// variable named by lhs (which must be a Var node) in the current frame.
func (ec *evalContext) evalBind(ctx context.Context, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	rhs, err := ec.eval(ctx, node.RHS, input, frame)
	if err != nil {
		return 0, err
	}
	frame.Bind(node.LHS.Str, rhs)
	return rhs, nil
}
