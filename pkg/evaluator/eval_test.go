package evaluator_test

import (
	"context"
	"testing"

	"github.com/sandrolain/jqlcore/pkg/evaluator"
	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eval is a small harness shared across this file's tests: build a fresh
// pool, decode input, evaluate node against it in a fresh evaluator/frame,
// and hand back the plain-Go result.
func eval(t *testing.T, node *types.Node, input interface{}) (interface{}, *pool.Pool, pool.Handle, error) {
	t.Helper()
	p := pool.New()
	h := p.FromGo(input)
	ev := evaluator.New()
	res, err := ev.Evaluate(context.Background(), p, node, h, evaluator.NewFrame())
	if err != nil {
		return nil, p, res, err
	}
	return p.ToGo(res), p, res, nil
}

func num(n float64) *types.Node { return &types.Node{Kind: types.NodeNumber, Number: n} }
func str(s string) *types.Node { return &types.Node{Kind: types.NodeString, Str: s} }
func nameNode(k string) *types.Node { return &types.Node{Kind: types.NodeName, Str: k} }
func varNode(k string) *types.Node { return &types.Node{Kind: types.NodeVar, Str: k} }

func binary(op types.BinaryOp, lhs, rhs *types.Node) *types.Node {
	return &types.Node{Kind: types.NodeBinary, Op: op, LHS: lhs, RHS: rhs}
}

func pathOf(steps ...*types.Node) *types.Node {
	return &types.Node{Kind: types.NodePath, Steps: steps}
}

// ── Scenario 1: a.b → 42 ─────────────────────────────────────────────────

func TestPath_SimpleFieldAccess(t *testing.T) {
	node := pathOf(nameNode("a"), nameNode("b"))
	got, _, _, err := eval(t, node, map[string]interface{}{"a": map[string]interface{}{"b": 42.0}})
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)
}

// ── Scenario 2: implicit map over an array → [1,2,3] ────────────────────

func TestPath_ImplicitMap(t *testing.T) {
	node := nameNode("n")
	got, _, _, err := eval(t, node, []interface{}{
		map[string]interface{}{"n": 1.0},
		map[string]interface{}{"n": 2.0},
		map[string]interface{}{"n": 3.0},
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, got)
}

// ── Scenario 3: n[1] → 2 ──────────────────────────────────────────────────

func TestPath_FilterByIndex(t *testing.T) {
	filter := &types.Node{Kind: types.NodeFilter, LHS: nameNode("n"), RHS: num(1)}
	got, _, _, err := eval(t, filter, []interface{}{
		map[string]interface{}{"n": 1.0},
		map[string]interface{}{"n": 2.0},
		map[string]interface{}{"n": 3.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)
}

func TestFilter_NegativeIndexFromEnd(t *testing.T) {
	filter := &types.Node{Kind: types.NodeFilter, LHS: &types.Node{Kind: types.NodeVar}, RHS: num(-1)}
	got, _, _, err := eval(t, filter, []interface{}{1.0, 2.0, 3.0})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
}

func TestFilter_OutOfRangeIndexIsUndefined(t *testing.T) {
	filter := &types.Node{Kind: types.NodeFilter, LHS: &types.Node{Kind: types.NodeVar}, RHS: num(5)}
	_, p, h, err := eval(t, filter, []interface{}{1.0, 2.0, 3.0})
	require.NoError(t, err)
	assert.True(t, p.IsUndefined(h))
}

// ── Scenario 4: $x := x+1; $x*2 → 12 ──────────────────────────────────────

func TestBlock_BindThenReference(t *testing.T) {
	bind := binary(types.OpBind, varNode("x"), binary(types.OpAdd, nameNode("x"), num(1)))
	use := binary(types.OpMul, varNode("x"), num(2))
	block := &types.Node{Kind: types.NodeBlock, Items: []*types.Node{bind, use}}

	got, _, _, err := eval(t, block, map[string]interface{}{"x": 5.0})
	require.NoError(t, err)
	assert.Equal(t, 12.0, got)
}

// ── Scenario 5: [1..3] → [1,2,3] ───────────────────────────────────────────

func TestUnary_ArrayConstructorWithRange(t *testing.T) {
	rng := binary(types.OpRange, num(1), num(3))
	arr := &types.Node{Kind: types.NodeUnary, UOp: types.UnaryArrayConstructor, Items: []*types.Node{rng}}

	got, _, _, err := eval(t, arr, []interface{}{1.0, 2.0, 3.0, 4.0})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, got)
}

// ── Scenario 6: group-by → {"a":[1,3],"b":2} ──────────────────────────────

func TestGroup_ByKeyCollapsesSingleValues(t *testing.T) {
	group := &types.Node{
		Kind: types.NodePath,
		GroupBy: &types.Group{
			Pairs: []types.GroupPair{{Key: nameNode("g"), Value: nameNode("v")}},
		},
	}
	got, _, _, err := eval(t, group, []interface{}{
		map[string]interface{}{"g": "a", "v": 1.0},
		map[string]interface{}{"g": "b", "v": 2.0},
		map[string]interface{}{"g": "a", "v": 3.0},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"a": []interface{}{1.0, 3.0},
		"b": 2.0,
	}, got)
}

func TestGroup_MultipleKeysConflict(t *testing.T) {
	group := &types.Node{
		Kind: types.NodePath,
		GroupBy: &types.Group{
			Pairs: []types.GroupPair{
				{Key: str("k"), Value: nameNode("a")},
				{Key: str("k"), Value: nameNode("b")},
			},
		},
	}
	_, _, _, err := eval(t, group, []interface{}{map[string]interface{}{"a": 1.0, "b": 2.0}})
	require.Error(t, err)
	var e *types.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, types.ErrMultipleKeys, e.Code)
}

func TestBlock_RollingResultReplacesInput(t *testing.T) {
	// block: (10 + 0; $*2) -- the bare Var picks up the previous
	// expression's result, not the block's original input.
	first := binary(types.OpAdd, num(10), num(0))
	second := &types.Node{Kind: types.NodeBinary, Op: types.OpMul, LHS: &types.Node{Kind: types.NodeVar}, RHS: num(2)}
	block := &types.Node{Kind: types.NodeBlock, Items: []*types.Node{first, second}}

	got, _, _, err := eval(t, block, map[string]interface{}{"unrelated": true})
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)
}

// ── Range boundary behaviors ───────────────────────────────────────────────

func TestRange_SingleElement(t *testing.T) {
	// [5..5]: a bare one-element range collapses to its member, so the
	// array constructor is what keeps the [5] wrapper.
	rng := binary(types.OpRange, num(5), num(5))
	arr := &types.Node{Kind: types.NodeUnary, UOp: types.UnaryArrayConstructor, Items: []*types.Node{rng}}
	got, _, _, err := eval(t, arr, nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{5.0}, got)
}

func TestRange_DescendingIsUndefined(t *testing.T) {
	_, p, h, err := eval(t, binary(types.OpRange, num(5), num(4)), nil)
	require.NoError(t, err)
	assert.True(t, p.IsUndefined(h))
}

func TestRange_UndefinedBoundPropagates(t *testing.T) {
	_, p, h, err := eval(t, binary(types.OpRange, varNode("missing"), num(4)), nil)
	require.NoError(t, err)
	assert.True(t, p.IsUndefined(h))
}

// ── Arithmetic and Undefined propagation ──────────────────────────────────

func TestArith_UndefinedPropagates(t *testing.T) {
	_, p, h, err := eval(t, binary(types.OpAdd, varNode("missing"), num(1)), nil)
	require.NoError(t, err)
	assert.True(t, p.IsUndefined(h))
}

func TestArith_DivisionByZeroIsNumberOutOfRange(t *testing.T) {
	_, _, _, err := eval(t, binary(types.OpDiv, num(1), num(0)), nil)
	require.Error(t, err)
	var e *types.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, types.ErrNumberOutOfRange, e.Code)
}

func TestArith_LeftSideNotNumber(t *testing.T) {
	_, _, _, err := eval(t, binary(types.OpAdd, str("x"), num(1)), nil)
	require.Error(t, err)
	var e *types.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, types.ErrLeftSideNotNumber, e.Code)
}

// ── Equality and concat ────────────────────────────────────────────────────

func TestEquality_UndefinedIsFalse(t *testing.T) {
	got, _, _, err := eval(t, binary(types.OpEq, varNode("missing"), num(1)), nil)
	require.NoError(t, err)
	assert.Equal(t, false, got)
}

func TestConcat_TreatsUndefinedAsEmptyString(t *testing.T) {
	got, _, _, err := eval(t, binary(types.OpConcat, varNode("missing"), str("x")), nil)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

// ── Ternary ─────────────────────────────────────────────────────────────

func TestTernary_NoFalsyBranchYieldsUndefined(t *testing.T) {
	tern := &types.Node{Kind: types.NodeTernary, Cond: &types.Node{Kind: types.NodeBool, Bool: false}, Truthy: num(1)}
	_, p, h, err := eval(t, tern, nil)
	require.NoError(t, err)
	assert.True(t, p.IsUndefined(h))
}

// ── Function application ──────────────────────────────────────────────────

func TestLambda_MissingArgumentBindsUndefined(t *testing.T) {
	lambda := &types.Node{
		Kind:   types.NodeLambda,
		Params: []string{"a", "b"},
		Body:   &types.Node{Kind: types.NodeBinary, Op: types.OpEq, LHS: varNode("b"), RHS: &types.Node{Kind: types.NodeVar}},
	}
	bindFn := binary(types.OpBind, varNode("f"), lambda)
	call := &types.Node{Kind: types.NodeFunction, Proc: varNode("f"), Arguments: []*types.Node{num(1)}}
	block := &types.Node{Kind: types.NodeBlock, Items: []*types.Node{bindFn, call}}

	got, _, _, err := eval(t, block, nil)
	require.NoError(t, err)
	assert.Equal(t, false, got) // $b is Undefined, and "=" with an Undefined side is always false
}

func TestNativeFn_Arity1WithZeroActualsUsesContextInput(t *testing.T) {
	p := pool.New()
	registry := evaluator.DefaultRegistry()
	ev := evaluator.New(evaluator.WithRegistry(registry))

	strFn := registry.Handle(p, mustLookup(t, registry, "string"))
	callNode := &types.Node{
		Kind: types.NodeFunction,
		Proc: &types.Node{Kind: types.NodeVar, Str: "s"},
		// no Arguments: arity-1 native called with 0 actuals uses input.
	}
	frame := evaluator.NewFrame()
	frame.Bind("s", strFn)

	input := p.Number(3.5)
	res, err := ev.Evaluate(context.Background(), p, callNode, input, frame)
	require.NoError(t, err)
	assert.Equal(t, "3.5", p.StringValue(res))
}

func mustLookup(t *testing.T, r *evaluator.Registry, name string) *evaluator.NativeFn {
	t.Helper()
	fn, ok := r.Lookup(name)
	require.True(t, ok)
	return fn
}

func TestFunction_InvokingUndefinedNameErrors(t *testing.T) {
	call := &types.Node{Kind: types.NodeFunction, Proc: nameNode("notAFunction")}
	_, _, _, err := eval(t, call, map[string]interface{}{})
	require.Error(t, err)
	var e *types.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, types.ErrInvokedNonFunction, e.Code)
}

// ── Top-level invariants ───────────────────────────────────────────────────

func TestTopLevelResultNeverSequence(t *testing.T) {
	_, p, h, err := eval(t, nameNode("n"), []interface{}{map[string]interface{}{"n": 7.0}})
	require.NoError(t, err)
	if p.IsArray(h) {
		assert.False(t, p.HasFlags(h, pool.Sequence))
	}
}

func TestTopLevelResultNeverSequence_MultiElement(t *testing.T) {
	input := []interface{}{
		map[string]interface{}{"n": 1.0},
		map[string]interface{}{"n": 2.0},
		map[string]interface{}{"n": 3.0},
	}
	got, p, h, err := eval(t, nameNode("n"), input)
	require.NoError(t, err)
	require.True(t, p.IsArray(h))
	assert.False(t, p.HasFlags(h, pool.Sequence))
	assert.False(t, p.HasFlags(h, pool.Wrapped))
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, got)
}

func TestEvaluationIsPure(t *testing.T) {
	node := binary(types.OpAdd, nameNode("a"), nameNode("b"))
	input := map[string]interface{}{"a": 2.0, "b": 3.0}

	got1, _, _, err := eval(t, node, input)
	require.NoError(t, err)
	got2, _, _, err := eval(t, node, input)
	require.NoError(t, err)
	assert.Equal(t, got1, got2)
}

func TestMaxDepthGuardRejectsDeepRecursion(t *testing.T) {
	// function($n) { $n <= 0 ? 0 : $f($n - 1) }
	n := varNode("n")
	base := binary(types.OpLte, n, num(0))
	recurse := &types.Node{
		Kind: types.NodeFunction,
		Proc: varNode("f"),
		Arguments: []*types.Node{
			binary(types.OpSub, n, num(1)),
		},
	}
	lambda := &types.Node{
		Kind:   types.NodeLambda,
		Params: []string{"n"},
		Body:   &types.Node{Kind: types.NodeTernary, Cond: base, Truthy: num(0), Falsy: recurse},
	}
	bindFn := binary(types.OpBind, varNode("f"), lambda)
	call := &types.Node{Kind: types.NodeFunction, Proc: varNode("f"), Arguments: []*types.Node{num(50)}}
	block := &types.Node{Kind: types.NodeBlock, Items: []*types.Node{bindFn, call}}

	p := pool.New()
	h := p.Undefined()
	ev := evaluator.New(evaluator.WithMaxDepth(10))
	_, err := ev.Evaluate(context.Background(), p, block, h, evaluator.NewFrame())

	require.Error(t, err)
	var e *types.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, types.ErrRecursionTooDeep, e.Code)
}
