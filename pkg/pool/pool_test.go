package pool_test

import (
	"testing"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarConstructorsAndAccessors(t *testing.T) {
	p := pool.New()

	assert.True(t, p.IsUndefined(p.Undefined()))
	assert.True(t, p.IsNull(p.Null()))

	b := p.Bool(true)
	assert.True(t, p.IsBool(b))
	assert.True(t, p.BoolValue(b))

	n := p.Number(3.5)
	assert.True(t, p.IsNumber(n))
	assert.Equal(t, 3.5, p.NumberValue(n))

	s := p.String("hello")
	assert.True(t, p.IsString(s))
	assert.Equal(t, "hello", p.StringValue(s))
}

func TestUndefinedAndNullAreInterned(t *testing.T) {
	p := pool.New()
	require.Equal(t, p.Undefined(), p.Undefined())
	require.Equal(t, p.Null(), p.Null())
}

func TestArrayPushAndMembers(t *testing.T) {
	p := pool.New()
	arr := p.Array(pool.Cons)
	p.Push(arr, p.Number(1))
	p.Push(arr, p.Number(2))
	p.Push(arr, p.Number(3))

	require.Equal(t, 3, p.Len(arr))
	members := p.Members(arr)
	for i, m := range members {
		assert.Equal(t, float64(i+1), p.NumberValue(m))
	}
}

func TestArrayFlags(t *testing.T) {
	p := pool.New()
	arr := p.Array(pool.Sequence)
	assert.True(t, p.HasFlags(arr, pool.Sequence))
	assert.False(t, p.HasFlags(arr, pool.Cons))

	p.AddFlags(arr, pool.Singleton)
	assert.True(t, p.HasFlags(arr, pool.Sequence))
	assert.True(t, p.HasFlags(arr, pool.Singleton))

	p.SetFlags(arr, pool.Cons)
	assert.True(t, p.HasFlags(arr, pool.Cons))
	assert.False(t, p.HasFlags(arr, pool.Sequence))
}

func TestWrapInArrayIfNeeded(t *testing.T) {
	p := pool.New()
	scalar := p.Number(42)
	wrapped := p.WrapInArrayIfNeeded(scalar, pool.Wrapped)
	require.True(t, p.IsArray(wrapped))
	require.Equal(t, 1, p.Len(wrapped))

	arr := p.Array(pool.Cons)
	same := p.WrapInArrayIfNeeded(arr, pool.Wrapped)
	assert.Equal(t, arr, same)
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	p := pool.New()
	obj := p.Object()
	p.InsertIndex(obj, "z", p.Number(1))
	p.InsertIndex(obj, "a", p.Number(2))
	p.InsertIndex(obj, "m", p.Number(3))

	assert.Equal(t, []string{"z", "a", "m"}, p.ObjectKeys(obj))

	v, ok := p.ObjectGet(obj, "a")
	require.True(t, ok)
	assert.Equal(t, 2.0, p.NumberValue(v))

	_, ok = p.ObjectGet(obj, "missing")
	assert.False(t, ok)
}

func TestObjectInsertIndexOverwritesExistingKey(t *testing.T) {
	p := pool.New()
	obj := p.Object()
	p.InsertIndex(obj, "a", p.Number(1))
	p.InsertIndex(obj, "a", p.Number(2))

	assert.Equal(t, []string{"a"}, p.ObjectKeys(obj))
	v, _ := p.ObjectGet(obj, "a")
	assert.Equal(t, 2.0, p.NumberValue(v))
}

func TestEqualStructural(t *testing.T) {
	p := pool.New()

	a := p.FromGo([]interface{}{1.0, "x", map[string]interface{}{"k": true}})
	b := p.FromGo([]interface{}{1.0, "x", map[string]interface{}{"k": true}})
	assert.True(t, p.Equal(a, b))

	c := p.FromGo([]interface{}{1.0, "x", map[string]interface{}{"k": false}})
	assert.False(t, p.Equal(a, c))

	assert.False(t, p.Equal(p.Undefined(), p.Undefined()))
}

func TestEqualObjectIgnoresKeyOrder(t *testing.T) {
	p := pool.New()
	a := p.Object()
	p.InsertIndex(a, "x", p.Number(1))
	p.InsertIndex(a, "y", p.Number(2))

	b := p.Object()
	p.InsertIndex(b, "y", p.Number(2))
	p.InsertIndex(b, "x", p.Number(1))

	assert.True(t, p.Equal(a, b))
}

func TestReset(t *testing.T) {
	p := pool.New()
	p.Push(p.Array(pool.Cons), p.Number(1))
	p.Reset()
	// a fresh handle allocated after Reset must not alias stale state
	s := p.String("clean")
	assert.Equal(t, "clean", p.StringValue(s))
}

func TestFromGoToGoRoundTrip(t *testing.T) {
	p := pool.New()
	src := map[string]interface{}{
		"n":    float64(10),
		"tags": []interface{}{"a", "b"},
		"ok":   true,
	}
	h := p.FromGo(src)
	got := p.ToGo(h)
	assert.Equal(t, src, got)
}

func TestNativeFnRoundTrip(t *testing.T) {
	p := pool.New()
	called := false
	impl := func() { called = true }
	h := p.NativeFn("noop", 0, impl)

	assert.True(t, p.IsCallable(h))
	assert.Equal(t, 0, p.NativeArity(h))
	assert.Equal(t, "noop", p.NativeName(h))
	fn, ok := p.NativeImpl(h).(func())
	require.True(t, ok)
	fn()
	assert.True(t, called)
}
