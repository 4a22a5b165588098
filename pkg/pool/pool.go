// Package pool implements the value arena the evaluator allocates all
// intermediate and final values into.
//
// Values are never owned by syntax-tree nodes or by each other directly;
// they live in a Pool and are referred to by a small, stable Handle. This
// lets recursive evaluation move and compare sub-values by copying a handle
// instead of deep-cloning a value graph, and lets a lambda's closure share
// values with its defining scope for free.
//
// The engine never constructs a reference cycle among values (arrays and
// objects only ever hold handles to cells allocated earlier), so a Pool never
// needs a tracing collector; a single free-standing arena with a reset
// between evaluations is enough.
package pool

import (
	"fmt"
	"math"

	"github.com/sandrolain/jqlcore/pkg/types"
)

// Handle is a lightweight, opaque reference to a value cell inside a Pool.
// Handles are stable for the lifetime of the Pool that produced them (or,
// more precisely, until that Pool's next Reset) and have no meaning when
// dereferenced against a different Pool.
type Handle int32

// Kind identifies the runtime type of a pool cell.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindLambda
	KindNativeFn
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindLambda:
		return "lambda"
	case KindNativeFn:
		return "function"
	default:
		return "unknown"
	}
}

// cell is the storage backing a single value. Only the fields relevant to
// Kind are populated; this mirrors the syntax tree's Node in spirit (a
// tagged union represented as a flat struct for allocation-friendliness).
type cell struct {
	kind Kind

	b bool
	n float64
	s string

	// Array.
	items []Handle
	flags ArrayFlags

	// Object: keys preserves insertion order, vals holds the mapping.
	keys []string
	vals map[string]Handle

	// Lambda.
	lambdaName    string
	lambdaNode    *types.Node
	lambdaClosure interface{} // opaque *evaluator.Frame; pool does not depend on its shape
	lambdaInput   Handle      // input in scope where the lambda literal was evaluated

	// NativeFn.
	nativeName  string
	nativeArity int
	nativeImpl  interface{} // opaque evaluator.NativeFunc
}

// Pool is an arena of value cells. The zero value is not usable; construct
// one with New.
type Pool struct {
	cells []cell

	undefinedH Handle
	nullH      Handle
	trueH      Handle
	falseH     Handle
}

// New creates a Pool pre-warmed with interned Undefined, Null, true and
// false cells, since these four are allocated far more often than any other
// value during a typical evaluation.
func New() *Pool {
	p := &Pool{cells: make([]cell, 0, 64)}
	p.undefinedH = p.alloc(cell{kind: KindUndefined})
	p.nullH = p.alloc(cell{kind: KindNull})
	p.falseH = p.alloc(cell{kind: KindBool, b: false})
	p.trueH = p.alloc(cell{kind: KindBool, b: true})
	return p
}

// Reset truncates the arena back to its four interned singletons, ready for
// reuse by a new evaluation. Handles from the previous evaluation are
// invalid after Reset; a host sharing a Pool across evaluations must not let
// handles from one evaluation escape into the next.
func (p *Pool) Reset() {
	p.cells = p.cells[:4]
}

func (p *Pool) alloc(c cell) Handle {
	p.cells = append(p.cells, c)
	return Handle(len(p.cells) - 1)
}

func (p *Pool) cell(h Handle) *cell {
	return &p.cells[h]
}

// Kind reports the runtime kind of h.
func (p *Pool) Kind(h Handle) Kind {
	return p.cell(h).kind
}

func (p *Pool) IsUndefined(h Handle) bool { return p.Kind(h) == KindUndefined }
func (p *Pool) IsNull(h Handle) bool      { return p.Kind(h) == KindNull }
func (p *Pool) IsBool(h Handle) bool      { return p.Kind(h) == KindBool }
func (p *Pool) IsNumber(h Handle) bool    { return p.Kind(h) == KindNumber }
func (p *Pool) IsString(h Handle) bool    { return p.Kind(h) == KindString }
func (p *Pool) IsArray(h Handle) bool     { return p.Kind(h) == KindArray }
func (p *Pool) IsObject(h Handle) bool    { return p.Kind(h) == KindObject }
func (p *Pool) IsLambda(h Handle) bool    { return p.Kind(h) == KindLambda }
func (p *Pool) IsNativeFn(h Handle) bool  { return p.Kind(h) == KindNativeFn }

// IsCallable reports whether h is a lambda or a native function.
func (p *Pool) IsCallable(h Handle) bool {
	k := p.Kind(h)
	return k == KindLambda || k == KindNativeFn
}

// Undefined returns the pool's interned Undefined handle.
func (p *Pool) Undefined() Handle { return p.undefinedH }

// Null returns the pool's interned Null handle.
func (p *Pool) Null() Handle { return p.nullH }

// Bool returns the interned handle for b.
func (p *Pool) Bool(b bool) Handle {
	if b {
		return p.trueH
	}
	return p.falseH
}

// Number allocates a new Number cell.
func (p *Pool) Number(n float64) Handle {
	return p.alloc(cell{kind: KindNumber, n: n})
}

// String allocates a new String cell.
func (p *Pool) String(s string) Handle {
	return p.alloc(cell{kind: KindString, s: s})
}

// BoolValue returns the boolean payload of h. Calling this on a non-Bool
// cell is a programmer error and panics, the same way a failed type
// assertion would.
func (p *Pool) BoolValue(h Handle) bool {
	c := p.cell(h)
	if c.kind != KindBool {
		panic(fmt.Sprintf("pool: BoolValue on a %s cell", c.kind))
	}
	return c.b
}

// NumberValue returns the numeric payload of h.
func (p *Pool) NumberValue(h Handle) float64 {
	c := p.cell(h)
	if c.kind != KindNumber {
		panic(fmt.Sprintf("pool: NumberValue on a %s cell", c.kind))
	}
	return c.n
}

// StringValue returns the string payload of h.
func (p *Pool) StringValue(h Handle) string {
	c := p.cell(h)
	if c.kind != KindString {
		panic(fmt.Sprintf("pool: StringValue on a %s cell", c.kind))
	}
	return c.s
}

// IsFiniteNumber reports whether h is a Number cell holding a finite value.
func (p *Pool) IsFiniteNumber(h Handle) bool {
	return p.IsNumber(h) && !math.IsInf(p.NumberValue(h), 0) && !math.IsNaN(p.NumberValue(h))
}

// --- Arrays ---------------------------------------------------------------

// Array allocates a new, empty array cell carrying flags.
func (p *Pool) Array(flags ArrayFlags) Handle {
	return p.alloc(cell{kind: KindArray, flags: flags})
}

// ArrayWithCapacity allocates a new, empty array cell pre-sized for cap
// elements, carrying flags.
func (p *Pool) ArrayWithCapacity(capHint int, flags ArrayFlags) Handle {
	return p.alloc(cell{kind: KindArray, flags: flags, items: make([]Handle, 0, capHint)})
}

// Push appends item to the array h.
func (p *Pool) Push(h Handle, item Handle) {
	c := p.cell(h)
	if c.kind != KindArray {
		panic(fmt.Sprintf("pool: Push on a %s cell", c.kind))
	}
	c.items = append(c.items, item)
}

// Len returns the number of elements in an array, or the number of keys in
// an object. Any other kind has length 0.
func (p *Pool) Len(h Handle) int {
	c := p.cell(h)
	switch c.kind {
	case KindArray:
		return len(c.items)
	case KindObject:
		return len(c.keys)
	default:
		return 0
	}
}

// IsEmpty reports whether h is an array or object with no elements.
func (p *Pool) IsEmpty(h Handle) bool {
	return p.Len(h) == 0
}

// Members returns the live backing slice of array h's elements. The slice
// aliases the cell's storage: a caller iterating it while also pushing to
// the same array must either finish iterating first or copy the slice
// (append(make([]Handle, 0, n), members...)) before mutating.
func (p *Pool) Members(h Handle) []Handle {
	c := p.cell(h)
	if c.kind != KindArray {
		panic(fmt.Sprintf("pool: Members on a %s cell", c.kind))
	}
	return c.items
}

// --- Objects ----------------------------------------------------------------

// Object allocates a new, empty object cell.
func (p *Pool) Object() Handle {
	return p.alloc(cell{kind: KindObject, vals: map[string]Handle{}})
}

// InsertIndex inserts key -> val into object h, appending key to the
// insertion-order list. The caller is responsible for rejecting duplicate
// keys where the language requires it; InsertIndex itself
// overwrites silently, matching a plain map assignment.
func (p *Pool) InsertIndex(h Handle, key string, val Handle) {
	c := p.cell(h)
	if c.kind != KindObject {
		panic(fmt.Sprintf("pool: InsertIndex on a %s cell", c.kind))
	}
	if _, exists := c.vals[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.vals[key] = val
}

// ObjectKeys returns the keys of object h in insertion order.
func (p *Pool) ObjectKeys(h Handle) []string {
	return p.cell(h).keys
}

// ObjectGet looks up key on object h.
func (p *Pool) ObjectGet(h Handle, key string) (Handle, bool) {
	c := p.cell(h)
	if c.kind != KindObject {
		return 0, false
	}
	v, ok := c.vals[key]
	return v, ok
}

// --- Flags ------------------------------------------------------------------

// GetFlags returns the flags of array h. Non-array kinds always report 0.
func (p *Pool) GetFlags(h Handle) ArrayFlags {
	c := p.cell(h)
	if c.kind != KindArray {
		return 0
	}
	return c.flags
}

// SetFlags replaces the flags of array h.
func (p *Pool) SetFlags(h Handle, f ArrayFlags) {
	c := p.cell(h)
	if c.kind != KindArray {
		panic(fmt.Sprintf("pool: SetFlags on a %s cell", c.kind))
	}
	c.flags = f
}

// AddFlags ORs f into array h's existing flags.
func (p *Pool) AddFlags(h Handle, f ArrayFlags) {
	p.SetFlags(h, p.GetFlags(h)|f)
}

// ClearFlags ANDs-out f from array h's existing flags. Non-array kinds are
// a no-op, matching GetFlags' "always 0" convention for them.
func (p *Pool) ClearFlags(h Handle, f ArrayFlags) {
	if p.Kind(h) != KindArray {
		return
	}
	p.SetFlags(h, p.GetFlags(h)&^f)
}

// HasFlags reports whether array h carries every bit set in f.
func (p *Pool) HasFlags(h Handle, f ArrayFlags) bool {
	return p.GetFlags(h).Has(f)
}

// WrapInArray allocates a new one-element array containing h, carrying flags.
func (p *Pool) WrapInArray(h Handle, flags ArrayFlags) Handle {
	arr := p.Array(flags)
	p.Push(arr, h)
	return arr
}

// WrapInArrayIfNeeded returns h unchanged if it is already an array;
// otherwise it wraps h in a new one-element array carrying flags.
func (p *Pool) WrapInArrayIfNeeded(h Handle, flags ArrayFlags) Handle {
	if p.IsArray(h) {
		return h
	}
	return p.WrapInArray(h, flags)
}

// --- Lambdas and native functions --------------------------------------------

// Lambda allocates a lambda value capturing node as its body reference,
// closure as an opaque reference to the defining Frame (supplied and
// type-asserted back by the evaluator; the pool does not depend on Frame's
// shape), and input as the value in scope when the lambda literal itself was
// evaluated -- the body runs against this captured input, not against
// whatever a future call happens to pass as its first argument.
func (p *Pool) Lambda(name string, node *types.Node, closure interface{}, input Handle) Handle {
	return p.alloc(cell{kind: KindLambda, lambdaName: name, lambdaNode: node, lambdaClosure: closure, lambdaInput: input})
}

// LambdaNode returns the body subtree captured by lambda h.
func (p *Pool) LambdaNode(h Handle) *types.Node {
	return p.cell(h).lambdaNode
}

// LambdaClosure returns the opaque closure reference captured by lambda h.
func (p *Pool) LambdaClosure(h Handle) interface{} {
	return p.cell(h).lambdaClosure
}

// LambdaInput returns the input captured at lambda definition time; the
// body evaluates against this, not against a call's actual arguments.
func (p *Pool) LambdaInput(h Handle) Handle {
	return p.cell(h).lambdaInput
}

// LambdaName returns the (possibly empty, for anonymous lambdas) name of h.
func (p *Pool) LambdaName(h Handle) string {
	return p.cell(h).lambdaName
}

// NativeFn allocates a native-function value of fixed arity (0..3),
// capturing impl as an opaque reference to the concrete callable (supplied
// and type-asserted back by the evaluator package).
func (p *Pool) NativeFn(name string, arity int, impl interface{}) Handle {
	return p.alloc(cell{kind: KindNativeFn, nativeName: name, nativeArity: arity, nativeImpl: impl})
}

// NativeArity returns the fixed arity of native function h.
func (p *Pool) NativeArity(h Handle) int {
	return p.cell(h).nativeArity
}

// NativeName returns the name of native function h.
func (p *Pool) NativeName(h Handle) string {
	return p.cell(h).nativeName
}

// NativeImpl returns the opaque callable reference captured by h.
func (p *Pool) NativeImpl(h Handle) interface{} {
	return p.cell(h).nativeImpl
}

// CallableName returns the display name of a lambda or native function,
// for use in diagnostics. Returns "" for any other kind.
func (p *Pool) CallableName(h Handle) string {
	switch p.Kind(h) {
	case KindLambda:
		return p.LambdaName(h)
	case KindNativeFn:
		return p.NativeName(h)
	default:
		return ""
	}
}
