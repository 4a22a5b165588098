package evaluator

import (
	"context"
	"strconv"

	"github.com/sandrolain/jqlcore/pkg/pool"
)

// DefaultRegistry returns a Registry populated with the four host functions
// the evaluator core itself depends on: string, boolean,
// append, lookup. A complete host function library (the other ~60 JSONata
// builtin functions an evaluator library typically ships) is an external
// collaborator and out of scope here; a caller wanting them registers additional NativeFn entries on top
// of this registry.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("string", 1, hostString)
	r.Register("boolean", 1, hostBoolean)
	r.Register("append", 2, hostAppend)
	r.Register("lookup", 2, hostLookup)
	return r
}

// hostString coerces a value to its string representation. Undefined passes
// through as Undefined (callers that need "Undefined as empty", such as the
// Concat binary operator, special-case it themselves rather than relying on
// this function -- see eval_binary.go).
func hostString(_ context.Context, p *pool.Pool, args []pool.Handle) (pool.Handle, error) {
	v := args[0]
	switch p.Kind(v) {
	case pool.KindUndefined:
		return v, nil
	case pool.KindString:
		return v, nil
	case pool.KindNull:
		return p.String("null"), nil
	case pool.KindBool:
		if p.BoolValue(v) {
			return p.String("true"), nil
		}
		return p.String("false"), nil
	case pool.KindNumber:
		return p.String(formatNumber(p.NumberValue(v))), nil
	default:
		// Arrays, objects, lambdas, native functions: not a concern of the
		// evaluator core's minimal default registry.
		return p.String(""), nil
	}
}

// formatNumber renders a finite float64 the way JSON numbers are usually
// printed: integral values without a trailing ".0", everything else via the
// shortest round-tripping decimal representation.
func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// hostBoolean implements JQL truthiness: false, 0, "", [], {} and Undefined
// are false; everything else -- including Null -- is true.
func hostBoolean(_ context.Context, p *pool.Pool, args []pool.Handle) (pool.Handle, error) {
	v := args[0]
	switch p.Kind(v) {
	case pool.KindUndefined:
		return p.Bool(false), nil
	case pool.KindBool:
		return v, nil
	case pool.KindNumber:
		return p.Bool(p.NumberValue(v) != 0), nil
	case pool.KindString:
		return p.Bool(p.StringValue(v) != ""), nil
	case pool.KindArray:
		return p.Bool(!p.IsEmpty(v)), nil
	case pool.KindObject:
		return p.Bool(!p.IsEmpty(v)), nil
	default:
		return p.Bool(true), nil
	}
}

// hostAppend concatenates two values with sequence-flattening semantics:
// Undefined on the right passes the left through unchanged; two scalars
// become a two-element array; mixing an array with a sequence splices the
// sequence's members in rather than nesting it.
func hostAppend(_ context.Context, p *pool.Pool, args []pool.Handle) (pool.Handle, error) {
	a, b := args[0], args[1]
	if p.IsUndefined(b) {
		return a, nil
	}
	if p.IsUndefined(a) {
		return b, nil
	}

	result := p.Array(0)
	appendFlattened(p, result, a)
	appendFlattened(p, result, b)
	return result, nil
}

// appendFlattened appends v to dst, splicing v's members in when v is an
// array (any array, not only a SEQUENCE-flagged one -- append is a host
// function operating on user-visible values, not path-step sequencing).
func appendFlattened(p *pool.Pool, dst, v pool.Handle) {
	if p.IsArray(v) {
		for _, m := range p.Members(v) {
			p.Push(dst, m)
		}
		return
	}
	p.Push(dst, v)
}

// hostLookup resolves key on an object, or maps the lookup over an array's
// members (used for bare-name resolution against the current input).
func hostLookup(_ context.Context, p *pool.Pool, args []pool.Handle) (pool.Handle, error) {
	target, key := args[0], args[1]
	if !p.IsString(key) {
		return p.Undefined(), nil
	}
	k := p.StringValue(key)

	switch p.Kind(target) {
	case pool.KindObject:
		if v, ok := p.ObjectGet(target, k); ok {
			return v, nil
		}
		return p.Undefined(), nil
	case pool.KindArray:
		out := p.Array(pool.Sequence)
		for _, m := range p.Members(target) {
			v, _ := hostLookup(context.Background(), p, []pool.Handle{m, key})
			if !p.IsUndefined(v) {
				out = spliceMember(p, out, v)
			}
		}
		return out, nil
	default:
		return p.Undefined(), nil
	}
}

// spliceMember appends v to seq, flattening one level if v is itself a
// non-CONS array -- matching the implicit-map flattening semantics that
// drive hostLookup's array case.
func spliceMember(p *pool.Pool, seq, v pool.Handle) pool.Handle {
	if p.IsArray(v) && !p.HasFlags(v, pool.Cons) {
		for _, m := range p.Members(v) {
			p.Push(seq, m)
		}
		return seq
	}
	p.Push(seq, v)
	return seq
}
