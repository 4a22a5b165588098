package pool

import "sort"

// FromGo decodes a plain Go value (as produced by encoding/json.Unmarshal
// into interface{}, or hand-built test fixtures) into the pool, returning a
// handle to the equivalent pool value. nil becomes Null; map[string]any
// becomes an Object with keys inserted in sorted order (Go maps have no
// stable iteration order of their own); []any becomes a CONS array.
//
// This is a convenience for callers bridging JSON-shaped Go data into the
// pool -- the core evaluator itself never calls it.
func (p *Pool) FromGo(v interface{}) Handle {
	switch val := v.(type) {
	case nil:
		return p.Null()
	case bool:
		return p.Bool(val)
	case float64:
		return p.Number(val)
	case int:
		return p.Number(float64(val))
	case string:
		return p.String(val)
	case []interface{}:
		arr := p.ArrayWithCapacity(len(val), Cons)
		for _, item := range val {
			p.Push(arr, p.FromGo(item))
		}
		return arr
	case map[string]interface{}:
		obj := p.Object()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p.InsertIndex(obj, k, p.FromGo(val[k]))
		}
		return obj
	default:
		return p.Undefined()
	}
}

// ToGo encodes a pool value back into a plain Go value: Undefined and Null
// both become nil (the caller that needs to distinguish them should check
// p.IsUndefined/p.IsNull directly before calling ToGo), arrays become
// []interface{}, objects become map[string]interface{} (losing key order --
// use ObjectKeys on h directly when order matters), and lambdas/native
// functions become their name string.
func (p *Pool) ToGo(h Handle) interface{} {
	switch p.Kind(h) {
	case KindUndefined, KindNull:
		return nil
	case KindBool:
		return p.BoolValue(h)
	case KindNumber:
		return p.NumberValue(h)
	case KindString:
		return p.StringValue(h)
	case KindArray:
		members := p.Members(h)
		out := make([]interface{}, len(members))
		for i, m := range members {
			out[i] = p.ToGo(m)
		}
		return out
	case KindObject:
		out := make(map[string]interface{})
		for _, k := range p.ObjectKeys(h) {
			v, _ := p.ObjectGet(h, k)
			out[k] = p.ToGo(v)
		}
		return out
	case KindLambda, KindNativeFn:
		return p.CallableName(h)
	default:
		return nil
	}
}
