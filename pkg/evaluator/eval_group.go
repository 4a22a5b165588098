package evaluator

import (
	"context"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
)

// bucket accumulates the items routed to one dynamic key by a group
// expression, tagged with the static pair index that created it so a
// second pair producing the same key can be detected.
type bucket struct {
	pairIndex int
	value     pool.Handle // an array of the routed items, built by hostAppend
}

// evalGroup implements group expressions, used both for
// object constructors ({k: v, ...}) and a path's trailing group_by suffix.
//
func (ec *evalContext) evalGroup(ctx context.Context, group *types.Group, input pool.Handle, frame *Frame) (pool.Handle, error) {
	p := ec.p

	items := groupItems(p, input)

	buckets := make(map[string]*bucket)
	order := make([]string, 0, len(group.Pairs))

	for _, item := range items {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		for i, pair := range group.Pairs {
			keyVal, err := ec.eval(ctx, pair.Key, item, frame)
			if err != nil {
				return 0, err
			}
			if !p.IsString(keyVal) {
				return 0, types.NewError(types.ErrNonStringKey, "group expression key must evaluate to a string", group.Position)
			}
			key := p.StringValue(keyVal)

			b, exists := buckets[key]
			if !exists {
				b = &bucket{pairIndex: i, value: p.Array(pool.Sequence)}
				buckets[key] = b
				order = append(order, key)
			} else if b.pairIndex != i {
				return 0, types.NewError(types.ErrMultipleKeys, "multiple static pairs produced the same group key", group.Position)
			}

			res, err := hostAppend(ctx, p, []pool.Handle{b.value, item})
			if err != nil {
				return 0, err
			}
			b.value = res
		}
	}

	out := p.Object()
	for _, key := range order {
		b := buckets[key]
		valNode := group.Pairs[b.pairIndex].Value
		v, err := ec.eval(ctx, valNode, b.value, frame)
		if err != nil {
			return 0, err
		}
		if p.IsUndefined(v) {
			continue
		}
		p.InsertIndex(out, key, v)
	}
	return out, nil
}

// groupItems wraps non-array input into a single-element array, and an
// empty array into a single Undefined-bearing slot, so that missing-value
// key expressions still get a chance to run.
func groupItems(p *pool.Pool, input pool.Handle) []pool.Handle {
	if !p.IsArray(input) {
		return []pool.Handle{input}
	}
	if p.IsEmpty(input) {
		return []pool.Handle{p.Undefined()}
	}
	return p.Members(input)
}
