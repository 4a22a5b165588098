package evaluator

import (
	"context"

	"github.com/sandrolain/jqlcore/pkg/pool"
)

// NativeFunc is the implementation of a host-provided native function.
// Arguments and the result are pool handles; the pool passed in is always
// the one the calling evaluation is using.
type NativeFunc func(ctx context.Context, p *pool.Pool, args []pool.Handle) (pool.Handle, error)

// NativeFn describes a host callable of fixed arity 0..3 -- a single Go
// type parameterized by Arity rather than four distinct generated types.
type NativeFn struct {
	Name  string
	Arity int // 0, 1, 2, or 3
	Fn    NativeFunc
}

// Registry is the abstract host function registry the evaluator depends on.
// The evaluator core ships only the four functions it directly requires
// (string, boolean, append, lookup — see hostfns.go); a full function
// *library* is an external collaborator, out of scope here.
type Registry struct {
	fns map[string]*NativeFn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]*NativeFn)}
}

// Register adds or replaces a native function definition.
func (r *Registry) Register(name string, arity int, fn NativeFunc) {
	r.fns[name] = &NativeFn{Name: name, Arity: arity, Fn: fn}
}

// Lookup retrieves a native function definition by name.
func (r *Registry) Lookup(name string) (*NativeFn, bool) {
	def, ok := r.fns[name]
	return def, ok
}

// Handle materializes def as a pool.Handle so it can be bound into a Frame
// or returned as a callable value.
func (r *Registry) Handle(p *pool.Pool, def *NativeFn) pool.Handle {
	return p.NativeFn(def.Name, def.Arity, def.Fn)
}

// BindInto materializes every function in r and binds it into frame under
// its own name, making it reachable from the evaluated expression as
// `$name(...)` without any per-function wiring by the caller. Evaluate
// calls this once, against a fresh child of the caller's root frame, before
// evaluating the expression tree.
func (r *Registry) BindInto(p *pool.Pool, frame *Frame) {
	for name, def := range r.fns {
		frame.Bind(name, r.Handle(p, def))
	}
}
