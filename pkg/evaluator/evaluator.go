// Package evaluator implements the JQL tree-walking evaluation engine.
//
// The evaluator receives an already-parsed *types.Node -- lexing and parsing
// are external concerns -- and evaluates it against a value held in a
// *pool.Pool arena. It supports:
//   - Path navigation, filtering and grouping
//   - Function application (lambdas and host-provided native functions)
//   - Context management and variable bindings via Frame
//   - Timeout, cancellation and recursion-depth limiting via context.Context
//
// # Example
//
//	ev := evaluator.New()
//	p := pool.New()
//	input := ... // build or decode a value into p
//	result, err := ev.Evaluate(ctx, p, node, input, evaluator.NewFrame())
//	if err != nil {
//	    log.Fatal(err)
//	}
package evaluator

import (
	"context"
	"log/slog"
	"time"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
)

// Evaluator evaluates JQL expression trees against pool-resident values.
// There is no compiled-expression cache or query-level concurrency here --
// the caller hands in an already-built *types.Node each time.
type Evaluator struct {
	opts     EvalOptions
	logger   *slog.Logger
	registry *Registry
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// MaxDepth limits recursion depth (0 disables the guard).
	MaxDepth int
	// Timeout bounds a single Evaluate call. Zero disables the timeout.
	Timeout time.Duration
	// Debug enables verbose structured logging of evaluation steps.
	Debug bool
	// Logger receives structured log output. Defaults to slog.Default().
	Logger *slog.Logger
	// Registry supplies the host-provided native functions available to the
	// evaluated expression. Defaults to DefaultRegistry().
	Registry *Registry
}

// EvalOption mutates EvalOptions; see With* constructors below.
type EvalOption func(*EvalOptions)

// WithMaxDepth overrides the recursion-depth guard.
func WithMaxDepth(depth int) EvalOption {
	return func(o *EvalOptions) { o.MaxDepth = depth }
}

// WithTimeout bounds evaluation wall-clock time.
func WithTimeout(d time.Duration) EvalOption {
	return func(o *EvalOptions) { o.Timeout = d }
}

// WithDebug toggles verbose structured logging.
func WithDebug(debug bool) EvalOption {
	return func(o *EvalOptions) { o.Debug = debug }
}

// WithLogger supplies a custom structured logger.
func WithLogger(l *slog.Logger) EvalOption {
	return func(o *EvalOptions) { o.Logger = l }
}

// WithRegistry overrides the default host function registry.
func WithRegistry(r *Registry) EvalOption {
	return func(o *EvalOptions) { o.Registry = r }
}

// New creates an Evaluator with default options: MaxDepth 10000, a 30s
// timeout, and DefaultRegistry() for host functions.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		MaxDepth: 10000,
		Timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Registry == nil {
		options.Registry = DefaultRegistry()
	}
	return &Evaluator{opts: options, logger: options.Logger, registry: options.Registry}
}

// Registry returns the evaluator's host function registry.
func (e *Evaluator) Registry() *Registry {
	return e.registry
}

// Evaluate evaluates node against input (the implicit context value for bare
// name/path steps) in the pool p, using frame as the root lexical scope.
func (e *Evaluator) Evaluate(ctx context.Context, p *pool.Pool, node *types.Node, input pool.Handle, frame *Frame) (pool.Handle, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	ec := &evalContext{
		p:        p,
		logger:   e.logger,
		debug:    e.opts.Debug,
		maxDepth: e.opts.MaxDepth,
	}

	// The registry's functions are bound into a child of the caller's frame
	// rather than the frame itself, so the caller's own frame is left
	// untouched across repeated Evaluate calls. Lookups start at this child,
	// so a registry function shadows a binding of the same name in frame.
	rootFrame := frame
	if e.registry != nil {
		rootFrame = frame.NewChild()
		e.registry.BindInto(p, rootFrame)
	}

	result, err := ec.eval(ctx, node, input, rootFrame)
	if err != nil {
		return 0, err
	}

	// eval()'s per-node collapse (collapseSequence) only resolves SEQUENCE
	// down to a scalar when the array has 0 or 1 members; a multi-element
	// SEQUENCE is intentionally left alone there because intermediate path
	// steps still need the flag to decide how to splice/flatten it into
	// their own result. At the true top level there is no further step to
	// do that splicing, so a surviving SEQUENCE here is just a plain user
	// array -- strip it, along
	// with the WRAPPED bookkeeping flag evalPath's iteration wrapping may
	// have left on a value that turned out not to need it.
	p.ClearFlags(result, pool.Sequence|pool.Wrapped)
	return result, nil
}
