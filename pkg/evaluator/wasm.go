package evaluator

import (
	"context"
	"fmt"
	"math"

	"github.com/sandrolain/jqlcore/pkg/pool"
	"github.com/sandrolain/jqlcore/pkg/types"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// WasmHost loads WebAssembly modules and exposes their exported functions
// as NativeFn callables, giving host-provided native functions
// a sandboxed, dynamically loadable
// implementation alongside the handful registered directly in Go
// (hostfns.go).
//
// Exported WASM functions usable this way are restricted to fixed arity
// 0..3 of float64 parameters returning a single float64, matching the
// evaluator's NativeFnN contract; a function using other WASM value types
// cannot be wrapped and Export returns an error.
//
type WasmHost struct {
	runtime wazero.Runtime
	module  api.Module
}

// NewWasmHost instantiates runtime and compiles+instantiates wasmBytes as a
// module. The returned host owns the runtime and must be closed with
// Close when no longer needed.
func NewWasmHost(ctx context.Context, wasmBytes []byte) (*WasmHost, error) {
	runtime := wazero.NewRuntime(ctx)
	mod, err := runtime.Instantiate(ctx, wasmBytes)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("instantiate wasm module: %w", err)
	}
	return &WasmHost{runtime: runtime, module: mod}, nil
}

// Close releases the underlying wazero runtime and all module resources.
func (h *WasmHost) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

// Export resolves name to an exported WASM function and registers it on r
// as a NativeFn of the given arity, adapting pool.Handle number arguments
// to WASM float64 parameters and the WASM float64 result back to a pool
// Number. Non-number arguments are rejected with ArgumentNotValid at call
// time, since WASM numeric exports have no way to represent other JQL
// value kinds.
func (h *WasmHost) Export(r *Registry, name string, arity int) error {
	fn := h.module.ExportedFunction(name)
	if fn == nil {
		return fmt.Errorf("wasm module has no exported function %q", name)
	}
	if arity < 0 || arity > 3 {
		return fmt.Errorf("unsupported arity %d for wasm export %q (must be 0..3)", arity, name)
	}
	def := fn.Definition()
	for _, t := range def.ParamTypes() {
		if t != api.ValueTypeF64 {
			return fmt.Errorf("wasm export %q has a non-float64 parameter", name)
		}
	}
	if rt := def.ResultTypes(); len(rt) != 1 || rt[0] != api.ValueTypeF64 {
		return fmt.Errorf("wasm export %q must return a single float64", name)
	}

	r.Register(name, arity, func(ctx context.Context, p *pool.Pool, args []pool.Handle) (pool.Handle, error) {
		wasmArgs := make([]uint64, len(args))
		for i, a := range args {
			if !p.IsNumber(a) {
				return 0, types.NewError(types.ErrArgumentNotValid, fmt.Sprintf("argument %d to %q must be a number", i, name), -1)
			}
			wasmArgs[i] = api.EncodeF64(p.NumberValue(a))
		}
		results, err := fn.Call(ctx, wasmArgs...)
		if err != nil {
			return 0, fmt.Errorf("call wasm export %q: %w", name, err)
		}
		if len(results) == 0 {
			return p.Undefined(), nil
		}
		out := api.DecodeF64(results[0])
		if math.IsNaN(out) {
			return p.Undefined(), nil
		}
		return p.Number(out), nil
	})
	return nil
}
