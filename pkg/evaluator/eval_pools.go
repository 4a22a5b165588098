package evaluator

import (
	"sync"

	"github.com/sandrolain/jqlcore/pkg/pool"
)

// argsPool is a process-wide pool of []pool.Handle scratch slices used to
// collect a function call's evaluated arguments (evalFunction) before
// dispatch. Function calls are the hottest per-node path in recursive
// evaluation (every lambda self-call goes through it), so this avoids one
// heap allocation per call for the common 0-3 argument case.
//
// THREAD-SAFETY AUDIT: safe.
//   - sync.Pool is designed for concurrent use; Get/Put are internally locked.
//   - Each caller receives exclusive ownership of a slice for the duration of
//     evalFunction's call to apply; the slice is never retained past that
//     call (NativeFunc implementations in this package only read their args
//     argument, they don't store it, and callLambda copies each handle into
//     the call frame's bindings before returning).
//   - Slices are always truncated to length 0 before reuse, so no stale
//     handle from a previous call is visible.
var argsPool = sync.Pool{
	New: func() interface{} { s := make([]pool.Handle, 0, 4); return &s },
}

// acquireArgs returns a zero-length scratch slice with capacity for at
// least n handles.
func acquireArgs(n int) []pool.Handle {
	sp := argsPool.Get().(*[]pool.Handle)
	s := (*sp)[:0]
	if cap(s) < n {
		s = make([]pool.Handle, 0, n)
	}
	return s
}

// releaseArgs returns s to the pool. Only slices with a reasonably bounded
// capacity are returned; unusually large ones (a call with many arguments)
// are discarded to prevent unbounded memory retention.
func releaseArgs(s []pool.Handle) {
	if cap(s) <= 64 {
		s = s[:0]
		argsPool.Put(&s)
	}
}
