package evaluator

import (
	"fmt"

	"github.com/sandrolain/jqlcore/pkg/pool"
)

// Frame is a lexically scoped binding table: a mapping from name to value
// handle, plus an optional parent. Bindings are held in a Go map, so their
// insertion order is not kept, and Frame offers no way to enumerate them.
// Lookup walks to the root; binding affects only the innermost frame. Frames are created at block entry and
// lambda entry.
//
type Frame struct {
	parent   *Frame
	bindings map[string]pool.Handle
	depth    int
}

// NewFrame creates a root frame with no parent.
func NewFrame() *Frame {
	return &Frame{}
}

// NewChild creates a child frame whose lookups fall through to f when a name
// isn't bound locally.
func (f *Frame) NewChild() *Frame {
	return &Frame{parent: f, depth: f.depth + 1}
}

// Bind records name -> value in this frame only.
func (f *Frame) Bind(name string, value pool.Handle) {
	if f.bindings == nil {
		f.bindings = make(map[string]pool.Handle, 4)
	}
	f.bindings[name] = value
}

// Lookup walks f and its ancestors for name, returning (handle, true) on the
// first match or (0, false) if unbound anywhere in the chain.
func (f *Frame) Lookup(name string) (pool.Handle, bool) {
	for c := f; c != nil; c = c.parent {
		if v, ok := c.bindings[name]; ok {
			return v, true
		}
	}
	return 0, false
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame{depth=%d, bindings=%d}", f.depth, len(f.bindings))
}
