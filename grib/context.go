package grib

import (
	"github.com/meteokit/gribkit/pkg/types"
	"github.com/meteokit/gribkit/schema"
)

// Allocator supplies message buffers. Owned handle buffers come from Alloc
// and go back through Free on Close, so a pooling allocator can recycle them.
type Allocator interface {
	Alloc(n int) []byte
	Free(b []byte)
}

// heapAllocator is the default: plain make, garbage-collected frees.
type heapAllocator struct{}

func (heapAllocator) Alloc(n int) []byte { return make([]byte, n) }
func (heapAllocator) Free([]byte)        {}

// Context is the explicit configuration object shared by handles and
// indexes. There is no process-wide mutable state; callers that want a
// shared default use Default().
type Context struct {
	// Allocator provides owned message buffers. Nil means heap allocation.
	Allocator Allocator
	// MissingKeyPolicy decides whether an index build skips or aborts on a
	// message lacking one of the requested keys.
	MissingKeyPolicy types.MissingKeyPolicy
	// Provider maps raw messages to field definitions. Nil means the
	// builtin WMO-derived schema.
	Provider schema.Provider
}

var defaultContext = &Context{}

// Default returns the shared default Context: builtin schema, heap
// allocation, skip-on-missing-key.
func Default() *Context { return defaultContext }

func (c *Context) orDefault() *Context {
	if c == nil {
		return defaultContext
	}
	return c
}

func (c *Context) allocator() Allocator {
	if c.Allocator == nil {
		return heapAllocator{}
	}
	return c.Allocator
}

func (c *Context) provider() schema.Provider {
	if c.Provider == nil {
		return schema.Builtin()
	}
	return c.Provider
}
