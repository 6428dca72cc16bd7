// Package native defines the boundary to the component that supplies raw
// atomic entry points and alignment metadata per object width, and ships
// an in-process implementation built on sync/atomic.
package native

import (
	"errors"
	"sync"
)

// Provider abstracts the capability-reporting source of atomic operations.
// Implementations may be backed by a foreign library or by Go code.
type Provider interface {
	// Resolve returns the entry points and alignment metadata for width.
	// It is deterministic per width.
	Resolve(width int) (OpTable, Alignment, error)
	// CountSupported reports how many entry points of table are usable
	// under the requested access mode.
	CountSupported(table *OpTable, readonly bool) int
}

var ErrNegativeWidth = errors.New("width must not be negative")

var (
	defaultOnce     sync.Once
	defaultProvider *GoProvider
)

// Default returns the process-wide provider. It is created on first use.
func Default() Provider {
	defaultOnce.Do(func() {
		defaultProvider = NewGoProvider(GoProviderConfig{})
	})
	return defaultProvider
}
