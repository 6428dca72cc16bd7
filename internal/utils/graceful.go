package utils

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

type releaseEntry struct {
	name string
	fn   func() error
}

// ReleaseGroup collects cleanup functions for atomics, views and shared
// regions and runs them in reverse registration order.
type ReleaseGroup struct {
	mu      sync.Mutex
	entries []releaseEntry
	logger  *Logger
}

// NewReleaseGroup creates an empty group
func NewReleaseGroup(logger *Logger) *ReleaseGroup {
	if logger == nil {
		logger = NopLogger()
	}
	return &ReleaseGroup{logger: logger}
}

// Register adds a cleanup function
func (g *ReleaseGroup) Register(name string, fn func() error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entries = append(g.entries, releaseEntry{name: name, fn: fn})
}

// Len reports the number of pending cleanup functions
func (g *ReleaseGroup) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Release runs every registered function, last registered first. All
// functions run even if some fail; the failures are combined. If ctx is
// cancelled the remaining functions are skipped and ctx.Err() is included.
// The group is empty afterwards.
func (g *ReleaseGroup) Release(ctx context.Context) error {
	g.mu.Lock()
	entries := g.entries
	g.entries = nil
	g.mu.Unlock()

	g.logger.Debug("Releasing resources", Int("count", len(entries)))

	var err error
	for i := len(entries) - 1; i >= 0; i-- {
		if ctxErr := ctx.Err(); ctxErr != nil {
			g.logger.Warn("Release interrupted",
				Int("remaining", i+1),
				Err(ctxErr),
			)
			return multierr.Append(err, ctxErr)
		}

		e := entries[i]
		if fnErr := e.fn(); fnErr != nil {
			g.logger.Error("Release function failed",
				String("name", e.name),
				Err(fnErr),
			)
			err = multierr.Append(err, WrapError(fnErr, e.name))
		}
	}
	return err
}
