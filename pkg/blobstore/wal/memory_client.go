package wal

import (
	"context"
	"sync"
)

// memoryClient stores entries directly in memory, being backed by a
// plain slice guarded by a mutex. It does not persist across process
// restarts. It exists as a reference Client for tests and small
// deployments; a real deployment's WAL storage engine is out of scope
// for this module (spec.md §1).
type memoryClient struct {
	mu      sync.Mutex
	entries []Entry
}

// NewInMemoryClient creates a Client that keeps logged entries in
// memory for the lifetime of the process. Log fails only when ctx is
// already done (returning ctx.Err() without appending anything), and
// otherwise returns as soon as the entry has been appended to the
// in-memory slice, which stands in for "durably committed" in this
// reference implementation.
func NewInMemoryClient() MemoryClient {
	return &memoryClient{}
}

func (c *memoryClient) Log(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

// Entries returns a copy of every entry logged so far, in append
// order. It is meant for tests and diagnostics that need to assert on
// WAL contents; a production healer would instead stream entries from
// the real storage engine.
func (c *memoryClient) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// MemoryClient is the interface type returned by NewInMemoryClient,
// exposed so tests can call Entries() without a type assertion.
type MemoryClient interface {
	Client
	Entries() []Entry
}

var _ MemoryClient = (*memoryClient)(nil)
