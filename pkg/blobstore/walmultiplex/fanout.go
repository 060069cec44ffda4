package walmultiplex

import (
	"context"

	"github.com/buildbarn/bb-wal-multiplex/pkg/blobstore"
	"github.com/buildbarn/bb-wal-multiplex/pkg/util"
)

// attempt is one backend's outcome within a fanOut.
type attempt[T any] struct {
	backend blobstore.BackendId
	value   T
	err     error
}

// fanOut is the unordered completion stream described in spec.md §4.2:
// every backend attempt is launched as its own goroutine before the
// first result is consumed, and results arrive in whatever order the
// backends actually finish in, not in launch order.
//
// The results channel is allocated with capacity equal to the number
// of backends, so every attempt goroutine can deliver its result and
// exit immediately even if the caller stops calling next before
// draining the stream; nothing blocks waiting for a reader that never
// arrives.
type fanOut[T any] struct {
	results   chan attempt[T]
	remaining int
}

// launchFanOut starts one goroutine per backend, each invoking op and
// reporting its outcome on the returned fanOut's internal channel. All
// goroutines are started before this function returns: true
// concurrency of the underlying I/O, not a sequential probe of one
// backend at a time.
//
// ctx is passed to every attempt unchanged; cancelling it is the
// caller's mechanism for aborting pending attempts (spec.md §5,
// "dropping the stream releases them") — callers that want attempts
// immune to their own cancellation (e.g. detached background work)
// must pass a context already stripped of cancellation, such as one
// built with context.WithoutCancel.
func launchFanOut[T any](ctx context.Context, backends []blobstore.Backend, op func(ctx context.Context, store blobstore.BlobStore) (T, error)) *fanOut[T] {
	results := make(chan attempt[T], len(backends))
	for _, b := range backends {
		b := b
		go func() {
			value, err := op(ctx, b.Store)
			results <- attempt[T]{backend: b.ID, value: value, err: err}
		}()
	}
	return &fanOut[T]{results: results, remaining: len(backends)}
}

// next blocks until the next attempt completes, or returns ok=false if
// every attempt has already been consumed.
func (f *fanOut[T]) next() (a attempt[T], ok bool) {
	if f.remaining == 0 {
		return attempt[T]{}, false
	}
	a = <-f.results
	f.remaining--
	return a, true
}

// nextOrDone is next, but also unblocks when ctx is done before the
// next attempt arrives. It is used where a fan-out is launched under a
// context that is no longer wired to automatically cancel the
// attempts themselves (e.g. put.go's primary, pre-quorum phase, which
// must keep attempts alive across a later detach), so the caller has
// to notice ctx's cancellation itself rather than relying on the
// attempts to unblock it.
func (f *fanOut[T]) nextOrDone(ctx context.Context) (a attempt[T], ok bool, done bool) {
	if f.remaining == 0 {
		return attempt[T]{}, false, false
	}
	select {
	case a = <-f.results:
		f.remaining--
		return a, true, false
	case <-ctx.Done():
		return attempt[T]{}, false, true
	}
}

// detach hands off every attempt this fanOut has not yet delivered to
// a background goroutine that drains them to completion and discards
// the results, logging failures through logger rather than returning
// them anywhere. This is spec.md §4.3's "detach the residual normal
// fan-out": once a write quorum is reached, the remaining in-flight
// puts are allowed to keep running, but nothing in the calling
// goroutine needs to wait on them any longer — the WAL entry already
// written is the durable source of truth a healer can use to repair
// any backend that ultimately failed.
func (f *fanOut[T]) detach(logger util.ErrorLogger, describe func(attempt[T]) error) {
	remaining := f.remaining
	f.remaining = 0
	if remaining == 0 {
		return
	}
	go func() {
		for i := 0; i < remaining; i++ {
			a := <-f.results
			if a.err != nil && logger != nil {
				logger.Log(describe(a))
			}
		}
	}()
}
