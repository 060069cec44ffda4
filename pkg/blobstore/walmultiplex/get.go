package walmultiplex

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/buildbarn/bb-wal-multiplex/pkg/blobstore"
)

// Get implements spec.md §4.4. It fans out to every normal backend
// (write-mostly backends are never consulted on reads), returns the
// first blob any backend reports, and otherwise waits for a read
// quorum of "not found" answers before concluding the blob is absent.
//
// Absence is reported the same way a single backend reports it: a
// codes.NotFound error. Any other non-nil error is the *MultiplexError
// classification. Get does not watch ctx itself: if ctx is cancelled,
// it returns once every attempt has reported, and the attempts' errors
// are classified like any other backend failure.
func (ba *BlobAccess) Get(ctx context.Context, key blobstore.BlobKey) (blobstore.BlobData, error) {
	// Deriving a cancellable child context and always cancelling it
	// on return is what gives spec.md §5's "dropping the stream
	// releases them" its teeth here: as soon as Get returns (on the
	// first success, on a quorum of absences, or once every attempt
	// has reported), every backend attempt still in flight observes
	// ctx.Done() and may stop its own work. Reads are never
	// detached, so this is the only place a read-side fan-out's
	// context needs to outlive this function at all.
	fanOutCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	fan := launchFanOut(fanOutCtx, ba.normal, func(ctx context.Context, store blobstore.BlobStore) (blobstore.BlobData, error) {
		return store.Get(ctx, key)
	})

	remaining := ba.quorum.read
	errs := BackendErrors{}
	for {
		a, ok := fan.next()
		if !ok {
			break
		}
		if a.err == nil {
			getOutcomes.WithLabelValues("found").Inc()
			return a.value, nil
		}
		if status.Code(a.err) == codes.NotFound {
			remaining--
			if remaining == 0 {
				getOutcomes.WithLabelValues("absent").Inc()
				return blobstore.BlobData{}, status.Errorf(codes.NotFound,
					"key %q not found: read quorum of %d backends reported absent", key, ba.quorum.read)
			}
			continue
		}
		errs[a.backend] = a.err
	}

	merr := classify(errs, len(ba.normal), SomeGetsFailed)
	if merr.Kind == AllFailed {
		getOutcomes.WithLabelValues("all_failed").Inc()
	} else {
		getOutcomes.WithLabelValues("some_failed").Inc()
	}
	return blobstore.BlobData{}, merr
}
