package walmultiplex

import (
	"context"

	"google.golang.org/grpc/codes"

	"github.com/buildbarn/bb-wal-multiplex/pkg/blobstore"
	"github.com/buildbarn/bb-wal-multiplex/pkg/blobstore/wal"
	"github.com/buildbarn/bb-wal-multiplex/pkg/util"
)

// Put stores value under key using every normal backend's default
// overwrite policy, waiting only for a write quorum to confirm.
func (ba *BlobAccess) Put(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes) error {
	_, err := ba.PutWithStatus(ctx, key, value)
	return err
}

// PutWithStatus is Put, additionally reporting OverwriteStatus. The
// multiplex can only ever report OverwriteStatusNotChecked on success,
// since it stops listening to backends as soon as a write quorum is
// reached (spec.md §4.3).
func (ba *BlobAccess) PutWithStatus(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes) (blobstore.OverwriteStatus, error) {
	return ba.PutExplicit(ctx, key, value, blobstore.PutBehaviorDefault)
}

// PutExplicit implements spec.md §4.3's put pipeline: it first logs
// the operation's intent to the WAL, using ctx unmodified so that a
// WAL failure or a caller cancellation before the WAL call completes
// aborts the whole put before any backend is ever touched (spec.md §5,
// "Ordering guarantees"; scenario E3). Only once the WAL append
// succeeds does it fan out to every normal backend.
//
// Backend attempts run under attemptCtx, derived from a cancellation-
// free copy of ctx: once an attempt is detached into the background
// (quorum reached, or the write-mostly fan-out), it must keep running
// even if the caller later cancels ctx (spec.md §5, "already-detached
// background fan-outs are not cancelled"). Before that detach happens,
// though, this call still owes the caller the usual cancellation
// contract — "pending backend attempts within the primary fan-out are
// cancelled" — so the wait loop below selects on ctx.Done() itself and
// cancels attemptCtx by hand if the caller gives up first.
func (ba *BlobAccess) PutExplicit(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes, behavior blobstore.PutBehavior) (blobstore.OverwriteStatus, error) {
	operationKey := ba.newOperationKey()
	entry := wal.NewEntry(key, ba.multiplexID, ba.clock.Now(), operationKey, uint64(value.Len()))
	if err := ba.walClient.Log(ctx, entry); err != nil {
		putOutcomes.WithLabelValues("wal_unavailable").Inc()
		return blobstore.OverwriteStatusNotChecked, util.StatusWrapWithCode(err, codes.Unavailable, "WAL")
	}

	detachedCtx := context.WithoutCancel(ctx)
	attemptCtx, attemptCancel := context.WithCancel(detachedCtx)

	fan := launchFanOut(attemptCtx, ba.normal, func(ctx context.Context, store blobstore.BlobStore) (blobstore.OverwriteStatus, error) {
		return store.PutExplicit(ctx, key, value, behavior)
	})

	remaining := ba.quorum.write
	errs := BackendErrors{}
	for {
		a, ok, cancelled := fan.nextOrDone(ctx)
		if cancelled {
			// The primary fan-out is still pending and the caller
			// gave up: cancel it (the buffered results channel lets
			// the attempt goroutines deliver into the void without
			// blocking, so nothing leaks) and stop waiting. No
			// detach: quorum was never reached, so there is nothing
			// for a background task to keep carrying forward.
			attemptCancel()
			putOutcomes.WithLabelValues("cancelled").Inc()
			return blobstore.OverwriteStatusNotChecked, util.StatusFromContext(ctx)
		}
		if !ok {
			break
		}
		if a.err != nil {
			errs[a.backend] = a.err
			continue
		}
		remaining--
		if remaining == 0 {
			putOutcomes.WithLabelValues("quorum_reached").Inc()
			detachedFanOutSizes.WithLabelValues("residual").Observe(float64(fan.remaining))
			fan.detach(ba.errorLogger, func(a attempt[blobstore.OverwriteStatus]) error {
				return util.StatusWrapf(a.err, "backend %s", a.backend)
			})
			ba.putWriteMostly(detachedCtx, key, value, behavior)
			return blobstore.OverwriteStatusNotChecked, nil
		}
	}
	// Every attempt has reported back without reaching quorum: there
	// is nothing left in flight for attemptCtx to govern.
	attemptCancel()

	merr := classify(errs, len(ba.normal), SomePutsFailed)
	if merr.Kind == AllFailed {
		putOutcomes.WithLabelValues("all_failed").Inc()
	} else {
		putOutcomes.WithLabelValues("some_failed").Inc()
	}
	return blobstore.OverwriteStatusNotChecked, merr
}

// putWriteMostly launches a put against every write-mostly backend
// and immediately detaches the whole fan-out: write-mostly backends
// never participate in quorum (spec.md §3, invariant 4), so nothing in
// PutExplicit ever waits on them.
func (ba *BlobAccess) putWriteMostly(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes, behavior blobstore.PutBehavior) {
	if len(ba.writeMostly) == 0 {
		return
	}
	fan := launchFanOut(ctx, ba.writeMostly, func(ctx context.Context, store blobstore.BlobStore) (blobstore.OverwriteStatus, error) {
		return store.PutExplicit(ctx, key, value, behavior)
	})
	detachedFanOutSizes.WithLabelValues("write_mostly").Observe(float64(len(ba.writeMostly)))
	fan.detach(ba.errorLogger, func(a attempt[blobstore.OverwriteStatus]) error {
		return util.StatusWrapf(a.err, "write-mostly backend %s", a.backend)
	})
}
