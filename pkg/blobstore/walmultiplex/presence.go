package walmultiplex

import (
	"context"

	"github.com/buildbarn/bb-wal-multiplex/pkg/blobstore"
)

// IsPresent implements spec.md §4.5. It mirrors Get's shape over a
// three-valued result: Present returns immediately, a read quorum of
// Absent answers returns Absent, and a backend reporting
// ProbablyNotPresent is folded into the same error bookkeeping as an
// outright failure, since neither lets the multiplex make progress
// towards a read quorum.
//
// Unlike Get and Put, exhausting the fan-out without reaching quorum
// is not surfaced as an error unless every normal backend failed
// (then an AllFailed *MultiplexError is returned): otherwise the
// multiplex downgrades to Presence{Kind: ProbablyNotPresent}, because
// "I don't know" is the honest answer to an is_present check that
// could not be confirmed either way (spec.md §7).
func (ba *BlobAccess) IsPresent(ctx context.Context, key blobstore.BlobKey) (blobstore.Presence, error) {
	fanOutCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	fan := launchFanOut(fanOutCtx, ba.normal, func(ctx context.Context, store blobstore.BlobStore) (blobstore.Presence, error) {
		return store.IsPresent(ctx, key)
	})

	remaining := ba.quorum.read
	errs := BackendErrors{}
	for {
		a, ok := fan.next()
		if !ok {
			break
		}
		if a.err != nil {
			errs[a.backend] = a.err
			continue
		}
		switch a.value.Kind {
		case blobstore.Present:
			return blobstore.PresencePresent(), nil
		case blobstore.Absent:
			remaining--
			if remaining == 0 {
				return blobstore.PresenceAbsent(), nil
			}
		case blobstore.ProbablyNotPresent:
			errs[a.backend] = a.value.Diagnostic
		}
	}

	merr := classify(errs, len(ba.normal), SomePresenceFailed)
	if merr.Kind == AllFailed {
		return blobstore.Presence{}, merr
	}
	return blobstore.PresenceProbablyNotPresent(merr), nil
}
