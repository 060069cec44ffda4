// Package wal specifies the write-ahead log contract consumed by a
// WAL-backed multiplex (pkg/blobstore/walmultiplex). The storage
// engine behind the log — how entries are persisted, and how an
// out-of-band healer later replays them to repair divergent backends
// — is out of scope here (spec.md §1); this package only fixes the
// shape of an entry and the interface used to append one durably.
package wal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/buildbarn/bb-wal-multiplex/pkg/blobstore"
	"github.com/buildbarn/bb-wal-multiplex/pkg/util"
)

// MultiplexId identifies the multiplex instance that produced an
// Entry. It is stamped into every entry so a healer operating across
// multiple multiplexes can tell them apart.
type MultiplexId string

// OperationKey is a token minted fresh for every put and stamped into
// that put's WAL entry, so a healer replaying the log can correlate
// replays of the same durable intent. It is recorded only in the WAL
// entry; it is not passed to the backend attempts themselves.
type OperationKey string

// NewOperationKeyFunc generates a fresh OperationKey. It is a function
// value, not a method, so tests can substitute a deterministic
// generator the same way util.UUIDGenerator lets the rest of this
// repository inject UUID generation.
type NewOperationKeyFunc func() OperationKey

// NewOperationKey generates an OperationKey from a random UUID. This
// is the generator production callers should use; tests that need
// deterministic keys should inject their own NewOperationKeyFunc.
func NewOperationKey() OperationKey {
	return NewOperationKeyFromUUIDGenerator(uuid.NewRandom)()
}

// NewOperationKeyFromUUIDGenerator adapts a util.UUIDGenerator (the
// same injection seam the rest of this codebase uses for mockable UUID
// generation) into a NewOperationKeyFunc. Callers that already inject
// a util.UUIDGenerator elsewhere (e.g. to keep all of a process's UUID
// generation behind one mockable hook) can reuse it here instead of
// maintaining a second generator just for operation keys.
func NewOperationKeyFromUUIDGenerator(gen util.UUIDGenerator) NewOperationKeyFunc {
	return func() OperationKey {
		return OperationKey(util.Must(gen()).String())
	}
}

// Entry is a single durable intent record: "a put for this key, under
// this operation key, was about to be attempted against this
// multiplex's backends." The blob payload itself is never part of an
// Entry; only its size, when known, is recorded (spec.md §6,
// "Persisted state").
type Entry struct {
	Key           blobstore.BlobKey
	MultiplexId   MultiplexId
	Timestamp     time.Time
	OperationKey  OperationKey
	BlobSizeBytes *uint64
}

// NewEntry constructs an Entry, recording the blob's size.
func NewEntry(key blobstore.BlobKey, multiplexID MultiplexId, timestamp time.Time, operationKey OperationKey, blobSizeBytes uint64) Entry {
	return Entry{
		Key:           key,
		MultiplexId:   multiplexID,
		Timestamp:     timestamp,
		OperationKey:  operationKey,
		BlobSizeBytes: &blobSizeBytes,
	}
}

// Client appends intent records to the write-ahead log. Log must not
// return until entry is durably committed: every successful put
// performed by a WAL-backed multiplex relies on this happens-before
// relationship to let an out-of-band reconciler discover and repair
// divergence later (spec.md §5, "Ordering guarantees").
type Client interface {
	Log(ctx context.Context, entry Entry) error
}
