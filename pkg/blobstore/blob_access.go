// Package blobstore defines the contract a single underlying storage
// backend must satisfy to take part in a WAL-backed multiplex, along
// with the value types (keys, bytes, put behaviours, overwrite and
// presence results) that are passed through the multiplex unmodified.
//
// The backends themselves, and the WAL storage engine consumed by
// pkg/blobstore/walmultiplex, are treated as external collaborators:
// this package only specifies the interface they must expose.
package blobstore

import (
	"context"
	"strconv"
)

// BackendId is an opaque identifier for a single storage backend. It
// is stable for the lifetime of the multiplex that holds it and is
// totally ordered only for the purpose of producing deterministic
// diagnostic output (error maps, Stringer output); the ordering
// carries no operational meaning.
type BackendId uint32

// String renders the id for diagnostics and log lines.
func (id BackendId) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// BlobKey identifies a blob. It is an uninterpreted, byte-identified
// string: the multiplex never parses, hashes, or otherwise attaches
// meaning to it beyond using it as a map/backend key.
type BlobKey string

// BlobStore is the contract a single underlying backend must
// implement to be fanned out to by a multiplex. Every method is
// fallible and may block for an arbitrary amount of time; backends own
// their own deadlines; the multiplex applies none of its own (see
// spec §5, "Timeouts").
//
// Absence of a blob is reported as an error whose gRPC status code is
// codes.NotFound, matching the convention used throughout this
// repository's other BlobAccess-shaped types (e.g. the now-removed
// quorum/mirrored backends this package was distilled from).
type BlobStore interface {
	// Get returns the blob stored under key, or a codes.NotFound
	// error if this backend holds no such blob.
	Get(ctx context.Context, key BlobKey) (BlobData, error)

	// IsPresent reports whether this backend believes it holds key,
	// without transferring the blob's contents.
	IsPresent(ctx context.Context, key BlobKey) (Presence, error)

	// PutWithStatus stores value under key using this backend's
	// default overwrite policy.
	PutWithStatus(ctx context.Context, key BlobKey, value BlobBytes) (OverwriteStatus, error)

	// PutExplicit stores value under key, enforcing behavior
	// explicitly rather than deferring to the backend's default.
	PutExplicit(ctx context.Context, key BlobKey, value BlobBytes, behavior PutBehavior) (OverwriteStatus, error)
}

// Backend pairs a BlobStore with the BackendId it is addressed by
// within a multiplex. Backend handle sets (the "normal" and
// "write-mostly" arrays of spec.md §3) are built from slices of this
// type and never mutated after a multiplex is constructed.
type Backend struct {
	ID    BackendId
	Store BlobStore
}
