// Package memory provides an in-memory reference implementation of
// blobstore.BlobStore. It exists for tests and small deployments; real
// backends (cloud object stores, on-disk stores, ...) are external
// collaborators per spec.md §1 and are not reproduced in this module.
//
// The implementation follows the same shape as the teacher's
// lock-guarded in-memory maps (e.g. pkg/digest's existence cache):
// everything is kept in a single map guarded by a mutex, with no
// attempt at eviction or persistence.
package memory

import (
	"context"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/buildbarn/bb-wal-multiplex/pkg/blobstore"
)

type memoryBlobStore struct {
	mu   sync.Mutex
	blob map[blobstore.BlobKey][]byte
}

// NewBlobStore creates a BlobStore that holds every blob directly in
// memory. It is fully allocated lazily; there is no fixed capacity.
func NewBlobStore() blobstore.BlobStore {
	return &memoryBlobStore{
		blob: map[blobstore.BlobKey][]byte{},
	}
}

func (s *memoryBlobStore) Get(ctx context.Context, key blobstore.BlobKey) (blobstore.BlobData, error) {
	if err := ctx.Err(); err != nil {
		return blobstore.BlobData{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blob[key]
	if !ok {
		return blobstore.BlobData{}, status.Errorf(codes.NotFound, "blob %q not found", key)
	}
	// Return a copy: callers (and concurrent fan-out attempts on
	// the same backend) must not observe mutation of data handed
	// out from this map.
	out := make([]byte, len(data))
	copy(out, data)
	return blobstore.NewBlobBytes(out), nil
}

func (s *memoryBlobStore) IsPresent(ctx context.Context, key blobstore.BlobKey) (blobstore.Presence, error) {
	if err := ctx.Err(); err != nil {
		return blobstore.Presence{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blob[key]; ok {
		return blobstore.PresencePresent(), nil
	}
	return blobstore.PresenceAbsent(), nil
}

func (s *memoryBlobStore) PutWithStatus(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes) (blobstore.OverwriteStatus, error) {
	return s.putExplicit(ctx, key, value, blobstore.PutBehaviorOverwrite)
}

func (s *memoryBlobStore) PutExplicit(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes, behavior blobstore.PutBehavior) (blobstore.OverwriteStatus, error) {
	return s.putExplicit(ctx, key, value, behavior)
}

func (s *memoryBlobStore) putExplicit(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes, behavior blobstore.PutBehavior) (blobstore.OverwriteStatus, error) {
	if err := ctx.Err(); err != nil {
		return blobstore.OverwriteStatusNotChecked, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.blob[key]
	switch behavior {
	case blobstore.PutBehaviorIfAbsent:
		if existed {
			return blobstore.OverwriteStatusNotChecked, nil
		}
	case blobstore.PutBehaviorIfAbsentChecked:
		if existed {
			return blobstore.OverwriteStatusPreventedOverwrite, nil
		}
	}

	data := make([]byte, value.Len())
	copy(data, value.Bytes())
	s.blob[key] = data

	switch {
	case behavior == blobstore.PutBehaviorIfAbsentChecked && !existed:
		return blobstore.OverwriteStatusNewKey, nil
	case existed:
		return blobstore.OverwriteStatusOverwrote, nil
	default:
		return blobstore.OverwriteStatusNewKey, nil
	}
}
