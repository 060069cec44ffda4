package walmultiplex

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/buildbarn/bb-wal-multiplex/pkg/blobstore"
)

// fakeBlobStore is a hand-written test double implementing
// blobstore.BlobStore. Its behaviour is driven entirely by function
// fields so each test can describe exactly the scenario it wants
// (immediate success, immediate failure, or a backend that hangs
// until the test releases it) without a mocking framework.
type fakeBlobStore struct {
	mu sync.Mutex

	getFunc       func(ctx context.Context, key blobstore.BlobKey) (blobstore.BlobData, error)
	isPresentFunc func(ctx context.Context, key blobstore.BlobKey) (blobstore.Presence, error)
	putFunc       func(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes, behavior blobstore.PutBehavior) (blobstore.OverwriteStatus, error)

	puts []fakePut
}

type fakePut struct {
	key      blobstore.BlobKey
	value    []byte
	behavior blobstore.PutBehavior
}

func (s *fakeBlobStore) Get(ctx context.Context, key blobstore.BlobKey) (blobstore.BlobData, error) {
	return s.getFunc(ctx, key)
}

func (s *fakeBlobStore) IsPresent(ctx context.Context, key blobstore.BlobKey) (blobstore.Presence, error) {
	return s.isPresentFunc(ctx, key)
}

func (s *fakeBlobStore) PutWithStatus(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes) (blobstore.OverwriteStatus, error) {
	return s.PutExplicit(ctx, key, value, blobstore.PutBehaviorDefault)
}

func (s *fakeBlobStore) PutExplicit(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes, behavior blobstore.PutBehavior) (blobstore.OverwriteStatus, error) {
	s.mu.Lock()
	s.puts = append(s.puts, fakePut{key: key, value: append([]byte(nil), value.Bytes()...), behavior: behavior})
	s.mu.Unlock()
	return s.putFunc(ctx, key, value, behavior)
}

func (s *fakeBlobStore) recordedPuts() []fakePut {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fakePut(nil), s.puts...)
}

// succeedingPut returns a fakeBlobStore whose every put immediately
// succeeds with OverwriteStatusNotChecked.
func succeedingPut() *fakeBlobStore {
	return &fakeBlobStore{
		putFunc: func(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes, behavior blobstore.PutBehavior) (blobstore.OverwriteStatus, error) {
			return blobstore.OverwriteStatusNotChecked, nil
		},
	}
}

// failingPut returns a fakeBlobStore whose every put fails with err.
func failingPut(err error) *fakeBlobStore {
	return &fakeBlobStore{
		putFunc: func(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes, behavior blobstore.PutBehavior) (blobstore.OverwriteStatus, error) {
			return blobstore.OverwriteStatusNotChecked, err
		},
	}
}

// hangingPut returns a fakeBlobStore whose put blocks until its
// context is cancelled or the given release channel is closed (or five
// seconds pass), modelling "backends that hang" in spec.md's
// short-circuit scenarios.
func hangingPut(release <-chan struct{}) *fakeBlobStore {
	return &fakeBlobStore{
		putFunc: func(ctx context.Context, key blobstore.BlobKey, value blobstore.BlobBytes, behavior blobstore.PutBehavior) (blobstore.OverwriteStatus, error) {
			select {
			case <-release:
				return blobstore.OverwriteStatusNotChecked, nil
			case <-ctx.Done():
				return blobstore.OverwriteStatusNotChecked, status.Error(codes.Canceled, ctx.Err().Error())
			case <-time.After(5 * time.Second):
				return blobstore.OverwriteStatusNotChecked, status.Error(codes.DeadlineExceeded, "fakeBlobStore: timed out waiting for release")
			}
		},
	}
}

// foundGet returns a fakeBlobStore whose Get immediately returns value.
func foundGet(value []byte) *fakeBlobStore {
	return &fakeBlobStore{
		getFunc: func(ctx context.Context, key blobstore.BlobKey) (blobstore.BlobData, error) {
			return blobstore.NewBlobBytes(value), nil
		},
	}
}

// notFoundGet returns a fakeBlobStore whose Get always reports absence.
func notFoundGet() *fakeBlobStore {
	return &fakeBlobStore{
		getFunc: func(ctx context.Context, key blobstore.BlobKey) (blobstore.BlobData, error) {
			return blobstore.BlobData{}, status.Errorf(codes.NotFound, "key %q not found", key)
		},
	}
}

// erroringGet returns a fakeBlobStore whose Get always fails with err.
func erroringGet(err error) *fakeBlobStore {
	return &fakeBlobStore{
		getFunc: func(ctx context.Context, key blobstore.BlobKey) (blobstore.BlobData, error) {
			return blobstore.BlobData{}, err
		},
	}
}

// hangingGet returns a fakeBlobStore whose Get blocks until ctx is
// cancelled, modelling the "others slow" half of E6.
func hangingGet() *fakeBlobStore {
	return &fakeBlobStore{
		getFunc: func(ctx context.Context, key blobstore.BlobKey) (blobstore.BlobData, error) {
			select {
			case <-ctx.Done():
				return blobstore.BlobData{}, status.Error(codes.Canceled, ctx.Err().Error())
			case <-time.After(5 * time.Second):
				return blobstore.BlobData{}, status.Error(codes.DeadlineExceeded, "fakeBlobStore: timed out waiting for cancellation")
			}
		},
	}
}

// presentPresence returns a fakeBlobStore whose IsPresent reports Present.
func presentPresence() *fakeBlobStore {
	return &fakeBlobStore{
		isPresentFunc: func(ctx context.Context, key blobstore.BlobKey) (blobstore.Presence, error) {
			return blobstore.PresencePresent(), nil
		},
	}
}

// absentPresence returns a fakeBlobStore whose IsPresent reports Absent.
func absentPresence() *fakeBlobStore {
	return &fakeBlobStore{
		isPresentFunc: func(ctx context.Context, key blobstore.BlobKey) (blobstore.Presence, error) {
			return blobstore.PresenceAbsent(), nil
		},
	}
}

// probablyNotPresentPresence returns a fakeBlobStore whose IsPresent
// always reports ProbablyNotPresent with diag as the diagnostic.
func probablyNotPresentPresence(diag error) *fakeBlobStore {
	return &fakeBlobStore{
		isPresentFunc: func(ctx context.Context, key blobstore.BlobKey) (blobstore.Presence, error) {
			return blobstore.PresenceProbablyNotPresent(diag), nil
		},
	}
}

func backend(id blobstore.BackendId, store blobstore.BlobStore) blobstore.Backend {
	return blobstore.Backend{ID: id, Store: store}
}
