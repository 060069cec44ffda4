package walmultiplex

import (
	"fmt"
	"sort"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/buildbarn/bb-wal-multiplex/pkg/blobstore"
)

// BackendErrors maps each backend that failed during an operation to
// the error it returned. A Go map is already a reference type, so
// passing one around (e.g. into a log call, or back out to several
// callers) is already the cheap shared-ownership handle spec.md §4.6
// calls for; no further wrapping is needed. Callers must not mutate a
// BackendErrors value they did not construct themselves.
type BackendErrors map[blobstore.BackendId]error

// ErrorKind classifies why a multiplexed operation failed to reach
// quorum, per spec.md §7.
type ErrorKind int

const (
	// AllFailed means every normal backend returned an error.
	AllFailed ErrorKind = iota
	// SomePutsFailed means a put's write quorum was not reached,
	// but not every backend errored.
	SomePutsFailed
	// SomeGetsFailed means a get found no quorum of "not found"
	// answers, and not every backend errored.
	SomeGetsFailed
	// SomePresenceFailed means an is_present could not confirm
	// Present or reach a quorum of Absent, and not every backend
	// errored. Per spec.md §7 this kind is never itself returned as
	// an error: it is wrapped in a Presence{Kind: ProbablyNotPresent}
	// diagnostic instead.
	SomePresenceFailed
)

func (k ErrorKind) String() string {
	switch k {
	case AllFailed:
		return "AllFailed"
	case SomePutsFailed:
		return "SomePutsFailed"
	case SomeGetsFailed:
		return "SomeGetsFailed"
	case SomePresenceFailed:
		return "SomePresenceFailed"
	default:
		return "UnknownErrorKind"
	}
}

// MultiplexError is returned when a put, get, or is_present fails to
// reach quorum. It carries the full per-backend error map so callers
// can diagnose exactly which backends disagreed.
type MultiplexError struct {
	Kind   ErrorKind
	Errors BackendErrors
}

func (e *MultiplexError) Error() string {
	ids := make([]blobstore.BackendId, 0, len(e.Errors))
	for id := range e.Errors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %s", id, e.Errors[id]))
	}
	return fmt.Sprintf("%s: [%s]", e.Kind, strings.Join(parts, ", "))
}

// GRPCStatus lets status.Code(err) and status.Convert(err) treat a
// MultiplexError as codes.Unavailable, the same code the teacher's
// quorum/mirrored backends use for "too many backends unavailable".
func (e *MultiplexError) GRPCStatus() *status.Status {
	return status.New(codes.Unavailable, e.Error())
}

// classify turns a per-backend error map collected over total normal
// backends into the AllFailed/partial split required by spec.md §4.6:
// AllFailed iff every backend is represented in errs, otherwise the
// caller-supplied partial kind.
func classify(errs BackendErrors, total int, partial ErrorKind) *MultiplexError {
	if len(errs) == total {
		return &MultiplexError{Kind: AllFailed, Errors: errs}
	}
	return &MultiplexError{Kind: partial, Errors: errs}
}
