package walmultiplex

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// quorum holds the derived read and write quorum sizes for a fixed
// number of normal backends, as specified in spec.md §4.1.
type quorum struct {
	read  int
	write int
}

// newQuorum derives the read quorum from the number of normal
// backends and the configured write quorum: R = N - W + 1. It rejects
// the same two degenerate cases the multiplex this package is
// distilled from rejects, as two distinct errors so a misconfiguration
// is obvious from the message alone: a write quorum of zero can never
// be satisfied, and a write quorum larger than the backend count can
// never be satisfied either.
//
// Given a valid (numBackends, writeQuorum), R + W = N + 1 always
// holds, which is the intersection guarantee spec.md §4.1 relies on:
// any read quorum of R backends and any prior write quorum of W
// backends must share at least one backend in common.
func newQuorum(numBackends, writeQuorum int) (quorum, error) {
	if writeQuorum == 0 {
		return quorum{}, status.Error(codes.InvalidArgument, "write quorum cannot be zero")
	}
	if writeQuorum > numBackends {
		return quorum{}, status.Errorf(codes.InvalidArgument,
			"not enough backends for configured write quorum: have %d, need %d", numBackends, writeQuorum)
	}
	return quorum{
		write: writeQuorum,
		read:  numBackends - writeQuorum + 1,
	}, nil
}
