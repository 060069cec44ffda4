// Package walmultiplex implements a write-ahead-log-backed
// multiplexed blob store: it fans opaque put/get/is_present
// operations out across a fixed set of backend blob stores, enforces
// configurable read/write quorums, and logs every put's intent to a
// WAL before touching any backend so an out-of-band reconciler can
// repair divergence later. See spec.md for the full design.
package walmultiplex

import (
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/buildbarn/bb-wal-multiplex/pkg/blobstore"
	"github.com/buildbarn/bb-wal-multiplex/pkg/blobstore/wal"
	"github.com/buildbarn/bb-wal-multiplex/pkg/clock"
	"github.com/buildbarn/bb-wal-multiplex/pkg/util"
)

var (
	metricsOnce sync.Once

	putOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "wal_multiplexed_blob_access",
			Name:      "put_outcomes_total",
			Help:      "Number of puts, by outcome (quorum_reached, all_failed, some_failed, wal_unavailable, cancelled).",
		},
		[]string{"outcome"})
	getOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "wal_multiplexed_blob_access",
			Name:      "get_outcomes_total",
			Help:      "Number of gets, by outcome (found, absent, all_failed, some_failed).",
		},
		[]string{"outcome"})
	detachedFanOutSizes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildbarn",
			Subsystem: "wal_multiplexed_blob_access",
			Name:      "detached_fan_out_sizes",
			Help:      "Number of backend attempts handed off to a detached fan-out, by kind (residual, write_mostly).",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		},
		[]string{"kind"})
)

func registerMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(putOutcomes, getOutcomes, detachedFanOutSizes)
	})
}

// Config holds everything needed to construct a BlobAccess. It
// corresponds directly to spec.md §3's MultiplexConfig: once passed to
// New, none of it is mutated again, and a reconfiguration is performed
// by constructing a new BlobAccess rather than mutating an existing
// one (spec.md §3, invariant 2).
type Config struct {
	// MultiplexId is stamped into every WAL entry this multiplex
	// produces.
	MultiplexId wal.MultiplexId
	// Wal receives one Log call per put, before any backend is
	// touched.
	Wal wal.Client
	// Normal backends participate in both reads and writes, and
	// are the only backends that count towards quorum decisions.
	Normal []blobstore.Backend
	// WriteMostly backends are written to in the background after
	// a put's write quorum has already been satisfied by the
	// normal backends; they never participate in reads or quorum
	// decisions (spec.md §3, invariant 4).
	WriteMostly []blobstore.Backend
	// WriteQuorum is the number of normal backends that must
	// confirm a put before it is considered successful. The read
	// quorum is derived as len(Normal) - WriteQuorum + 1.
	WriteQuorum int
	// Clock supplies the current time for WAL timestamps. Defaults
	// to clock.SystemClock if left nil.
	Clock clock.Clock
	// NewOperationKey generates the per-put correlation token
	// stamped into the WAL entry. Defaults to wal.NewOperationKey
	// if left nil; tests may substitute a deterministic generator.
	NewOperationKey wal.NewOperationKeyFunc
	// ErrorLogger receives errors from detached background fan-outs
	// that cannot be returned to any caller. Defaults to
	// util.DefaultErrorLogger if left nil.
	ErrorLogger util.ErrorLogger
}

// BlobAccess is a WAL-backed multiplex over a fixed set of backend
// blob stores. Construct one with New; once constructed its backend
// arrays never change (spec.md §3, invariant 2). A BlobAccess is safe
// for concurrent use by multiple goroutines: all of its state beyond
// the immutable configuration lives in the stack frame of each
// individual operation.
type BlobAccess struct {
	multiplexID     wal.MultiplexId
	walClient       wal.Client
	normal          []blobstore.Backend
	writeMostly     []blobstore.Backend
	quorum          quorum
	clock           clock.Clock
	newOperationKey wal.NewOperationKeyFunc
	errorLogger     util.ErrorLogger
}

// New validates cfg's quorum arithmetic and constructs a BlobAccess.
// It fails if WriteQuorum is zero or exceeds len(Normal).
func New(cfg Config) (*BlobAccess, error) {
	registerMetrics()

	q, err := newQuorum(len(cfg.Normal), cfg.WriteQuorum)
	if err != nil {
		return nil, err
	}

	cl := cfg.Clock
	if cl == nil {
		cl = clock.SystemClock
	}
	newOperationKey := cfg.NewOperationKey
	if newOperationKey == nil {
		newOperationKey = wal.NewOperationKey
	}
	errorLogger := cfg.ErrorLogger
	if errorLogger == nil {
		errorLogger = util.DefaultErrorLogger
	}

	normal := append([]blobstore.Backend(nil), cfg.Normal...)
	writeMostly := append([]blobstore.Backend(nil), cfg.WriteMostly...)

	return &BlobAccess{
		multiplexID:     cfg.MultiplexId,
		walClient:       cfg.Wal,
		normal:          normal,
		writeMostly:     writeMostly,
		quorum:          q,
		clock:           cl,
		newOperationKey: newOperationKey,
		errorLogger:     errorLogger,
	}, nil
}

// String renders the multiplex's backend composition for logging,
// following the teacher's convention of every BlobAccess-shaped type
// implementing fmt.Stringer with its backend IDs.
func (ba *BlobAccess) String() string {
	normal := make([]string, 0, len(ba.normal))
	for _, b := range ba.normal {
		normal = append(normal, b.ID.String())
	}
	writeMostly := make([]string, 0, len(ba.writeMostly))
	for _, b := range ba.writeMostly {
		writeMostly = append(writeMostly, b.ID.String())
	}
	return fmt.Sprintf("WALMultiplexedBlobAccess[multiplex_id=%s, normal=[%s], write_mostly=[%s]]",
		ba.multiplexID, strings.Join(normal, ", "), strings.Join(writeMostly, ", "))
}
