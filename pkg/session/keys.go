package session

import (
	"fmt"

	"github.com/flo1101/swgts-ingest/pkg/types"
)

func keyPairCount(id types.SessionID) string {
	return fmt.Sprintf("context:%s:pair_count", id)
}

func keyPairFilename(id types.SessionID, i int) string {
	return fmt.Sprintf("context:%s:pair:%d:filename", id, i)
}

func keyPairReads(id types.SessionID, i int) string {
	return fmt.Sprintf("context:%s:pair:%d:reads", id, i)
}

func keyPendingBytes(id types.SessionID) string {
	return fmt.Sprintf("context:%s:pending_bytes", id)
}

func keyProcessedReads(id types.SessionID) string {
	return fmt.Sprintf("context:%s:processed_reads", id)
}

func keySpeed(id types.SessionID) string {
	return fmt.Sprintf("context:%s:speed", id)
}

// statsBasesKey is the single global counter tracking bytes discarded for
// exceeding MAXIMUM_PENDING_BYTES on a single read.
const statsBasesKey = "stats:bases"

// Well-known config:* keys bootstrap publishes for filter workers (and the
// server itself) to observe.
const (
	keyConfigRequestSizeFactor = "config:request_size_factor"
	keyConfigRequestSize       = "config:request_size"
	keyConfigContextTimeout    = "config:context_timeout"
	keyConfigMaximumPendingBytes = "config:maximum_pending_bytes"
)

// seedQueueSpeed is returned by QueueSpeed when a session has no samples
// yet, per spec's seed constant of 9 microseconds per byte.
const seedQueueSpeed = 9e-6
