package types

import (
	"time"

	"github.com/google/uuid"
)

// SessionID identifies an upload session (called a "context" in the wire
// protocol and the store key schema).
type SessionID = uuid.UUID

// Read is a fixed four-line record: identifier, sequence, separator,
// qualities. Only Read[1] (the sequence) contributes to byte accounting.
type Read [4]string

// ID returns the read's identifier line.
func (r Read) ID() string { return r[0] }

// Sequence returns the read's sequence line, the only line whose length
// counts against a session's pending-byte budget.
func (r Read) Sequence() string { return r[1] }

// Lines returns the read as its four lines, the encoding used both on the
// wire to filter workers and in the `pair:i:reads` set.
func (r Read) Lines() [4]string { return r }

// Pair is one aligned group of reads, one per parallel input stream. Its
// length must equal the owning session's PairCount.
type Pair []Read

// Batch is a client-submitted ordered sequence of Pairs.
type Batch []Pair

// Job is one accepted Batch converted into a single work-queue record.
type Job struct {
	SessionID  SessionID
	ChunkCost  int
	ReadPairs  int
	PairCount  int
	EnqueuedAt time.Time
	Accepted   Batch
}
