/*
Package types defines the core data structures shared across the ingest
service: sessions, reads, batches, and the jobs handed off to filter
workers.

These types carry no behavior of their own beyond small accessors; the
packages that own a concern (session, admission, queue) operate on them.

# Core Types

Session identity:

	SessionID: a uuid.UUID used as the external handle and as the message
	transport's per-session room key.

Upload shape (spec'd top-down: Batch > Pair > Read):

	Read:  a fixed 4-line record — identifier, sequence, separator, qualities.
	       Only the sequence line contributes to byte accounting.
	Pair:  a slice of Reads, one per parallel input stream (PairCount of them).
	Batch: a slice of Pairs, the unit a client uploads in one request.

Work handoff:

	Job: one accepted Batch serialised into a single work-queue record,
	     carrying the session it came from, its effective byte cost, and
	     the accepted pairs themselves.

# Thread Safety

Values of these types are treated as immutable once constructed; callers
that need to mutate a Batch while validating it (dropping oversize pairs)
build a new slice rather than mutating in place.
*/
package types
