package session

import (
	"fmt"

	"github.com/flo1101/swgts-ingest/pkg/types"
)

// ErrNoSuchContext is returned whenever a session id is unknown, expired,
// or already closed. Transports map it to 404 / a dataUploadError / a
// contextCloseError depending on the operation.
type ErrNoSuchContext struct {
	SessionID types.SessionID
}

func (e *ErrNoSuchContext) Error() string {
	return fmt.Sprintf("session: no such context: %s", e.SessionID)
}

// ErrStillPending is returned by Close when pending_bytes is greater than
// zero: filter workers have not yet drained everything the session has
// accepted. The caller should retry after RetryAfter.
type ErrStillPending struct {
	SessionID      types.SessionID
	PendingBytes   int64
	ProcessedReads int64
	RetryAfter     float64
}

func (e *ErrStillPending) Error() string {
	return fmt.Sprintf("session: %s still has %d pending bytes", e.SessionID, e.PendingBytes)
}

// FlushIOError records a single per-file write failure during Close. It is
// logged and never aborts the remainder of the flush.
type FlushIOError struct {
	SessionID types.SessionID
	Filename  string
	Err       error
}

func (e *FlushIOError) Error() string {
	return fmt.Sprintf("session: %s: flush of %q failed: %v", e.SessionID, e.Filename, e.Err)
}

func (e *FlushIOError) Unwrap() error { return e.Err }
