package admission

import "fmt"

// Kind identifies which spec error a rejection corresponds to, so
// transports can map it to a status code or a named socket event without
// string matching.
type Kind string

const (
	KindBadShape          Kind = "BadShape"
	KindPairCountMismatch Kind = "PairCountMismatch"
	KindChunkTooLarge     Kind = "ChunkTooLarge"
	KindBudgetExceeded    Kind = "BudgetExceeded"
)

// Error is returned by Validate, Decide, and Admit. RetryAfter,
// PendingBytes, and ProcessedReads are populated only for the kinds that
// carry them (ChunkTooLarge and BudgetExceeded).
type Error struct {
	Kind           Kind
	Message        string
	RetryAfter     float64
	PendingBytes   int64
	ProcessedReads int64
}

func (e *Error) Error() string {
	return fmt.Sprintf("admission: %s: %s", e.Kind, e.Message)
}

func badShape(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBadShape, Message: fmt.Sprintf(format, args...)}
}

func pairCountMismatch(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPairCountMismatch, Message: fmt.Sprintf(format, args...)}
}
