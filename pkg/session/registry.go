package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flo1101/swgts-ingest/pkg/store"
	"github.com/flo1101/swgts-ingest/pkg/types"
)

// Registry owns the context:<id>:* key schema: session creation, the
// read-only accessors the Admission Controller needs, and the close/flush
// algorithm.
type Registry struct {
	Store               store.Store
	MaximumPendingBytes int
	ContextTimeout      time.Duration
	UploadDirectory     string
	HandsOff            bool
}

// CloseResult is the outcome of a successful Close.
type CloseResult struct {
	ProcessedReads int64
	SavedReadIDs   []string
}

// Create allocates a new session for the given filenames. Duplicate
// filenames are permitted, matching the source's behaviour; only the
// basename of each is retained. All keys are written with one TTL-bearing
// pipeline, with pair_count pushed last so Exists' presence check is
// well-defined even mid-creation.
func (r *Registry) Create(ctx context.Context, filenames []string) (types.SessionID, error) {
	if len(filenames) == 0 {
		return types.SessionID{}, fmt.Errorf("session: create: filenames must not be empty")
	}

	id := uuid.New()
	pipe := r.Store.Pipeline()
	for i, name := range filenames {
		base := filepath.Base(name)
		pipe.SetWithTTL(keyPairFilename(id, i), base, r.ContextTimeout)
	}
	pipe.SetWithTTL(keyPendingBytes(id), "0", r.ContextTimeout)
	pipe.SetWithTTL(keyProcessedReads(id), "0", r.ContextTimeout)
	// pair_count last: Exists depends on this key being the final write.
	pipe.SetWithTTL(keyPairCount(id), strconv.Itoa(len(filenames)), r.ContextTimeout)

	if err := pipe.Commit(ctx); err != nil {
		return types.SessionID{}, err
	}
	return id, nil
}

// Exists reports whether the session is live. pair_count is the chosen
// sentinel because it is always the last key written on create and the
// first deleted on close.
func (r *Registry) Exists(ctx context.Context, id types.SessionID) (bool, error) {
	return r.Store.Exists(ctx, keyPairCount(id))
}

// PairCount returns the number of parallel read streams the session was
// created with.
func (r *Registry) PairCount(ctx context.Context, id types.SessionID) (int, error) {
	v, ok, err := r.Store.Get(ctx, keyPairCount(id))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &ErrNoSuchContext{SessionID: id}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("session: malformed pair_count for %s: %w", id, err)
	}
	return n, nil
}

// PendingBytes returns the session's current pending-byte counter.
func (r *Registry) PendingBytes(ctx context.Context, id types.SessionID) (int64, error) {
	return r.readCounter(ctx, keyPendingBytes(id))
}

// ProcessedReads returns the session's current processed-reads counter.
func (r *Registry) ProcessedReads(ctx context.Context, id types.SessionID) (int64, error) {
	return r.readCounter(ctx, keyProcessedReads(id))
}

func (r *Registry) readCounter(ctx context.Context, key string) (int64, error) {
	v, ok, err := r.Store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("session: malformed counter %s: %w", key, err)
	}
	return n, nil
}

// SavedReadCount returns |pair:0:reads|, the cardinality of the first
// pair's accepted-read set.
func (r *Registry) SavedReadCount(ctx context.Context, id types.SessionID) (int64, error) {
	return r.Store.SetCardinality(ctx, keyPairReads(id, 0))
}

// ChangePendingBytes atomically adjusts pending_bytes by delta and
// refreshes its TTL, returning the new value.
func (r *Registry) ChangePendingBytes(ctx context.Context, id types.SessionID, delta int64) (int64, error) {
	v, err := r.Store.IncrBy(ctx, keyPendingBytes(id), delta)
	if err != nil {
		return 0, err
	}
	if err := r.Store.Expire(ctx, keyPendingBytes(id), r.ContextTimeout); err != nil {
		return 0, err
	}
	return v, nil
}

// ChangeProcessedReads atomically adjusts processed_reads by delta and
// refreshes its TTL, returning the new value.
func (r *Registry) ChangeProcessedReads(ctx context.Context, id types.SessionID, delta int64) (int64, error) {
	v, err := r.Store.IncrBy(ctx, keyProcessedReads(id), delta)
	if err != nil {
		return 0, err
	}
	if err := r.Store.Expire(ctx, keyProcessedReads(id), r.ContextTimeout); err != nil {
		return 0, err
	}
	return v, nil
}

// RecordSpeed appends a seconds-per-byte sample to the session's speed
// list, used by QueueSpeed.
func (r *Registry) RecordSpeed(ctx context.Context, id types.SessionID, secondsPerByte float64) error {
	if err := r.Store.ListPush(ctx, keySpeed(id), strconv.FormatFloat(secondsPerByte, 'g', -1, 64)); err != nil {
		return err
	}
	return r.Store.Expire(ctx, keySpeed(id), r.ContextTimeout)
}

// QueueSpeed returns the arithmetic mean of the session's speed samples,
// or the seed constant if none have been recorded yet.
func (r *Registry) QueueSpeed(ctx context.Context, id types.SessionID) (float64, error) {
	samples, err := r.Store.ListRange(ctx, keySpeed(id), 0, -1)
	if err != nil {
		return 0, err
	}
	if len(samples) == 0 {
		return seedQueueSpeed, nil
	}
	var sum float64
	for _, s := range samples {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		sum += f
	}
	return sum / float64(len(samples)), nil
}

// IncrBases adds n to the global stats:bases counter, tracking bytes
// discarded for exceeding the per-read size limit.
func (r *Registry) IncrBases(ctx context.Context, n int64) error {
	_, err := r.Store.IncrBy(ctx, statsBasesKey, n)
	return err
}

// PublishConfig writes the well-known config:* keys bootstrap exposes so
// filter workers (and the request-data fan-out below) observe the running
// configuration instead of a compiled-in constant.
func (r *Registry) PublishConfig(ctx context.Context, requestSizeFactor, requestSize int) error {
	pipe := r.Store.Pipeline()
	pipe.SetWithTTL(keyConfigRequestSizeFactor, strconv.Itoa(requestSizeFactor), 0)
	pipe.SetWithTTL(keyConfigRequestSize, strconv.Itoa(requestSize), 0)
	pipe.SetWithTTL(keyConfigContextTimeout, r.ContextTimeout.String(), 0)
	pipe.SetWithTTL(keyConfigMaximumPendingBytes, strconv.Itoa(r.MaximumPendingBytes), 0)
	return pipe.Commit(ctx)
}

// RequestSizing reads (request_size_factor, request_size) back from the
// store, falling back to (1, MaximumPendingBytes) if bootstrap has not
// published them yet.
func (r *Registry) RequestSizing(ctx context.Context) (factor, size int) {
	factor, size = 1, r.MaximumPendingBytes

	if v, ok, err := r.Store.Get(ctx, keyConfigRequestSizeFactor); err == nil && ok {
		if n, err := strconv.Atoi(v); err == nil {
			factor = n
		}
	}
	if v, ok, err := r.Store.Get(ctx, keyConfigRequestSize); err == nil && ok {
		if n, err := strconv.Atoi(v); err == nil {
			size = n
		}
	}
	return factor, size
}

// Close runs the flush algorithm: it stops new uploads by deleting
// pair_count first, collects the saved read ids from pair 0, writes each
// pair's accepted reads to disk unless HandsOff is set, and deletes every
// remaining session key. I/O failures during the per-pair flush are
// logged but never abort the remaining pairs or the final deletion; they
// are not returned to the caller.
func (r *Registry) Close(ctx context.Context, id types.SessionID, logger zerolog.Logger) (CloseResult, error) {
	pairCountStr, ok, err := r.Store.Get(ctx, keyPairCount(id))
	if err != nil {
		return CloseResult{}, err
	}
	if !ok {
		return CloseResult{}, &ErrNoSuchContext{SessionID: id}
	}

	pendingBytes, err := r.readCounter(ctx, keyPendingBytes(id))
	if err != nil {
		return CloseResult{}, err
	}
	if pendingBytes > 0 {
		processedReads, err := r.readCounter(ctx, keyProcessedReads(id))
		if err != nil {
			return CloseResult{}, err
		}
		speed, err := r.QueueSpeed(ctx, id)
		if err != nil {
			return CloseResult{}, err
		}
		return CloseResult{}, &ErrStillPending{
			SessionID:      id,
			PendingBytes:   pendingBytes,
			ProcessedReads: processedReads,
			RetryAfter:     float64(pendingBytes) * speed,
		}
	}

	if err := r.Store.Delete(ctx, keyPairCount(id)); err != nil {
		return CloseResult{}, err
	}

	pairCount, err := strconv.Atoi(pairCountStr)
	if err != nil {
		return CloseResult{}, fmt.Errorf("session: malformed pair_count for %s: %w", id, err)
	}

	savedReadIDs, err := r.collectSavedReadIDs(ctx, id)
	if err != nil {
		return CloseResult{}, err
	}

	var sessionDir string
	if !r.HandsOff {
		sessionDir = filepath.Join(r.UploadDirectory, id.String())
	}

	for i := 0; i < pairCount; i++ {
		r.flushPair(ctx, id, i, sessionDir, logger)
	}

	processedReads, err := r.readCounter(ctx, keyProcessedReads(id))
	if err != nil {
		return CloseResult{}, err
	}
	if err := r.Store.Delete(ctx,
		keyProcessedReads(id), keyPendingBytes(id), keySpeed(id),
	); err != nil {
		return CloseResult{}, err
	}

	return CloseResult{ProcessedReads: processedReads, SavedReadIDs: savedReadIDs}, nil
}

func (r *Registry) collectSavedReadIDs(ctx context.Context, id types.SessionID) ([]string, error) {
	members, err := r.Store.SetMembers(ctx, keyPairReads(id, 0))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if nl := strings.IndexByte(m, '\n'); nl >= 0 {
			ids = append(ids, m[:nl])
		} else {
			ids = append(ids, m)
		}
	}
	return ids, nil
}

func (r *Registry) flushPair(ctx context.Context, id types.SessionID, i int, sessionDir string, logger zerolog.Logger) {
	filename, ok, err := r.Store.Get(ctx, keyPairFilename(id, i))
	if err != nil || !ok {
		return
	}
	_ = r.Store.Delete(ctx, keyPairFilename(id, i))

	if sessionDir != "" {
		if err := r.writePairToDisk(sessionDir, filename, id, i); err != nil {
			logger.Warn().Err(err).Str("filename", filename).Int("pair", i).Msg("flush write failed")
		}
	}
	_ = r.Store.Delete(ctx, keyPairReads(id, i))
}

func (r *Registry) writePairToDisk(sessionDir, filename string, id types.SessionID, i int) error {
	members, err := r.Store.SetMembers(context.Background(), keyPairReads(id, i))
	if err != nil {
		return &FlushIOError{SessionID: id, Filename: filename, Err: err}
	}
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return &FlushIOError{SessionID: id, Filename: filename, Err: err}
	}
	data := strings.Join(members, "\n")
	if err := os.WriteFile(filepath.Join(sessionDir, filename), []byte(data), 0o644); err != nil {
		return &FlushIOError{SessionID: id, Filename: filename, Err: err}
	}
	return nil
}
