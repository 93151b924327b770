package admission

import (
	"context"
	"math"
	"time"

	"github.com/flo1101/swgts-ingest/pkg/log"
	"github.com/flo1101/swgts-ingest/pkg/queue"
	"github.com/flo1101/swgts-ingest/pkg/session"
	"github.com/flo1101/swgts-ingest/pkg/types"
)

// RawBatch is the wire shape of a client-submitted batch before it is
// known to be well-formed: a sequence of pairs, each pair a sequence of
// reads, each read a sequence of lines. Validate is the only place that
// converts it into a types.Batch.
type RawBatch [][][]string

// Decision is the outcome of a successful Admit: the values returned to
// the client and the Job handed to the queue publisher.
type Decision struct {
	PendingBytes   int64
	ProcessedReads int64
	Job            *types.Job
}

// Controller runs validation, pricing, and budget accounting for one
// session's upload, then hands accepted batches to the queue Publisher.
// Both transports share this single code path.
type Controller struct {
	Registry  *session.Registry
	Publisher *queue.Publisher
}

// Validate checks the batch's structural shape against the session's pair
// count, returning a BadShape or PairCountMismatch Error on the first
// violation, or the typed Batch on success.
func (c *Controller) Validate(ctx context.Context, id types.SessionID, raw RawBatch) (types.Batch, error) {
	pairCount, err := c.Registry.PairCount(ctx, id)
	if err != nil {
		return nil, err
	}

	batch := make(types.Batch, 0, len(raw))
	for _, rawPair := range raw {
		if len(rawPair) != pairCount {
			return nil, pairCountMismatch("pair has %d reads, session pair_count is %d", len(rawPair), pairCount)
		}
		pair := make(types.Pair, 0, len(rawPair))
		for _, rawRead := range rawPair {
			if len(rawRead) != 4 {
				return nil, badShape("read has %d fields, expected 4", len(rawRead))
			}
			pair = append(pair, types.Read{rawRead[0], rawRead[1], rawRead[2], rawRead[3]})
		}
		batch = append(batch, pair)
	}
	return batch, nil
}

// priced is the outcome of Price for a single batch.
type priced struct {
	accepted     types.Batch
	chunkCost    int
	droppedPairs int
	droppedBases int64
}

// Price walks the batch in order, accumulating each accepted pair's cost
// and discarding any pair containing a read whose sequence line exceeds
// maximumPendingBytes. A dropped pair counts once toward processed_reads
// regardless of how many reads inside it were oversize.
func (c *Controller) Price(batch types.Batch, maximumPendingBytes int) priced {
	result := priced{accepted: make(types.Batch, 0, len(batch))}

	for _, pair := range batch {
		cost := 0
		oversize := false
		for _, read := range pair {
			l := len(read.Sequence())
			if l > maximumPendingBytes {
				oversize = true
				result.droppedBases += int64(l)
				break
			}
			cost += l
		}
		if oversize {
			result.droppedPairs++
			continue
		}
		result.accepted = append(result.accepted, pair)
		result.chunkCost += cost
	}
	return result
}

// Decide applies the budget check from a priced batch and the session's
// current pending_bytes, returning a ChunkTooLarge or BudgetExceeded Error
// when the upload cannot be admitted.
func (c *Controller) Decide(ctx context.Context, id types.SessionID, p priced, maximumPendingBytes int) error {
	if p.chunkCost > maximumPendingBytes {
		processedReads, _ := c.Registry.ProcessedReads(ctx, id)
		speed, _ := c.Registry.QueueSpeed(ctx, id)
		pending, _ := c.Registry.PendingBytes(ctx, id)
		retryAfter := float64(int64(p.chunkCost)+pending-int64(maximumPendingBytes)) * speed
		return &Error{
			Kind:           KindChunkTooLarge,
			Message:        "chunk cost exceeds the maximum pending bytes on its own",
			RetryAfter:     math.Max(retryAfter, 0),
			ProcessedReads: processedReads,
		}
	}

	pending, err := c.Registry.PendingBytes(ctx, id)
	if err != nil {
		return err
	}
	excess := pending + int64(p.chunkCost) - int64(maximumPendingBytes)
	if excess > 0 {
		processedReads, _ := c.Registry.ProcessedReads(ctx, id)
		speed, _ := c.Registry.QueueSpeed(ctx, id)
		return &Error{
			Kind:           KindBudgetExceeded,
			Message:        "session pending-byte budget exceeded",
			RetryAfter:     float64(excess) * speed,
			PendingBytes:   pending,
			ProcessedReads: processedReads,
		}
	}
	return nil
}

// Admit runs Validate, Price, and Decide in sequence, and on acceptance
// updates the session counters, enqueues the accepted batch, and returns
// the new counter values. receivedAt is the request-reception timestamp
// carried on the Job.
func (c *Controller) Admit(ctx context.Context, id types.SessionID, raw RawBatch, maximumPendingBytes int, receivedAt time.Time) (Decision, error) {
	exists, err := c.Registry.Exists(ctx, id)
	if err != nil {
		return Decision{}, err
	}
	if !exists {
		return Decision{}, &session.ErrNoSuchContext{SessionID: id}
	}

	batch, err := c.Validate(ctx, id, raw)
	if err != nil {
		return Decision{}, err
	}

	p := c.Price(batch, maximumPendingBytes)
	if p.droppedBases > 0 {
		if err := c.Registry.IncrBases(ctx, p.droppedBases); err != nil {
			return Decision{}, err
		}
	}

	if err := c.Decide(ctx, id, p, maximumPendingBytes); err != nil {
		return Decision{}, err
	}

	dropped := int64(len(batch) - len(p.accepted))
	newProcessed, err := c.Registry.ChangeProcessedReads(ctx, id, dropped)
	if err != nil {
		return Decision{}, err
	}

	if len(p.accepted) == 0 {
		pending, err := c.Registry.PendingBytes(ctx, id)
		if err != nil {
			return Decision{}, err
		}
		return Decision{PendingBytes: pending, ProcessedReads: newProcessed}, nil
	}

	newPending, err := c.Registry.ChangePendingBytes(ctx, id, int64(p.chunkCost))
	if err != nil {
		return Decision{}, err
	}

	pairCount, err := c.Registry.PairCount(ctx, id)
	if err != nil {
		return Decision{}, err
	}

	job := &types.Job{
		SessionID:  id,
		ChunkCost:  p.chunkCost,
		ReadPairs:  len(p.accepted),
		PairCount:  pairCount,
		EnqueuedAt: receivedAt,
		Accepted:   p.accepted,
	}
	jobID, err := c.Publisher.Enqueue(ctx, job)
	if err != nil {
		return Decision{}, err
	}

	log.WithSessionID(id.String()).Info().
		Str("job_id", jobID.String()).
		Int("chunk_cost", p.chunkCost).
		Int("accepted_pairs", len(p.accepted)).
		Msg("batch admitted")

	return Decision{PendingBytes: newPending, ProcessedReads: newProcessed, Job: job}, nil
}
