package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flo1101/swgts-ingest/pkg/log"
	"github.com/flo1101/swgts-ingest/pkg/store"
	"github.com/flo1101/swgts-ingest/pkg/types"
)

const queueKey = "work:queue"

func jobKey(jobID uuid.UUID) string {
	return fmt.Sprintf("work:%s", jobID)
}

// Publisher hands accepted batches to filter workers via the shared
// work queue.
type Publisher struct {
	Store store.Store
}

// Enqueue writes the job's full record to work:<jobId> and appends jobId
// to work:queue in one atomic pipeline, so no worker can ever observe the
// pointer before the payload it names. It returns the generated job id so
// the caller can correlate its own admission log line with the one filter
// workers will see pop off work:queue.
func (p *Publisher) Enqueue(ctx context.Context, job *types.Job) (uuid.UUID, error) {
	if job.ReadPairs == 0 {
		return uuid.UUID{}, fmt.Errorf("queue: refusing to enqueue a job with zero accepted pairs")
	}

	jobID := uuid.New()
	record := Encode(job)

	pipe := p.Store.Pipeline()
	pipe.ListPush(jobKey(jobID), record...)
	pipe.ListPush(queueKey, jobID.String())
	if err := pipe.Commit(ctx); err != nil {
		return uuid.UUID{}, err
	}

	log.WithJobID(jobID.String()).Debug().
		Str("session_id", job.SessionID.String()).
		Int("read_pairs", job.ReadPairs).
		Int("chunk_cost", job.ChunkCost).
		Msg("job enqueued")

	return jobID, nil
}
