package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flo1101/swgts-ingest/pkg/store"
	"github.com/flo1101/swgts-ingest/pkg/types"
)

func TestEncode_FieldOrder(t *testing.T) {
	id := uuid.New()
	job := &types.Job{
		SessionID:  id,
		ChunkCost:  7,
		ReadPairs:  1,
		PairCount:  1,
		EnqueuedAt: time.Unix(1000, 0),
		Accepted: types.Batch{
			types.Pair{types.Read{"id1", "ACGTACG", "+", "#######"}},
		},
	}

	rec := Encode(job)
	require.Len(t, rec, 5+4)
	assert.Equal(t, "1000", rec[0])
	assert.Equal(t, "1", rec[1])
	assert.Equal(t, "1", rec[2])
	assert.Equal(t, "7", rec[3])
	assert.Equal(t, id.String(), rec[4])
	assert.Equal(t, []string{"id1", "ACGTACG", "+", "#######"}, rec[5:9])
}

func TestPublisher_Enqueue_PayloadBeforePointer(t *testing.T) {
	ms := store.NewMemStore()
	p := &Publisher{Store: ms}
	ctx := context.Background()

	job := &types.Job{
		SessionID:  uuid.New(),
		ChunkCost:  4,
		ReadPairs:  1,
		PairCount:  1,
		EnqueuedAt: time.Now(),
		Accepted: types.Batch{
			types.Pair{types.Read{"id1", "ACGT", "+", "####"}},
		},
	}

	returnedID, err := p.Enqueue(ctx, job)
	require.NoError(t, err)

	queued, err := ms.ListRange(ctx, queueKey, 0, -1)
	require.NoError(t, err)
	require.Len(t, queued, 1)

	jobID, err := uuid.Parse(queued[0])
	require.NoError(t, err)
	assert.Equal(t, jobID, returnedID)

	record, err := ms.ListRange(ctx, jobKey(jobID), 0, -1)
	require.NoError(t, err)
	assert.Len(t, record, 9)
}

func TestPublisher_Enqueue_RejectsEmptyJob(t *testing.T) {
	p := &Publisher{Store: store.NewMemStore()}
	job := &types.Job{ReadPairs: 0}
	_, err := p.Enqueue(context.Background(), job)
	assert.Error(t, err)
}
