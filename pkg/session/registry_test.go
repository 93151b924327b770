package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flo1101/swgts-ingest/pkg/store"
)

func newTestRegistry(t *testing.T) (*Registry, *store.MemStore) {
	t.Helper()
	dir := t.TempDir()
	ms := store.NewMemStore()
	return &Registry{
		Store:               ms,
		MaximumPendingBytes: 100,
		ContextTimeout:      time.Minute,
		UploadDirectory:     dir,
	}, ms
}

func TestRegistry_CreateAndExists(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	id, err := r.Create(ctx, []string{"a.fq", "sub/b.fq"})
	require.NoError(t, err)

	exists, err := r.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := r.PairCount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRegistry_Create_RejectsEmpty(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Create(context.Background(), nil)
	assert.Error(t, err)
}

func TestRegistry_ChangePendingBytes(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	id, err := r.Create(ctx, []string{"a.fq"})
	require.NoError(t, err)

	v, err := r.ChangePendingBytes(ctx, id, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v)

	v, err = r.ChangePendingBytes(ctx, id, -4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), v)

	got, err := r.PendingBytes(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)
}

func TestRegistry_QueueSpeed_SeedWhenEmpty(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	id, err := r.Create(ctx, []string{"a.fq"})
	require.NoError(t, err)

	v, err := r.QueueSpeed(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, seedQueueSpeed, v)

	require.NoError(t, r.RecordSpeed(ctx, id, 1e-5))
	require.NoError(t, r.RecordSpeed(ctx, id, 3e-5))

	v, err = r.QueueSpeed(ctx, id)
	require.NoError(t, err)
	assert.InDelta(t, 2e-5, v, 1e-9)
}

func TestRegistry_Close_SinglePairRoundTrip(t *testing.T) {
	r, ms := newTestRegistry(t)
	ctx := context.Background()
	id, err := r.Create(ctx, []string{"a.fq"})
	require.NoError(t, err)

	require.NoError(t, ms.SetAdd(ctx, keyPairReads(id, 0), "id1\nACGT\n+\n####"))
	_, err = r.ChangeProcessedReads(ctx, id, 0)
	require.NoError(t, err)

	result, err := r.Close(ctx, id, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"id1"}, result.SavedReadIDs)
	assert.Equal(t, int64(0), result.ProcessedReads)

	exists, err := r.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)

	content, err := os.ReadFile(filepath.Join(r.UploadDirectory, id.String(), "a.fq"))
	require.NoError(t, err)
	assert.Equal(t, "id1\nACGT\n+\n####", string(content))
}

func TestRegistry_Close_HandsOffSkipsDisk(t *testing.T) {
	r, ms := newTestRegistry(t)
	r.HandsOff = true
	ctx := context.Background()
	id, err := r.Create(ctx, []string{"a.fq"})
	require.NoError(t, err)
	require.NoError(t, ms.SetAdd(ctx, keyPairReads(id, 0), "id1\nACGT\n+\n####"))

	_, err = r.Close(ctx, id, zerolog.Nop())
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(r.UploadDirectory, id.String()))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRegistry_Close_NoSuchContext(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Close(context.Background(), uuid.New(), zerolog.Nop())
	var notFound *ErrNoSuchContext
	assert.ErrorAs(t, err, &notFound)
}

func TestRegistry_Close_StillPendingLeavesSessionOpen(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	id, err := r.Create(ctx, []string{"a.fq"})
	require.NoError(t, err)

	_, err = r.ChangePendingBytes(ctx, id, 5)
	require.NoError(t, err)

	_, err = r.Close(ctx, id, zerolog.Nop())
	var stillPending *ErrStillPending
	require.ErrorAs(t, err, &stillPending)
	assert.Equal(t, int64(5), stillPending.PendingBytes)
	assert.InDelta(t, 5*seedQueueSpeed, stillPending.RetryAfter, 1e-9)

	exists, err := r.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)
}
