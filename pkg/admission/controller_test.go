package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flo1101/swgts-ingest/pkg/queue"
	"github.com/flo1101/swgts-ingest/pkg/session"
	"github.com/flo1101/swgts-ingest/pkg/store"
)

func newController(t *testing.T) (*Controller, *session.Registry, *store.MemStore) {
	t.Helper()
	ms := store.NewMemStore()
	reg := &session.Registry{
		Store:               ms,
		MaximumPendingBytes: 100,
		ContextTimeout:      time.Minute,
		UploadDirectory:     t.TempDir(),
	}
	pub := &queue.Publisher{Store: ms}
	return &Controller{Registry: reg, Publisher: pub}, reg, ms
}

func TestAdmit_SinglePairAccepted(t *testing.T) {
	c, reg, _ := newController(t)
	ctx := context.Background()
	id, err := reg.Create(ctx, []string{"a.fq"})
	require.NoError(t, err)

	raw := RawBatch{{{"id1", "ACGT", "+", "####"}}}
	d, err := c.Admit(ctx, id, raw, 100, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(4), d.PendingBytes)
	assert.Equal(t, int64(0), d.ProcessedReads)
	require.NotNil(t, d.Job)
	assert.Equal(t, 1, d.Job.ReadPairs)
}

func TestAdmit_OversizeDrop(t *testing.T) {
	c, reg, ms := newController(t)
	ctx := context.Background()
	id, err := reg.Create(ctx, []string{"a.fq"})
	require.NoError(t, err)

	raw := RawBatch{{{"id", "ACGT", "+", "####"}}}
	d, err := c.Admit(ctx, id, raw, 3, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), d.PendingBytes)
	assert.Equal(t, int64(1), d.ProcessedReads)
	assert.Nil(t, d.Job)

	v, ok, err := ms.Get(ctx, "stats:bases")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "4", v)
}

func TestAdmit_ChunkTooLarge(t *testing.T) {
	c, reg, _ := newController(t)
	ctx := context.Background()
	id, err := reg.Create(ctx, []string{"a.fq"})
	require.NoError(t, err)

	raw := RawBatch{
		{{"id1", "ACGTAC", "+", "######"}},
		{{"id2", "ACGTAC", "+", "######"}},
	}
	_, err = c.Admit(ctx, id, raw, 10, time.Now())
	require.Error(t, err)
	var admitErr *Error
	require.True(t, errors.As(err, &admitErr))
	assert.Equal(t, KindChunkTooLarge, admitErr.Kind)
}

func TestAdmit_BudgetExceeded(t *testing.T) {
	c, reg, _ := newController(t)
	ctx := context.Background()
	id, err := reg.Create(ctx, []string{"a.fq"})
	require.NoError(t, err)

	_, err = reg.ChangePendingBytes(ctx, id, 98)
	require.NoError(t, err)

	raw := RawBatch{{{"id", "ACGT", "+", "####"}}}
	_, err = c.Admit(ctx, id, raw, 100, time.Now())
	require.Error(t, err)
	var admitErr *Error
	require.True(t, errors.As(err, &admitErr))
	assert.Equal(t, KindBudgetExceeded, admitErr.Kind)
}

func TestAdmit_PairCountMismatch(t *testing.T) {
	c, reg, _ := newController(t)
	ctx := context.Background()
	id, err := reg.Create(ctx, []string{"a.fq", "b.fq"})
	require.NoError(t, err)

	raw := RawBatch{{{"id", "ACGT", "+", "####"}}}
	_, err = c.Admit(ctx, id, raw, 100, time.Now())
	require.Error(t, err)
	var admitErr *Error
	require.True(t, errors.As(err, &admitErr))
	assert.Equal(t, KindPairCountMismatch, admitErr.Kind)
}

func TestAdmit_BadShape(t *testing.T) {
	c, reg, _ := newController(t)
	ctx := context.Background()
	id, err := reg.Create(ctx, []string{"a.fq"})
	require.NoError(t, err)

	raw := RawBatch{{{"id", "ACGT", "+"}}}
	_, err = c.Admit(ctx, id, raw, 100, time.Now())
	require.Error(t, err)
	var admitErr *Error
	require.True(t, errors.As(err, &admitErr))
	assert.Equal(t, KindBadShape, admitErr.Kind)
}

func TestAdmit_NoSuchContext(t *testing.T) {
	c, reg, _ := newController(t)
	ctx := context.Background()
	id, err := reg.Create(ctx, []string{"a.fq"})
	require.NoError(t, err)
	_, err = reg.Close(ctx, id, zerolog.Nop())
	require.NoError(t, err)

	raw := RawBatch{{{"id", "ACGT", "+", "####"}}}
	_, err = c.Admit(ctx, id, raw, 100, time.Now())
	var notFound *session.ErrNoSuchContext
	assert.ErrorAs(t, err, &notFound)
}
