package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flo1101/swgts-ingest/pkg/admission"
	"github.com/flo1101/swgts-ingest/pkg/queue"
	"github.com/flo1101/swgts-ingest/pkg/session"
	"github.com/flo1101/swgts-ingest/pkg/store"
)

func newTestServer(t *testing.T) (*Server, *store.MemStore) {
	return newTestServerWithBudget(t, 100)
}

func newTestServerWithBudget(t *testing.T, maximumPendingBytes int) (*Server, *store.MemStore) {
	t.Helper()
	ms := store.NewMemStore()
	reg := &session.Registry{
		Store:               ms,
		MaximumPendingBytes: maximumPendingBytes,
		ContextTimeout:      time.Minute,
		UploadDirectory:     t.TempDir(),
	}
	ctrl := &admission.Controller{
		Registry:  reg,
		Publisher: &queue.Publisher{Store: ms},
	}
	s := NewServer(&Server{
		Controller:          ctrl,
		Registry:            reg,
		MaximumPendingBytes: maximumPendingBytes,
		Version:             "test",
		LaunchTime:          time.Now().Add(-time.Hour),
	})
	return s, ms
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServerStatus(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/server-status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp serverStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, 100, resp.BufferSize)
	assert.Greater(t, resp.UptimeSeconds, 0.0)
}

func TestCreateContext_RejectsEmptyFilenames(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/context/create", createContextRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateThenUpload_SinglePairAccepted(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/context/create", createContextRequest{Filenames: []string{"a.fq"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var created createContextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	batch := admission.RawBatch{{{"id1", "ACGT", "+", "####"}}}
	rec = doJSON(t, s, http.MethodPost, "/context/"+created.Context+"/reads", batch)
	require.Equal(t, http.StatusOK, rec.Code)

	var up uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, int64(4), up.PendingBytes)
	assert.Equal(t, int64(0), up.ProcessedReads)
}

func TestUpload_NoSuchContext(t *testing.T) {
	s, _ := newTestServer(t)
	batch := admission.RawBatch{{{"id1", "ACGT", "+", "####"}}}
	rec := doJSON(t, s, http.MethodPost, "/context/00000000-0000-0000-0000-000000000000/reads", batch)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpload_PairCountMismatch(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/context/create", createContextRequest{Filenames: []string{"a.fq", "b.fq"}})
	var created createContextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	batch := admission.RawBatch{{{"id", "A", "+", "#"}}}
	rec = doJSON(t, s, http.MethodPost, "/context/"+created.Context+"/reads", batch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_ChunkTooLarge(t *testing.T) {
	s, _ := newTestServerWithBudget(t, 10)
	rec := doJSON(t, s, http.MethodPost, "/context/create", createContextRequest{Filenames: []string{"a.fq"}})
	var created createContextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	batch := admission.RawBatch{
		{{"id1", "ACGTAC", "+", "######"}},
		{{"id2", "ACGTAC", "+", "######"}},
	}
	rec = doJSON(t, s, http.MethodPost, "/context/"+created.Context+"/reads", batch)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var ue uploadErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ue))
	assert.Greater(t, ue.RetryAfter, 0.0)
}

func TestClose_SinglePairRoundTrip(t *testing.T) {
	s, ms := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/context/create", createContextRequest{Filenames: []string{"a.fq"}})
	var created createContextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	batch := admission.RawBatch{{{"id1", "ACGT", "+", "####"}}}
	rec = doJSON(t, s, http.MethodPost, "/context/"+created.Context+"/reads", batch)
	require.Equal(t, http.StatusOK, rec.Code)

	ctx := context.Background()
	require.NoError(t, ms.SetAdd(ctx, "context:"+created.Context+":pair:0:reads", "id1\nACGT\n+\n####"))
	require.NoError(t, ms.Set(ctx, "context:"+created.Context+":pending_bytes", "0"))

	rec = doJSON(t, s, http.MethodPost, "/context/"+created.Context+"/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cr closeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cr))
	assert.Equal(t, []string{"id1"}, cr.ReadsSaved)
}

func TestClose_StillPending(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/context/create", createContextRequest{Filenames: []string{"a.fq"}})
	var created createContextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	batch := admission.RawBatch{{{"id1", "ACGT", "+", "####"}}}
	rec = doJSON(t, s, http.MethodPost, "/context/"+created.Context+"/reads", batch)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/context/"+created.Context+"/close", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var pending closePendingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	assert.Equal(t, int64(4), pending.PendingBytes)
}
