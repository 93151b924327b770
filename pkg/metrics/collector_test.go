package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flo1101/swgts-ingest/pkg/store"
)

type failingStore struct {
	store.MemStore
}

func (f *failingStore) Ping(context.Context) error {
	return errors.New("connection refused")
}

func TestCollector_Collect_RegistersStoreHealthy(t *testing.T) {
	resetHealthChecker()
	c := NewCollector(store.NewMemStore())

	c.collect()

	assert.Equal(t, "ready", GetReadiness().Status)
}

func TestCollector_Collect_RegistersStoreUnhealthy(t *testing.T) {
	resetHealthChecker()
	c := NewCollector(&failingStore{})

	c.collect()

	readiness := GetReadiness()
	assert.Equal(t, "not_ready", readiness.Status)
	assert.Contains(t, readiness.Store, "connection refused")
}
