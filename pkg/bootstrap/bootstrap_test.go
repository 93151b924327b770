package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flo1101/swgts-ingest/pkg/config"
)

func TestRun_FailsFastWhenStoreUnreachable(t *testing.T) {
	cfg := config.Defaults()
	cfg.RedisServer.Addr = "127.0.0.1:1" // nothing listens here

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Run(ctx, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
