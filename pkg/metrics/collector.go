package metrics

import (
	"context"
	"time"

	"github.com/flo1101/swgts-ingest/pkg/store"
)

// Collector periodically samples store connectivity so swgts_store_*
// metrics stay fresh even when no request happens to touch the store.
type Collector struct {
	store  store.Store
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector for the given store.
func NewCollector(s store.Store) *Collector {
	return &Collector{store: s, stopCh: make(chan struct{})}
}

// Start begins collecting metrics on a 15-second interval.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	timer := NewTimer()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.store.Ping(ctx)
	timer.ObserveDuration(StorePingDuration)
	if err != nil {
		StoreUnavailableTotal.Inc()
		RegisterStore(false, err.Error())
		return
	}
	RegisterStore(true, "")
}
