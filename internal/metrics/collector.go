package metrics

import (
	"context"
	"time"

	"github.com/onnwee/nbody-sim/internal/cache"
)

// SessionStat is a point-in-time snapshot of one simulation session.
type SessionStat struct {
	ID     string
	Bodies int
}

// StatsSource provides session snapshots for gauge collection.
type StatsSource interface {
	SessionStats() []SessionStat
}

// CacheSource provides cumulative cache statistics for counter collection.
type CacheSource interface {
	Stats() cache.Stats
}

// Collector periodically refreshes session gauges from a stats source.
type Collector struct {
	source   StatsSource
	interval time.Duration
	stop     chan struct{}

	cacheSource   CacheSource
	lastEvictions uint64
}

// NewCollector creates a new metrics collector
func NewCollector(source StatsSource, interval time.Duration) *Collector {
	return &Collector{
		source:   source,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// WithCache attaches a cache whose eviction count is collected.
func (c *Collector) WithCache(src CacheSource) *Collector {
	c.cacheSource = src
	return c
}

// Start begins the metrics collection loop
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Collect initial metrics
	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector
func (c *Collector) Stop() {
	close(c.stop)
}

func (c *Collector) collect() {
	stats := c.source.SessionStats()
	SessionsActive.Set(float64(len(stats)))
	// Reset so gauges for ended sessions do not linger.
	SimBodies.Reset()
	for _, s := range stats {
		SimBodies.WithLabelValues(s.ID).Set(float64(s.Bodies))
	}

	if c.cacheSource != nil {
		cs := c.cacheSource.Stats()
		// Evictions in the source are cumulative; export the delta.
		if cs.Evictions > c.lastEvictions {
			APICacheEvictions.WithLabelValues("lru").
				Add(float64(cs.Evictions - c.lastEvictions))
		}
		c.lastEvictions = cs.Evictions
	}
}
