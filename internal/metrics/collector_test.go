package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/onnwee/nbody-sim/internal/cache"
)

type fakeSource struct {
	stats []SessionStat
}

func (f *fakeSource) SessionStats() []SessionStat { return f.stats }

type fakeCache struct {
	evictions uint64
}

func (f *fakeCache) Stats() cache.Stats { return cache.Stats{Evictions: f.evictions} }

func TestCollectorCollect(t *testing.T) {
	src := &fakeSource{stats: []SessionStat{
		{ID: "a", Bodies: 3},
		{ID: "b", Bodies: 7},
	}}
	c := NewCollector(src, time.Minute)
	c.collect()

	// A second collect after a session ends should drop its gauge.
	src.stats = src.stats[:1]
	c.collect()
}

func TestCollectorCacheEvictions(t *testing.T) {
	fc := &fakeCache{evictions: 5}
	c := NewCollector(&fakeSource{}, time.Minute).WithCache(fc)

	c.collect()
	if c.lastEvictions != 5 {
		t.Errorf("lastEvictions = %d, want 5", c.lastEvictions)
	}

	// Counter must not regress if the source resets.
	fc.evictions = 2
	c.collect()
	if c.lastEvictions != 2 {
		t.Errorf("lastEvictions = %d, want 2", c.lastEvictions)
	}
}

func TestCollectorStop(t *testing.T) {
	c := NewCollector(&fakeSource{}, time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	c.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestCollectorContextCancellation(t *testing.T) {
	c := NewCollector(&fakeSource{}, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not exit on context cancellation")
	}
}
