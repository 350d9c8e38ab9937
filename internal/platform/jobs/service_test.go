package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu       sync.Mutex
	finished map[string]int
	failed   int
	dropped  int
}

func (c *countingRecorder) JobFinished(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished == nil {
		c.finished = map[string]int{}
	}
	c.finished[name]++
	if err != nil {
		c.failed++
	}
}

func (c *countingRecorder) JobDropped(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropped++
}

func TestStopDrainsQueuedJobs(t *testing.T) {
	rec := &countingRecorder{}
	svc := New(16, 2, rec)
	svc.Start(context.Background())

	var ran int32
	for i := 0; i < 10; i++ {
		require.True(t, svc.Enqueue("email", func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}))
	}
	svc.Stop()

	assert.Equal(t, int32(10), atomic.LoadInt32(&ran))
	assert.Equal(t, 10, rec.finished["email"])
	assert.False(t, svc.Enqueue("email", func(context.Context) error { return nil }))
	assert.Equal(t, 1, rec.dropped)
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	rec := &countingRecorder{}
	svc := New(1, 1, rec)

	assert.True(t, svc.Enqueue("a", func(context.Context) error { return nil }))
	assert.False(t, svc.Enqueue("b", func(context.Context) error { return nil }))
	assert.Equal(t, 1, rec.dropped)
}

func TestRunNowRecoversPanics(t *testing.T) {
	rec := &countingRecorder{}
	svc := New(1, 1, rec)

	err := svc.RunNow(context.Background(), "boom", func(context.Context) error { panic("bad template") })
	assert.Error(t, err)

	want := errors.New("smtp down")
	err = svc.RunNow(context.Background(), "send", func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)
	assert.Equal(t, 2, rec.failed)
}
