package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RunsSubmittedJobs(t *testing.T) {
	d := NewDispatcher().WithWorkers(2).WithQueueSize(8)
	stop := d.Run(context.Background())

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.True(t, d.Submit(Job{Name: "count", Run: func(context.Context) error {
			defer wg.Done()
			ran.Add(1)
			return nil
		}}))
	}
	wg.Wait()
	stop()
	assert.Equal(t, int32(5), ran.Load())
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	d := NewDispatcher().WithWorkers(1).WithQueueSize(1)
	release := make(chan struct{})
	started := make(chan struct{})
	stop := d.Run(context.Background())
	defer stop()

	require.True(t, d.Submit(Job{Name: "block", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started
	require.True(t, d.Submit(Job{Name: "queued", Run: func(context.Context) error { return nil }}))
	assert.False(t, d.Submit(Job{Name: "overflow", Run: func(context.Context) error { return nil }}))
	close(release)
}

func TestDispatcher_SurvivesFailingAndPanickingJobs(t *testing.T) {
	d := NewDispatcher().WithWorkers(1)
	stop := d.Run(context.Background())

	done := make(chan struct{})
	d.Submit(Job{Name: "fail", Run: func(context.Context) error { return errors.New("smtp down") }})
	d.Submit(Job{Name: "panic", Run: func(context.Context) error { panic("boom") }})
	d.Submit(Job{Name: "ok", Run: func(context.Context) error { close(done); return nil }})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive failing jobs")
	}
	stop()
}

func TestDispatcher_RejectsAfterStop(t *testing.T) {
	d := NewDispatcher()
	stop := d.Run(context.Background())
	stop()
	stop()
	assert.False(t, d.Submit(Job{Name: "late", Run: func(context.Context) error { return nil }}))
}

func TestDispatcher_JobTimeout(t *testing.T) {
	d := NewDispatcher().WithTimeout(10 * time.Millisecond)
	stop := d.Run(context.Background())
	defer stop()

	errCh := make(chan error, 1)
	d.Submit(Job{Name: "slow", Run: func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()
		return ctx.Err()
	}})
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("job context was not bounded")
	}
}

type countingResyncer struct{ calls atomic.Int32 }

func (c *countingResyncer) Resync(context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestResyncWorker_RunsOnInterval(t *testing.T) {
	r := &countingResyncer{}
	w := NewResyncWorker(r).WithInterval(5 * time.Millisecond)
	stop := w.Run(context.Background())
	defer stop()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
