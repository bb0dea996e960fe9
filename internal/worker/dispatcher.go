package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayo6706/exchange-brokerage/internal/observability"
	"go.uber.org/zap"
)

// Job is one unit of fire-and-forget work such as an email or an event publish.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher runs jobs on a fixed pool of goroutines fed by a bounded queue.
// Submit never blocks: when the queue is full the job is dropped.
type Dispatcher struct {
	queue    chan Job
	workers  int
	timeout  time.Duration
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

// NewDispatcher creates a dispatcher with defaults of 4 workers, a queue of
// 256 and a 30s per-job timeout.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		queue:   make(chan Job, 256),
		workers: 4,
		timeout: 30 * time.Second,
	}
}

// WithWorkers sets the number of worker goroutines.
func (d *Dispatcher) WithWorkers(n int) *Dispatcher {
	if n > 0 {
		d.workers = n
	}
	return d
}

// WithQueueSize replaces the queue; call before Start.
func (d *Dispatcher) WithQueueSize(n int) *Dispatcher {
	if n > 0 {
		d.queue = make(chan Job, n)
	}
	return d
}

// WithTimeout bounds each job's runtime.
func (d *Dispatcher) WithTimeout(timeout time.Duration) *Dispatcher {
	if timeout > 0 {
		d.timeout = timeout
	}
	return d
}

// Submit enqueues job and reports whether it was accepted.
func (d *Dispatcher) Submit(job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		observability.IncrementDispatch(job.Name, "dropped")
		zap.L().Warn("dispatcher stopped, job dropped", zap.String("job", job.Name))
		return false
	}
	select {
	case d.queue <- job:
		observability.SetDispatchQueueDepth(len(d.queue))
		return true
	default:
		observability.IncrementDispatch(job.Name, "dropped")
		zap.L().Warn("dispatch queue full, job dropped", zap.String("job", job.Name), zap.Int("capacity", cap(d.queue)))
		return false
	}
}

// Start launches the worker pool. Jobs keep ctx values but not its
// cancellation, so Stop can drain the queue; each is bounded by the timeout.
func (d *Dispatcher) Start(ctx context.Context) {
	zap.L().Info("dispatcher starting", zap.Int("workers", d.workers), zap.Int("queue", cap(d.queue)))
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.loop(ctx)
	}
}

// Stop refuses new jobs, lets workers drain the queue and waits for them.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
		d.wg.Wait()
		zap.L().Info("dispatcher stopped")
	})
}

// Run starts the pool and returns a stop function.
func (d *Dispatcher) Run(ctx context.Context) func() {
	d.Start(ctx)
	return d.Stop
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()
	for job := range d.queue {
		observability.SetDispatchQueueDepth(len(d.queue))
		d.execute(ctx, job)
	}
}

func (d *Dispatcher) execute(ctx context.Context, job Job) {
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("job panicked: %v", rec)
			}
		}()
		return job.Run(jobCtx)
	}()
	if err != nil {
		observability.IncrementDispatch(job.Name, "failed")
		zap.L().Error("dispatch job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	observability.IncrementDispatch(job.Name, "success")
}

// String returns a string representation of the dispatcher.
func (d *Dispatcher) String() string {
	return fmt.Sprintf("Dispatcher(workers=%d, queue=%d, timeout=%v)", d.workers, cap(d.queue), d.timeout)
}
