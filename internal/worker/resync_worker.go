package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Resyncer restores the commission table invariant.
type Resyncer interface {
	Resync(ctx context.Context) error
}

// ResyncWorker re-runs the commission resync on an interval so a partially
// failed synchronous resync converges without admin action.
type ResyncWorker struct {
	svc      Resyncer
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewResyncWorker constructs a worker with a default hourly interval.
func NewResyncWorker(svc Resyncer) *ResyncWorker {
	return &ResyncWorker{
		svc:      svc,
		interval: time.Hour,
		stopCh:   make(chan struct{}),
	}
}

// WithInterval updates the run interval.
func (w *ResyncWorker) WithInterval(interval time.Duration) *ResyncWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and runs the resync at the configured interval.
func (w *ResyncWorker) Start(ctx context.Context) {
	zap.L().Info("commission resync worker starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("commission resync worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("commission resync worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *ResyncWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *ResyncWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *ResyncWorker) runOnce(ctx context.Context) {
	if err := w.svc.Resync(ctx); err != nil {
		zap.L().Error("scheduled commission resync failed", zap.Error(err))
	}
}
