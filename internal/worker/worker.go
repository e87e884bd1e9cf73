package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
)

// Invalidator drops the cached profile and recommendations of a user
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// Worker consumes engagement events from the message bus and invalidates
// the engaging user's cached personalization.
type Worker struct {
	subscriber  driven.EngagementSubscriber
	invalidator Invalidator
	logger      *slog.Logger

	// Configuration
	concurrency   int
	handleTimeout time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	events  chan *domain.EngagementEvent
	stopCh  chan struct{}
	doneCh  chan struct{}

	processed atomic.Int64
	failed    atomic.Int64
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	Subscriber    driven.EngagementSubscriber
	Invalidator   Invalidator
	Logger        *slog.Logger
	Concurrency   int           // Number of concurrent event processors
	BufferSize    int           // Events queued between the subscription and the processors
	HandleTimeout time.Duration // Upper bound for one invalidation
}

// NewWorker creates a new engagement worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 64
	}

	handleTimeout := cfg.HandleTimeout
	if handleTimeout <= 0 {
		handleTimeout = 2 * time.Second
	}

	return &Worker{
		subscriber:    cfg.Subscriber,
		invalidator:   cfg.Invalidator,
		logger:        logger,
		concurrency:   concurrency,
		handleTimeout: handleTimeout,
		events:        make(chan *domain.EngagementEvent, bufferSize),
	}
}

// Start subscribes to engagement events and starts the processors.
// Processing runs until Stop is called or ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	if err := w.subscriber.Subscribe(ctx, w.enqueue); err != nil {
		return fmt.Errorf("subscribe to engagements: %w", err)
	}

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"buffer", cap(w.events),
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop closes the subscription and waits for in-flight events.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	if err := w.subscriber.Close(); err != nil {
		w.logger.Warn("failed to close engagement subscription", "error", err)
	}

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped",
		"processed", w.processed.Load(),
		"failed", w.failed.Load(),
	)
}

// Wait blocks until the processors exit.
func (w *Worker) Wait() {
	w.mu.RLock()
	doneCh := w.doneCh
	w.mu.RUnlock()
	if doneCh != nil {
		<-doneCh
	}
}

// enqueue hands an event to the processors. It blocks while the buffer is
// full so the bus applies backpressure.
func (w *Worker) enqueue(ctx context.Context, event *domain.EngagementEvent) error {
	if event == nil || event.UserID == "" {
		return fmt.Errorf("%w: engagement without user", domain.ErrInvalidInput)
	}
	select {
	case w.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stopCh:
		return errors.New("worker stopped")
	}
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Debug("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker context cancelled")
			return
		case <-w.stopCh:
			w.drain(ctx, logger)
			return
		case event := <-w.events:
			w.processEvent(ctx, event, logger)
		}
	}
}

// drain handles events already buffered when Stop was called
func (w *Worker) drain(ctx context.Context, logger *slog.Logger) {
	for {
		select {
		case event := <-w.events:
			w.processEvent(ctx, event, logger)
		default:
			return
		}
	}
}

// processEvent invalidates one user's cached personalization.
func (w *Worker) processEvent(ctx context.Context, event *domain.EngagementEvent, logger *slog.Logger) {
	logger = logger.With("user_id", event.UserID, "action", event.Action)

	ctx, cancel := context.WithTimeout(ctx, w.handleTimeout)
	defer cancel()

	startTime := time.Now()
	if err := w.invalidator.InvalidateUser(ctx, event.UserID); err != nil {
		w.failed.Add(1)
		logger.Error("invalidation failed",
			"duration", time.Since(startTime),
			"error", err,
		)
		return
	}

	w.processed.Add(1)
	logger.Debug("invalidated personalization", "duration", time.Since(startTime))
}

// Health reports the worker's state.
type Health struct {
	Running   bool  `json:"running"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Queued    int   `json:"queued"`
}

// Health returns the health status of the worker.
func (w *Worker) Health() Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	return Health{
		Running:   running,
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
		Queued:    len(w.events),
	}
}

// Ready is a readiness check that fails while the worker is stopped.
func (w *Worker) Ready(ctx context.Context) error {
	if !w.Health().Running {
		return errors.New("engagement worker not running")
	}
	return nil
}
