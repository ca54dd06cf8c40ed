// Package workers counts redirect visits off the request path.
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/internal/metrics"
	"github.com/linkbridge/linkbridge/internal/models"
)

// DefaultIncrementTimeout bounds one visit increment against the store.
const DefaultIncrementTimeout = 2 * time.Second

// VisitStore is the slice of the link repository the workers need.
type VisitStore interface {
	IncrementVisits(ctx context.Context, id uint) error
}

// VisitDispatcher is a buffered channel drained by a fixed pool of workers.
// Record never blocks the caller: when the buffer is full the visit is dropped.
type VisitDispatcher struct {
	events  chan models.VisitEvent
	store   VisitStore
	logger  *zap.Logger
	timeout time.Duration

	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
}

// StartVisitWorkers launches workerCount goroutines reading from a channel of
// bufferSize events.
func StartVisitWorkers(workerCount, bufferSize int, store VisitStore, logger *zap.Logger) *VisitDispatcher {
	if workerCount <= 0 {
		workerCount = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &VisitDispatcher{
		events:  make(chan models.VisitEvent, bufferSize),
		store:   store,
		logger:  logger.Named("visits"),
		timeout: DefaultIncrementTimeout,
	}
	d.logger.Info("starting visit workers", zap.Int("workers", workerCount), zap.Int("buffer", bufferSize))
	for i := 0; i < workerCount; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Record enqueues one visit and reports whether it was accepted.
func (d *VisitDispatcher) Record(ev models.VisitEvent) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.ObserveVisitIncrement("dropped")
		return false
	}
	select {
	case d.events <- ev:
		return true
	default:
		d.logger.Warn("visit buffer full, dropping visit",
			zap.Uint("link_id", ev.LinkID), zap.String("token", ev.Token))
		metrics.ObserveVisitIncrement("dropped")
		return false
	}
}

// Stop closes the buffer and waits for the workers to drain it, or for ctx.
func (d *VisitDispatcher) Stop(ctx context.Context) error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.events)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.logger.Info("visit workers drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *VisitDispatcher) work() {
	defer d.wg.Done()
	for ev := range d.events {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.store.IncrementVisits(ctx, ev.LinkID)
		cancel()
		if err != nil {
			d.logger.Error("failed to record visit",
				zap.Uint("link_id", ev.LinkID), zap.String("token", ev.Token), zap.Error(err))
			metrics.ObserveVisitIncrement("error")
			continue
		}
		metrics.ObserveVisitIncrement("ok")
	}
}
