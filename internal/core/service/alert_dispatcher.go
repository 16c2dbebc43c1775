package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/metrics"
	"github.com/rl1809/garage-ledger/internal/port"
)

var ErrDispatcherClosed = errors.New("alert dispatcher closed")

// AlertDispatcher publishes stock alerts from a buffered queue on a fixed
// pool of workers.
type AlertDispatcher struct {
	publisher      port.AlertPublisher
	cache          port.CacheRepository
	log            *zap.Logger
	metrics        *metrics.Metrics
	publishTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan domain.StockAlert
	wg     sync.WaitGroup
}

func NewAlertDispatcher(publisher port.AlertPublisher, cache port.CacheRepository, queueSize int, publishTimeout time.Duration, log *zap.Logger, m *metrics.Metrics) *AlertDispatcher {
	return &AlertDispatcher{
		publisher:      publisher,
		cache:          cache,
		log:            log,
		metrics:        m,
		publishTimeout: publishTimeout,
		queue:          make(chan domain.StockAlert, queueSize),
	}
}

func (d *AlertDispatcher) Start(workers int) {
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id)
		}(i)
	}
	d.log.Info("alert workers started", zap.Int("workers", workers))
}

// Enqueue blocks while the queue is full, until ctx is done.
func (d *AlertDispatcher) Enqueue(ctx context.Context, alert domain.StockAlert) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- alert:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting alerts, lets the workers drain the queue and waits for them.
func (d *AlertDispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *AlertDispatcher) workerLoop(id int) {
	for alert := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
		err := d.publisher.PublishStockAlert(ctx, alert)
		cancel()

		if err != nil {
			d.metrics.AlertPublished(false)
			d.log.Error("publish stock alert failed",
				zap.Int("worker", id), zap.String("item_id", alert.ItemID), zap.Error(err))
			d.forget(id, alert.ItemID)
			continue
		}

		d.metrics.AlertPublished(true)
		d.log.Info("stock alert published",
			zap.Int("worker", id), zap.String("item_id", alert.ItemID), zap.Int("quantity", alert.Quantity))
	}
}

// forget drops the critical mark so the next adjustment raises the alert
// again. It runs on its own deadline since the publish one may have expired.
func (d *AlertDispatcher) forget(id int, itemID string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
	defer cancel()

	if err := d.cache.ClearCritical(ctx, itemID); err != nil {
		d.log.Error("clear critical mark failed",
			zap.Int("worker", id), zap.String("item_id", itemID), zap.Error(err))
	}
}
