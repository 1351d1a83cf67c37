package worker

import (
	"context"
	"time"

	notifmodels "tamil_society/internal/api/notification/models"
	"tamil_society/internal/delivery"
	"tamil_society/internal/logger"
)

// PendingSource finds records whose email was requested but never marked sent
type PendingSource interface {
	FindPendingEmail(ctx context.Context, createdBefore int64, limit int64) ([]*notifmodels.Notification, error)
}

// Deliverer runs one synchronous delivery pass
type Deliverer interface {
	Deliver(ctx context.Context, records []*notifmodels.Notification) *delivery.BatchReport
}

// RedeliveryWorker re-runs delivery for records left without emailSentAt,
// e.g. when the process stopped while a detached delivery was in flight.
// Records already marked are never resent: marking is set-if-absent.
type RedeliveryWorker struct {
	source    PendingSource
	deliverer Deliverer
	interval  time.Duration // Between sweeps
	grace     time.Duration // Minimum record age before it is considered stuck
	batchSize int64

	now func() time.Time
}

// NewRedeliveryWorker creates the worker.
//   - interval: time between sweeps (default 5 minutes)
//   - grace: minimum age of a pending record (default 15 minutes)
//   - batchSize: records per sweep (default 50)
func NewRedeliveryWorker(source PendingSource, deliverer Deliverer, interval, grace time.Duration, batchSize int) *RedeliveryWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if grace <= 0 {
		grace = 15 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &RedeliveryWorker{
		source:    source,
		deliverer: deliverer,
		interval:  interval,
		grace:     grace,
		batchSize: int64(batchSize),
		now:       time.Now,
	}
}

// Start sweeps every interval until ctx is cancelled
func (w *RedeliveryWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval":  w.interval.String(),
		"grace":     w.grace.String(),
		"batchSize": w.batchSize,
	}).Info("📧 [REDELIVERY] Starting Redelivery Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("📧 [REDELIVERY] Redelivery Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("📧 [REDELIVERY] Panic during sweep, retrying next interval")
					}
				}()

				if _, err := w.Sweep(ctx); err != nil {
					log.WithError(err).Error("📧 [REDELIVERY] Sweep failed")
				}
			}()
		}
	}
}

// Sweep delivers one batch of stuck records and returns the report, nil when nothing was pending
func (w *RedeliveryWorker) Sweep(ctx context.Context) (*delivery.BatchReport, error) {
	cutoff := w.now().Add(-w.grace).UnixMilli()

	pending, err := w.source.FindPendingEmail(ctx, cutoff, w.batchSize)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	report := w.deliverer.Deliver(ctx, pending)
	logger.GetAppLogger().WithFields(map[string]interface{}{
		"pending": len(pending),
		"marked":  report.Marked,
		"sent":    report.Count(delivery.OutcomeSent),
		"failed":  report.Count(delivery.OutcomeFailed),
	}).Info("📧 [REDELIVERY] Redelivered stuck notifications")
	return report, nil
}
