package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/model"
)

// SyncBatchSize caps how many pending invoices one tick polls.
const SyncBatchSize = 50

// InvoiceSyncer is the part of the invoice service the sync worker drives.
type InvoiceSyncer interface {
	StalePending(ctx context.Context, minAge time.Duration, limit int) ([]model.Invoice, error)
	SyncPending(ctx context.Context, inv *model.Invoice) (*model.InvoiceStatusResult, error)
}

// InvoiceSyncWorker polls the gateway for pending invoices whose callback
// never arrived and applies the status it reports.
type InvoiceSyncWorker struct {
	invoices InvoiceSyncer
	locker   Locker
	interval time.Duration
	minAge   time.Duration
	log      zerolog.Logger
}

func NewInvoiceSyncWorker(invoices InvoiceSyncer, locker Locker, interval, minAge time.Duration, log zerolog.Logger) *InvoiceSyncWorker {
	return &InvoiceSyncWorker{
		invoices: invoices,
		locker:   locker,
		interval: interval,
		minAge:   minAge,
		log:      logger.Component(log, "invoice_sync_worker"),
	}
}

// Start runs until ctx is cancelled.
func (w *InvoiceSyncWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("InvoiceSyncWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("InvoiceSyncWorker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce syncs one batch and returns how many invoices changed status.
func (w *InvoiceSyncWorker) RunOnce(ctx context.Context) int {
	release, ok, err := w.locker.TryLock(ctx, config.WorkerKey.InvoiceSyncLock, w.interval)
	if err != nil {
		w.log.Warn().Err(err).Msg("Failed to take sync lock")
		return 0
	}
	if !ok {
		w.log.Debug().Msg("Another replica is syncing")
		return 0
	}
	defer release()

	stale, err := w.invoices.StalePending(ctx, w.minAge, SyncBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to load pending invoices")
		return 0
	}

	changed := 0
	for i := range stale {
		if ctx.Err() != nil {
			break
		}
		res, err := w.invoices.SyncPending(ctx, &stale[i])
		if err != nil {
			w.log.Warn().Err(err).Int64("invoice_id", stale[i].ID).Msg("Gateway sync failed")
			continue
		}
		if res.StatusChanged {
			changed++
		}
	}

	if len(stale) > 0 {
		w.log.Info().Int("checked", len(stale)).Int("changed", changed).Msg("Pending invoices synced")
	}
	return changed
}
