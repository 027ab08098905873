package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/logger"
)

// GroupActivator flips groups whose start date has arrived to active.
type GroupActivator interface {
	ActivateStarted(ctx context.Context) (int64, error)
}

// GroupActivationWorker periodically activates started groups.
type GroupActivationWorker struct {
	groups   GroupActivator
	locker   Locker
	interval time.Duration
	log      zerolog.Logger
}

func NewGroupActivationWorker(groups GroupActivator, locker Locker, interval time.Duration, log zerolog.Logger) *GroupActivationWorker {
	return &GroupActivationWorker{
		groups:   groups,
		locker:   locker,
		interval: interval,
		log:      logger.Component(log, "group_activation_worker"),
	}
}

// Start runs once immediately, then every interval until ctx is cancelled.
func (w *GroupActivationWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("GroupActivationWorker started")
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("GroupActivationWorker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce activates started groups and returns how many changed.
func (w *GroupActivationWorker) RunOnce(ctx context.Context) int64 {
	release, ok, err := w.locker.TryLock(ctx, config.WorkerKey.GroupActivationLock, w.interval)
	if err != nil {
		w.log.Warn().Err(err).Msg("Failed to take activation lock")
		return 0
	}
	if !ok {
		return 0
	}
	defer release()

	n, err := w.groups.ActivateStarted(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("Group activation failed")
		return 0
	}
	if n > 0 {
		w.log.Info().Int64("activated", n).Msg("Started groups activated")
	}
	return n
}
