package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/model"
)

type fakeLocker struct {
	held     map[string]bool
	err      error
	released []string
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	return func() { l.released = append(l.released, key) }, true, nil
}

type fakeSyncer struct {
	stale  []model.Invoice
	failOn int64
	synced []int64
}

func (s *fakeSyncer) StalePending(_ context.Context, _ time.Duration, limit int) ([]model.Invoice, error) {
	if len(s.stale) > limit {
		return s.stale[:limit], nil
	}
	return s.stale, nil
}

func (s *fakeSyncer) SyncPending(_ context.Context, inv *model.Invoice) (*model.InvoiceStatusResult, error) {
	if inv.ID == s.failOn {
		return nil, errors.New("gateway timeout")
	}
	s.synced = append(s.synced, inv.ID)
	return &model.InvoiceStatusResult{InvoiceID: inv.ID, StatusChanged: inv.ID%2 == 0}, nil
}

func TestInvoiceSyncRunOnce(t *testing.T) {
	syncer := &fakeSyncer{
		stale:  []model.Invoice{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}},
		failOn: 3,
	}
	locker := &fakeLocker{}
	w := NewInvoiceSyncWorker(syncer, locker, time.Minute, 10*time.Minute, zerolog.Nop())

	if got := w.RunOnce(context.Background()); got != 2 {
		t.Errorf("changed = %d, want 2", got)
	}
	if len(syncer.synced) != 3 {
		t.Errorf("synced = %v, a failing invoice must not stop the batch", syncer.synced)
	}
	if len(locker.released) != 1 || locker.released[0] != config.WorkerKey.InvoiceSyncLock {
		t.Errorf("released = %v", locker.released)
	}
}

func TestInvoiceSyncSkipsWhenLocked(t *testing.T) {
	syncer := &fakeSyncer{stale: []model.Invoice{{ID: 2}}}
	locker := &fakeLocker{held: map[string]bool{config.WorkerKey.InvoiceSyncLock: true}}
	w := NewInvoiceSyncWorker(syncer, locker, time.Minute, time.Minute, zerolog.Nop())

	if got := w.RunOnce(context.Background()); got != 0 || len(syncer.synced) != 0 {
		t.Errorf("locked run synced %v", syncer.synced)
	}

	locker = &fakeLocker{err: errors.New("redis down")}
	w = NewInvoiceSyncWorker(syncer, locker, time.Minute, time.Minute, zerolog.Nop())
	if got := w.RunOnce(context.Background()); got != 0 || len(syncer.synced) != 0 {
		t.Errorf("run without lock synced %v", syncer.synced)
	}
}

type fakeActivator struct {
	n     int64
	err   error
	calls int
}

func (a *fakeActivator) ActivateStarted(context.Context) (int64, error) {
	a.calls++
	return a.n, a.err
}

func TestGroupActivationRunOnce(t *testing.T) {
	act := &fakeActivator{n: 3}
	w := NewGroupActivationWorker(act, &fakeLocker{}, time.Hour, zerolog.Nop())
	if got := w.RunOnce(context.Background()); got != 3 {
		t.Errorf("activated = %d, want 3", got)
	}

	act = &fakeActivator{err: errors.New("db down")}
	w = NewGroupActivationWorker(act, &fakeLocker{}, time.Hour, zerolog.Nop())
	if got := w.RunOnce(context.Background()); got != 0 || act.calls != 1 {
		t.Errorf("failed activation = %d after %d calls", got, act.calls)
	}
}

func TestGroupActivationStopsOnCancel(t *testing.T) {
	act := &fakeActivator{}
	w := NewGroupActivationWorker(act, &fakeLocker{}, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	if act.calls != 1 {
		t.Errorf("calls = %d, want the startup run only", act.calls)
	}
}
