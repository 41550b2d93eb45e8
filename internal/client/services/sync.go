package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/scratchmap/internal/client/progress"
	"github.com/dmitrijs2005/scratchmap/internal/client/queue"
	"github.com/dmitrijs2005/scratchmap/internal/client/reconcile"
)

type FlushReport struct {
	Discoveries queue.Result
	Scratches   queue.Result
}

type SyncReport struct {
	Flush       FlushReport
	Discoveries reconcile.Report
	Scratches   reconcile.Report
	// IndexedScratches counts scratch points newly added to the index.
	IndexedScratches int
}

// SyncService runs the reconnect pipeline: flush both queues, reconcile both
// collections, then refresh the spatial index and invalidate the fog.
// At most one run is in flight; a concurrent call gets ErrSyncInProgress.
type SyncService interface {
	Sync(s *progress.Session) (SyncReport, error)
	Flush(s *progress.Session) (FlushReport, error)
	// ConnectivityChanged is a connectivity.Watcher hook that syncs on the
	// offline to online transition.
	ConnectivityChanged(ctx context.Context, online bool)
}

type syncService struct {
	Deps
	mu          sync.Mutex
	discoveries *queue.DiscoveryQueue
	scratches   *queue.ScratchQueue
	reconciler  *reconcile.Reconciler
}

func NewSyncService(d Deps) SyncService {
	d = d.withDefaults()
	return &syncService{
		Deps:        d,
		discoveries: queue.NewDiscoveryQueue(d.Collections, d.Logger),
		scratches:   queue.NewScratchQueue(d.Collections, d.Logger),
		reconciler:  reconcile.New(d.Collections, d.Logger),
	}
}

func (s *syncService) Flush(sess *progress.Session) (FlushReport, error) {
	if !s.mu.TryLock() {
		return FlushReport{}, ErrSyncInProgress
	}
	defer s.mu.Unlock()
	return s.flush(sess)
}

func (s *syncService) flush(sess *progress.Session) (FlushReport, error) {
	ctx := sess.Context()
	var rep FlushReport

	dgw, err := s.Gateways.Discoveries(ctx)
	if err != nil {
		return rep, err
	}
	sgw, err := s.Gateways.Scratches(ctx)
	if err != nil {
		return rep, err
	}

	rep.Discoveries, err = s.discoveries.FlushAll(sess, dgw)
	if err != nil {
		return rep, fmt.Errorf("flush discoveries: %w", err)
	}
	rep.Scratches, err = s.scratches.FlushAll(sess, sgw)
	if err != nil {
		return rep, fmt.Errorf("flush scratches: %w", err)
	}
	return rep, nil
}

func (s *syncService) Sync(sess *progress.Session) (SyncReport, error) {
	if !s.mu.TryLock() {
		return SyncReport{}, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	ctx := sess.Context()
	var rep SyncReport
	var err error

	rep.Flush, err = s.flush(sess)
	if err != nil {
		return rep, err
	}

	dgw, err := s.Gateways.Discoveries(ctx)
	if err != nil {
		return rep, err
	}
	sgw, err := s.Gateways.Scratches(ctx)
	if err != nil {
		return rep, err
	}

	rep.Discoveries, err = s.reconciler.Discoveries(sess, dgw)
	if err != nil {
		return rep, fmt.Errorf("reconcile discoveries: %w", err)
	}
	rep.Scratches, err = s.reconciler.Scratches(sess, sgw)
	if err != nil {
		return rep, fmt.Errorf("reconcile scratches: %w", err)
	}

	rep.IndexedScratches, err = s.Overlay.Refresh(ctx, s.Collections)
	if err != nil {
		return rep, fmt.Errorf("refresh index: %w", err)
	}

	if clean(rep.Flush.Discoveries, rep.Discoveries) {
		s.State.Clear(reconcile.CollectionDiscoveries)
	}
	if clean(rep.Flush.Scratches, rep.Scratches) {
		s.State.Clear(reconcile.CollectionScratches)
	}

	s.Logger.Info(ctx, "sync finished",
		"flushed_discoveries", rep.Flush.Discoveries.Replayed,
		"flushed_scratches", rep.Flush.Scratches.Replayed,
		"pulled_discoveries", rep.Discoveries.AddedLocally,
		"pulled_scratches", rep.Scratches.AddedLocally)
	return rep, nil
}

func clean(f queue.Result, r reconcile.Report) bool {
	return !f.Offline && f.Retained() == 0 && !r.Offline && r.FailedUploads == 0
}

func (s *syncService) ConnectivityChanged(ctx context.Context, online bool) {
	if !online {
		return
	}
	sess := progress.New(ctx, nil)
	defer sess.Done()

	if _, err := s.Sync(sess); err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			s.Logger.Debug(ctx, "reconnect sync skipped", "reason", err)
			return
		}
		s.Logger.Warn(ctx, "reconnect sync failed", "error", err)
	}
}
