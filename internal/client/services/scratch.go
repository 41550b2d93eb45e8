package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/client/progress"
	"github.com/dmitrijs2005/scratchmap/internal/client/queue"
	"github.com/dmitrijs2005/scratchmap/internal/client/reconcile"
	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/geo"
)

const PhaseCleanup = "cleanup-scratches"

type ScratchService interface {
	// Visit records the user's position. It scratches a new point when no
	// stored point lies within the configured spacing and reports whether
	// it did.
	Visit(ctx context.Context, p geo.Point) (bool, error)
	List(ctx context.Context) ([]models.ScratchPoint, error)
	// Cleanup dedupes and sorts the stored points, returning how many were
	// dropped. A cancelled cleanup stores nothing.
	Cleanup(s *progress.Session) (int, error)
}

type scratchService struct {
	Deps
	queue *queue.ScratchQueue
}

func NewScratchService(d Deps) ScratchService {
	d = d.withDefaults()
	return &scratchService{Deps: d, queue: queue.NewScratchQueue(d.Collections, d.Logger)}
}

func (s *scratchService) Visit(ctx context.Context, p geo.Point) (bool, error) {
	if !p.Valid() {
		return false, fmt.Errorf("%w: position must be finite", common.ErrorValidation)
	}
	if err := s.Collections.SetLastKnownPoint(ctx, p); err != nil {
		return false, err
	}
	if s.Overlay.AlreadyScratched(p, s.ScratchSpacingMeters) {
		return false, nil
	}

	sp := models.ScratchPointAt(p)
	added := false
	if err := s.Collections.MutateScratchPoints(ctx, func(cur []models.ScratchPoint) ([]models.ScratchPoint, error) {
		for _, q := range cur {
			if q == sp {
				return cur, nil
			}
		}
		added = true
		return append(cur, sp), nil
	}); err != nil {
		return false, fmt.Errorf("saving error: %w", err)
	}
	s.Overlay.Scratched(sp)
	if !added {
		return false, nil
	}

	s.State.MarkDirty(reconcile.CollectionScratches)
	if err := s.queue.Enqueue(ctx, sp); err != nil {
		return true, fmt.Errorf("enqueue scratch: %w", err)
	}
	if s.Online.Online() {
		s.flush(ctx)
	}
	return true, nil
}

// flush pushes the scratch queue right away. Failures leave the points
// queued and are only logged.
func (s *scratchService) flush(ctx context.Context) {
	gw, err := s.Gateways.Scratches(ctx)
	if err != nil {
		s.Logger.Debug(ctx, "scratch kept queued", "reason", err)
		return
	}
	sess := progress.New(ctx, nil)
	defer sess.Done()

	res, err := s.queue.FlushAll(sess, gw)
	if err != nil {
		s.Logger.Warn(ctx, "scratch push failed, kept queued", "error", err)
		return
	}
	if !res.Offline && res.Retained() == 0 {
		s.State.Clear(reconcile.CollectionScratches)
	}
}

func (s *scratchService) List(ctx context.Context) ([]models.ScratchPoint, error) {
	return s.Collections.ScratchPoints(ctx)
}

func (s *scratchService) Cleanup(sess *progress.Session) (int, error) {
	ctx := sess.Context()
	removed := 0
	err := s.Collections.MutateScratchPoints(ctx, func(cur []models.ScratchPoint) ([]models.ScratchPoint, error) {
		seen := models.ScratchSet{}
		out := make([]models.ScratchPoint, 0, len(cur))
		for i, p := range cur {
			if err := sess.Check(); err != nil {
				return nil, err
			}
			if seen.Add(p) {
				out = append(out, p)
			}
			sess.Report(PhaseCleanup, i+1, len(cur))
		}
		removed = len(cur) - len(out)
		return models.CleanAndSort(out), nil
	})
	if err != nil {
		return 0, err
	}
	s.Logger.Info(ctx, "scratch points cleaned", "removed", removed)
	return removed, nil
}
