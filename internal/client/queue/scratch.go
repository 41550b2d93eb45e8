package queue

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/client/progress"
	"github.com/dmitrijs2005/scratchmap/internal/client/remote"
	"github.com/dmitrijs2005/scratchmap/internal/client/store"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
)

const PhaseFlushScratches = "flush-scratches"

// ScratchQueue holds points revealed while offline. They all live in one
// remote document, so a flush is a single union write and the points are
// acknowledged together.
type ScratchQueue struct {
	coll   *store.Collections
	logger logging.Logger
}

func NewScratchQueue(c *store.Collections, l logging.Logger) *ScratchQueue {
	return &ScratchQueue{coll: c, logger: l.With("module", "scratch_queue")}
}

// Enqueue appends p unless it is already queued.
func (q *ScratchQueue) Enqueue(ctx context.Context, p models.ScratchPoint) error {
	return q.coll.MutatePendingScratch(ctx, func(cur []models.ScratchPoint) ([]models.ScratchPoint, error) {
		if containsPoint(cur, p) {
			return cur, nil
		}
		return append(cur, p), nil
	})
}

func (q *ScratchQueue) Pending(ctx context.Context) ([]models.ScratchPoint, error) {
	return q.coll.PendingScratch(ctx)
}

// FlushAll unions the queued points into the user's scratches document.
func (q *ScratchQueue) FlushAll(s *progress.Session, gw *remote.ScratchGateway) (Result, error) {
	ctx := s.Context()

	snapshot, err := q.coll.PendingScratch(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Total: len(snapshot)}
	if res.Total == 0 {
		return res, nil
	}
	if err := s.Check(); err != nil {
		return res, err
	}

	raw, err := gw.Fetch(ctx)
	if remote.IsSkip(err) {
		res.Offline = true
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("fetch scratches: %w", err)
	}

	var report models.ParseReport
	union := remote.ParseScratchEntries(raw, &report)
	for _, sk := range report.Skipped {
		q.logger.Warn(ctx, "malformed remote scratch point dropped", "entry", sk.DocID, "error", sk.Reason)
	}

	seen := models.NewScratchSet(union)
	for i, p := range snapshot {
		if err := s.Check(); err != nil {
			return Result{Total: res.Total}, err
		}
		if seen.Add(p) {
			union = append(union, p)
		}
		s.Report(PhaseFlushScratches, i+1, res.Total)
	}

	err = gw.Put(ctx, models.CleanAndSort(union))
	if remote.IsSkip(err) {
		res.Offline = true
		return res, nil
	}
	if err != nil {
		res.Failed = res.Total
		q.logger.Warn(ctx, "scratch flush failed, keeping points", "count", res.Total, "error", err)
		return res, fmt.Errorf("put scratches: %w", err)
	}
	res.Replayed = res.Total

	n := res.Total
	if err := q.coll.MutatePendingScratch(ctx, func(cur []models.ScratchPoint) ([]models.ScratchPoint, error) {
		return requeue(cur, n, nil), nil
	}); err != nil {
		return res, fmt.Errorf("commit flush: %w", err)
	}

	q.logger.Info(ctx, "scratch queue flushed", "points", n)
	return res, nil
}
