package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/client/progress"
	"github.com/dmitrijs2005/scratchmap/internal/client/remote"
	"github.com/dmitrijs2005/scratchmap/internal/client/store"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
)

const PhaseFlushDiscoveries = "flush-discoveries"

type DiscoveryQueue struct {
	coll   *store.Collections
	logger logging.Logger
}

func NewDiscoveryQueue(c *store.Collections, l logging.Logger) *DiscoveryQueue {
	return &DiscoveryQueue{coll: c, logger: l.With("module", "discovery_queue")}
}

func (q *DiscoveryQueue) Enqueue(ctx context.Context, a models.PendingAction) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return q.coll.MutatePendingActions(ctx, func(cur []models.PendingAction) ([]models.PendingAction, error) {
		return append(cur, a), nil
	})
}

func (q *DiscoveryQueue) Pending(ctx context.Context) ([]models.PendingAction, error) {
	return q.coll.PendingActions(ctx)
}

// FlushAll replays every queued action through gw.
func (q *DiscoveryQueue) FlushAll(s *progress.Session, gw *remote.DiscoveryGateway) (Result, error) {
	ctx := s.Context()

	snapshot, err := q.coll.PendingActions(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Total: len(snapshot)}
	if res.Total == 0 {
		return res, nil
	}

	var kept []models.PendingAction
	// uuids with a failed action; their later actions wait behind it
	blocked := map[string]struct{}{}
	for i, a := range snapshot {
		if s.Cancelled() {
			q.logger.Info(ctx, "flush cancelled", "done", i, "total", res.Total)
			return Result{Total: res.Total}, progress.ErrCancelled
		}

		if _, ok := blocked[a.TargetUUID()]; ok {
			res.Blocked++
			kept = append(kept, a)
			s.Report(PhaseFlushDiscoveries, i+1, res.Total)
			continue
		}

		err := Replay(ctx, gw, a)
		switch {
		case remote.IsSkip(err):
			res.Offline = true
			kept = append(kept, snapshot[i:]...)
		case err != nil:
			q.logger.Warn(ctx, "replay failed, keeping action", "type", a.Type, "uuid", a.TargetUUID(), "error", err)
			res.Failed++
			blocked[a.TargetUUID()] = struct{}{}
			kept = append(kept, a)
		default:
			res.Replayed++
		}
		if res.Offline {
			break
		}
		s.Report(PhaseFlushDiscoveries, i+1, res.Total)
	}

	n := res.Total
	if err := q.coll.MutatePendingActions(ctx, func(cur []models.PendingAction) ([]models.PendingAction, error) {
		return requeue(cur, n, kept), nil
	}); err != nil {
		return res, fmt.Errorf("commit flush: %w", err)
	}

	q.logger.Info(ctx, "discovery queue flushed", "replayed", res.Replayed, "failed", res.Failed, "blocked", res.Blocked, "offline", res.Offline)
	return res, nil
}

// Replay applies a single action to the remote store. An update of a
// document that does not exist remotely is written in full.
func Replay(ctx context.Context, gw *remote.DiscoveryGateway, a models.PendingAction) error {
	switch a.Type {
	case models.ActionAdd:
		return gw.Put(ctx, *a.Discovery)
	case models.ActionUpdate:
		exists, err := gw.Exists(ctx, a.Discovery.UUID)
		if err != nil {
			return err
		}
		if !exists {
			// never merge into a document that is not there
			return gw.Put(ctx, *a.Discovery)
		}
		return gw.Merge(ctx, *a.Discovery)
	case models.ActionDelete:
		return gw.Delete(ctx, a.UUID)
	default:
		return errors.New("unknown action " + string(a.Type))
	}
}
