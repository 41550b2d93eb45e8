package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/client/queue"
	"github.com/dmitrijs2005/scratchmap/internal/client/reconcile"
	"github.com/dmitrijs2005/scratchmap/internal/client/remote"
	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/geo"
)

type DiscoveryInput struct {
	Title       string
	Description string
	At          geo.Point
	// ImagePath is a local file or a remote URI; empty means no image.
	ImagePath string
}

// DiscoveryPatch changes only the non-nil fields. Position and date are
// immutable.
type DiscoveryPatch struct {
	Title       *string
	Description *string
	ImagePath   *string
}

type DiscoveryService interface {
	Add(ctx context.Context, in DiscoveryInput) (models.Discovery, error)
	Update(ctx context.Context, uuid string, patch DiscoveryPatch) (models.Discovery, error)
	Delete(ctx context.Context, uuid string) error
	Get(ctx context.Context, uuid string) (models.Discovery, error)
	List(ctx context.Context) ([]models.Discovery, error)
}

type discoveryService struct {
	Deps
	queue *queue.DiscoveryQueue
}

func NewDiscoveryService(d Deps) DiscoveryService {
	d = d.withDefaults()
	return &discoveryService{
		Deps:  d,
		queue: queue.NewDiscoveryQueue(d.Collections, d.Logger),
	}
}

func imageRef(path string) *string {
	if path == "" {
		return nil
	}
	return &path
}

func (s *discoveryService) Add(ctx context.Context, in DiscoveryInput) (models.Discovery, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Discovery{}, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if !in.At.Valid() {
		return models.Discovery{}, fmt.Errorf("%w: position must be finite", common.ErrorValidation)
	}

	d := models.NewDiscovery(in.Title, in.Description, in.At, s.Now())
	d.ImageURI = imageRef(in.ImagePath)
	if s.Online.Online() {
		d.LocationName = s.Geocoder.Reverse(ctx, in.At)
	}

	var all []models.Discovery
	if err := s.Collections.MutateDiscoveries(ctx, func(cur []models.Discovery) ([]models.Discovery, error) {
		all = append(cur, d)
		return all, nil
	}); err != nil {
		return models.Discovery{}, fmt.Errorf("saving error: %w", err)
	}
	s.Overlay.DiscoveriesChanged(all)

	if err := s.push(ctx, models.AddAction(d)); err != nil {
		return d, err
	}
	return d, nil
}

func (s *discoveryService) Update(ctx context.Context, uuid string, patch DiscoveryPatch) (models.Discovery, error) {
	var updated models.Discovery
	err := s.Collections.MutateDiscoveries(ctx, func(cur []models.Discovery) ([]models.Discovery, error) {
		for i := range cur {
			if cur[i].UUID != uuid {
				continue
			}
			if patch.Title != nil {
				cur[i].Title = *patch.Title
			}
			if patch.Description != nil {
				cur[i].Description = *patch.Description
			}
			if patch.ImagePath != nil {
				cur[i].ImageURI = imageRef(*patch.ImagePath)
			}
			updated = cur[i]
			return cur, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrDiscoveryNotFound, uuid)
	})
	if err != nil {
		return models.Discovery{}, err
	}

	if err := s.push(ctx, models.UpdateAction(updated)); err != nil {
		return updated, err
	}
	return updated, nil
}

func (s *discoveryService) Delete(ctx context.Context, uuid string) error {
	var rest []models.Discovery
	err := s.Collections.MutateDiscoveries(ctx, func(cur []models.Discovery) ([]models.Discovery, error) {
		for i := range cur {
			if cur[i].UUID == uuid {
				rest = append(cur[:i:i], cur[i+1:]...)
				return rest, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrDiscoveryNotFound, uuid)
	})
	if err != nil {
		return err
	}
	s.Overlay.DiscoveriesChanged(rest)

	return s.push(ctx, models.DeleteAction(uuid))
}

func (s *discoveryService) Get(ctx context.Context, uuid string) (models.Discovery, error) {
	all, err := s.Collections.Discoveries(ctx)
	if err != nil {
		return models.Discovery{}, err
	}
	for _, d := range all {
		if d.UUID == uuid {
			return d, nil
		}
	}
	return models.Discovery{}, fmt.Errorf("%w: %s", ErrDiscoveryNotFound, uuid)
}

func (s *discoveryService) List(ctx context.Context) ([]models.Discovery, error) {
	return s.Collections.Discoveries(ctx)
}

// push writes a to the remote directly when that cannot overtake queued
// actions, and queues it otherwise. A failed remote write is queued too;
// only a failure to queue is returned.
func (s *discoveryService) push(ctx context.Context, a models.PendingAction) error {
	if s.Online.Online() {
		pending, err := s.queue.Pending(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			gw, err := s.Gateways.Discoveries(ctx)
			if err == nil {
				err = queue.Replay(ctx, gw, a)
			}
			if err == nil {
				return nil
			}
			if !remote.IsSkip(err) {
				s.Logger.Warn(ctx, "remote write failed, queued for later", "type", a.Type, "uuid", a.TargetUUID(), "error", err)
			}
		}
	}

	s.State.MarkDirty(reconcile.CollectionDiscoveries)
	if err := s.queue.Enqueue(ctx, a); err != nil {
		return fmt.Errorf("enqueue %s: %w", a.Type, err)
	}
	return nil
}
