// Package reconcile implements the bidirectional union merge between the
// local collections and the remote store.
//
// The merge never propagates deletes: anything present on either side ends
// up on both. A discovery deleted on one side while the other still has it
// comes back on the next run.
package reconcile

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/client/progress"
	"github.com/dmitrijs2005/scratchmap/internal/client/remote"
	"github.com/dmitrijs2005/scratchmap/internal/client/store"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
)

const (
	PhaseParseDiscoveries  = "parse-discoveries"
	PhaseUploadDiscoveries = "upload-discoveries"
	PhaseParseScratches    = "parse-scratches"
	PhaseUploadScratches   = "upload-scratches"
)

// Report describes one reconciliation of one collection.
type Report struct {
	// Offline is set when the run was skipped because the remote was
	// unreachable.
	Offline       bool
	Parse         models.ParseReport
	AddedLocally  int
	Uploaded      int
	FailedUploads int
}

type Reconciler struct {
	coll   *store.Collections
	logger logging.Logger
}

func New(c *store.Collections, l logging.Logger) *Reconciler {
	return &Reconciler{coll: c, logger: l.With("module", "reconciler")}
}

func (r *Reconciler) logSkips(ctx context.Context, collection string, rep models.ParseReport) {
	for _, sk := range rep.Skipped {
		r.logger.Warn(ctx, "malformed remote record skipped", "collection", collection, "doc", sk.DocID, "error", sk.Reason)
	}
}

// Discoveries merges local discoveries with the pings collection, keyed by
// uuid.
func (r *Reconciler) Discoveries(s *progress.Session, gw *remote.DiscoveryGateway) (Report, error) {
	ctx := s.Context()
	var rep Report

	// 1. fetch
	docs, err := gw.FetchAll(ctx)
	if remote.IsSkip(err) {
		return Report{Offline: true}, nil
	}
	if err != nil {
		return rep, err
	}

	// 2. parse
	remoteByID := make(map[string]struct{}, len(docs))
	remoteItems := make([]models.Discovery, 0, len(docs))
	for i, doc := range docs {
		if err := s.Check(); err != nil {
			return rep, err
		}
		d, err := models.DiscoveryFromFields(doc.Fields)
		if err != nil {
			rep.Parse.Skip(doc.ID, err)
		} else if _, dup := remoteByID[d.UUID]; !dup {
			rep.Parse.Ok()
			remoteByID[d.UUID] = struct{}{}
			remoteItems = append(remoteItems, d)
		}
		s.Report(PhaseParseDiscoveries, i+1, len(docs))
	}
	r.logSkips(ctx, "pings", rep.Parse)

	// 3. local
	local, err := r.coll.Discoveries(ctx)
	if err != nil {
		return rep, err
	}
	localByID := make(map[string]struct{}, len(local))
	for _, d := range local {
		localByID[d.UUID] = struct{}{}
	}

	// 4. new from remote
	var fromRemote []models.Discovery
	for _, d := range remoteItems {
		if _, ok := localByID[d.UUID]; !ok {
			fromRemote = append(fromRemote, d)
			localByID[d.UUID] = struct{}{}
		}
	}
	merged := append(local, fromRemote...)

	// 5. missing in remote, pushed one by one
	var missing []models.Discovery
	for _, d := range merged {
		if _, ok := remoteByID[d.UUID]; !ok {
			missing = append(missing, d)
		}
	}
	for i, d := range missing {
		if err := s.Check(); err != nil {
			return rep, err
		}
		if err := gw.Put(ctx, d); err != nil {
			rep.FailedUploads++
			r.logger.Warn(ctx, "upload failed", "uuid", d.UUID, "error", err)
		} else {
			rep.Uploaded++
		}
		s.Report(PhaseUploadDiscoveries, i+1, len(missing))
	}

	// 6. persist the union, merged into whatever is stored now
	if err := r.coll.MutateDiscoveries(ctx, func(cur []models.Discovery) ([]models.Discovery, error) {
		have := make(map[string]struct{}, len(cur))
		for _, d := range cur {
			have[d.UUID] = struct{}{}
		}
		for _, d := range fromRemote {
			if _, ok := have[d.UUID]; !ok {
				cur = append(cur, d)
				rep.AddedLocally++
			}
		}
		return cur, nil
	}); err != nil {
		return rep, err
	}

	r.logger.Info(ctx, "discoveries reconciled",
		"remote", len(docs), "skipped", len(rep.Parse.Skipped),
		"added_locally", rep.AddedLocally, "uploaded", rep.Uploaded, "failed_uploads", rep.FailedUploads)
	return rep, nil
}

// Scratches merges local scratch points with the user's scratches document,
// keyed by exact coordinates.
func (r *Reconciler) Scratches(s *progress.Session, gw *remote.ScratchGateway) (Report, error) {
	ctx := s.Context()
	var rep Report

	raw, err := gw.Fetch(ctx)
	if remote.IsSkip(err) {
		return Report{Offline: true}, nil
	}
	if err != nil && !errors.Is(err, models.ErrMalformedRecord) {
		return rep, err
	}
	if err != nil {
		// the whole points field is unusable; treat the document as empty
		rep.Parse.Skip("points", err)
		raw = nil
	}

	remoteSet := models.ScratchSet{}
	remotePoints := make([]models.ScratchPoint, 0, len(raw))
	for i, entry := range raw {
		if err := s.Check(); err != nil {
			return rep, err
		}
		p, err := remote.ParseScratchEntry(entry)
		if err != nil {
			rep.Parse.Skip(remote.ScratchEntryID(i), err)
		} else {
			rep.Parse.Ok()
			if remoteSet.Add(p) {
				remotePoints = append(remotePoints, p)
			}
		}
		s.Report(PhaseParseScratches, i+1, len(raw))
	}
	r.logSkips(ctx, "scratches", rep.Parse)

	local, err := r.coll.ScratchPoints(ctx)
	if err != nil {
		return rep, err
	}
	localSet := models.NewScratchSet(local)

	var fromRemote []models.ScratchPoint
	for _, p := range remotePoints {
		if localSet.Add(p) {
			fromRemote = append(fromRemote, p)
		}
	}
	merged := append(local, fromRemote...)

	var missing []models.ScratchPoint
	seenMissing := models.ScratchSet{}
	for _, p := range merged {
		if !remoteSet.Has(p) && seenMissing.Add(p) {
			missing = append(missing, p)
		}
	}

	if len(missing) > 0 {
		union := append([]models.ScratchPoint{}, remotePoints...)
		for i, p := range missing {
			if err := s.Check(); err != nil {
				return rep, err
			}
			union = append(union, p)
			s.Report(PhaseUploadScratches, i+1, len(missing))
		}
		if err := gw.Put(ctx, models.CleanAndSort(union)); err != nil {
			rep.FailedUploads = len(missing)
			r.logger.Warn(ctx, "scratch upload failed", "points", len(missing), "error", err)
		} else {
			rep.Uploaded = len(missing)
		}
	}

	if err := r.coll.MutateScratchPoints(ctx, func(cur []models.ScratchPoint) ([]models.ScratchPoint, error) {
		have := models.NewScratchSet(cur)
		for _, p := range fromRemote {
			if have.Add(p) {
				cur = append(cur, p)
				rep.AddedLocally++
			}
		}
		return cur, nil
	}); err != nil {
		return rep, err
	}

	r.logger.Info(ctx, "scratches reconciled",
		"remote", len(raw), "skipped", len(rep.Parse.Skipped),
		"added_locally", rep.AddedLocally, "uploaded", rep.Uploaded, "failed_uploads", rep.FailedUploads)
	return rep, nil
}
