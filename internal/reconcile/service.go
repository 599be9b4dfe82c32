// Package reconcile loads a complete lead snapshot from the store and runs
// the identity resolvers over it. It also records operator branch ownership.
package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seftcorp/leadops/internal/branch"
	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/resolve"
	"github.com/seftcorp/leadops/internal/store"
)

// ErrOwnerNotSaved is returned when the store rejects an owner assignment.
// Callers should surface it distinctly from validation errors.
var ErrOwnerNotSaved = eris.New("reconcile: owner not saved")

// Options tunes snapshot loading and profiling.
type Options struct {
	PageSize   int
	PaidStatus model.PaymentStatus
}

// Service ties the store, the branch table, and the resolvers together.
type Service struct {
	store    store.Store
	branches *branch.Table
	opts     Options
}

// NewService creates a Service. A nil table falls back to branch.Default().
func NewService(st store.Store, branches *branch.Table, opts Options) *Service {
	if branches == nil {
		branches = branch.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = store.DefaultPageSize
	}
	return &Service{store: st, branches: branches, opts: opts}
}

// Branches returns the branch table in use.
func (s *Service) Branches() *branch.Table { return s.branches }

// Snapshot is the full record set plus the assignments for one mode.
type Snapshot struct {
	Mode        model.ClusterMode
	Leads       []model.LeadRecord
	Assignments []model.BranchAssignment
	LoadedAt    time.Time
}

// LoadSnapshot fetches every lead and the assignments for mode in parallel.
// If either read fails, no snapshot is returned.
func (s *Service) LoadSnapshot(ctx context.Context, mode model.ClusterMode) (*Snapshot, error) {
	if !mode.Valid() {
		return nil, eris.Errorf("reconcile: invalid mode %q", mode)
	}

	snap := &Snapshot{Mode: mode}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		leads, err := store.FetchAll(gctx, s.store, store.LeadFilter{}, s.opts.PageSize)
		if err != nil {
			return eris.Wrap(err, "reconcile: load leads")
		}
		snap.Leads = leads
		return nil
	})
	g.Go(func() error {
		assignments, err := s.store.ListAssignments(gctx, mode)
		if err != nil {
			return eris.Wrap(err, "reconcile: load assignments")
		}
		snap.Assignments = assignments
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.branches.Apply(snap.Leads)
	snap.LoadedAt = time.Now().UTC()
	zap.L().Debug("reconcile: snapshot loaded",
		zap.String("mode", string(mode)),
		zap.Int("leads", len(snap.Leads)),
		zap.Int("assignments", len(snap.Assignments)),
	)
	return snap, nil
}

// DuplicateReport is the duplicate view for one mode.
type DuplicateReport struct {
	Mode     model.ClusterMode   `json:"mode"`
	Branch   model.Branch        `json:"branch,omitempty"`
	Clusters []model.ClusterView `json:"clusters"`
	Stats    model.QualityStats  `json:"stats"`
}

// CrossBranch counts the cross-branch clusters in the report.
func (r *DuplicateReport) CrossBranch() int {
	n := 0
	for _, c := range r.Clusters {
		if c.Kind == model.CrossBranch {
			n++
		}
	}
	return n
}

// Duplicates clusters the full snapshot and, when rawBranch is set, keeps the
// clusters with at least one member in that branch. Filtering happens after
// clustering so a cluster's other-branch members are still shown.
func (s *Service) Duplicates(ctx context.Context, mode model.ClusterMode, rawBranch string) (*DuplicateReport, error) {
	var only model.Branch
	if strings.TrimSpace(rawBranch) != "" {
		b, err := s.branches.Canonical(rawBranch)
		if err != nil {
			return nil, err
		}
		only = b
	}

	snap, err := s.LoadSnapshot(ctx, mode)
	if err != nil {
		return nil, err
	}

	clusters := resolve.Cluster(snap.Leads, mode)
	resolve.ApplyAssignments(clusters, snap.Assignments)
	clusters = resolve.FilterByBranch(clusters, only)

	report := &DuplicateReport{
		Mode:     mode,
		Branch:   only,
		Clusters: make([]model.ClusterView, len(clusters)),
		Stats:    resolve.Inspect(snap.Leads),
	}
	for i, c := range clusters {
		report.Clusters[i] = resolve.View(c)
	}
	resolve.LogStats("duplicates:"+string(mode), report.Stats)
	return report, nil
}

// ProfileReport is the client profile view.
type ProfileReport struct {
	Profiles []model.ClientProfile `json:"profiles"`
	Stats    model.QualityStats    `json:"stats"`
}

// Profiles aggregates one profile per canonical phone, optionally filtered by lifecycle status.
func (s *Service) Profiles(ctx context.Context, status model.LifecycleStatus) (*ProfileReport, error) {
	if status != "" && !status.Valid() {
		return nil, eris.Errorf("reconcile: invalid lifecycle status %q", status)
	}
	snap, err := s.LoadSnapshot(ctx, model.ModePhone)
	if err != nil {
		return nil, err
	}

	profiles := resolve.BuildProfiles(snap.Leads, snap.Assignments, resolve.ProfileOptions{PaidStatus: s.opts.PaidStatus})
	report := &ProfileReport{
		Profiles: resolve.FilterProfiles(profiles, status),
		Stats:    resolve.Inspect(snap.Leads),
	}
	resolve.LogStats("profiles", report.Stats)
	return report, nil
}

// Quality reports data-quality counts over every stored lead.
func (s *Service) Quality(ctx context.Context) (model.QualityStats, error) {
	leads, err := store.FetchAll(ctx, s.store, store.LeadFilter{}, s.opts.PageSize)
	if err != nil {
		return model.QualityStats{}, eris.Wrap(err, "reconcile: load leads")
	}
	s.branches.Apply(leads)
	return resolve.Inspect(leads), nil
}
