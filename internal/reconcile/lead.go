package reconcile

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/resolve"
	"github.com/seftcorp/leadops/internal/store"
)

// ErrFrozen is returned when a branch-scoped edit targets a record whose
// cluster is owned by another branch.
var ErrFrozen = eris.New("reconcile: record is frozen")

// UpdateLead applies operator edits to one lead. When scope names a branch,
// the edit is refused if the lead is frozen in either clustering mode.
// Edits never change identity, so no cluster is recomputed afterwards.
func (s *Service) UpdateLead(ctx context.Context, id string, upd model.LeadUpdate, scope string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return eris.New("reconcile: empty lead id")
	}
	if upd.Status != nil && strings.TrimSpace(string(*upd.Status)) == "" {
		return eris.New("reconcile: empty payment status")
	}

	if strings.TrimSpace(scope) != "" {
		if _, err := s.branches.Canonical(scope); err != nil {
			return err
		}
		owner, mode, err := s.frozenBy(ctx, id)
		if err != nil {
			return err
		}
		if owner != "" {
			return eris.Wrapf(ErrFrozen, "lead %s is owned by %s via %s cluster", id, owner, mode)
		}
	}

	if err := s.store.UpdateLead(ctx, id, upd); err != nil {
		return eris.Wrapf(err, "reconcile: update lead %s", id)
	}
	zap.L().Info("reconcile: lead updated", zap.String("id", id), zap.String("scope", scope))
	return nil
}

// frozenBy returns the owning branch and mode that freeze lead id, or "" if
// the lead is editable. A missing lead returns store.ErrNotFound.
func (s *Service) frozenBy(ctx context.Context, id string) (model.Branch, model.ClusterMode, error) {
	var leads []model.LeadRecord
	assignments := make(map[model.ClusterMode][]model.BranchAssignment, 2)
	modes := []model.ClusterMode{model.ModePhone, model.ModeName}
	results := make([][]model.BranchAssignment, len(modes))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leads, err = store.FetchAll(gctx, s.store, store.LeadFilter{}, s.opts.PageSize)
		return eris.Wrap(err, "reconcile: load leads")
	})
	for i, mode := range modes {
		g.Go(func() error {
			as, err := s.store.ListAssignments(gctx, mode)
			if err != nil {
				return eris.Wrapf(err, "reconcile: load %s assignments", mode)
			}
			results[i] = as
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", "", err
	}
	for i, mode := range modes {
		assignments[mode] = results[i]
	}
	s.branches.Apply(leads)

	var target *model.LeadRecord
	for i := range leads {
		if leads[i].ID == id {
			target = &leads[i]
			break
		}
	}
	if target == nil {
		return "", "", eris.Wrapf(store.ErrNotFound, "lead %s", id)
	}

	for _, mode := range modes {
		key, ok := resolve.ClusterKey(*target, mode)
		if !ok {
			continue
		}
		var members []model.LeadRecord
		for _, l := range leads {
			if k, ok := resolve.ClusterKey(l, mode); ok && k == key {
				members = append(members, l)
			}
		}
		if len(members) < 2 {
			continue
		}
		c := model.IdentityCluster{Key: key, Mode: mode, Members: members}
		cs := []model.IdentityCluster{c}
		resolve.ApplyAssignments(cs, assignments[mode])
		if resolve.IsFrozen(*target, cs[0].AssignedOwner) {
			return cs[0].AssignedOwner, mode, nil
		}
	}
	return "", "", nil
}
