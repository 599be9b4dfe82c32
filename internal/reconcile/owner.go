package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/resolve"
)

// ErrInvalidKey is returned when a duplicate key cannot identify any cluster
// in its mode, such as a phone too short to group on.
var ErrInvalidKey = eris.New("reconcile: invalid duplicate key")

// clusterKey reduces an operator-supplied key to the form clusters are keyed
// by, so "081234567890" and "6281234567890" pin the same phone cluster.
func clusterKey(raw string, mode model.ClusterMode) (string, error) {
	if !mode.Valid() {
		return "", eris.Errorf("reconcile: invalid mode %q", mode)
	}
	rec := model.LeadRecord{RawPhone: raw, Name: raw}
	key, ok := resolve.ClusterKey(rec, mode)
	if !ok {
		return "", eris.Wrapf(ErrInvalidKey, "%s key %q", mode, strings.TrimSpace(raw))
	}
	return key, nil
}

// SetOwner pins the cluster identified by (key, mode) to rawBranch. The branch
// must be in the branch table. A store failure is wrapped in ErrOwnerNotSaved.
func (s *Service) SetOwner(ctx context.Context, key string, mode model.ClusterMode, rawBranch string) (model.BranchAssignment, error) {
	key, err := clusterKey(key, mode)
	if err != nil {
		return model.BranchAssignment{}, err
	}
	b, err := s.branches.Canonical(rawBranch)
	if err != nil {
		return model.BranchAssignment{}, err
	}

	a := model.BranchAssignment{
		DuplicateKey:   key,
		DuplicateMode:  mode,
		AssignedBranch: b,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := s.store.UpsertAssignment(ctx, a); err != nil {
		zap.L().Warn("reconcile: owner assignment failed",
			zap.String("key", key),
			zap.String("mode", string(mode)),
			zap.String("branch", string(b)),
			zap.Error(err),
		)
		return model.BranchAssignment{}, eris.Wrapf(ErrOwnerNotSaved, "%s/%s: %v", mode, key, err)
	}

	zap.L().Info("reconcile: owner assigned",
		zap.String("key", key),
		zap.String("mode", string(mode)),
		zap.String("branch", string(b)),
	)
	return a, nil
}

// AssignCluster sets the owner of c and updates c.AssignedOwner once the store
// has accepted the write. On failure c is left untouched.
func (s *Service) AssignCluster(ctx context.Context, c *model.IdentityCluster, rawBranch string) error {
	if c == nil {
		return eris.New("reconcile: nil cluster")
	}
	a, err := s.SetOwner(ctx, c.Key, c.Mode, rawBranch)
	if err != nil {
		return err
	}
	c.AssignedOwner = a.AssignedBranch
	return nil
}

// ClearOwner removes the assignment for (key, mode), unfreezing every member.
func (s *Service) ClearOwner(ctx context.Context, key string, mode model.ClusterMode) error {
	key, err := clusterKey(key, mode)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAssignment(ctx, key, mode); err != nil {
		return eris.Wrapf(ErrOwnerNotSaved, "%s/%s: %v", mode, key, err)
	}
	zap.L().Info("reconcile: owner cleared", zap.String("key", key), zap.String("mode", string(mode)))
	return nil
}
