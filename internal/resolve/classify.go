package resolve

import "github.com/seftcorp/leadops/internal/model"

// Classify reports whether a cluster spans more than one logical branch.
// It reads the members directly so it stays correct after membership changes.
func Classify(c model.IdentityCluster) model.DuplicateKind {
	if len(distinctBranches(c.Members)) >= 2 {
		return model.CrossBranch
	}
	return model.SameBranch
}

// IsFrozen reports whether rec must be read-only because its cluster is
// pinned to another branch. It is false whenever owner is unset.
func IsFrozen(rec model.LeadRecord, owner model.Branch) bool {
	if owner == "" {
		return false
	}
	return rec.Branch != owner
}

// Members pairs each member of c with its frozen flag under c.AssignedOwner.
func Members(c model.IdentityCluster) []model.MemberView {
	out := make([]model.MemberView, len(c.Members))
	for i, m := range c.Members {
		out[i] = model.MemberView{LeadRecord: m, Frozen: IsFrozen(m, c.AssignedOwner)}
	}
	return out
}

// View renders a cluster with per-member frozen flags.
func View(c model.IdentityCluster) model.ClusterView {
	return model.ClusterView{
		Key:           c.Key,
		Mode:          c.Mode,
		Kind:          c.Kind,
		Branches:      c.Branches,
		AssignedOwner: c.AssignedOwner,
		Members:       Members(c),
	}
}

// FilterByBranch keeps clusters with at least one member in branch.
// An empty branch keeps everything.
func FilterByBranch(clusters []model.IdentityCluster, branch model.Branch) []model.IdentityCluster {
	if branch == "" {
		return clusters
	}
	var out []model.IdentityCluster
	for _, c := range clusters {
		for _, m := range c.Members {
			if m.Branch == branch {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
