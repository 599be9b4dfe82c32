// Package resolve groups lead records into customer identities.
//
// Every function here is pure: it works on the record slice it is given and
// never reaches for a store or global state. Callers must pass the complete
// record set; a missing page silently splits clusters.
package resolve

import (
	"sort"
	"strings"

	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/phone"
)

// ClusterKey returns the identity key of rec under mode and whether the
// record can take part in clustering at all.
func ClusterKey(rec model.LeadRecord, mode model.ClusterMode) (string, bool) {
	switch mode {
	case model.ModeName:
		key := strings.ToLower(strings.TrimSpace(rec.Name))
		return key, key != ""
	default:
		return phone.Key(rec.RawPhone)
	}
}

// group is an ordered bucket of records sharing one key.
type group struct {
	key     string
	members []model.LeadRecord
}

// groupBy buckets records by key, keeping buckets in first-seen key order.
// Records the key function rejects are dropped.
func groupBy(records []model.LeadRecord, keyFn func(model.LeadRecord) (string, bool)) []*group {
	index := make(map[string]*group)
	var groups []*group
	for _, rec := range records {
		key, ok := keyFn(rec)
		if !ok {
			continue
		}
		g, found := index[key]
		if !found {
			g = &group{key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, rec)
	}
	for _, g := range groups {
		sortByOccurred(g.members)
	}
	return groups
}

func sortByOccurred(recs []model.LeadRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].OccurredAt.Before(recs[j].OccurredAt)
	})
}

// Cluster groups records by identity key and returns every group with at
// least two members, largest first. Ties keep the order in which their keys
// first appeared in records.
func Cluster(records []model.LeadRecord, mode model.ClusterMode) []model.IdentityCluster {
	if mode != model.ModeName {
		mode = model.ModePhone
	}

	groups := groupBy(records, func(rec model.LeadRecord) (string, bool) {
		return ClusterKey(rec, mode)
	})

	var clusters []model.IdentityCluster
	for _, g := range groups {
		if len(g.members) < 2 {
			continue
		}
		c := model.IdentityCluster{
			Key:      g.key,
			Mode:     mode,
			Members:  g.members,
			Branches: distinctBranches(g.members),
		}
		c.Kind = Classify(c)
		clusters = append(clusters, c)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].Members) > len(clusters[j].Members)
	})
	return clusters
}

// ApplyAssignments sets AssignedOwner on each cluster whose (key, mode) has an assignment.
// Clusters without one have their owner cleared.
func ApplyAssignments(clusters []model.IdentityCluster, assignments []model.BranchAssignment) {
	owners := assignmentIndex(assignments)
	for i := range clusters {
		clusters[i].AssignedOwner = owners[assignmentKey{clusters[i].Key, clusters[i].Mode}]
	}
}

type assignmentKey struct {
	key  string
	mode model.ClusterMode
}

// assignmentIndex builds a lookup from (key, mode) to branch. A later entry
// for the same pair overrides an earlier one.
func assignmentIndex(assignments []model.BranchAssignment) map[assignmentKey]model.Branch {
	idx := make(map[assignmentKey]model.Branch, len(assignments))
	for _, a := range assignments {
		if a.AssignedBranch == "" {
			continue
		}
		idx[assignmentKey{a.DuplicateKey, a.DuplicateMode}] = a.AssignedBranch
	}
	return idx
}

// distinctBranches returns the non-empty logical branches of recs in first-seen order.
func distinctBranches(recs []model.LeadRecord) []model.Branch {
	seen := make(map[model.Branch]bool)
	var out []model.Branch
	for _, r := range recs {
		if r.Branch == "" || seen[r.Branch] {
			continue
		}
		seen[r.Branch] = true
		out = append(out, r.Branch)
	}
	return out
}
