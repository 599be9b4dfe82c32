// Package store persists lead records and branch assignments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/seftcorp/leadops/internal/model"
)

// ErrNotFound is returned when an update targets a row that does not exist.
var ErrNotFound = eris.New("store: not found")

// LeadFilter selects one page of leads.
type LeadFilter struct {
	// Branch keeps leads whose raw branch label contains this text (case-insensitive).
	Branch string `json:"branch,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// LeadLister returns leads one page at a time, ordered by (occurred_at, id).
type LeadLister interface {
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.LeadRecord, error)
}

// AssignmentStore persists operator branch assignments.
type AssignmentStore interface {
	ListAssignments(ctx context.Context, mode model.ClusterMode) ([]model.BranchAssignment, error)
	// UpsertAssignment writes the assignment keyed by (DuplicateKey, DuplicateMode),
	// replacing any existing row for that pair.
	UpsertAssignment(ctx context.Context, a model.BranchAssignment) error
	DeleteAssignment(ctx context.Context, key string, mode model.ClusterMode) error
}

// Store defines the persistence interface for lead operations.
type Store interface {
	LeadLister
	AssignmentStore

	UpsertLeads(ctx context.Context, leads []model.LeadRecord) (int64, error)
	UpdateLead(ctx context.Context, id string, upd model.LeadUpdate) error

	Migrate(ctx context.Context) error
	Close() error
}

// dedupeLeads keeps the last occurrence of each id, preserving first-seen order.
func dedupeLeads(leads []model.LeadRecord) []model.LeadRecord {
	pos := make(map[string]int, len(leads))
	out := make([]model.LeadRecord, 0, len(leads))
	for _, l := range leads {
		if i, ok := pos[l.ID]; ok {
			out[i] = l
			continue
		}
		pos[l.ID] = len(out)
		out = append(out, l)
	}
	return out
}
