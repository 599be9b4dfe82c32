package model

import "time"

// PaymentStatus is the payment state recorded on a lead.
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"   // counted toward PaidCount
	PaymentUnpaid PaymentStatus = "unpaid" // also used when the export leaves status blank
)

// Branch is a short logical branch label such as "Bekasi" or "Jogja".
// The empty Branch means the record has no branch.
type Branch string

// LeadRecord is one raw transaction or lead event.
type LeadRecord struct {
	ID            string        `json:"id"`
	RawPhone      string        `json:"raw_phone"`
	Name          string        `json:"name"`
	BranchOrigin  string        `json:"branch_origin"`
	Branch        Branch        `json:"branch,omitempty"` // resolved from BranchOrigin at ingestion, never stored
	PaymentStatus PaymentStatus `json:"payment_status"`
	OccurredAt    time.Time     `json:"occurred_at"`
	Notes         string        `json:"notes,omitempty"`
	ShareDate     *time.Time    `json:"share_date,omitempty"`
	Source        string        `json:"source,omitempty"`
}

// LeadUpdate carries the operator-editable fields of a lead. Nil fields are left unchanged.
type LeadUpdate struct {
	Status    *PaymentStatus `json:"status,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
	ShareDate *time.Time     `json:"share_date,omitempty"`
}

// ClusterMode selects the identity key used for clustering.
type ClusterMode string

const (
	ModePhone ClusterMode = "phone" // canonical phone, ≥ 10 digits
	ModeName  ClusterMode = "name"  // trimmed, lowercased name
)

// Valid reports whether m is a known clustering mode.
func (m ClusterMode) Valid() bool {
	return m == ModePhone || m == ModeName
}

// BranchAssignment is an operator decision pinning a duplicate cluster to one branch.
// (DuplicateKey, DuplicateMode) is the natural key.
type BranchAssignment struct {
	ID             string      `json:"id"`
	DuplicateKey   string      `json:"duplicate_key"`
	DuplicateMode  ClusterMode `json:"duplicate_mode"`
	AssignedBranch Branch      `json:"assigned_branch"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
