package model

import "time"

// LifecycleStatus classifies a customer by transaction history.
type LifecycleStatus string

const (
	LifecycleNew       LifecycleStatus = "new"        // a single transaction
	LifecycleRepeat    LifecycleStatus = "repeat"     // two or more transactions
	LifecycleHighValue LifecycleStatus = "high_value" // five or more paid transactions
)

// Valid reports whether s is a known lifecycle status.
func (s LifecycleStatus) Valid() bool {
	switch s {
	case LifecycleNew, LifecycleRepeat, LifecycleHighValue:
		return true
	}
	return false
}

// ClientProfile aggregates every lead sharing one canonical phone.
type ClientProfile struct {
	CanonicalPhone string          `json:"canonical_phone"`
	DisplayName    string          `json:"display_name"`
	OwnerBranch    Branch          `json:"owner_branch,omitempty"`
	BranchesActive []Branch        `json:"branches_active"`
	FirstSeenAt    time.Time       `json:"first_seen_at"`
	LastSeenAt     time.Time       `json:"last_seen_at"`
	TotalCount     int             `json:"total_count"`
	PaidCount      int             `json:"paid_count"`
	LifetimeValue  int             `json:"lifetime_value"` // paid transaction count, not currency
	Status         LifecycleStatus `json:"lifecycle_status"`
}

// QualityStats counts records excluded from, or degraded in, identity resolution.
type QualityStats struct {
	Total        int            `json:"total"`
	EmptyPhone   int            `json:"empty_phone"`
	ShortPhone   int            `json:"short_phone"`
	NonCanonical int            `json:"non_canonical"`
	Scientific   int            `json:"scientific_notation"`
	EmptyName    int            `json:"empty_name"`
	UnsetBranch  int            `json:"unset_branch"`
	ByBranch     map[Branch]int `json:"by_branch"`
}
