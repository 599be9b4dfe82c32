package model

// DuplicateKind classifies a cluster by how many logical branches it spans.
type DuplicateKind string

const (
	SameBranch  DuplicateKind = "same_branch"  // every member maps to one branch
	CrossBranch DuplicateKind = "cross_branch" // members span two or more branches
)

// IdentityCluster is a group of two or more leads sharing an identity key.
// It is derived on every resolver pass and never stored.
type IdentityCluster struct {
	Key           string        `json:"key"`
	Mode          ClusterMode   `json:"mode"`
	Members       []LeadRecord  `json:"members"`
	Branches      []Branch      `json:"branches"`
	Kind          DuplicateKind `json:"kind"`
	AssignedOwner Branch        `json:"assigned_owner,omitempty"`
}

// MemberView is a cluster member with its view-time frozen flag.
type MemberView struct {
	LeadRecord
	Frozen bool `json:"frozen"`
}

// ClusterView is the rendered form of a cluster.
type ClusterView struct {
	Key           string        `json:"key"`
	Mode          ClusterMode   `json:"mode"`
	Kind          DuplicateKind `json:"kind"`
	Branches      []Branch      `json:"branches"`
	AssignedOwner Branch        `json:"assigned_owner,omitempty"`
	Members       []MemberView  `json:"members"`
}
