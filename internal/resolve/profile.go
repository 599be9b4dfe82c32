package resolve

import (
	"sort"
	"strings"

	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/phone"
)

const (
	// HighValuePaid is the paid-transaction count at which a customer becomes high value.
	HighValuePaid = 5
	// RepeatTotal is the transaction count at which a customer becomes a repeat customer.
	RepeatTotal = 2
)

// ProfileOptions tunes profile aggregation for a data source.
type ProfileOptions struct {
	// PaidStatus is the payment status that counts as paid. Default: "paid".
	PaidStatus model.PaymentStatus
}

func (o ProfileOptions) isPaid(s model.PaymentStatus) bool {
	want := o.PaidStatus
	if want == "" {
		want = model.PaymentPaid
	}
	return strings.EqualFold(strings.TrimSpace(string(s)), string(want))
}

// Lifecycle classifies a customer. The high-value check runs first, so five
// paid transactions always win over the repeat threshold.
func Lifecycle(paidCount, totalCount int) model.LifecycleStatus {
	switch {
	case paidCount >= HighValuePaid:
		return model.LifecycleHighValue
	case totalCount >= RepeatTotal:
		return model.LifecycleRepeat
	default:
		return model.LifecycleNew
	}
}

// BuildProfiles aggregates every record with a usable phone into one profile
// per canonical phone, singletons included. Phone-mode assignments override
// the derived owner branch. Profiles are returned largest first.
func BuildProfiles(records []model.LeadRecord, assignments []model.BranchAssignment, opts ProfileOptions) []model.ClientProfile {
	owners := assignmentIndex(assignments)
	groups := groupBy(records, func(rec model.LeadRecord) (string, bool) {
		return phone.Key(rec.RawPhone)
	})

	profiles := make([]model.ClientProfile, 0, len(groups))
	for _, g := range groups {
		p := model.ClientProfile{
			CanonicalPhone: g.key,
			DisplayName:    displayName(g.members),
			BranchesActive: distinctBranches(g.members),
			FirstSeenAt:    g.members[0].OccurredAt,
			LastSeenAt:     g.members[0].OccurredAt,
			TotalCount:     len(g.members),
		}
		for _, m := range g.members {
			if opts.isPaid(m.PaymentStatus) {
				p.PaidCount++
			}
			if m.OccurredAt.Before(p.FirstSeenAt) {
				p.FirstSeenAt = m.OccurredAt
			}
			if m.OccurredAt.After(p.LastSeenAt) {
				p.LastSeenAt = m.OccurredAt
			}
		}
		p.LifetimeValue = p.PaidCount

		if owner, ok := owners[assignmentKey{g.key, model.ModePhone}]; ok {
			p.OwnerBranch = owner
		} else if len(p.BranchesActive) == 1 {
			p.OwnerBranch = p.BranchesActive[0]
		}

		p.Status = Lifecycle(p.PaidCount, p.TotalCount)
		profiles = append(profiles, p)
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].TotalCount > profiles[j].TotalCount
	})
	return profiles
}

// FilterProfiles keeps profiles with the given lifecycle status. An empty status keeps all.
func FilterProfiles(profiles []model.ClientProfile, status model.LifecycleStatus) []model.ClientProfile {
	if status == "" {
		return profiles
	}
	var out []model.ClientProfile
	for _, p := range profiles {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// displayName picks the most frequent name among members. Ties go to the
// name seen first.
func displayName(members []model.LeadRecord) string {
	counts := make(map[string]int)
	var order []string
	for _, m := range members {
		n := strings.TrimSpace(m.Name)
		if n == "" {
			continue
		}
		if counts[n] == 0 {
			order = append(order, n)
		}
		counts[n]++
	}

	best := ""
	for _, n := range order {
		if counts[n] > counts[best] {
			best = n
		}
	}
	return best
}
