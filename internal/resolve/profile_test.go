package resolve

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seftcorp/leadops/internal/branch"
	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/phone"
)

func TestLifecycle(t *testing.T) {
	tests := []struct {
		paid, total int
		want        model.LifecycleStatus
	}{
		{5, 5, model.LifecycleHighValue},
		{7, 9, model.LifecycleHighValue},
		{4, 10, model.LifecycleRepeat},
		{0, 2, model.LifecycleRepeat},
		{0, 1, model.LifecycleNew},
		{1, 1, model.LifecycleNew},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Lifecycle(tt.paid, tt.total), "paid=%d total=%d", tt.paid, tt.total)
	}
}

func TestBuildProfiles(t *testing.T) {
	recs := []model.LeadRecord{
		lead("1", "081234567890", "Ana", "Bekasi", model.PaymentPaid, 2),
		lead("2", "6281234567890", "Ana S", "Bekasi", model.PaymentUnpaid, 0),
		lead("3", "081234567890", "Ana S", "Jogja", "PAID", 5),
		lead("4", "089999999999", "Budi", "Jogja", model.PaymentPaid, 1),
		lead("5", "", "Nobody", "Jogja", model.PaymentPaid, 1),
		lead("6", "0811", "Short", "Jogja", model.PaymentPaid, 1),
	}

	profiles := BuildProfiles(recs, nil, ProfileOptions{})
	require.Len(t, profiles, 2)

	ana := profiles[0]
	assert.Equal(t, "6281234567890", ana.CanonicalPhone)
	assert.Equal(t, "Ana S", ana.DisplayName)
	assert.Equal(t, 3, ana.TotalCount)
	assert.Equal(t, 2, ana.PaidCount)
	assert.Equal(t, ana.PaidCount, ana.LifetimeValue)
	assert.Equal(t, day0, ana.FirstSeenAt)
	assert.Equal(t, day0.AddDate(0, 0, 5), ana.LastSeenAt)
	assert.Equal(t, []model.Branch{"Bekasi", "Jogja"}, ana.BranchesActive)
	assert.Equal(t, model.Branch(""), ana.OwnerBranch, "multi-branch without assignment has no owner")
	assert.Equal(t, model.LifecycleRepeat, ana.Status)

	budi := profiles[1]
	assert.Equal(t, "Budi", budi.DisplayName)
	assert.Equal(t, model.Branch("Jogja"), budi.OwnerBranch)
	assert.Equal(t, model.LifecycleNew, budi.Status)
}

func TestBuildProfiles_AssignmentOverridesOwner(t *testing.T) {
	recs := []model.LeadRecord{
		lead("1", "081234567890", "Ana", "Jogja", model.PaymentPaid, 0),
		lead("2", "081234567890", "Ana", "Jogja", model.PaymentPaid, 1),
	}
	assignments := []model.BranchAssignment{
		{DuplicateKey: "6281234567890", DuplicateMode: model.ModeName, AssignedBranch: "Jogja"},
		{DuplicateKey: "6281234567890", DuplicateMode: model.ModePhone, AssignedBranch: "Bekasi"},
	}
	profiles := BuildProfiles(recs, assignments, ProfileOptions{})
	require.Len(t, profiles, 1)
	assert.Equal(t, model.Branch("Bekasi"), profiles[0].OwnerBranch)
}

func TestBuildProfiles_CustomPaidStatus(t *testing.T) {
	recs := []model.LeadRecord{
		lead("1", "081234567890", "Ana", "Jogja", "lunas", 0),
		lead("2", "081234567890", "Ana", "Jogja", model.PaymentPaid, 1),
	}
	profiles := BuildProfiles(recs, nil, ProfileOptions{PaidStatus: "Lunas"})
	require.Len(t, profiles, 1)
	assert.Equal(t, 1, profiles[0].PaidCount)
}

func TestBuildProfiles_HighValue(t *testing.T) {
	var recs []model.LeadRecord
	for i := 0; i < 5; i++ {
		recs = append(recs, lead(string(rune('a'+i)), "081234567890", "Ana", "Bekasi", model.PaymentPaid, i))
	}
	profiles := BuildProfiles(recs, nil, ProfileOptions{})
	require.Len(t, profiles, 1)
	assert.Equal(t, model.LifecycleHighValue, profiles[0].Status)
}

func TestBuildProfiles_DisplayNameTieFirstSeen(t *testing.T) {
	recs := []model.LeadRecord{
		lead("1", "081234567890", "Ana ", "Bekasi", "", 3),
		lead("2", "081234567890", "Anna", "Bekasi", "", 1),
		lead("3", "081234567890", "  ", "Bekasi", "", 0),
	}
	profiles := BuildProfiles(recs, nil, ProfileOptions{})
	require.Len(t, profiles, 1)
	assert.Equal(t, "Anna", profiles[0].DisplayName, "earliest member wins the tie")
}

func TestFilterProfiles(t *testing.T) {
	profiles := []model.ClientProfile{
		{CanonicalPhone: "1", Status: model.LifecycleNew},
		{CanonicalPhone: "2", Status: model.LifecycleRepeat},
		{CanonicalPhone: "3", Status: model.LifecycleNew},
	}
	assert.Len(t, FilterProfiles(profiles, model.LifecycleNew), 2)
	assert.Len(t, FilterProfiles(profiles, ""), 3)
	assert.Empty(t, FilterProfiles(profiles, model.LifecycleHighValue))
}

// Every valid phone that appears in a duplicate cluster must have a profile,
// and every multi-record profile must appear as a cluster.
func TestProfilesAgreeWithClusters(t *testing.T) {
	recs := []model.LeadRecord{
		rawLead("1", "081234567890", "SEFT Corp - Bekasi"),
		rawLead("2", "6281234567890", "SEFT Corp - Jogja"),
		rawLead("3", "6.28123456789E+12", "SEFT Corp - Jogja"),
		rawLead("4", "089999999999", "SEFT Corp - Jogja"),
		rawLead("5", "0811", "SEFT Corp - Jogja"),
		rawLead("6", "0811", "SEFT Corp - Jogja"),
		rawLead("7", "", "SEFT Corp - Jogja"),
		rawLead("8", "not a phone", "SEFT Corp - Jogja"),
		rawLead("9", "85555555555", ""),
		rawLead("10", "+62 855 5555 5555", "SEFT Corp - Bekasi"),
	}
	branch.Default().Apply(recs)

	clustered := map[string]bool{}
	for _, c := range Cluster(recs, model.ModePhone) {
		for _, m := range c.Members {
			k, ok := phone.Key(m.RawPhone)
			require.True(t, ok)
			clustered[k] = true
		}
	}

	profiled := map[string]bool{}
	for _, p := range BuildProfiles(recs, nil, ProfileOptions{}) {
		assert.GreaterOrEqual(t, len(p.CanonicalPhone), phone.MinKeyLength)
		if p.TotalCount >= 2 {
			profiled[p.CanonicalPhone] = true
		}
		if clustered[p.CanonicalPhone] {
			assert.GreaterOrEqual(t, p.TotalCount, 2)
		}
	}

	assert.Equal(t, sortedKeys(clustered), sortedKeys(profiled))
	assert.Equal(t, []string{"6281234567890", "6285555555555"}, sortedKeys(clustered))
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
