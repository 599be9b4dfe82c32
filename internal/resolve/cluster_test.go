package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seftcorp/leadops/internal/model"
)

func TestCluster_PhoneMode(t *testing.T) {
	recs := []model.LeadRecord{
		lead("a1", "081234567890", "Ana", "Bekasi", model.PaymentPaid, 3),
		lead("b1", "081299990000", "Budi", "Jogja", model.PaymentUnpaid, 1),
		lead("a2", "6281234567890", "Ana", "Bekasi", model.PaymentUnpaid, 1),
		lead("c1", "0811", "Citra", "Jogja", model.PaymentPaid, 0),
		lead("c2", "0811", "Citra", "Jogja", model.PaymentPaid, 2),
		lead("a3", "+62 812-3456-7890", "ana", "Bekasi", model.PaymentPaid, 2),
	}

	clusters := Cluster(recs, model.ModePhone)
	require.Len(t, clusters, 1, "short phones and singletons are not clusters")

	c := clusters[0]
	assert.Equal(t, "6281234567890", c.Key)
	assert.Equal(t, model.ModePhone, c.Mode)
	assert.Equal(t, []string{"a2", "a3", "a1"}, memberIDs(c.Members), "members ordered by date")
	assert.Equal(t, []model.Branch{"Bekasi"}, c.Branches)
	assert.Equal(t, model.SameBranch, c.Kind)
}

func TestCluster_NameMode(t *testing.T) {
	recs := []model.LeadRecord{
		lead("1", "081111111111", " Ana ", "Bekasi", model.PaymentPaid, 0),
		lead("2", "082222222222", "ANA", "Jogja", model.PaymentPaid, 1),
		lead("3", "083333333333", "", "Jogja", model.PaymentPaid, 2),
		lead("4", "084444444444", "  ", "Jogja", model.PaymentPaid, 3),
	}

	clusters := Cluster(recs, model.ModeName)
	require.Len(t, clusters, 1, "blank names never cluster")
	assert.Equal(t, "ana", clusters[0].Key)
	assert.Equal(t, model.ModeName, clusters[0].Mode)
	assert.Equal(t, model.CrossBranch, clusters[0].Kind)
}

func TestCluster_DuplicateThreshold(t *testing.T) {
	recs := []model.LeadRecord{
		lead("1", "081111111111", "A", "Bekasi", "", 0),
		lead("2", "082222222222", "B", "Bekasi", "", 0),
		lead("3", "082222222222", "B", "Bekasi", "", 1),
	}
	clusters := Cluster(recs, model.ModePhone)
	require.Len(t, clusters, 1)
	for _, c := range clusters {
		assert.GreaterOrEqual(t, len(c.Members), 2)
	}
}

func TestCluster_OrderBySizeThenFirstSeen(t *testing.T) {
	recs := []model.LeadRecord{
		lead("x1", "081000000001", "X", "Bekasi", "", 0),
		lead("y1", "081000000002", "Y", "Bekasi", "", 0),
		lead("z1", "081000000003", "Z", "Bekasi", "", 0),
		lead("y2", "081000000002", "Y", "Bekasi", "", 1),
		lead("z2", "081000000003", "Z", "Bekasi", "", 1),
		lead("x2", "081000000001", "X", "Bekasi", "", 1),
		lead("z3", "081000000003", "Z", "Bekasi", "", 2),
	}

	clusters := Cluster(recs, model.ModePhone)
	require.Len(t, clusters, 3)
	assert.Equal(t, "6281000000003", clusters[0].Key)
	assert.Equal(t, "6281000000001", clusters[1].Key, "tie keeps first-seen order")
	assert.Equal(t, "6281000000002", clusters[2].Key)
}

func TestCluster_Empty(t *testing.T) {
	assert.Empty(t, Cluster(nil, model.ModePhone))
	assert.Empty(t, Cluster([]model.LeadRecord{}, model.ModeName))
}

func TestCluster_DoesNotReorderInput(t *testing.T) {
	recs := []model.LeadRecord{
		lead("late", "081234567890", "Ana", "Bekasi", "", 5),
		lead("early", "081234567890", "Ana", "Bekasi", "", 1),
	}
	Cluster(recs, model.ModePhone)
	assert.Equal(t, []string{"late", "early"}, memberIDs(recs))
}

func TestApplyAssignments(t *testing.T) {
	recs := []model.LeadRecord{
		lead("1", "081234567890", "Ana", "Bekasi", "", 0),
		lead("2", "081234567890", "Ana", "Jogja", "", 1),
		lead("3", "089999999999", "Budi", "Jogja", "", 0),
		lead("4", "089999999999", "Budi", "Jogja", "", 1),
	}
	clusters := Cluster(recs, model.ModePhone)
	require.Len(t, clusters, 2)

	ApplyAssignments(clusters, []model.BranchAssignment{
		{DuplicateKey: "6281234567890", DuplicateMode: model.ModePhone, AssignedBranch: "Jogja"},
		{DuplicateKey: "6281234567890", DuplicateMode: model.ModePhone, AssignedBranch: "Bekasi"},
		{DuplicateKey: "6289999999999", DuplicateMode: model.ModeName, AssignedBranch: "Bekasi"},
	})

	byKey := map[string]model.IdentityCluster{}
	for _, c := range clusters {
		byKey[c.Key] = c
	}
	assert.Equal(t, model.Branch("Bekasi"), byKey["6281234567890"].AssignedOwner, "last assignment wins")
	assert.Equal(t, model.Branch(""), byKey["6289999999999"].AssignedOwner, "mode must match")
}
