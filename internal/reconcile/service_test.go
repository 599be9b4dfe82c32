package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seftcorp/leadops/internal/branch"
	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/store"
)

var t0 = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

func rec(id, phone, name, origin string, status model.PaymentStatus, day int) model.LeadRecord {
	return model.LeadRecord{
		ID:            id,
		RawPhone:      phone,
		Name:          name,
		BranchOrigin:  origin,
		PaymentStatus: status,
		OccurredAt:    t0.AddDate(0, 0, day),
	}
}

func sampleLeads() []model.LeadRecord {
	return []model.LeadRecord{
		rec("r1", "081111222333", "Ana", "SEFT Corp - Bekasi", model.PaymentPaid, 0),
		rec("r2", "6281111222333", "Ana", "SEFT Corp - Jogja", model.PaymentUnpaid, 1),
		rec("r3", "082222333444", "Budi", "SEFT Corp - Bekasi", model.PaymentUnpaid, 2),
		rec("r4", "0822-2233-3444", "Budi", "SEFT Corp - Bekasi", model.PaymentPaid, 3),
		rec("r5", "083333444555", "Citra", "SEFT Corp - Jogja", model.PaymentUnpaid, 4),
	}
}

// onePage makes the first page return all leads in a single short page.
func onePage(st *mockStore, leads []model.LeadRecord) {
	st.On("ListLeads", mock.Anything, store.LeadFilter{Limit: 100}).Return(leads, nil)
}

func newTestService(st *mockStore) *Service {
	return NewService(st, branch.Default(), Options{PageSize: 100})
}

func TestLoadSnapshot(t *testing.T) {
	st := &mockStore{}
	onePage(st, sampleLeads())
	st.On("ListAssignments", mock.Anything, model.ModePhone).Return([]model.BranchAssignment{
		{DuplicateKey: "6281111222333", DuplicateMode: model.ModePhone, AssignedBranch: "Bekasi"},
	}, nil)

	snap, err := newTestService(st).LoadSnapshot(context.Background(), model.ModePhone)
	require.NoError(t, err)
	assert.Len(t, snap.Leads, 5)
	assert.Len(t, snap.Assignments, 1)
	assert.Equal(t, model.Branch("Bekasi"), snap.Leads[0].Branch)
	assert.Equal(t, model.Branch("Jogja"), snap.Leads[1].Branch)
	st.AssertExpectations(t)
}

func TestLoadSnapshot_LeadFailureReturnsNoSnapshot(t *testing.T) {
	st := &mockStore{}
	st.On("ListLeads", mock.Anything, mock.Anything).Return(nil, errors.New("syntax error at or near"))
	st.On("ListAssignments", mock.Anything, model.ModePhone).Return(nil, nil).Maybe()

	snap, err := newTestService(st).LoadSnapshot(context.Background(), model.ModePhone)
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.Contains(t, err.Error(), "reconcile: load leads")
}

func TestLoadSnapshot_AssignmentFailure(t *testing.T) {
	st := &mockStore{}
	st.On("ListLeads", mock.Anything, mock.Anything).Return(sampleLeads(), nil).Maybe()
	st.On("ListAssignments", mock.Anything, model.ModeName).Return(nil, errors.New("permission denied"))

	_, err := newTestService(st).LoadSnapshot(context.Background(), model.ModeName)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconcile: load assignments")
}

func TestLoadSnapshot_InvalidMode(t *testing.T) {
	_, err := newTestService(&mockStore{}).LoadSnapshot(context.Background(), "email")
	require.Error(t, err)
}

func TestDuplicates_PhoneMode(t *testing.T) {
	st := &mockStore{}
	onePage(st, sampleLeads())
	st.On("ListAssignments", mock.Anything, model.ModePhone).Return([]model.BranchAssignment{
		{DuplicateKey: "6281111222333", DuplicateMode: model.ModePhone, AssignedBranch: "Bekasi"},
	}, nil)

	report, err := newTestService(st).Duplicates(context.Background(), model.ModePhone, "")
	require.NoError(t, err)
	require.Len(t, report.Clusters, 2)
	assert.Equal(t, 1, report.CrossBranch())
	assert.Equal(t, 5, report.Stats.Total)

	var cross model.ClusterView
	for _, c := range report.Clusters {
		if c.Kind == model.CrossBranch {
			cross = c
		}
	}
	assert.Equal(t, "6281111222333", cross.Key)
	assert.Equal(t, model.Branch("Bekasi"), cross.AssignedOwner)
	require.Len(t, cross.Members, 2)
	assert.False(t, cross.Members[0].Frozen, "Bekasi member stays editable")
	assert.True(t, cross.Members[1].Frozen, "Jogja member is frozen")
}

func TestDuplicates_BranchFilterKeepsWholeClusters(t *testing.T) {
	st := &mockStore{}
	onePage(st, sampleLeads())
	st.On("ListAssignments", mock.Anything, model.ModePhone).Return(nil, nil)

	report, err := newTestService(st).Duplicates(context.Background(), model.ModePhone, "jogja")
	require.NoError(t, err)
	require.Len(t, report.Clusters, 1)
	assert.Equal(t, model.Branch("Jogja"), report.Branch)
	assert.Len(t, report.Clusters[0].Members, 2, "Bekasi member is still listed")
}

func TestDuplicates_UnknownBranch(t *testing.T) {
	_, err := newTestService(&mockStore{}).Duplicates(context.Background(), model.ModePhone, "Surabaya")
	require.Error(t, err)
	assert.True(t, errors.Is(err, branch.ErrUnknownBranch))
}

func TestDuplicates_NameMode(t *testing.T) {
	st := &mockStore{}
	onePage(st, sampleLeads())
	st.On("ListAssignments", mock.Anything, model.ModeName).Return(nil, nil)

	report, err := newTestService(st).Duplicates(context.Background(), model.ModeName, "")
	require.NoError(t, err)
	require.Len(t, report.Clusters, 2)
	for _, c := range report.Clusters {
		assert.Equal(t, model.ModeName, c.Mode)
	}
}

func TestProfiles(t *testing.T) {
	st := &mockStore{}
	onePage(st, sampleLeads())
	st.On("ListAssignments", mock.Anything, model.ModePhone).Return(nil, nil)

	report, err := newTestService(st).Profiles(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, report.Profiles, 3)
	assert.Equal(t, 2, report.Profiles[0].TotalCount)
	assert.Equal(t, model.LifecycleRepeat, report.Profiles[0].Status)
	assert.Equal(t, model.LifecycleNew, report.Profiles[2].Status)
}

func TestProfiles_StatusFilter(t *testing.T) {
	st := &mockStore{}
	onePage(st, sampleLeads())
	st.On("ListAssignments", mock.Anything, model.ModePhone).Return(nil, nil)

	report, err := newTestService(st).Profiles(context.Background(), model.LifecycleNew)
	require.NoError(t, err)
	require.Len(t, report.Profiles, 1)
	assert.Equal(t, "6283333444555", report.Profiles[0].CanonicalPhone)
}

func TestProfiles_ConfiguredPaidStatus(t *testing.T) {
	leads := []model.LeadRecord{
		rec("l1", "081111222333", "Ana", "SEFT Corp - Bekasi", "lunas", 0),
		rec("l2", "081111222333", "Ana", "SEFT Corp - Bekasi", model.PaymentPaid, 1),
	}
	st := &mockStore{}
	onePage(st, leads)
	st.On("ListAssignments", mock.Anything, model.ModePhone).Return(nil, nil)

	svc := NewService(st, branch.Default(), Options{PageSize: 100, PaidStatus: "Lunas"})
	report, err := svc.Profiles(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, report.Profiles, 1)
	assert.Equal(t, 1, report.Profiles[0].PaidCount, "only the configured sentinel counts as paid")
}

func TestProfiles_InvalidStatus(t *testing.T) {
	_, err := newTestService(&mockStore{}).Profiles(context.Background(), "vip")
	require.Error(t, err)
}

func TestQuality(t *testing.T) {
	leads := append(sampleLeads(), rec("r6", "", "", "", model.PaymentUnpaid, 5))
	st := &mockStore{}
	onePage(st, leads)

	stats, err := newTestService(st).Quality(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 1, stats.EmptyPhone)
	assert.Equal(t, 1, stats.EmptyName)
	assert.Equal(t, 1, stats.UnsetBranch)
	assert.Equal(t, 3, stats.ByBranch["Bekasi"])
}
