package reconcile

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/seftcorp/leadops/internal/model"
	"github.com/seftcorp/leadops/internal/store"
)

// mockStore is a testify mock of store.Store.
type mockStore struct {
	mock.Mock
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) ListLeads(ctx context.Context, f store.LeadFilter) ([]model.LeadRecord, error) {
	args := m.Called(ctx, f)
	leads, _ := args.Get(0).([]model.LeadRecord)
	return leads, args.Error(1)
}

func (m *mockStore) UpsertLeads(ctx context.Context, leads []model.LeadRecord) (int64, error) {
	args := m.Called(ctx, leads)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) UpdateLead(ctx context.Context, id string, upd model.LeadUpdate) error {
	return m.Called(ctx, id, upd).Error(0)
}

func (m *mockStore) ListAssignments(ctx context.Context, mode model.ClusterMode) ([]model.BranchAssignment, error) {
	args := m.Called(ctx, mode)
	as, _ := args.Get(0).([]model.BranchAssignment)
	return as, args.Error(1)
}

func (m *mockStore) UpsertAssignment(ctx context.Context, a model.BranchAssignment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockStore) DeleteAssignment(ctx context.Context, key string, mode model.ClusterMode) error {
	return m.Called(ctx, key, mode).Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockStore) Close() error { return nil }
