package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/campuspool/backend/internal/disputes"
	"github.com/campuspool/backend/internal/notifications"
)

// MockDisputesRepository is a mock implementation of the disputes repository
type MockDisputesRepository struct {
	mock.Mock
}

func (m *MockDisputesRepository) AppendContactLog(ctx context.Context, entry *disputes.ContactLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDisputesRepository) ListContactLogs(ctx context.Context, bookingID uuid.UUID, limit int) ([]disputes.ContactLogEntry, error) {
	args := m.Called(ctx, bookingID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]disputes.ContactLogEntry), args.Error(1)
}

func (m *MockDisputesRepository) Open(ctx context.Context, dispute *disputes.Dispute, snapshotLimit int, notice *notifications.Notification) error {
	args := m.Called(ctx, dispute, snapshotLimit, notice)
	return args.Error(0)
}

func (m *MockDisputesRepository) GetByID(ctx context.Context, id uuid.UUID) (*disputes.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*disputes.Dispute), args.Error(1)
}

func (m *MockDisputesRepository) Resolve(ctx context.Context, disputeID, resolvedBy uuid.UUID, outcome disputes.DisputeStatus, resolution string) error {
	args := m.Called(ctx, disputeID, resolvedBy, outcome, resolution)
	return args.Error(0)
}
