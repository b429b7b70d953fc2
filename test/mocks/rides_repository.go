package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/campuspool/backend/internal/rides"
)

// MockRidesRepository is a mock implementation of the rides repository
type MockRidesRepository struct {
	mock.Mock
}

func (m *MockRidesRepository) Create(ctx context.Context, ride *rides.Ride) error {
	args := m.Called(ctx, ride)
	return args.Error(0)
}

func (m *MockRidesRepository) GetByID(ctx context.Context, id uuid.UUID) (*rides.Ride, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rides.Ride), args.Error(1)
}

func (m *MockRidesRepository) ListOpen(ctx context.Context, limit, offset int) ([]*rides.Ride, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*rides.Ride), args.Error(1)
}
