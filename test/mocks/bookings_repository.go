package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/campuspool/backend/internal/bookings"
	"github.com/campuspool/backend/internal/notifications"
)

// MockBookingsRepository is a mock implementation of the bookings repository
type MockBookingsRepository struct {
	mock.Mock
}

func (m *MockBookingsRepository) CreateWithReservation(ctx context.Context, booking *bookings.Booking, notice *notifications.Notification) error {
	args := m.Called(ctx, booking, notice)
	return args.Error(0)
}

func (m *MockBookingsRepository) GetByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookings.Booking), args.Error(1)
}

func (m *MockBookingsRepository) GetContext(ctx context.Context, bookingID uuid.UUID) (*bookings.Context, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookings.Context), args.Error(1)
}

func (m *MockBookingsRepository) GetParty(ctx context.Context, userID uuid.UUID) (*bookings.Party, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookings.Party), args.Error(1)
}

func (m *MockBookingsRepository) Confirm(ctx context.Context, bookingID uuid.UUID, notice *notifications.Notification) error {
	args := m.Called(ctx, bookingID, notice)
	return args.Error(0)
}

func (m *MockBookingsRepository) StartTrip(ctx context.Context, bookingID, rideID uuid.UUID) error {
	args := m.Called(ctx, bookingID, rideID)
	return args.Error(0)
}

func (m *MockBookingsRepository) SettleRide(ctx context.Context, rideID uuid.UUID) ([]bookings.SettledShare, error) {
	args := m.Called(ctx, rideID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bookings.SettledShare), args.Error(1)
}

func (m *MockBookingsRepository) Cancel(ctx context.Context, params bookings.CancelParams, notices []*notifications.Notification) error {
	args := m.Called(ctx, params, notices)
	return args.Error(0)
}

func (m *MockBookingsRepository) MarkPaid(ctx context.Context, bookingID uuid.UUID, proofURL *string) error {
	args := m.Called(ctx, bookingID, proofURL)
	return args.Error(0)
}

func (m *MockBookingsRepository) ConfirmPayment(ctx context.Context, bookingID uuid.UUID) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockBookingsRepository) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*bookings.Booking, error) {
	args := m.Called(ctx, rideID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bookings.Booking), args.Error(1)
}

func (m *MockBookingsRepository) ListByRider(ctx context.Context, riderID uuid.UUID) ([]*bookings.Booking, error) {
	args := m.Called(ctx, riderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bookings.Booking), args.Error(1)
}
