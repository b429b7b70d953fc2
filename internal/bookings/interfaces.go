package bookings

import (
	"context"

	"github.com/google/uuid"

	"github.com/campuspool/backend/internal/notifications"
	"github.com/campuspool/backend/internal/rides"
)

// RepositoryInterface defines the booking persistence operations
type RepositoryInterface interface {
	CreateWithReservation(ctx context.Context, booking *Booking, notice *notifications.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetContext(ctx context.Context, bookingID uuid.UUID) (*Context, error)
	GetParty(ctx context.Context, userID uuid.UUID) (*Party, error)
	Confirm(ctx context.Context, bookingID uuid.UUID, notice *notifications.Notification) error
	StartTrip(ctx context.Context, bookingID, rideID uuid.UUID) error
	SettleRide(ctx context.Context, rideID uuid.UUID) ([]SettledShare, error)
	Cancel(ctx context.Context, params CancelParams, notices []*notifications.Notification) error
	MarkPaid(ctx context.Context, bookingID uuid.UUID, proofURL *string) error
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID) error
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]*Booking, error)
	ListByRider(ctx context.Context, riderID uuid.UUID) ([]*Booking, error)
}

// RideReaderInterface is the slice of the ride repository the booking
// service reads through
type RideReaderInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*rides.Ride, error)
}

// TripCodeVerifier checks the rider-presented code at pickup. The concrete
// implementation compares against the per-booking trip-start OTP.
type TripCodeVerifier interface {
	Verify(ctx context.Context, booking *Booking, code string) bool
}
