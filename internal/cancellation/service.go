package cancellation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuspool/backend/internal/bookings"
	"github.com/campuspool/backend/internal/notifications"
	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/config"
	"github.com/campuspool/backend/pkg/logger"
)

// BookingStoreInterface is the slice of the bookings repository the
// cancellation service acts through
type BookingStoreInterface interface {
	GetContext(ctx context.Context, bookingID uuid.UUID) (*bookings.Context, error)
	Cancel(ctx context.Context, params bookings.CancelParams, notices []*notifications.Notification) error
}

// Service applies the cancellation policy and executes the cancellation
type Service struct {
	store BookingStoreInterface
	cfg   config.BusinessConfig
	now   func() time.Time
}

func NewService(store BookingStoreInterface, cfg config.BusinessConfig) *Service {
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// WithNow overrides the service clock, for tests
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// CancelBookingRequest carries the caller's declared role on the booking
type CancelBookingRequest struct {
	Actor bookings.Actor `json:"actor" binding:"required,oneof=rider driver"`
}

// CancelBooking cancels a booking on behalf of either party. The caller's
// declared role must match their actual relationship to the booking; a
// mismatch is rejected rather than silently corrected so clients cannot
// dodge the late-cancel consequences by claiming the wrong role.
func (s *Service) CancelBooking(ctx context.Context, callerID, bookingID uuid.UUID, req *CancelBookingRequest) (*Verdict, error) {
	bctx, err := s.store.GetContext(ctx, bookingID)
	if err != nil {
		logger.Error("Failed to load booking for cancellation", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, common.NewInternalServerError("failed to load booking")
	}
	if bctx == nil {
		return nil, common.NewNotFoundError("booking not found", nil)
	}

	actual, ok := bctx.ActorOf(callerID)
	if !ok {
		return nil, common.NewForbiddenError("you are not a party to this booking")
	}
	if req.Actor != actual {
		return nil, common.NewActorMismatchError("declared actor does not match your role on this booking")
	}
	if !bctx.Booking.Status.Cancellable() {
		return nil, common.NewInvalidStateError("booking can no longer be cancelled")
	}

	verdict := Evaluate(actual, bctx.Ride.DepartAt, s.now().UTC(), s.cfg.LateCancelWindowHours)

	var notices []*notifications.Notification
	switch actual {
	case bookings.ActorRider:
		notices = append(notices, notifications.RiderCancelledNotice(
			bctx.Driver.ID, bctx.Driver.Email, bctx.Rider.FullName,
			bctx.Booking.ID, bctx.Booking.Seats, verdict.Late,
		))
	case bookings.ActorDriver:
		notices = append(notices, notifications.DriverCancelledNotice(
			bctx.Rider.ID, bctx.Rider.Email, bctx.Rider.FullName,
			bctx.Booking.ID, bctx.Ride.OriginText, bctx.Ride.DestText, bctx.Ride.DepartAt,
		))
	}

	params := bookings.CancelParams{
		BookingID:           bookingID,
		Seats:               bctx.Booking.Seats,
		RideID:              bctx.Ride.ID,
		CancelledBy:         callerID,
		Tags:                verdict.Tags,
		EtiquettePaymentDue: verdict.EtiquettePaymentDue,
	}
	if err := s.store.Cancel(ctx, params, notices); err != nil {
		if errors.Is(err, bookings.ErrInvalidState) {
			return nil, common.NewInvalidStateError("booking can no longer be cancelled")
		}
		logger.Error("Failed to cancel booking", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, common.NewInternalServerError("failed to cancel booking")
	}

	logger.Info("Booking cancelled",
		zap.String("booking_id", bookingID.String()),
		zap.String("actor", string(actual)),
		zap.Bool("late", verdict.Late),
	)
	return &verdict, nil
}
