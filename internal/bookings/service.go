package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuspool/backend/internal/fare"
	"github.com/campuspool/backend/internal/notifications"
	"github.com/campuspool/backend/internal/rides"
	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/config"
	"github.com/campuspool/backend/pkg/logger"
)

// Service implements the booking lifecycle: authorization with seat
// reservation, driver confirmation, trip start, per-ride settlement, and the
// offline payment handshake.
type Service struct {
	repo     RepositoryInterface
	rides    RideReaderInterface
	verifier TripCodeVerifier
	cfg      config.BusinessConfig
}

func NewService(repo RepositoryInterface, ridesRepo RideReaderInterface, verifier TripCodeVerifier, cfg config.BusinessConfig) *Service {
	return &Service{repo: repo, rides: ridesRepo, verifier: verifier, cfg: cfg}
}

// CreateBooking authorizes a booking on an open ride. The estimate shown to
// the rider is fixed here from the ride's full capacity and never recomputed,
// so later cancellations by other riders cannot raise it.
func (s *Service) CreateBooking(ctx context.Context, riderID uuid.UUID, req *CreateBookingRequest) (*Booking, error) {
	if req.Seats > s.cfg.MaxSeatsPerBooking {
		return nil, common.NewValidationError("seats exceeds the per-booking maximum", nil)
	}

	ride, err := s.rides.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to load ride")
	}
	if ride == nil {
		return nil, common.NewNotFoundError("ride not found", nil)
	}
	if ride.DriverID == riderID {
		return nil, common.NewValidationError("drivers cannot book seats on their own ride", nil)
	}
	if ride.Status != rides.RideStatusOpen {
		return nil, common.NewInvalidStateError("ride is not open for booking")
	}
	if !ride.DepartAt.After(time.Now().UTC()) {
		return nil, common.NewInvalidStateError("ride has already departed")
	}

	estimate := fare.Estimate(ride.TotalCostCents, ride.SeatsTotal, req.Seats)

	driver, err := s.repo.GetParty(ctx, ride.DriverID)
	if err != nil {
		logger.Error("Failed to load driver contact", zap.Error(err), zap.String("user_id", ride.DriverID.String()))
		return nil, common.NewInternalServerError("failed to load driver contact")
	}
	if driver == nil {
		return nil, common.NewNotFoundError("driver account not found", nil)
	}
	rider, err := s.repo.GetParty(ctx, riderID)
	if err != nil {
		logger.Error("Failed to load rider contact", zap.Error(err), zap.String("user_id", riderID.String()))
		return nil, common.NewInternalServerError("failed to load rider contact")
	}
	if rider == nil {
		return nil, common.NewNotFoundError("rider account not found", nil)
	}

	code, expires := GenerateTripCode()
	booking := &Booking{
		ID:                uuid.New(),
		RideID:            ride.ID,
		RiderID:           riderID,
		Seats:             req.Seats,
		Status:            BookingStatusAuthorized,
		AuthEstimateCents: estimate,
		TripStartOTP:      &code,
		OTPExpiresAt:      &expires,
		Tags:              []string{},
	}

	notice := notifications.BookingRequestedNotice(driver.ID, driver.Email, rider.FullName, booking.ID, booking.Seats)
	if err := s.repo.CreateWithReservation(ctx, booking, notice); err != nil {
		if errors.Is(err, rides.ErrCapacityExceeded) {
			return nil, common.NewConflictError(common.CodeCapacityExceeded, "not enough seats available")
		}
		if errors.Is(err, ErrInvalidState) {
			return nil, common.NewInvalidStateError("ride is not open for booking")
		}
		logger.Error("Failed to create booking", zap.Error(err), zap.String("ride_id", ride.ID.String()))
		return nil, common.NewInternalServerError("failed to create booking")
	}

	logger.Info("Booking authorized",
		zap.String("booking_id", booking.ID.String()),
		zap.String("ride_id", ride.ID.String()),
		zap.Int("seats", booking.Seats),
		zap.Int64("auth_estimate_cents", booking.AuthEstimateCents),
	)
	return booking, nil
}

// GetBooking returns a booking to either of its parties
func (s *Service) GetBooking(ctx context.Context, callerID, bookingID uuid.UUID) (*Booking, error) {
	bctx, err := s.loadContext(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, ok := bctx.ActorOf(callerID); !ok {
		return nil, common.NewForbiddenError("you are not a party to this booking")
	}
	return bctx.Booking, nil
}

// ConfirmBooking lets the driver accept an authorized booking
func (s *Service) ConfirmBooking(ctx context.Context, callerID, bookingID uuid.UUID) (*Booking, error) {
	bctx, err := s.loadContext(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bctx.Ride.DriverID != callerID {
		return nil, common.NewForbiddenError("only the ride driver can confirm a booking")
	}
	if bctx.Booking.Status != BookingStatusAuthorized {
		return nil, common.NewInvalidStateError("only authorized bookings can be confirmed")
	}

	notice := notifications.BookingConfirmedNotice(bctx.Rider.ID, bctx.Rider.Email, bctx.Booking.ID,
		bctx.Ride.OriginText, bctx.Ride.DestText, bctx.Ride.DepartAt)
	if err := s.repo.Confirm(ctx, bookingID, notice); err != nil {
		if errors.Is(err, ErrInvalidState) {
			return nil, common.NewInvalidStateError("only authorized bookings can be confirmed")
		}
		logger.Error("Failed to confirm booking", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, common.NewInternalServerError("failed to confirm booking")
	}

	bctx.Booking.Status = BookingStatusConfirmed
	logger.Info("Booking confirmed", zap.String("booking_id", bookingID.String()))
	return bctx.Booking, nil
}

// StartTrip moves a booking and its ride to in_progress after the driver
// verifies the rider-presented trip code
func (s *Service) StartTrip(ctx context.Context, callerID, bookingID uuid.UUID, code string) error {
	bctx, err := s.loadContext(ctx, bookingID)
	if err != nil {
		return err
	}
	if bctx.Ride.DriverID != callerID {
		return common.NewForbiddenError("only the ride driver can start the trip")
	}
	if !bctx.Booking.Status.CanTransitionTo(BookingStatusInProgress) {
		return common.NewInvalidStateError("booking cannot start a trip from its current status")
	}
	if !s.verifier.Verify(ctx, bctx.Booking, code) {
		return common.NewUnauthorizedError("invalid trip code")
	}

	if err := s.repo.StartTrip(ctx, bookingID, bctx.Ride.ID); err != nil {
		if errors.Is(err, ErrInvalidState) {
			return common.NewInvalidStateError("booking cannot start a trip from its current status")
		}
		logger.Error("Failed to start trip", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return common.NewInternalServerError("failed to start trip")
	}

	logger.Info("Trip started", zap.String("booking_id", bookingID.String()), zap.String("ride_id", bctx.Ride.ID.String()))
	return nil
}

// CompleteTrip settles the ride: the fixed trip cost is split across all
// surviving bookings and each rider's final share is persisted
func (s *Service) CompleteTrip(ctx context.Context, callerID, rideID uuid.UUID) ([]SettledShare, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to load ride")
	}
	if ride == nil {
		return nil, common.NewNotFoundError("ride not found", nil)
	}
	if ride.DriverID != callerID {
		return nil, common.NewForbiddenError("only the ride driver can complete the trip")
	}

	shares, err := s.repo.SettleRide(ctx, rideID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadySettled):
			return nil, common.NewConflictError(common.CodeAlreadySettled, "ride has already been settled")
		case errors.Is(err, ErrInvalidState):
			return nil, common.NewInvalidStateError("ride is not in progress")
		case errors.Is(err, fare.ErrZeroSeatsBooked):
			logger.Error("Settlement attempted with zero booked seats", zap.String("ride_id", rideID.String()))
			return nil, common.NewAppError(500, common.CodeZeroSeatsBooked, "no booked seats to settle against", err)
		default:
			logger.Error("Failed to settle ride", zap.Error(err), zap.String("ride_id", rideID.String()))
			return nil, common.NewInternalServerError("failed to settle ride")
		}
	}

	logger.Info("Ride settled",
		zap.String("ride_id", rideID.String()),
		zap.Int("bookings", len(shares)),
		zap.Int64("total_cost_cents", ride.TotalCostCents),
	)
	return shares, nil
}

// MarkPaid records that the rider has paid their final share offline
func (s *Service) MarkPaid(ctx context.Context, callerID, bookingID uuid.UUID, req *MarkPaidRequest) error {
	bctx, err := s.loadContext(ctx, bookingID)
	if err != nil {
		return err
	}
	if bctx.Booking.RiderID != callerID {
		return common.NewForbiddenError("only the booking rider can mark it paid")
	}
	if bctx.Booking.Status != BookingStatusCompleted {
		return common.NewInvalidStateError("only completed bookings can be marked paid")
	}

	if err := s.repo.MarkPaid(ctx, bookingID, req.ProofOfPaymentURL); err != nil {
		if errors.Is(err, ErrInvalidState) {
			return common.NewInvalidStateError("only completed bookings can be marked paid")
		}
		logger.Error("Failed to mark booking paid", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return common.NewInternalServerError("failed to mark booking paid")
	}
	return nil
}

// ConfirmPayment records the driver's acknowledgement that the rider's
// payment arrived. The rider must have marked the booking paid first.
func (s *Service) ConfirmPayment(ctx context.Context, callerID, bookingID uuid.UUID) error {
	bctx, err := s.loadContext(ctx, bookingID)
	if err != nil {
		return err
	}
	if bctx.Ride.DriverID != callerID {
		return common.NewForbiddenError("only the ride driver can confirm payment")
	}
	if bctx.Booking.Status != BookingStatusCompleted {
		return common.NewInvalidStateError("only completed bookings can have payment confirmed")
	}
	if !bctx.Booking.PaidByRider {
		return common.NewInvalidStateError("rider has not marked this booking paid")
	}

	if err := s.repo.ConfirmPayment(ctx, bookingID); err != nil {
		if errors.Is(err, ErrInvalidState) {
			return common.NewInvalidStateError("rider has not marked this booking paid")
		}
		logger.Error("Failed to confirm payment", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return common.NewInternalServerError("failed to confirm payment")
	}
	return nil
}

// ListRideBookings returns a ride's bookings to its driver
func (s *Service) ListRideBookings(ctx context.Context, callerID, rideID uuid.UUID) ([]*Booking, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to load ride")
	}
	if ride == nil {
		return nil, common.NewNotFoundError("ride not found", nil)
	}
	if ride.DriverID != callerID {
		return nil, common.NewForbiddenError("only the ride driver can list its bookings")
	}

	bookings, err := s.repo.ListByRide(ctx, rideID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to list bookings")
	}
	return bookings, nil
}

// ListMyBookings returns the caller's own bookings
func (s *Service) ListMyBookings(ctx context.Context, riderID uuid.UUID) ([]*Booking, error) {
	bookings, err := s.repo.ListByRider(ctx, riderID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to list bookings")
	}
	return bookings, nil
}

func (s *Service) loadContext(ctx context.Context, bookingID uuid.UUID) (*Context, error) {
	bctx, err := s.repo.GetContext(ctx, bookingID)
	if err != nil {
		logger.Error("Failed to load booking context", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, common.NewInternalServerError("failed to load booking")
	}
	if bctx == nil {
		return nil, common.NewNotFoundError("booking not found", nil)
	}
	return bctx, nil
}
