package bookings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campuspool/backend/internal/bookings"
	"github.com/campuspool/backend/internal/rides"
	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/config"
	"github.com/campuspool/backend/test/helpers"
	"github.com/campuspool/backend/test/mocks"
)

func testBusinessConfig() config.BusinessConfig {
	return config.BusinessConfig{
		LateCancelWindowHours: 12,
		ContactSnapshotLimit:  10,
		DisputeReasonMinLen:   10,
		MaxSeatsPerBooking:    8,
	}
}

func newTestService(repo *mocks.MockBookingsRepository, ridesRepo *mocks.MockRidesRepository) *bookings.Service {
	return bookings.NewService(repo, ridesRepo, bookings.NewOTPVerifier(), testBusinessConfig())
}

func TestCreateBooking(t *testing.T) {
	driverID := uuid.New()
	riderID := uuid.New()

	t.Run("fixes the estimate from full capacity", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		ride.TotalCostCents = 15000
		ride.SeatsTotal = 3
		ridesRepo.On("GetByID", mock.Anything, ride.ID).Return(ride, nil)
		repo.On("GetParty", mock.Anything, driverID).Return(helpers.CreateTestParty(driverID, "Dan Driver", "dan@campus.edu"), nil)
		repo.On("GetParty", mock.Anything, riderID).Return(helpers.CreateTestParty(riderID, "Ada Rider", "ada@campus.edu"), nil)
		repo.On("CreateWithReservation", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		booking, err := svc.CreateBooking(context.Background(), riderID, &bookings.CreateBookingRequest{
			RideID: ride.ID,
			Seats:  2,
		})

		require.NoError(t, err)
		assert.Equal(t, bookings.BookingStatusAuthorized, booking.Status)
		assert.Equal(t, int64(10000), booking.AuthEstimateCents)
		assert.NotNil(t, booking.TripStartOTP)
		assert.Len(t, *booking.TripStartOTP, 6)
		repo.AssertExpectations(t)
	})

	t.Run("rounds the per-seat estimate up", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		ride.TotalCostCents = 100
		ride.SeatsTotal = 3
		ridesRepo.On("GetByID", mock.Anything, ride.ID).Return(ride, nil)
		repo.On("GetParty", mock.Anything, mock.Anything).Return(helpers.CreateTestParty(uuid.New(), "X", "x@campus.edu"), nil)
		repo.On("CreateWithReservation", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		booking, err := svc.CreateBooking(context.Background(), riderID, &bookings.CreateBookingRequest{
			RideID: ride.ID,
			Seats:  1,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(34), booking.AuthEstimateCents)
	})

	t.Run("rejects booking on a non-open ride", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		ride.Status = rides.RideStatusInProgress
		ridesRepo.On("GetByID", mock.Anything, ride.ID).Return(ride, nil)

		_, err := svc.CreateBooking(context.Background(), riderID, &bookings.CreateBookingRequest{
			RideID: ride.ID,
			Seats:  1,
		})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeInvalidState, appErr.Code)
		repo.AssertNotCalled(t, "CreateWithReservation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a driver booking their own ride", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		ridesRepo.On("GetByID", mock.Anything, ride.ID).Return(ride, nil)

		_, err := svc.CreateBooking(context.Background(), driverID, &bookings.CreateBookingRequest{
			RideID: ride.ID,
			Seats:  1,
		})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeValidationFailed, appErr.Code)
	})

	t.Run("maps capacity exhaustion to a conflict", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		ridesRepo.On("GetByID", mock.Anything, ride.ID).Return(ride, nil)
		repo.On("GetParty", mock.Anything, mock.Anything).Return(helpers.CreateTestParty(uuid.New(), "X", "x@campus.edu"), nil)
		repo.On("CreateWithReservation", mock.Anything, mock.Anything, mock.Anything).Return(rides.ErrCapacityExceeded)

		_, err := svc.CreateBooking(context.Background(), riderID, &bookings.CreateBookingRequest{
			RideID: ride.ID,
			Seats:  3,
		})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeCapacityExceeded, appErr.Code)
		assert.Equal(t, 409, appErr.Status)
	})

	t.Run("rejects a ride that already departed", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		ride.DepartAt = time.Now().UTC().Add(-time.Hour)
		ridesRepo.On("GetByID", mock.Anything, ride.ID).Return(ride, nil)

		_, err := svc.CreateBooking(context.Background(), riderID, &bookings.CreateBookingRequest{
			RideID: ride.ID,
			Seats:  1,
		})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeInvalidState, appErr.Code)
	})

	t.Run("rejects an unknown ride", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		rideID := uuid.New()
		ridesRepo.On("GetByID", mock.Anything, rideID).Return(nil, nil)

		_, err := svc.CreateBooking(context.Background(), riderID, &bookings.CreateBookingRequest{
			RideID: rideID,
			Seats:  1,
		})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeNotFound, appErr.Code)
	})

	t.Run("missing driver account maps to not found", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		ridesRepo.On("GetByID", mock.Anything, ride.ID).Return(ride, nil)
		repo.On("GetParty", mock.Anything, driverID).Return(nil, nil)

		_, err := svc.CreateBooking(context.Background(), riderID, &bookings.CreateBookingRequest{
			RideID: ride.ID,
			Seats:  1,
		})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeNotFound, appErr.Code)
	})

	t.Run("party lookup failure maps to internal error", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		ridesRepo.On("GetByID", mock.Anything, ride.ID).Return(ride, nil)
		repo.On("GetParty", mock.Anything, driverID).Return(nil, errors.New("connection reset"))

		_, err := svc.CreateBooking(context.Background(), riderID, &bookings.CreateBookingRequest{
			RideID: ride.ID,
			Seats:  1,
		})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeInternal, appErr.Code)
	})
}

func TestConfirmBooking(t *testing.T) {
	driverID := uuid.New()
	riderID := uuid.New()

	t.Run("driver confirms an authorized booking", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		booking := helpers.CreateTestBooking(ride.ID, riderID)
		repo.On("GetContext", mock.Anything, booking.ID).Return(helpers.CreateTestContext(ride, booking), nil)
		repo.On("Confirm", mock.Anything, booking.ID, mock.Anything).Return(nil)

		confirmed, err := svc.ConfirmBooking(context.Background(), driverID, booking.ID)

		require.NoError(t, err)
		assert.Equal(t, bookings.BookingStatusConfirmed, confirmed.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rider cannot confirm", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		booking := helpers.CreateTestBooking(ride.ID, riderID)
		repo.On("GetContext", mock.Anything, booking.ID).Return(helpers.CreateTestContext(ride, booking), nil)

		_, err := svc.ConfirmBooking(context.Background(), riderID, booking.ID)

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeForbidden, appErr.Code)
	})

	t.Run("cannot confirm a cancelled booking", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		booking := helpers.CreateTestBooking(ride.ID, riderID)
		booking.Status = bookings.BookingStatusCancelled
		repo.On("GetContext", mock.Anything, booking.ID).Return(helpers.CreateTestContext(ride, booking), nil)

		_, err := svc.ConfirmBooking(context.Background(), driverID, booking.ID)

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeInvalidState, appErr.Code)
	})
}

func TestStartTrip(t *testing.T) {
	driverID := uuid.New()
	riderID := uuid.New()

	t.Run("starts with a valid code", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		booking := helpers.CreateTestBooking(ride.ID, riderID)
		repo.On("GetContext", mock.Anything, booking.ID).Return(helpers.CreateTestContext(ride, booking), nil)
		repo.On("StartTrip", mock.Anything, booking.ID, ride.ID).Return(nil)

		err := svc.StartTrip(context.Background(), driverID, booking.ID, *booking.TripStartOTP)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("rejects a wrong code", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		booking := helpers.CreateTestBooking(ride.ID, riderID)
		repo.On("GetContext", mock.Anything, booking.ID).Return(helpers.CreateTestContext(ride, booking), nil)

		err := svc.StartTrip(context.Background(), driverID, booking.ID, "000000")

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeUnauthorized, appErr.Code)
		repo.AssertNotCalled(t, "StartTrip", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects an expired code", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		booking := helpers.CreateTestBooking(ride.ID, riderID)
		expired := time.Now().UTC().Add(-time.Minute)
		booking.OTPExpiresAt = &expired
		repo.On("GetContext", mock.Anything, booking.ID).Return(helpers.CreateTestContext(ride, booking), nil)

		err := svc.StartTrip(context.Background(), driverID, booking.ID, *booking.TripStartOTP)

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeUnauthorized, appErr.Code)
	})

	t.Run("rejects a completed booking", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		booking := helpers.CreateTestBooking(ride.ID, riderID)
		booking.Status = bookings.BookingStatusCompleted
		repo.On("GetContext", mock.Anything, booking.ID).Return(helpers.CreateTestContext(ride, booking), nil)

		err := svc.StartTrip(context.Background(), driverID, booking.ID, *booking.TripStartOTP)

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeInvalidState, appErr.Code)
	})
}

func TestCompleteTrip(t *testing.T) {
	driverID := uuid.New()

	t.Run("settles and returns shares", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		ride.Status = rides.RideStatusInProgress
		shares := []bookings.SettledShare{
			{BookingID: uuid.New(), RiderID: uuid.New(), Seats: 1, FinalShareCents: 7500},
			{BookingID: uuid.New(), RiderID: uuid.New(), Seats: 1, FinalShareCents: 7500},
		}
		ridesRepo.On("GetByID", mock.Anything, ride.ID).Return(ride, nil)
		repo.On("SettleRide", mock.Anything, ride.ID).Return(shares, nil)

		got, err := svc.CompleteTrip(context.Background(), driverID, ride.ID)

		require.NoError(t, err)
		assert.Equal(t, shares, got)
	})

	t.Run("only the driver can settle", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		ridesRepo.On("GetByID", mock.Anything, ride.ID).Return(ride, nil)

		_, err := svc.CompleteTrip(context.Background(), uuid.New(), ride.ID)

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeForbidden, appErr.Code)
		repo.AssertNotCalled(t, "SettleRide", mock.Anything, mock.Anything)
	})

	t.Run("rejects a second settlement", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		ride := helpers.CreateTestRide(driverID)
		ridesRepo.On("GetByID", mock.Anything, ride.ID).Return(ride, nil)
		repo.On("SettleRide", mock.Anything, ride.ID).Return(nil, bookings.ErrAlreadySettled)

		_, err := svc.CompleteTrip(context.Background(), driverID, ride.ID)

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeAlreadySettled, appErr.Code)
		assert.Equal(t, 409, appErr.Status)
	})
}

func TestPaymentHandshake(t *testing.T) {
	driverID := uuid.New()
	riderID := uuid.New()

	completedContext := func() *bookings.Context {
		ride := helpers.CreateTestRide(driverID)
		ride.Status = rides.RideStatusCompleted
		booking := helpers.CreateTestBooking(ride.ID, riderID)
		booking.Status = bookings.BookingStatusCompleted
		share := int64(5000)
		booking.FinalShareCents = &share
		return helpers.CreateTestContext(ride, booking)
	}

	t.Run("rider marks paid", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		bctx := completedContext()
		repo.On("GetContext", mock.Anything, bctx.Booking.ID).Return(bctx, nil)
		repo.On("MarkPaid", mock.Anything, bctx.Booking.ID, (*string)(nil)).Return(nil)

		err := svc.MarkPaid(context.Background(), riderID, bctx.Booking.ID, &bookings.MarkPaidRequest{})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("driver cannot mark paid on the rider's behalf", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		bctx := completedContext()
		repo.On("GetContext", mock.Anything, bctx.Booking.ID).Return(bctx, nil)

		err := svc.MarkPaid(context.Background(), driverID, bctx.Booking.ID, &bookings.MarkPaidRequest{})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeForbidden, appErr.Code)
	})

	t.Run("confirm requires the rider to have paid first", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		bctx := completedContext()
		repo.On("GetContext", mock.Anything, bctx.Booking.ID).Return(bctx, nil)

		err := svc.ConfirmPayment(context.Background(), driverID, bctx.Booking.ID)

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeInvalidState, appErr.Code)
	})

	t.Run("driver confirms after rider paid", func(t *testing.T) {
		repo := new(mocks.MockBookingsRepository)
		ridesRepo := new(mocks.MockRidesRepository)
		svc := newTestService(repo, ridesRepo)

		bctx := completedContext()
		bctx.Booking.PaidByRider = true
		repo.On("GetContext", mock.Anything, bctx.Booking.ID).Return(bctx, nil)
		repo.On("ConfirmPayment", mock.Anything, bctx.Booking.ID).Return(nil)

		err := svc.ConfirmPayment(context.Background(), driverID, bctx.Booking.ID)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestBookingStatusTransitions(t *testing.T) {
	assert.True(t, bookings.BookingStatusAuthorized.CanTransitionTo(bookings.BookingStatusConfirmed))
	assert.True(t, bookings.BookingStatusAuthorized.CanTransitionTo(bookings.BookingStatusInProgress))
	assert.True(t, bookings.BookingStatusConfirmed.CanTransitionTo(bookings.BookingStatusCancelled))
	assert.True(t, bookings.BookingStatusInProgress.CanTransitionTo(bookings.BookingStatusCompleted))
	assert.True(t, bookings.BookingStatusCompleted.CanTransitionTo(bookings.BookingStatusDisputed))
	assert.True(t, bookings.BookingStatusCancelled.CanTransitionTo(bookings.BookingStatusDisputed))

	assert.False(t, bookings.BookingStatusInProgress.CanTransitionTo(bookings.BookingStatusCancelled))
	assert.False(t, bookings.BookingStatusCompleted.CanTransitionTo(bookings.BookingStatusAuthorized))
	assert.False(t, bookings.BookingStatusDisputed.CanTransitionTo(bookings.BookingStatusCompleted))

	assert.True(t, bookings.BookingStatusAuthorized.Cancellable())
	assert.True(t, bookings.BookingStatusConfirmed.Cancellable())
	assert.False(t, bookings.BookingStatusInProgress.Cancellable())
	assert.True(t, bookings.BookingStatusCompleted.Disputable())
	assert.True(t, bookings.BookingStatusCancelled.Disputable())
	assert.False(t, bookings.BookingStatusAuthorized.Disputable())
}
