package cancellation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campuspool/backend/internal/bookings"
	"github.com/campuspool/backend/internal/cancellation"
	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/config"
	"github.com/campuspool/backend/test/helpers"
	"github.com/campuspool/backend/test/mocks"
)

func TestEvaluate(t *testing.T) {
	departAt := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		actor    bookings.Actor
		now      time.Time
		wantLate bool
	}{
		{"rider well before the window", bookings.ActorRider, departAt.Add(-48 * time.Hour), false},
		{"rider exactly at the boundary", bookings.ActorRider, departAt.Add(-12 * time.Hour), false},
		{"rider one minute inside", bookings.ActorRider, departAt.Add(-11*time.Hour - 59*time.Minute), true},
		{"rider six hours before", bookings.ActorRider, departAt.Add(-6 * time.Hour), true},
		{"rider after departure", bookings.ActorRider, departAt.Add(time.Hour), true},
		{"driver six hours before", bookings.ActorDriver, departAt.Add(-6 * time.Hour), false},
		{"driver one minute before", bookings.ActorDriver, departAt.Add(-time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := cancellation.Evaluate(tt.actor, departAt, tt.now, 12)

			assert.Equal(t, tt.wantLate, verdict.Late)
			assert.Equal(t, tt.wantLate, verdict.EtiquettePaymentDue)
			if tt.wantLate {
				assert.Contains(t, verdict.Tags, bookings.TagLateCancel)
			} else {
				assert.Empty(t, verdict.Tags)
			}
		})
	}
}

func testCancellationService(store *mocks.MockBookingsRepository, now time.Time) *cancellation.Service {
	cfg := config.BusinessConfig{LateCancelWindowHours: 12}
	return cancellation.NewService(store, cfg).WithNow(func() time.Time { return now })
}

func TestCancelBooking(t *testing.T) {
	driverID := uuid.New()
	riderID := uuid.New()

	setup := func(hoursBeforeDeparture time.Duration) (*mocks.MockBookingsRepository, *cancellation.Service, *bookings.Context) {
		store := new(mocks.MockBookingsRepository)
		ride := helpers.CreateTestRide(driverID)
		booking := helpers.CreateTestBooking(ride.ID, riderID)
		bctx := helpers.CreateTestContext(ride, booking)
		svc := testCancellationService(store, ride.DepartAt.Add(-hoursBeforeDeparture))
		store.On("GetContext", mock.Anything, booking.ID).Return(bctx, nil)
		return store, svc, bctx
	}

	t.Run("early rider cancellation is free", func(t *testing.T) {
		store, svc, bctx := setup(48 * time.Hour)
		store.On("Cancel", mock.Anything, mock.MatchedBy(func(p bookings.CancelParams) bool {
			return !p.EtiquettePaymentDue && len(p.Tags) == 0 && p.Seats == bctx.Booking.Seats
		}), mock.Anything).Return(nil)

		verdict, err := svc.CancelBooking(context.Background(), riderID, bctx.Booking.ID,
			&cancellation.CancelBookingRequest{Actor: bookings.ActorRider})

		require.NoError(t, err)
		assert.False(t, verdict.Late)
		store.AssertExpectations(t)
	})

	t.Run("late rider cancellation is tagged and owes etiquette payment", func(t *testing.T) {
		store, svc, bctx := setup(6 * time.Hour)
		store.On("Cancel", mock.Anything, mock.MatchedBy(func(p bookings.CancelParams) bool {
			return p.EtiquettePaymentDue && len(p.Tags) == 1 && p.Tags[0] == bookings.TagLateCancel
		}), mock.Anything).Return(nil)

		verdict, err := svc.CancelBooking(context.Background(), riderID, bctx.Booking.ID,
			&cancellation.CancelBookingRequest{Actor: bookings.ActorRider})

		require.NoError(t, err)
		assert.True(t, verdict.Late)
		assert.True(t, verdict.EtiquettePaymentDue)
		store.AssertExpectations(t)
	})

	t.Run("driver cancellation inside the window stays free", func(t *testing.T) {
		store, svc, bctx := setup(2 * time.Hour)
		store.On("Cancel", mock.Anything, mock.MatchedBy(func(p bookings.CancelParams) bool {
			return !p.EtiquettePaymentDue && len(p.Tags) == 0
		}), mock.Anything).Return(nil)

		verdict, err := svc.CancelBooking(context.Background(), driverID, bctx.Booking.ID,
			&cancellation.CancelBookingRequest{Actor: bookings.ActorDriver})

		require.NoError(t, err)
		assert.False(t, verdict.Late)
		assert.False(t, verdict.EtiquettePaymentDue)
		store.AssertExpectations(t)
	})

	t.Run("declared actor must match actual role", func(t *testing.T) {
		store, svc, bctx := setup(48 * time.Hour)

		_, err := svc.CancelBooking(context.Background(), riderID, bctx.Booking.ID,
			&cancellation.CancelBookingRequest{Actor: bookings.ActorDriver})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeActorMismatch, appErr.Code)
		store.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("strangers cannot cancel", func(t *testing.T) {
		store, svc, bctx := setup(48 * time.Hour)

		_, err := svc.CancelBooking(context.Background(), uuid.New(), bctx.Booking.ID,
			&cancellation.CancelBookingRequest{Actor: bookings.ActorRider})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeForbidden, appErr.Code)
		store.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("in-progress bookings cannot be cancelled", func(t *testing.T) {
		_, svc, bctx := setup(48 * time.Hour)
		bctx.Booking.Status = bookings.BookingStatusInProgress

		_, err := svc.CancelBooking(context.Background(), riderID, bctx.Booking.ID,
			&cancellation.CancelBookingRequest{Actor: bookings.ActorRider})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeInvalidState, appErr.Code)
	})

	t.Run("unknown booking", func(t *testing.T) {
		store := new(mocks.MockBookingsRepository)
		svc := testCancellationService(store, time.Now().UTC())
		bookingID := uuid.New()
		store.On("GetContext", mock.Anything, bookingID).Return(nil, nil)

		_, err := svc.CancelBooking(context.Background(), riderID, bookingID,
			&cancellation.CancelBookingRequest{Actor: bookings.ActorRider})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeNotFound, appErr.Code)
	})
}
