package disputes_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campuspool/backend/internal/bookings"
	"github.com/campuspool/backend/internal/disputes"
	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/config"
	"github.com/campuspool/backend/test/helpers"
	"github.com/campuspool/backend/test/mocks"
)

func testDisputesService(repo *mocks.MockDisputesRepository, store *mocks.MockBookingsRepository) *disputes.Service {
	cfg := config.BusinessConfig{
		ContactSnapshotLimit: 10,
		DisputeReasonMinLen:  10,
	}
	return disputes.NewService(repo, store, cfg)
}

func completedContext(driverID, riderID uuid.UUID) *bookings.Context {
	ride := helpers.CreateTestRide(driverID)
	booking := helpers.CreateTestBooking(ride.ID, riderID)
	booking.Status = bookings.BookingStatusCompleted
	return helpers.CreateTestContext(ride, booking)
}

func TestOpenDispute(t *testing.T) {
	driverID := uuid.New()
	riderID := uuid.New()

	t.Run("rider opens against a completed booking", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		bctx := completedContext(driverID, riderID)
		store.On("GetContext", mock.Anything, bctx.Booking.ID).Return(bctx, nil)
		repo.On("Open", mock.Anything, mock.MatchedBy(func(d *disputes.Dispute) bool {
			return d.BookingID == bctx.Booking.ID && d.OpenedBy == riderID
		}), 10, mock.Anything).Return(nil)

		dispute, err := svc.OpenDispute(context.Background(), riderID, bctx.Booking.ID,
			&disputes.OpenDisputeRequest{Reason: "driver took a different route and demanded more money"})

		require.NoError(t, err)
		assert.Equal(t, riderID, dispute.OpenedBy)
		repo.AssertExpectations(t)
	})

	t.Run("driver opens against a cancelled booking", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		bctx := completedContext(driverID, riderID)
		bctx.Booking.Status = bookings.BookingStatusCancelled
		store.On("GetContext", mock.Anything, bctx.Booking.ID).Return(bctx, nil)
		repo.On("Open", mock.Anything, mock.Anything, 10, mock.Anything).Return(nil)

		dispute, err := svc.OpenDispute(context.Background(), driverID, bctx.Booking.ID,
			&disputes.OpenDisputeRequest{Reason: "rider cancelled late and never sent the etiquette payment"})

		require.NoError(t, err)
		assert.Equal(t, driverID, dispute.OpenedBy)
	})

	t.Run("rejects a reason below the minimum length", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		_, err := svc.OpenDispute(context.Background(), riderID, uuid.New(),
			&disputes.OpenDisputeRequest{Reason: "   bad   "})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeValidationFailed, appErr.Code)
		store.AssertNotCalled(t, "GetContext", mock.Anything, mock.Anything)
	})

	t.Run("rejects a dispute on an authorized booking", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		bctx := completedContext(driverID, riderID)
		bctx.Booking.Status = bookings.BookingStatusAuthorized
		store.On("GetContext", mock.Anything, bctx.Booking.ID).Return(bctx, nil)

		_, err := svc.OpenDispute(context.Background(), riderID, bctx.Booking.ID,
			&disputes.OpenDisputeRequest{Reason: "this booking has not even happened yet"})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeInvalidState, appErr.Code)
	})

	t.Run("rejects a stranger", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		bctx := completedContext(driverID, riderID)
		store.On("GetContext", mock.Anything, bctx.Booking.ID).Return(bctx, nil)

		_, err := svc.OpenDispute(context.Background(), uuid.New(), bctx.Booking.ID,
			&disputes.OpenDisputeRequest{Reason: "I saw this ride and did not like it"})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeForbidden, appErr.Code)
	})

	t.Run("maps a second open dispute to a conflict", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		bctx := completedContext(driverID, riderID)
		store.On("GetContext", mock.Anything, bctx.Booking.ID).Return(bctx, nil)
		repo.On("Open", mock.Anything, mock.Anything, 10, mock.Anything).Return(disputes.ErrDuplicateDispute)

		_, err := svc.OpenDispute(context.Background(), riderID, bctx.Booking.ID,
			&disputes.OpenDisputeRequest{Reason: "driver took a different route and demanded more money"})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeDuplicateDispute, appErr.Code)
		assert.Equal(t, 409, appErr.Status)
	})
}

func TestResolveDispute(t *testing.T) {
	resolverID := uuid.New()

	t.Run("upholds an open dispute", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		dispute := &disputes.Dispute{ID: uuid.New(), Status: disputes.DisputeStatusOpen}
		repo.On("GetByID", mock.Anything, dispute.ID).Return(dispute, nil)
		repo.On("Resolve", mock.Anything, dispute.ID, resolverID,
			disputes.DisputeStatusResolved, "refund agreed").Return(nil)

		err := svc.ResolveDispute(context.Background(), resolverID, dispute.ID,
			&disputes.ResolveDisputeRequest{Outcome: disputes.DisputeStatusResolved, Resolution: "refund agreed"})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("dismisses a baseless dispute", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		dispute := &disputes.Dispute{ID: uuid.New(), Status: disputes.DisputeStatusOpen}
		repo.On("GetByID", mock.Anything, dispute.ID).Return(dispute, nil)
		repo.On("Resolve", mock.Anything, dispute.ID, resolverID,
			disputes.DisputeStatusRejected, "no evidence of non-payment").Return(nil)

		err := svc.ResolveDispute(context.Background(), resolverID, dispute.ID,
			&disputes.ResolveDisputeRequest{Outcome: disputes.DisputeStatusRejected, Resolution: "no evidence of non-payment"})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("rejects closing twice", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		dispute := &disputes.Dispute{ID: uuid.New(), Status: disputes.DisputeStatusResolved}
		repo.On("GetByID", mock.Anything, dispute.ID).Return(dispute, nil)
		repo.On("Resolve", mock.Anything, dispute.ID, resolverID,
			disputes.DisputeStatusResolved, "done").Return(disputes.ErrInvalidState)

		err := svc.ResolveDispute(context.Background(), resolverID, dispute.ID,
			&disputes.ResolveDisputeRequest{Outcome: disputes.DisputeStatusResolved, Resolution: "done"})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeInvalidState, appErr.Code)
	})

	t.Run("unknown dispute", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		disputeID := uuid.New()
		repo.On("GetByID", mock.Anything, disputeID).Return(nil, nil)

		err := svc.ResolveDispute(context.Background(), resolverID, disputeID,
			&disputes.ResolveDisputeRequest{Outcome: disputes.DisputeStatusResolved, Resolution: "irrelevant"})

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeNotFound, appErr.Code)
	})
}

func TestContactLogs(t *testing.T) {
	driverID := uuid.New()
	riderID := uuid.New()

	t.Run("party appends an entry", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		bctx := completedContext(driverID, riderID)
		store.On("GetContext", mock.Anything, bctx.Booking.ID).Return(bctx, nil)
		repo.On("AppendContactLog", mock.Anything, mock.MatchedBy(func(e *disputes.ContactLogEntry) bool {
			return e.BookingID == bctx.Booking.ID && e.AuthorID == riderID && e.Channel == "call"
		})).Return(nil)

		entry, err := svc.AppendContactLog(context.Background(), riderID, bctx.Booking.ID,
			&disputes.AppendContactLogRequest{Channel: "call", Note: "tried calling, no answer"})

		require.NoError(t, err)
		assert.Equal(t, riderID, entry.AuthorID)
		repo.AssertExpectations(t)
	})

	t.Run("stranger cannot read the log", func(t *testing.T) {
		repo := new(mocks.MockDisputesRepository)
		store := new(mocks.MockBookingsRepository)
		svc := testDisputesService(repo, store)

		bctx := completedContext(driverID, riderID)
		store.On("GetContext", mock.Anything, bctx.Booking.ID).Return(bctx, nil)

		_, err := svc.ListContactLogs(context.Background(), uuid.New(), bctx.Booking.ID)

		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.CodeForbidden, appErr.Code)
		repo.AssertNotCalled(t, "ListContactLogs", mock.Anything, mock.Anything, mock.Anything)
	})
}
