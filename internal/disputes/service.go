package disputes

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuspool/backend/internal/bookings"
	"github.com/campuspool/backend/internal/notifications"
	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/config"
	"github.com/campuspool/backend/pkg/logger"
)

const defaultContactLogLimit = 50

// Service implements dispute opening, resolution, and the contact log
type Service struct {
	repo     RepositoryInterface
	bookings BookingStoreInterface
	cfg      config.BusinessConfig
}

func NewService(repo RepositoryInterface, bookingStore BookingStoreInterface, cfg config.BusinessConfig) *Service {
	return &Service{repo: repo, bookings: bookingStore, cfg: cfg}
}

// OpenDispute raises a dispute against a finished booking. Only a party to
// the booking may open one, the reason must carry enough substance, and a
// booking holds at most one open dispute at a time.
func (s *Service) OpenDispute(ctx context.Context, callerID, bookingID uuid.UUID, req *OpenDisputeRequest) (*Dispute, error) {
	reason := strings.TrimSpace(req.Reason)
	if utf8.RuneCountInString(reason) < s.cfg.DisputeReasonMinLen {
		return nil, common.NewValidationError("dispute reason is too short", nil)
	}

	bctx, err := s.loadBookingContext(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	actor, ok := bctx.ActorOf(callerID)
	if !ok {
		return nil, common.NewForbiddenError("you are not a party to this booking")
	}
	if !bctx.Booking.Status.Disputable() {
		return nil, common.NewInvalidStateError("only completed or cancelled bookings can be disputed")
	}

	dispute := &Dispute{
		ID:        uuid.New(),
		BookingID: bookingID,
		OpenedBy:  callerID,
		Reason:    reason,
	}

	// notify the counterparty, not the opener
	recipient := bctx.Driver
	opener := bctx.Rider
	if actor == bookings.ActorDriver {
		recipient = bctx.Rider
		opener = bctx.Driver
	}
	notice := notifications.DisputeOpenedNotice(recipient.ID, recipient.Email, opener.FullName, bookingID, dispute.ID)

	if err := s.repo.Open(ctx, dispute, s.cfg.ContactSnapshotLimit, notice); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateDispute):
			return nil, common.NewConflictError(common.CodeDuplicateDispute, "booking already has an open dispute")
		case errors.Is(err, ErrInvalidState):
			return nil, common.NewInvalidStateError("only completed or cancelled bookings can be disputed")
		default:
			logger.Error("Failed to open dispute", zap.Error(err), zap.String("booking_id", bookingID.String()))
			return nil, common.NewInternalServerError("failed to open dispute")
		}
	}

	logger.Info("Dispute opened",
		zap.String("dispute_id", dispute.ID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("actor", string(actor)),
		zap.Int("snapshot_entries", len(dispute.ContactSnapshot)),
	)
	return dispute, nil
}

// GetDispute returns a dispute to either party of the underlying booking
func (s *Service) GetDispute(ctx context.Context, callerID, disputeID uuid.UUID) (*Dispute, error) {
	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		logger.Error("Failed to load dispute", zap.Error(err), zap.String("dispute_id", disputeID.String()))
		return nil, common.NewInternalServerError("failed to load dispute")
	}
	if dispute == nil {
		return nil, common.NewNotFoundError("dispute not found", nil)
	}

	bctx, err := s.loadBookingContext(ctx, dispute.BookingID)
	if err != nil {
		return nil, err
	}
	if _, ok := bctx.ActorOf(callerID); !ok {
		return nil, common.NewForbiddenError("you are not a party to this dispute")
	}
	return dispute, nil
}

// ResolveDispute closes an open dispute with a moderator's verdict, either
// upholding (resolved) or dismissing (rejected) the complaint
func (s *Service) ResolveDispute(ctx context.Context, resolverID, disputeID uuid.UUID, req *ResolveDisputeRequest) error {
	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		logger.Error("Failed to load dispute", zap.Error(err), zap.String("dispute_id", disputeID.String()))
		return common.NewInternalServerError("failed to load dispute")
	}
	if dispute == nil {
		return common.NewNotFoundError("dispute not found", nil)
	}

	if err := s.repo.Resolve(ctx, disputeID, resolverID, req.Outcome, req.Resolution); err != nil {
		if errors.Is(err, ErrInvalidState) {
			return common.NewInvalidStateError("dispute is already closed")
		}
		logger.Error("Failed to resolve dispute", zap.Error(err), zap.String("dispute_id", disputeID.String()))
		return common.NewInternalServerError("failed to resolve dispute")
	}

	logger.Info("Dispute closed",
		zap.String("dispute_id", disputeID.String()),
		zap.String("outcome", string(req.Outcome)),
		zap.String("resolved_by", resolverID.String()),
	)
	return nil
}

// AppendContactLog records one contact attempt by a party to the booking
func (s *Service) AppendContactLog(ctx context.Context, callerID, bookingID uuid.UUID, req *AppendContactLogRequest) (*ContactLogEntry, error) {
	bctx, err := s.loadBookingContext(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, ok := bctx.ActorOf(callerID); !ok {
		return nil, common.NewForbiddenError("you are not a party to this booking")
	}

	entry := &ContactLogEntry{
		ID:        uuid.New(),
		BookingID: bookingID,
		AuthorID:  callerID,
		Channel:   req.Channel,
		Note:      req.Note,
	}
	if err := s.repo.AppendContactLog(ctx, entry); err != nil {
		logger.Error("Failed to append contact log", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, common.NewInternalServerError("failed to append contact log")
	}
	return entry, nil
}

// ListContactLogs returns a booking's recent contact attempts, newest first
func (s *Service) ListContactLogs(ctx context.Context, callerID, bookingID uuid.UUID) ([]ContactLogEntry, error) {
	bctx, err := s.loadBookingContext(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, ok := bctx.ActorOf(callerID); !ok {
		return nil, common.NewForbiddenError("you are not a party to this booking")
	}

	entries, err := s.repo.ListContactLogs(ctx, bookingID, defaultContactLogLimit)
	if err != nil {
		logger.Error("Failed to list contact logs", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, common.NewInternalServerError("failed to list contact logs")
	}
	return entries, nil
}

func (s *Service) loadBookingContext(ctx context.Context, bookingID uuid.UUID) (*bookings.Context, error) {
	bctx, err := s.bookings.GetContext(ctx, bookingID)
	if err != nil {
		logger.Error("Failed to load booking context", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return nil, common.NewInternalServerError("failed to load booking")
	}
	if bctx == nil {
		return nil, common.NewNotFoundError("booking not found", nil)
	}
	return bctx, nil
}
