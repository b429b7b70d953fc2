package disputes

import (
	"context"

	"github.com/google/uuid"

	"github.com/campuspool/backend/internal/bookings"
	"github.com/campuspool/backend/internal/notifications"
)

// RepositoryInterface defines the dispute persistence operations
type RepositoryInterface interface {
	AppendContactLog(ctx context.Context, entry *ContactLogEntry) error
	ListContactLogs(ctx context.Context, bookingID uuid.UUID, limit int) ([]ContactLogEntry, error)
	Open(ctx context.Context, dispute *Dispute, snapshotLimit int, notice *notifications.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Dispute, error)
	Resolve(ctx context.Context, disputeID, resolvedBy uuid.UUID, outcome DisputeStatus, resolution string) error
}

// BookingStoreInterface is the slice of the bookings repository the dispute
// service reads through
type BookingStoreInterface interface {
	GetContext(ctx context.Context, bookingID uuid.UUID) (*bookings.Context, error)
}
