package disputes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"

	"github.com/campuspool/backend/internal/bookings"
	"github.com/campuspool/backend/internal/notifications"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrDuplicateDispute is returned when the booking already has an open
	// dispute. Enforced by a partial unique index, so concurrent openers
	// cannot both win.
	ErrDuplicateDispute = errors.New("booking already has an open dispute")
	// ErrInvalidState is returned when the booking is not in a disputable
	// status
	ErrInvalidState = errors.New("booking is not in a disputable state")
)

const uniqueViolation = "23505"

// Repository handles dispute and contact log persistence
type Repository struct {
	db     *pgxpool.Pool
	outbox *notifications.Outbox
}

func NewRepository(db *pgxpool.Pool, outbox *notifications.Outbox) *Repository {
	return &Repository{db: db, outbox: outbox}
}

// AppendContactLog records a contact attempt against a booking
func (r *Repository) AppendContactLog(ctx context.Context, entry *ContactLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO contact_logs (id, booking_id, author_id, channel, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.BookingID, entry.AuthorID, entry.Channel, entry.Note, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append contact log: %w", err)
	}
	return nil
}

// ListContactLogs returns the most recent contact log entries for a booking,
// newest first
func (r *Repository) ListContactLogs(ctx context.Context, bookingID uuid.UUID, limit int) ([]ContactLogEntry, error) {
	query := `
		SELECT id, booking_id, author_id, channel, note, created_at
		FROM contact_logs
		WHERE booking_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, query, bookingID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact logs: %w", err)
	}
	defer rows.Close()
	return scanContactLogs(rows)
}

func scanContactLogs(rows pgx.Rows) ([]ContactLogEntry, error) {
	entries := []ContactLogEntry{}
	for rows.Next() {
		var e ContactLogEntry
		if err := rows.Scan(&e.ID, &e.BookingID, &e.AuthorID, &e.Channel, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list contact logs: %w", err)
	}
	return entries, nil
}

// Open creates the dispute and flips the booking to disputed in one
// transaction. The contact log snapshot is taken inside the transaction so
// it reflects the state at opening time. A second open dispute on the same
// booking hits the partial unique index and maps to ErrDuplicateDispute.
func (r *Repository) Open(ctx context.Context, dispute *Dispute, snapshotLimit int, notice *notifications.Notification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT id, booking_id, author_id, channel, note, created_at
		FROM contact_logs
		WHERE booking_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	rows, err := tx.Query(ctx, query, dispute.BookingID, snapshotLimit)
	if err != nil {
		return fmt.Errorf("failed to snapshot contact logs: %w", err)
	}
	snapshot, err := scanContactLogs(rows)
	rows.Close()
	if err != nil {
		return err
	}
	dispute.ContactSnapshot = snapshot

	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal contact snapshot: %w", err)
	}

	now := time.Now().UTC()
	dispute.Status = DisputeStatusOpen
	dispute.CreatedAt = now
	dispute.UpdatedAt = now

	insert := `
		INSERT INTO disputes (id, booking_id, opened_by, reason, status, contact_snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = tx.Exec(ctx, insert,
		dispute.ID, dispute.BookingID, dispute.OpenedBy, dispute.Reason,
		dispute.Status, snapshotJSON, dispute.CreatedAt, dispute.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateDispute
		}
		return fmt.Errorf("failed to create dispute: %w", err)
	}

	update := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)`
	tag, err := tx.Exec(ctx, update, dispute.BookingID, bookings.BookingStatusDisputed,
		bookings.BookingStatusCompleted, bookings.BookingStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to mark booking disputed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}

	if notice != nil {
		if err := r.outbox.EnqueueTx(ctx, tx, notice); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetByID returns a dispute, or (nil, nil) when it does not exist
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Dispute, error) {
	query := `
		SELECT id, booking_id, opened_by, reason, status, contact_snapshot,
			resolution, resolved_by, resolved_at, created_at, updated_at
		FROM disputes WHERE id = $1`

	var d Dispute
	var snapshotJSON []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.BookingID, &d.OpenedBy, &d.Reason, &d.Status, &snapshotJSON,
		&d.Resolution, &d.ResolvedBy, &d.ResolvedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dispute: %w", err)
	}
	if len(snapshotJSON) > 0 {
		if err := json.Unmarshal(snapshotJSON, &d.ContactSnapshot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contact snapshot: %w", err)
		}
	}
	return &d, nil
}

// Resolve closes an open dispute with the given terminal outcome, resolved
// or rejected. Returns ErrInvalidState when the dispute is not open.
func (r *Repository) Resolve(ctx context.Context, disputeID, resolvedBy uuid.UUID, outcome DisputeStatus, resolution string) error {
	query := `
		UPDATE disputes
		SET status = $2, resolution = $3, resolved_by = $4, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $5`
	tag, err := r.db.Exec(ctx, query, disputeID, outcome, resolution, resolvedBy, DisputeStatusOpen)
	if err != nil {
		return fmt.Errorf("failed to resolve dispute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}
