package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuspool/backend/internal/fare"
	"github.com/campuspool/backend/internal/notifications"
	"github.com/campuspool/backend/internal/rides"
)

var (
	// ErrInvalidState is returned when a booking or its ride is not in a
	// status that permits the requested operation
	ErrInvalidState = errors.New("booking is not in a valid state for this operation")
	// ErrAlreadySettled is returned when settlement runs against a ride
	// whose shares were already finalized
	ErrAlreadySettled = errors.New("ride has already been settled")
)

// Repository handles booking persistence. Multi-row operations run inside a
// single transaction so seat inventory, booking rows, and outbox
// notifications commit or roll back together.
type Repository struct {
	db     *pgxpool.Pool
	rides  *rides.Repository
	outbox *notifications.Outbox
}

func NewRepository(db *pgxpool.Pool, ridesRepo *rides.Repository, outbox *notifications.Outbox) *Repository {
	return &Repository{db: db, rides: ridesRepo, outbox: outbox}
}

const bookingColumns = `id, ride_id, rider_id, seats, status, auth_estimate_cents,
		final_share_cents, trip_start_otp, otp_expires_at, cancelled_at, cancelled_by,
		tags, etiquette_payment_due, paid_by_rider, confirmed_by_driver,
		proof_of_payment_url, seq, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.RideID, &b.RiderID, &b.Seats, &b.Status, &b.AuthEstimateCents,
		&b.FinalShareCents, &b.TripStartOTP, &b.OTPExpiresAt, &b.CancelledAt, &b.CancelledBy,
		&b.Tags, &b.EtiquettePaymentDue, &b.PaidByRider, &b.ConfirmedByDriver,
		&b.ProofOfPaymentURL, &b.Seq, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return &b, nil
}

// CreateWithReservation inserts the booking and decrements the ride's seat
// inventory in one transaction. The ride row is locked first so concurrent
// requests for the last seats serialize; losers get rides.ErrCapacityExceeded
// and nothing is persisted. The driver notice rides in the same transaction
// through the outbox.
func (r *Repository) CreateWithReservation(ctx context.Context, booking *Booking, notice *notifications.Notification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ride, err := r.rides.GetByIDForUpdateTx(ctx, tx, booking.RideID)
	if err != nil {
		return err
	}
	if ride == nil {
		return pgx.ErrNoRows
	}
	if ride.Status != rides.RideStatusOpen {
		return ErrInvalidState
	}

	if err := r.rides.ReserveSeatsTx(ctx, tx, booking.RideID, booking.Seats); err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (id, ride_id, rider_id, seats, status, auth_estimate_cents,
			trip_start_otp, otp_expires_at, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING seq`

	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	err = tx.QueryRow(ctx, query,
		booking.ID, booking.RideID, booking.RiderID, booking.Seats, booking.Status,
		booking.AuthEstimateCents, booking.TripStartOTP, booking.OTPExpiresAt,
		booking.Tags, booking.CreatedAt, booking.UpdatedAt,
	).Scan(&booking.Seq)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if notice != nil {
		if err := r.outbox.EnqueueTx(ctx, tx, notice); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetByID returns a booking, or (nil, nil) when it does not exist
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRow(ctx, query, id))
}

// GetContext loads a booking together with its ride and both parties'
// contact info
func (r *Repository) GetContext(ctx context.Context, bookingID uuid.UUID) (*Context, error) {
	booking, err := r.GetByID(ctx, bookingID)
	if err != nil || booking == nil {
		return nil, err
	}

	ride, err := r.rides.GetByID(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, fmt.Errorf("ride %s missing for booking %s", booking.RideID, booking.ID)
	}

	rider, err := r.GetParty(ctx, booking.RiderID)
	if err != nil {
		return nil, err
	}
	driver, err := r.GetParty(ctx, ride.DriverID)
	if err != nil {
		return nil, err
	}

	return &Context{Booking: booking, Ride: ride, Rider: rider, Driver: driver}, nil
}

// GetParty returns a user's contact info, or (nil, nil) when the user does
// not exist
func (r *Repository) GetParty(ctx context.Context, userID uuid.UUID) (*Party, error) {
	query := `SELECT id, full_name, email FROM users WHERE id = $1`
	var p Party
	err := r.db.QueryRow(ctx, query, userID).Scan(&p.ID, &p.FullName, &p.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &p, nil
}

// Confirm moves an authorized booking to confirmed. Returns ErrInvalidState
// when the booking is not authorized.
func (r *Repository) Confirm(ctx context.Context, bookingID uuid.UUID, notice *notifications.Notification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`
	tag, err := tx.Exec(ctx, query, bookingID, BookingStatusConfirmed, BookingStatusAuthorized)
	if err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
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

// StartTrip marks the booking and its ride in_progress in one transaction
func (r *Repository) StartTrip(ctx context.Context, bookingID, rideID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)`
	tag, err := tx.Exec(ctx, query, bookingID, BookingStatusInProgress,
		BookingStatusAuthorized, BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to start trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}

	if err := r.rides.SetStatusTx(ctx, tx, rideID, rides.RideStatusInProgress); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SettleRide completes a ride: it locks the ride row, loads the surviving
// bookings in creation order, splits the fixed trip cost across booked seats,
// writes the final share into each booking, marks everything completed, and
// queues one final-share notice per rider. Re-running against a settled ride
// returns ErrAlreadySettled without touching any row.
func (r *Repository) SettleRide(ctx context.Context, rideID uuid.UUID) ([]SettledShare, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ride, err := r.rides.GetByIDForUpdateTx(ctx, tx, rideID)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, pgx.ErrNoRows
	}
	if ride.Status == rides.RideStatusCompleted {
		return nil, ErrAlreadySettled
	}
	if ride.Status != rides.RideStatusInProgress {
		return nil, ErrInvalidState
	}

	query := `
		SELECT b.id, b.rider_id, b.seats, b.final_share_cents, u.email
		FROM bookings b
		JOIN users u ON u.id = b.rider_id
		WHERE b.ride_id = $1 AND b.status NOT IN ($2, $3)
		ORDER BY b.seq`
	rows, err := tx.Query(ctx, query, rideID, BookingStatusCancelled, BookingStatusDisputed)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for settlement: %w", err)
	}

	type settleRow struct {
		bookingID uuid.UUID
		riderID   uuid.UUID
		seats     int
		email     string
	}
	var loaded []settleRow
	var seatings []fare.Seating
	for rows.Next() {
		var row settleRow
		var prior *int64
		if err := rows.Scan(&row.bookingID, &row.riderID, &row.seats, &prior, &row.email); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan booking for settlement: %w", err)
		}
		if prior != nil {
			rows.Close()
			return nil, ErrAlreadySettled
		}
		loaded = append(loaded, row)
		seatings = append(seatings, fare.Seating{BookingID: row.bookingID, Seats: row.seats})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load bookings for settlement: %w", err)
	}

	shares, err := fare.Settle(ride.TotalCostCents, seatings)
	if err != nil {
		return nil, err
	}

	settled := make([]SettledShare, 0, len(shares))
	notices := make([]*notifications.Notification, 0, len(shares))
	for i, share := range shares {
		update := `
			UPDATE bookings
			SET status = $2, final_share_cents = $3, updated_at = NOW()
			WHERE id = $1`
		if _, err := tx.Exec(ctx, update, share.BookingID, BookingStatusCompleted, share.AmountCents); err != nil {
			return nil, fmt.Errorf("failed to write final share: %w", err)
		}
		settled = append(settled, SettledShare{
			BookingID:       share.BookingID,
			RiderID:         loaded[i].riderID,
			Seats:           share.Seats,
			FinalShareCents: share.AmountCents,
		})
		notices = append(notices, notifications.FinalShareNotice(
			loaded[i].riderID, loaded[i].email, share.BookingID, share.AmountCents,
		))
	}

	if err := r.rides.SetStatusTx(ctx, tx, rideID, rides.RideStatusCompleted); err != nil {
		return nil, err
	}
	if err := r.outbox.EnqueueAllTx(ctx, tx, notices); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}
	return settled, nil
}

// CancelParams carries the policy engine's verdict into the cancel transaction
type CancelParams struct {
	BookingID           uuid.UUID
	Seats               int
	RideID              uuid.UUID
	CancelledBy         uuid.UUID
	Tags                []string
	EtiquettePaymentDue bool
}

// Cancel moves the booking to cancelled and releases its seats back to the
// ride in one transaction. The ride row lock is taken first, matching the
// lock order of CreateWithReservation and SettleRide so a concurrent cancel
// and settle on the same ride cannot deadlock. The notices (rider and driver
// sides) commit with it through the outbox.
func (r *Repository) Cancel(ctx context.Context, params CancelParams, notices []*notifications.Notification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ride, err := r.rides.GetByIDForUpdateTx(ctx, tx, params.RideID)
	if err != nil {
		return err
	}
	if ride == nil {
		return pgx.ErrNoRows
	}

	query := `
		UPDATE bookings
		SET status = $2, cancelled_at = NOW(), cancelled_by = $3,
			tags = tags || $4, etiquette_payment_due = $5, updated_at = NOW()
		WHERE id = $1 AND status IN ($6, $7)`
	tag, err := tx.Exec(ctx, query, params.BookingID, BookingStatusCancelled,
		params.CancelledBy, params.Tags, params.EtiquettePaymentDue,
		BookingStatusAuthorized, BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}

	if err := r.rides.ReleaseSeatsTx(ctx, tx, params.RideID, params.Seats); err != nil {
		return err
	}
	if err := r.outbox.EnqueueAllTx(ctx, tx, notices); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MarkPaid records the rider's side of the settlement handshake
func (r *Repository) MarkPaid(ctx context.Context, bookingID uuid.UUID, proofURL *string) error {
	query := `
		UPDATE bookings
		SET paid_by_rider = TRUE, proof_of_payment_url = COALESCE($2, proof_of_payment_url),
			updated_at = NOW()
		WHERE id = $1 AND status = $3`
	tag, err := r.db.Exec(ctx, query, bookingID, proofURL, BookingStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// ConfirmPayment records the driver's side of the settlement handshake. The
// rider must have marked the booking paid first.
func (r *Repository) ConfirmPayment(ctx context.Context, bookingID uuid.UUID) error {
	query := `
		UPDATE bookings
		SET confirmed_by_driver = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND paid_by_rider = TRUE`
	tag, err := r.db.Exec(ctx, query, bookingID, BookingStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// ListByRide returns all bookings on a ride in creation order
func (r *Repository) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ride_id = $1 ORDER BY seq`
	return r.list(ctx, query, rideID)
}

// ListByRider returns a rider's bookings, newest first
func (r *Repository) ListByRider(ctx context.Context, riderID uuid.UUID) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE rider_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, riderID)
}

func (r *Repository) list(ctx context.Context, query string, arg any) ([]*Booking, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}
