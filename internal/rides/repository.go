package rides

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCapacityExceeded is returned when a reservation would drive
// seats_available negative.
var ErrCapacityExceeded = errors.New("seat reservation exceeds available capacity")

// Repository handles ride data access, including the seat inventory
// operations that other repositories run inside their own transactions.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new rides repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new ride with all seats available
func (r *Repository) Create(ctx context.Context, ride *Ride) error {
	query := `
		INSERT INTO rides (
			id, driver_id, origin_text, dest_text, depart_at,
			total_cost_cents, seats_total, seats_available, status,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`
	_, err := r.db.Exec(ctx, query,
		ride.ID, ride.DriverID, ride.OriginText, ride.DestText, ride.DepartAt,
		ride.TotalCostCents, ride.SeatsTotal, ride.SeatsAvailable, ride.Status,
		ride.CreatedAt, ride.UpdatedAt,
	)
	return err
}

// GetByID retrieves a ride by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Ride, error) {
	return scanRide(r.db.QueryRow(ctx, selectRideQuery+` WHERE id = $1`, id))
}

// GetByIDForUpdateTx loads a ride inside tx with a row lock, serializing
// concurrent seat mutations on the same ride.
func (r *Repository) GetByIDForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Ride, error) {
	return scanRide(tx.QueryRow(ctx, selectRideQuery+` WHERE id = $1 FOR UPDATE`, id))
}

// ReserveSeatsTx atomically decrements seats_available inside tx. The caller
// must already hold the ride row lock.
func (r *Repository) ReserveSeatsTx(ctx context.Context, tx pgx.Tx, rideID uuid.UUID, seats int) error {
	query := `
		UPDATE rides
		SET seats_available = seats_available - $2, updated_at = NOW()
		WHERE id = $1 AND seats_available >= $2
	`
	tag, err := tx.Exec(ctx, query, rideID, seats)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCapacityExceeded
	}
	return nil
}

// ReleaseSeatsTx atomically increments seats_available inside tx and, when
// the ride is not already terminal, sets its status back to open so a fully
// booked ride becomes bookable again.
func (r *Repository) ReleaseSeatsTx(ctx context.Context, tx pgx.Tx, rideID uuid.UUID, seats int) error {
	query := `
		UPDATE rides
		SET seats_available = seats_available + $2,
			status = CASE WHEN status IN ('completed', 'cancelled') THEN status ELSE 'open' END,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query, rideID, seats)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetStatusTx updates the ride status inside tx
func (r *Repository) SetStatusTx(ctx context.Context, tx pgx.Tx, rideID uuid.UUID, status RideStatus) error {
	query := `UPDATE rides SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := tx.Exec(ctx, query, rideID, status)
	return err
}

// ListOpen lists bookable rides ordered by departure
func (r *Repository) ListOpen(ctx context.Context, limit, offset int) ([]*Ride, error) {
	query := selectRideQuery + `
		WHERE status = 'open' AND seats_available > 0 AND depart_at > NOW()
		ORDER BY depart_at ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ride)
	}

	return result, rows.Err()
}

const selectRideQuery = `
	SELECT id, driver_id, origin_text, dest_text, depart_at,
		   total_cost_cents, seats_total, seats_available, status,
		   created_at, updated_at
	FROM rides
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*Ride, error) {
	ride := &Ride{}
	err := row.Scan(
		&ride.ID, &ride.DriverID, &ride.OriginText, &ride.DestText, &ride.DepartAt,
		&ride.TotalCostCents, &ride.SeatsTotal, &ride.SeatsAvailable, &ride.Status,
		&ride.CreatedAt, &ride.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ride, nil
}
