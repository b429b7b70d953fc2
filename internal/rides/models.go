package rides

import (
	"time"

	"github.com/google/uuid"
)

// RideStatus represents the lifecycle status of a ride offering
type RideStatus string

const (
	RideStatusOpen       RideStatus = "open"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// IsTerminal reports whether the ride can no longer change state
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// Ride is a single driver-offered trip with a fixed total cost and seat
// capacity. seats_available only decreases through an accepted booking and
// only increases through that booking's cancellation.
type Ride struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	DriverID       uuid.UUID  `json:"driver_id" db:"driver_id"`
	OriginText     string     `json:"origin_text" db:"origin_text"`
	DestText       string     `json:"dest_text" db:"dest_text"`
	DepartAt       time.Time  `json:"depart_at" db:"depart_at"` // UTC instant
	TotalCostCents int64      `json:"total_cost_cents" db:"total_cost_cents"`
	SeatsTotal     int        `json:"seats_total" db:"seats_total"`
	SeatsAvailable int        `json:"seats_available" db:"seats_available"`
	Status         RideStatus `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateRideRequest is the payload for posting a new ride
type CreateRideRequest struct {
	OriginText     string    `json:"origin_text" binding:"required,min=2,max=200"`
	DestText       string    `json:"dest_text" binding:"required,min=2,max=200"`
	DepartAt       time.Time `json:"depart_at" binding:"required"`
	TotalCostCents int64     `json:"total_cost_cents" binding:"required,gt=0"`
	SeatsTotal     int       `json:"seats_total" binding:"required,gte=1,lte=8"`
}
