package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/campuspool/backend/internal/rides"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusAuthorized BookingStatus = "authorized"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusDisputed   BookingStatus = "disputed"
)

var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusAuthorized: {BookingStatusConfirmed, BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusConfirmed:  {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress: {BookingStatusCompleted},
	BookingStatusCompleted:  {BookingStatusDisputed},
	BookingStatusCancelled:  {BookingStatusDisputed},
	BookingStatusDisputed:   {},
}

// CanTransitionTo reports whether the state machine allows moving to next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether the cancellation policy engine may act on a
// booking in this status
func (s BookingStatus) Cancellable() bool {
	return s == BookingStatusAuthorized || s == BookingStatusConfirmed
}

// Disputable reports whether a dispute may be opened against a booking in
// this status
func (s BookingStatus) Disputable() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// Actor is the declared role of the caller on a booking
type Actor string

const (
	ActorRider  Actor = "rider"
	ActorDriver Actor = "driver"
)

// TagLateCancel marks a rider cancellation inside the late-cancel window
const TagLateCancel = "late-cancel"

// Booking is one rider's reservation against a ride. auth_estimate_cents is
// fixed at creation; final_share_cents is null until settlement and
// write-once afterwards. seq is the persisted creation-order key that the
// settlement's remainder distribution depends on.
type Booking struct {
	ID                  uuid.UUID     `json:"id" db:"id"`
	RideID              uuid.UUID     `json:"ride_id" db:"ride_id"`
	RiderID             uuid.UUID     `json:"rider_id" db:"rider_id"`
	Seats               int           `json:"seats" db:"seats"`
	Status              BookingStatus `json:"status" db:"status"`
	AuthEstimateCents   int64         `json:"auth_estimate_cents" db:"auth_estimate_cents"`
	FinalShareCents     *int64        `json:"final_share_cents,omitempty" db:"final_share_cents"`
	TripStartOTP        *string       `json:"-" db:"trip_start_otp"`
	OTPExpiresAt        *time.Time    `json:"otp_expires_at,omitempty" db:"otp_expires_at"`
	CancelledAt         *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelledBy         *uuid.UUID    `json:"cancelled_by,omitempty" db:"cancelled_by"`
	Tags                []string      `json:"tags" db:"tags"`
	EtiquettePaymentDue bool          `json:"etiquette_payment_due" db:"etiquette_payment_due"`
	PaidByRider         bool          `json:"paid_by_rider" db:"paid_by_rider"`
	ConfirmedByDriver   bool          `json:"confirmed_by_driver" db:"confirmed_by_driver"`
	ProofOfPaymentURL   *string       `json:"proof_of_payment_url,omitempty" db:"proof_of_payment_url"`
	Seq                 int64         `json:"-" db:"seq"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`
}

// HasTag reports whether the booking carries the given tag
func (b *Booking) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Party is the contact info of one side of a booking
type Party struct {
	ID       uuid.UUID `json:"id" db:"id"`
	FullName string    `json:"full_name" db:"full_name"`
	Email    string    `json:"email" db:"email"`
}

// Context bundles a booking with its ride and both parties' contact info,
// as loaded by the cancellation and dispute workflows.
type Context struct {
	Booking *Booking
	Ride    *rides.Ride
	Rider   *Party
	Driver  *Party
}

// ActorOf returns the caller's actual relationship to the booking, or false
// when the caller is neither party.
func (c *Context) ActorOf(callerID uuid.UUID) (Actor, bool) {
	switch callerID {
	case c.Booking.RiderID:
		return ActorRider, true
	case c.Ride.DriverID:
		return ActorDriver, true
	default:
		return "", false
	}
}

// SettledShare is one booking's settlement outcome
type SettledShare struct {
	BookingID       uuid.UUID `json:"booking_id"`
	RiderID         uuid.UUID `json:"rider_id"`
	Seats           int       `json:"seats"`
	FinalShareCents int64     `json:"final_share_cents"`
}

// CreateBookingRequest is the payload for booking seats on a ride
type CreateBookingRequest struct {
	RideID uuid.UUID `json:"ride_id" binding:"required"`
	Seats  int       `json:"seats" binding:"required,gte=1"`
}

// StartTripRequest carries the rider-presented trip-start code
type StartTripRequest struct {
	Code string `json:"code" binding:"required"`
}

// MarkPaidRequest records the rider side of the settlement handshake
type MarkPaidRequest struct {
	ProofOfPaymentURL *string `json:"proof_of_payment_url,omitempty" binding:"omitempty,url"`
}
