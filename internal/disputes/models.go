package disputes

import (
	"time"

	"github.com/google/uuid"
)

// DisputeStatus represents the lifecycle status of a dispute
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
	DisputeStatusRejected DisputeStatus = "rejected"
)

// ContactLogEntry is one recorded contact attempt between the parties of a
// booking. Entries are append-only.
type ContactLogEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookingID uuid.UUID `json:"booking_id" db:"booking_id"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id"`
	Channel   string    `json:"channel" db:"channel"`
	Note      string    `json:"note" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Dispute is a complaint raised by either party against a finished booking.
// contact_snapshot freezes the most recent contact log entries at opening
// time so later appends cannot rewrite the evidence.
type Dispute struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	BookingID       uuid.UUID         `json:"booking_id" db:"booking_id"`
	OpenedBy        uuid.UUID         `json:"opened_by" db:"opened_by"`
	Reason          string            `json:"reason" db:"reason"`
	Status          DisputeStatus     `json:"status" db:"status"`
	ContactSnapshot []ContactLogEntry `json:"contact_snapshot" db:"contact_snapshot"`
	Resolution      *string           `json:"resolution,omitempty" db:"resolution"`
	ResolvedBy      *uuid.UUID        `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt      *time.Time        `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// OpenDisputeRequest is the payload for opening a dispute
type OpenDisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AppendContactLogRequest is the payload for recording a contact attempt
type AppendContactLogRequest struct {
	Channel string `json:"channel" binding:"required,oneof=call text email in_app"`
	Note    string `json:"note" binding:"required,max=1000"`
}

// ResolveDisputeRequest is the payload for closing a dispute. Outcome
// records whether the complaint was upheld (resolved) or found baseless
// (rejected).
type ResolveDisputeRequest struct {
	Outcome    DisputeStatus `json:"outcome" binding:"required,oneof=resolved rejected"`
	Resolution string        `json:"resolution" binding:"required,min=5,max=2000"`
}
