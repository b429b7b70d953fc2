package notifications

import (
	"time"

	"github.com/google/uuid"
)

// Delivery channels understood by the notification gateway
const (
	ChannelPush  = "push"
	ChannelEmail = "email"
)

// Notification types emitted by the booking core
const (
	TypeBookingRequested = "booking_requested"
	TypeBookingConfirmed = "booking_confirmed"
	TypeBookingCancelled = "booking_cancelled"
	TypeFinalShare       = "final_share"
	TypeDisputeOpened    = "dispute_opened"
)

// OutboxStatus is the delivery state of an outbox record
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// Notification is a fully-rendered notification request for the external
// gateway. It is written to the outbox in the same transaction as the state
// change it announces; the dispatcher delivers it at-least-once afterwards.
type Notification struct {
	ID             uuid.UUID              `json:"id"`
	Type           string                 `json:"type"`
	Channel        string                 `json:"channel"`
	RecipientID    uuid.UUID              `json:"recipient_id"`
	RecipientEmail string                 `json:"recipient_email"`
	BookingID      uuid.UUID              `json:"booking_id"`
	TemplateData   map[string]interface{} `json:"template_data"`
	Status         OutboxStatus           `json:"status"`
	Attempts       int                    `json:"attempts"`
	LastError      *string                `json:"last_error,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	SentAt         *time.Time             `json:"sent_at,omitempty"`
}
