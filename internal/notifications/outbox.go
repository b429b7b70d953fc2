package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Outbox writes notification requests into the transactional outbox table.
// Enqueue shares the caller's transaction so a committed state change and
// its notification record are inseparable.
type Outbox struct{}

// NewOutbox creates a new outbox writer
func NewOutbox() *Outbox {
	return &Outbox{}
}

// EnqueueTx inserts the notification into the outbox inside tx
func (o *Outbox) EnqueueTx(ctx context.Context, tx pgx.Tx, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = OutboxStatusPending
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(n.TemplateData)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO notification_outbox (
			id, type, channel, recipient_id, recipient_email, booking_id,
			template_data, status, attempts, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`
	_, err = tx.Exec(ctx, query,
		n.ID, n.Type, n.Channel, n.RecipientID, n.RecipientEmail, n.BookingID,
		payload, n.Status, n.Attempts, n.CreatedAt,
	)
	return err
}

// EnqueueAllTx inserts multiple notifications inside the same tx
func (o *Outbox) EnqueueAllTx(ctx context.Context, tx pgx.Tx, ns []*Notification) error {
	for _, n := range ns {
		if err := o.EnqueueTx(ctx, tx, n); err != nil {
			return err
		}
	}
	return nil
}
