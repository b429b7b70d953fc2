package notifications

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuspool/backend/pkg/config"
	"github.com/campuspool/backend/pkg/logger"
)

// Dispatcher drains the notification outbox and hands each record to the
// gateway publisher. Delivery is at-least-once: a record is only marked
// sent after a successful publish, and publish failures are retried until
// the attempt budget is exhausted.
type Dispatcher struct {
	db        *sql.DB
	publisher Publisher
	cfg       config.OutboxConfig
}

// NewDispatcher creates a new outbox dispatcher
func NewDispatcher(db *sql.DB, publisher Publisher, cfg config.OutboxConfig) *Dispatcher {
	return &Dispatcher{db: db, publisher: publisher, cfg: cfg}
}

// Run polls the outbox until ctx is cancelled
func (d *Dispatcher) Run(ctx context.Context) {
	interval := time.Duration(d.cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Outbox dispatcher started",
		zap.Duration("poll_interval", interval),
		zap.Int("batch_size", d.cfg.BatchSize))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			if count, err := d.ProcessBatch(ctx); err != nil {
				logger.Error("Outbox batch failed", zap.Error(err))
			} else if count > 0 {
				logger.Info("Outbox batch processed", zap.Int("count", count))
			}
		}
	}
}

// ProcessBatch claims up to BatchSize pending records and publishes them.
// SKIP LOCKED keeps concurrent dispatcher replicas from double-claiming.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	batchSize := d.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, type, channel, recipient_id, recipient_email, booking_id,
			   template_data, attempts, created_at
		FROM notification_outbox
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, batchSize)
	if err != nil {
		return 0, err
	}

	var batch []*Notification
	for rows.Next() {
		n := &Notification{}
		var payload []byte
		if err := rows.Scan(
			&n.ID, &n.Type, &n.Channel, &n.RecipientID, &n.RecipientEmail,
			&n.BookingID, &payload, &n.Attempts, &n.CreatedAt,
		); err != nil {
			rows.Close()
			return 0, err
		}
		if err := json.Unmarshal(payload, &n.TemplateData); err != nil {
			rows.Close()
			return 0, err
		}
		batch = append(batch, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	sent := 0
	for _, n := range batch {
		if err := d.publisher.Publish(n); err != nil {
			if markErr := d.markFailure(ctx, tx, n.ID, n.Attempts+1, err); markErr != nil {
				return sent, markErr
			}
			logger.Warn("Notification publish failed",
				zap.String("notification_id", n.ID.String()),
				zap.Int("attempts", n.Attempts+1),
				zap.Error(err))
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE notification_outbox
			SET status = 'sent', sent_at = NOW(), attempts = attempts + 1
			WHERE id = $1
		`, n.ID); err != nil {
			return sent, err
		}
		sent++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return sent, nil
}

func (d *Dispatcher) markFailure(ctx context.Context, tx *sql.Tx, id uuid.UUID, attempts int, cause error) error {
	status := OutboxStatusPending
	if attempts >= d.cfg.MaxAttempts && d.cfg.MaxAttempts > 0 {
		status = OutboxStatusFailed
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE notification_outbox
		SET status = $2, attempts = $3, last_error = $4
		WHERE id = $1
	`, id, status, attempts, cause.Error())
	return err
}
