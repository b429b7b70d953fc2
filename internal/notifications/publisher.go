package notifications

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// Publisher delivers a notification request to the external gateway
type Publisher interface {
	Publish(n *Notification) error
}

// NATSPublisher publishes notification requests to the gateway's NATS subject
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to NATS
func NewNATSPublisher(natsURL, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish sends the notification request as JSON
func (p *NATSPublisher) Publish(n *Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, data)
}

// Close drains and closes the connection
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
