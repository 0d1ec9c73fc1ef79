package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/authcraft/account-service/pkg/logger"
)

// Publisher emits account lifecycle events. Publishing is best-effort:
// callers treat failures as log-worthy, never as request failures.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	Close() error
}

type Message struct {
	Subject string
	Data    []byte
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("account-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject)
	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(m *nats.Msg) {
		handler(&Message{Subject: m.Subject, Data: m.Data})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

// Account lifecycle subjects.
const (
	UserRegistered = "user.registered"
	UserUpdated    = "user.updated"
	OTPRequested   = "user.otp.requested"
	PasswordReset  = "user.password.reset"
)

type UserRegisteredEvent struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

type UserUpdatedEvent struct {
	Email     string    `json:"email"`
	Changes   []string  `json:"changes"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OTPRequestedEvent struct {
	Email       string    `json:"email"`
	RequestedAt time.Time `json:"requested_at"`
}

type PasswordResetEvent struct {
	Email   string    `json:"email"`
	ResetAt time.Time `json:"reset_at"`
}
