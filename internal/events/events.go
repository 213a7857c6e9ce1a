package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names a kind of domain event.
type Type string

// Event types emitted after a unit of work commits.
const (
	SessionFinished   Type = "session.finished"
	TopicLearned      Type = "topic.learned"
	LedgerApplied     Type = "ledger.applied"
	ExchangeCompleted Type = "exchange.completed"
)

// Event is a fact about committed state. Handlers must not assume the
// emitting request is still running.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      Type            `json:"type"`
	UserID    uuid.UUID       `json:"user_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// SessionFinishedPayload describes a recorded training session.
type SessionFinishedPayload struct {
	SessionID    uuid.UUID `json:"session_id"`
	TopicID      string    `json:"topic_id"`
	Score        int       `json:"score"`
	PointsEarned int       `json:"points_earned"`
	MasteryLevel string    `json:"mastery_level"`
}

// LedgerAppliedPayload describes a committed ledger transaction.
type LedgerAppliedPayload struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Currency      string    `json:"currency"`
	Amount        int64     `json:"amount"`
	BalanceAfter  int64     `json:"balance_after"`
}

// ExchangeCompletedPayload describes a product exchange paid from the ledger.
type ExchangeCompletedPayload struct {
	ExchangeID    uuid.UUID `json:"exchange_id"`
	ProductID     string    `json:"product_id"`
	Cost          int64     `json:"cost"`
	TransactionID uuid.UUID `json:"transaction_id"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// New creates an Event for userID with payload encoded as JSON.
func New(eventType Type, userID uuid.UUID, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler processes events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter publishes events without knowing who handles them.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *Event) error { return nil }
