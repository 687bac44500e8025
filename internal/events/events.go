// Package events publishes account lifecycle events to the configured broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/accountsvc/apiserver/internal/mq"
	"github.com/accountsvc/apiserver/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TypeAccountRegistered = "account.registered"
	TypeAccountLoggedIn   = "account.logged_in"
)

// Event is the JSON payload published for every account lifecycle change.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	AccountID  int       `json:"account_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is the subset of mq.MQ used to emit events.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Emitter publishes account events. A nil publisher makes every call a no-op.
type Emitter struct {
	publisher Publisher
	channel   string
	logger    *zap.Logger
	now       func() time.Time
}

func NewEmitter(publisher Publisher, channel string, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
		now:       time.Now,
	}
}

func (e *Emitter) AccountRegistered(ctx context.Context, account types.Account) {
	e.emit(ctx, TypeAccountRegistered, account)
}

func (e *Emitter) AccountLoggedIn(ctx context.Context, account types.Account) {
	e.emit(ctx, TypeAccountLoggedIn, account)
}

// emit publishes once. Failures are logged and never surface to the caller.
func (e *Emitter) emit(ctx context.Context, eventType string, account types.Account) {
	if e == nil || e.publisher == nil {
		return
	}

	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		AccountID:  account.ID,
		Email:      account.Email,
		OccurredAt: e.now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		e.logger.Error("marshal account event", zap.String("type", eventType), zap.Error(err))
		return
	}

	messageID, err := e.publisher.Publish(ctx, e.channel, data, map[string]string{mq.TypeAttribute: eventType})
	if err != nil {
		e.logger.Warn("publish account event failed",
			zap.String("type", eventType),
			zap.Int("account_id", account.ID),
			zap.Error(err),
		)
		return
	}
	e.logger.Debug("account event published",
		zap.String("type", eventType),
		zap.String("event_id", event.ID),
		zap.String("message_id", messageID),
	)
}

// Decode parses an event payload received from the broker.
func Decode(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}
