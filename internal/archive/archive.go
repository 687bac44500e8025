// Package archive copies account events from the broker into object storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/accountsvc/apiserver/internal/events"
	"github.com/accountsvc/apiserver/internal/mq"
	"github.com/accountsvc/apiserver/internal/storage"
	"go.uber.org/zap"
)

const contentType = "application/json"

// Subscriber is the subset of mq.MQ the archiver consumes from.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// Archiver writes every event it receives as one JSON object.
type Archiver struct {
	store  storage.ObjectStorage
	prefix string
	logger *zap.Logger
}

func New(store storage.ObjectStorage, prefix string, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{store: store, prefix: prefix, logger: logger}
}

// Run blocks consuming channel until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context, sub Subscriber, channel string) error {
	a.logger.Info("archiver started",
		zap.String("channel", channel),
		zap.String("bucket", a.store.Bucket()),
	)
	err := sub.Subscribe(ctx, channel, a.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Handle stores a single message. Payloads that are not events are dropped
// so they are not redelivered forever; storage failures are returned for retry.
// Events already present under their key are skipped.
func (a *Archiver) Handle(ctx context.Context, msg mq.Message) error {
	event, err := events.Decode(msg.Data)
	if err != nil || event.ID == "" || event.Type == "" {
		a.logger.Warn("dropping malformed event", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}

	key := a.Key(event)
	archived, err := a.exists(ctx, key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if archived {
		a.logger.Debug("event already archived", zap.String("event_id", event.ID), zap.String("key", key))
		return nil
	}

	if err := a.store.Put(ctx, key, bytes.NewReader(msg.Data), int64(len(msg.Data)), contentType); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	a.logger.Debug("event archived",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.String("key", key),
	)
	return nil
}

// Key returns prefix/type/YYYY/MM/DD/id.json using the event's UTC date.
func (a *Archiver) Key(event events.Event) string {
	at := event.OccurredAt.UTC()
	return path.Join(a.prefix, event.Type, at.Format("2006/01/02"), event.ID+".json")
}

func (a *Archiver) exists(ctx context.Context, key string) (bool, error) {
	rc, err := a.store.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_ = rc.Close()
	return true, nil
}
