package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/accountsvc/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	channel string
	data    []byte
	attrs   map[string]string
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	p.channel = channel
	p.data = data
	p.attrs = attrs
	return "msg-1", p.err
}

func TestEmitter_AccountRegistered(t *testing.T) {
	pub := &recordingPublisher{}
	e := NewEmitter(pub, "account-events", nil)
	e.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	e.AccountRegistered(context.Background(), types.Account{ID: 7, Email: "user@tester.com"})

	assert.Equal(t, "account-events", pub.channel)
	assert.Equal(t, TypeAccountRegistered, pub.attrs["type"])

	event, err := Decode(pub.data)
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, TypeAccountRegistered, event.Type)
	assert.Equal(t, 7, event.AccountID)
	assert.Equal(t, "user@tester.com", event.Email)
	assert.True(t, event.OccurredAt.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestEmitter_PublishFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pub := &recordingPublisher{err: errors.New("broker down")}
	e := NewEmitter(pub, "account-events", zap.New(core))

	e.AccountLoggedIn(context.Background(), types.Account{ID: 3})

	entries := logs.FilterMessage("publish account event failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, TypeAccountLoggedIn, entries[0].ContextMap()["type"])
}

func TestEmitter_NilPublisherIsNoop(t *testing.T) {
	var nilEmitter *Emitter
	nilEmitter.AccountRegistered(context.Background(), types.Account{ID: 1})

	NewEmitter(nil, "account-events", nil).AccountLoggedIn(context.Background(), types.Account{ID: 1})
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("{"))
	require.Error(t, err)
}
