package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/accountsvc/apiserver/internal/events"
	"github.com/accountsvc/apiserver/internal/mq"
	"github.com/accountsvc/apiserver/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	puts    int
	putErr  error
	getErr  error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStorage) EnsureBucket(context.Context) error { return nil }

func (m *memStorage) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Bucket() string { return "events" }
func (m *memStorage) Close() error   { return nil }

// chanSubscriber delivers queued messages then waits for cancellation.
type chanSubscriber struct {
	messages []mq.Message
	errs     []error
}

func (s *chanSubscriber) Subscribe(ctx context.Context, _ string, handler mq.Handler) error {
	for _, msg := range s.messages {
		s.errs = append(s.errs, handler(ctx, msg))
	}
	<-ctx.Done()
	return ctx.Err()
}

const payload = `{"id":"6f1c","type":"account.registered","account_id":7,"email":"user@tester.com","occurred_at":"2024-03-01T23:59:59Z"}`

func TestKey(t *testing.T) {
	a := New(newMemStorage(), "account-events", nil)
	key := a.Key(events.Event{
		ID:         "abc",
		Type:       events.TypeAccountLoggedIn,
		OccurredAt: time.Date(2024, 3, 2, 1, 0, 0, 0, time.FixedZone("", 3*60*60)),
	})
	assert.Equal(t, "account-events/account.logged_in/2024/03/01/abc.json", key)
}

func TestHandle_StoresPayload(t *testing.T) {
	store := newMemStorage()
	a := New(store, "account-events", nil)

	require.NoError(t, a.Handle(context.Background(), mq.Message{ID: "m1", Data: []byte(payload)}))

	key := "account-events/account.registered/2024/03/01/6f1c.json"
	rc, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.JSONEq(t, payload, string(data))
	assert.Equal(t, "application/json", store.types[key])
}

func TestHandle_RedeliveryIsSkipped(t *testing.T) {
	store := newMemStorage()
	a := New(store, "account-events", nil)
	msg := mq.Message{ID: "m1", Data: []byte(payload)}

	require.NoError(t, a.Handle(context.Background(), msg))
	require.NoError(t, a.Handle(context.Background(), msg))

	assert.Equal(t, 1, store.puts)
	assert.Len(t, store.objects, 1)
}

func TestHandle_LookupFailureIsRetried(t *testing.T) {
	store := newMemStorage()
	store.getErr = errors.New("bucket unavailable")
	a := New(store, "account-events", nil)

	err := a.Handle(context.Background(), mq.Message{Data: []byte(payload)})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.getErr)
	assert.Zero(t, store.puts)
}

func TestHandle_DropsMalformed(t *testing.T) {
	store := newMemStorage()
	a := New(store, "account-events", nil)

	for _, data := range []string{`not json`, `{}`, `{"id":"x"}`} {
		assert.NoError(t, a.Handle(context.Background(), mq.Message{Data: []byte(data)}))
	}
	assert.Empty(t, store.objects)
}

func TestHandle_StorageFailureIsRetried(t *testing.T) {
	store := newMemStorage()
	store.putErr = errors.New("bucket unavailable")
	a := New(store, "account-events", nil)

	err := a.Handle(context.Background(), mq.Message{Data: []byte(payload)})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.putErr)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := newMemStorage()
	a := New(store, "", nil)
	sub := &chanSubscriber{messages: []mq.Message{{ID: "m1", Data: []byte(payload)}}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, sub, "account-events") }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.objects) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("archiver did not stop")
	}
	_, err := store.Get(context.Background(), "account.registered/2024/03/01/6f1c.json")
	assert.NoError(t, err)
}
