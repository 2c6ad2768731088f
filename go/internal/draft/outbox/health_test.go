package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type fakeConn bool

func (c fakeConn) IsConnected() bool { return bool(c) }

func TestHealthCheckerHealthy(t *testing.T) {
	store := &memStore{}
	seed(t, store, 2)
	h := NewHealthChecker(fakePinger{}, fakeConn(true), store, nil, 1000, time.Minute)

	status := h.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.True(t, status.DatabaseConnected)
	assert.True(t, status.NATSConnected)
	assert.Equal(t, 2, status.PendingEvents)
	assert.Empty(t, status.Errors)
}

func TestHealthCheckerFailures(t *testing.T) {
	h := NewHealthChecker(fakePinger{err: errors.New("refused")}, fakeConn(false), &memStore{}, nil, 1000, time.Minute)

	status := h.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.False(t, status.DatabaseConnected)
	assert.False(t, status.NATSConnected)
	assert.Len(t, status.Errors, 2)
}

func TestHealthCheckerStaleRelay(t *testing.T) {
	store := &memStore{}
	recs := seed(t, store, 1)
	pub := &recordingPublisher{failOn: map[uuid.UUID]bool{recs[0].ID: true}}
	relay := NewRelay(store, pub, RelayConfig{BatchSize: 10}, nil)
	_, err := relay.ProcessBatch(context.Background())
	require.NoError(t, err)

	h := NewHealthChecker(fakePinger{}, nil, store, relay, 0, time.Minute)
	assert.True(t, h.Check(context.Background()).Healthy)

	h.nowFunc = func() time.Time { return time.Now().Add(2 * time.Minute) }
	status := h.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, 1, status.PendingEvents)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthChecker(fakePinger{err: errors.New("refused")}, nil, &memStore{}, nil, 0, time.Minute)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Healthy)
}
