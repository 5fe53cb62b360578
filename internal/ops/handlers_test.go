package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardline/operator-console/internal/auth"
	"github.com/guardline/operator-console/internal/config"
	"github.com/guardline/operator-console/internal/console"
	"github.com/guardline/operator-console/internal/model"
	"github.com/guardline/operator-console/internal/notify"
	"github.com/guardline/operator-console/pkg/logger"
)

type stubTransport struct{}

func (stubTransport) SendReply(ctx context.Context, req model.ReplyRequest) error { return nil }
func (stubTransport) RequestSessions() error                                      { return nil }
func (stubTransport) IsConnected() bool                                           { return true }

type stubStore struct{}

func (stubStore) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	return nil, nil
}
func (stubStore) MarkRead(ctx context.Context, sessionID string) error { return nil }

// runningConsole starts a console actor, feeds it a connected snapshot
// with one session, and waits for the published state to settle.
func runningConsole(t *testing.T) *console.Console {
	t.Helper()

	c := console.New(stubTransport{}, stubStore{}, notify.Nop{}, "Operator", logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	c.OnConnect()
	c.OnSnapshot(model.SessionSnapshotEvent{Sessions: []model.ChatSession{
		{
			ID:           "s1",
			GuestName:    "Visitor",
			IsActive:     true,
			UnreadCount:  2,
			LastActivity: time.Now(),
		},
	}})

	require.Eventually(t, func() bool {
		st := c.StatusSnapshot()
		return st.Connected && st.Sessions == 1
	}, 2*time.Second, 10*time.Millisecond)

	return c
}

func testConfig() *config.Config {
	return &config.Config{
		OpsAddr:           ":0",
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}
}

func opsTestServer(t *testing.T, cfg *config.Config, c *console.Console) *httptest.Server {
	t.Helper()
	srv := NewServer(cfg, c, logger.NewNop())
	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := opsTestServer(t, testConfig(), runningConsole(t))

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestReadyReflectsConnectivity(t *testing.T) {
	cons := runningConsole(t)
	ts := opsTestServer(t, testConfig(), cons)

	resp, err := http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cons.OnDisconnect(nil)
	require.Eventually(t, func() bool {
		return !cons.StatusSnapshot().Connected
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSessions(t *testing.T) {
	ts := opsTestServer(t, testConfig(), runningConsole(t))

	resp, err := http.Get(ts.URL + "/api/v1/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Sessions []model.ChatSession `json:"sessions"`
		Total    int                 `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Sessions, 1)
	assert.Equal(t, "s1", body.Sessions[0].ID)
	assert.Equal(t, 2, body.Sessions[0].UnreadCount)
}

func TestStatus(t *testing.T) {
	ts := opsTestServer(t, testConfig(), runningConsole(t))

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status console.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.Sessions)
	assert.Equal(t, 2, status.Unread)
}

func TestDirectoryAPIRequiresToken(t *testing.T) {
	cfg := testConfig()
	cfg.OpsAuthRequired = true
	cfg.JWTSecret = "test-secret"
	ts := opsTestServer(t, cfg, runningConsole(t))

	// No token.
	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Health stays open.
	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Valid operator token.
	minter, err := auth.NewMinter(cfg.JWTSecret, "alice", time.Hour)
	require.NoError(t, err)
	token, err := minter.Token()
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/status", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
