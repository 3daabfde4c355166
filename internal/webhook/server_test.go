package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/models"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

// ====== MOCKS ======

type mockModerator struct {
	mu      sync.Mutex
	Objects []string
	FailKey string
	Err     error
}

func (m *mockModerator) HandleObjectFinalized(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects = append(m.Objects, bucket+"/"+key)
	if m.Err != nil {
		return m.Err
	}
	if m.FailKey != "" && key == m.FailKey {
		return errors.New("mock moderation failure")
	}
	return nil
}

type mockNotifier struct {
	Messages []*models.Message
	Err      error
}

func (m *mockNotifier) HandleMessageCreated(ctx context.Context, msg *models.Message) error {
	m.Messages = append(m.Messages, msg)
	return m.Err
}

type mockGreeter struct {
	Accounts []models.Account
	NextID   string
	Err      error
}

func (m *mockGreeter) HandleAccountCreated(ctx context.Context, acct models.Account) (string, error) {
	m.Accounts = append(m.Accounts, acct)
	if m.Err != nil {
		return "", m.Err
	}
	return m.NextID, nil
}

type mockGuard struct {
	mu        sync.Mutex
	seen      map[string]bool
	Forgotten []string
}

func newMockGuard() *mockGuard {
	return &mockGuard{seen: make(map[string]bool)}
}

func (g *mockGuard) FirstDelivery(ctx context.Context, eventID string) bool {
	if eventID == "" {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen[eventID] {
		return false
	}
	g.seen[eventID] = true
	return true
}

func (g *mockGuard) Forget(ctx context.Context, eventID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, eventID)
	g.Forgotten = append(g.Forgotten, eventID)
}

// ====== FIXTURE ======

type serverFixture struct {
	server    *Server
	router    *gin.Engine
	moderator *mockModerator
	notifier  *mockNotifier
	greeter   *mockGreeter
	guard     *mockGuard
}

func newServerFixture(secret string) *serverFixture {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Webhook.Secret = secret
	cfg.Telemetry.ServiceName = "parlor-functions-test"

	f := &serverFixture{
		moderator: &mockModerator{},
		notifier:  &mockNotifier{},
		greeter:   &mockGreeter{NextID: "welcome-1"},
		guard:     newMockGuard(),
	}
	f.server = NewServer(cfg, f.moderator, f.notifier, f.greeter, f.guard)
	f.router = f.server.Router()
	return f
}

func (f *serverFixture) post(path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *serverFixture) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ====== HEALTH ======

func TestHandleHealthAllChecksPass(t *testing.T) {
	f := newServerFixture("")
	f.server.AddHealthCheck("mongo", func(ctx context.Context) error { return nil })
	f.server.AddHealthCheck("s3", func(ctx context.Context) error { return nil })
	f.router = f.server.Router()

	w := f.get("/health")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["mongo"])
	assert.Equal(t, "ok", checks["s3"])
}

func TestHandleHealthReportsDegraded(t *testing.T) {
	f := newServerFixture("")
	f.server.AddHealthCheck("mongo", func(ctx context.Context) error { return nil })
	f.server.AddHealthCheck("redis", func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	f.router = f.server.Router()

	w := f.get("/health")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["mongo"])
	assert.Contains(t, checks["redis"], "connection refused")
}

func TestHandleHealthWithoutChecks(t *testing.T) {
	f := newServerFixture("")

	w := f.get("/health")

	assert.Equal(t, http.StatusOK, w.Code)
}

// ====== METRICS ENDPOINT ======

func TestMetricsEndpointServesPrometheus(t *testing.T) {
	f := newServerFixture("")

	w := f.get("/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
}
