package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Mur0dDev/Classification-Bot/internal/auth"
	"github.com/Mur0dDev/Classification-Bot/internal/events"
	"github.com/Mur0dDev/Classification-Bot/internal/flow"
	"github.com/Mur0dDev/Classification-Bot/internal/handler"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
	"github.com/Mur0dDev/Classification-Bot/internal/service"
	"github.com/Mur0dDev/Classification-Bot/internal/session"
	"github.com/Mur0dDev/Classification-Bot/internal/submission"
	"github.com/Mur0dDev/Classification-Bot/internal/vocab"
)

const secret = "test-secret"

type oneRow struct{}

func (oneRow) RowCount(ctx context.Context, table string) (int, error) { return 1, nil }

type fixture struct {
	srv      *httptest.Server
	hub      *events.Hub
	sessions *session.MemoryStore
	webhook  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := flow.Default(vocab.Default())
	require.NoError(t, err)
	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)

	f := &fixture{hub: events.NewHub(0), sessions: session.NewMemoryStore(0, nil)}
	log := zap.NewNop()
	dash := service.NewDashboardService(f.sessions, reg, oneRow{}, f.hub)
	r := New(secret, log,
		handler.NewAuthHandler(service.NewAuthService("admin", hash, secret, time.Hour)),
		handler.NewDashboardHandler(dash),
		handler.NewEventsHandler(dash, log),
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { f.webhook++ }),
	)
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "pw"})
	resp, err := http.Post(f.srv.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res service.AuthResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res.Token
}

func (f *fixture) get(t *testing.T, path, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestHealthIsPublic(t *testing.T) {
	f := newFixture(t)
	resp, body := f.get(t, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	for _, tc := range []struct {
		body   string
		status int
	}{
		{`{"username":"admin","password":"nope"}`, http.StatusUnauthorized},
		{`{"username":"admin"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	} {
		resp, err := http.Post(f.srv.URL+"/api/v1/auth/login", "application/json", strings.NewReader(tc.body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tc.status, resp.StatusCode, tc.body)
	}
}

func TestProtectedRoutes(t *testing.T) {
	f := newFixture(t)
	s := models.NewSession(models.User{ID: 9, Name: "Ann"}, time.Now())
	s.Category, s.Step = models.CategoryAlien, "humanoid"
	f.sessions.Put(s)

	resp, _ := f.get(t, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := f.login(t)
	resp, body := f.get(t, "/api/v1/dashboard", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["activeSessions"])

	resp, body = f.get(t, "/api/v1/sessions", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])

	resp, body = f.get(t, "/api/v1/flows", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["flows"], 3)

	resp, body = f.get(t, "/api/v1/auth/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "admin", body["username"])
}

func TestWebhookRoute(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Post(f.srv.URL+WebhookPath, "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 1, f.webhook)
}

func TestEventsStream(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/api/v1/events?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		subs, _ := f.hub.Stats()
		return subs == 1
	}, 2*time.Second, 10*time.Millisecond)

	f.hub.Observe(submission.Outcome{UserID: 5, Ordinal: 12, Stage: submission.StageDone, Appended: true})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got submission.Outcome
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, 12, got.Ordinal)
	assert.True(t, got.Appended)
}
