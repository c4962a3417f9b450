package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiercekittenz/gifbot/internal/config"
	"github.com/fiercekittenz/gifbot/internal/dispatch"
	"github.com/fiercekittenz/gifbot/internal/domain"
	"github.com/fiercekittenz/gifbot/internal/ledger"
	"github.com/fiercekittenz/gifbot/internal/library"
	"github.com/fiercekittenz/gifbot/internal/overlay"
	"github.com/fiercekittenz/gifbot/internal/scheduler"
	"github.com/fiercekittenz/gifbot/internal/settings"
	"github.com/fiercekittenz/gifbot/internal/trigger"
)

// --- Mocks ---

type memStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string][]byte)}
}

func (m *memStore) Load(_ context.Context, area string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.docs[area]
	if !ok {
		return domain.ErrNoDocument
	}
	return json.Unmarshal(data, v)
}

func (m *memStore) Save(_ context.Context, area string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.docs[area] = data
	return nil
}

type nopPublisher struct{}

func (nopPublisher) NotifyPlay(domain.PlaySnapshot) {}
func (nopPublisher) NotifyStop(string)              {}

// --- Fixture ---

type serverFixture struct {
	server    *Server
	library   *library.Library
	scheduler *scheduler.Scheduler
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	cfg := &config.Config{
		Port:           "0",
		EventRateLimit: 100,
		EventRateBurst: 100,
		Layers:         []string{"base"},
	}

	clock := clockwork.NewFakeClock()
	lib := library.New(context.Background(), newMemStore())
	mgr := settings.NewManager(context.Background(), newMemStore())
	led := ledger.New(clock, mgr)
	sched := scheduler.New("base", clock, nopPublisher{}, nil, mgr, led, nil)

	resolver := trigger.NewResolver(led, mgr, nil)
	alerts := trigger.NewAlertSelector()
	builder := trigger.NewBuilder(lib, mgr, "base")
	dispatcher := dispatch.New(lib, resolver, alerts, builder, sched, led)

	hub := overlay.NewHub()
	t.Cleanup(hub.Stop)

	srv := NewServer(cfg, lib, mgr, led, dispatcher, map[string]*scheduler.Scheduler{"base": sched}, hub, nil, nil)

	return &serverFixture{server: srv, library: lib, scheduler: sched}
}

func (f *serverFixture) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.echo.ServeHTTP(rec, req)
	return rec
}

// --- Health ---

func TestLivenessEndpoint(t *testing.T) {
	f := newServerFixture(t)
	rec := f.request(t, http.MethodGet, "/health/live", "")
	assert.Equal(t, 200, rec.Code)
}

func TestReadinessWithoutBackends(t *testing.T) {
	f := newServerFixture(t)
	rec := f.request(t, http.MethodGet, "/health/ready", "")
	assert.Equal(t, 200, rec.Code, "file-backed deployments are always ready")
}

// --- Library API ---

func TestCategoryCRUD(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/categories", `{"name":"Greetings"}`)
	require.Equal(t, 201, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	categoryID := created["id"]
	require.NotEmpty(t, categoryID)

	rec = f.request(t, http.MethodPost, "/api/categories", `{"name":"greetings"}`)
	assert.Equal(t, 409, rec.Code, "duplicate category name")

	rec = f.request(t, http.MethodGet, "/api/categories", "")
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "Greetings")

	rec = f.request(t, http.MethodDelete, "/api/categories/"+categoryID, "")
	assert.Equal(t, 200, rec.Code)

	rec = f.request(t, http.MethodDelete, "/api/categories/"+uuid.NewString(), "")
	assert.Equal(t, 404, rec.Code)
}

func TestAddAnimationValidation(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/categories", `{"name":"Greetings"}`)
	require.Equal(t, 201, rec.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	categoryID := created["id"]

	rec = f.request(t, http.MethodPost, "/api/categories/"+categoryID+"/animations",
		`{"command":"!hug","visual":"hug.gif"}`)
	assert.Equal(t, 201, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/categories/"+categoryID+"/animations",
		`{"command":"two words","visual":"x.gif"}`)
	assert.Equal(t, 400, rec.Code, "commands are a single token")

	rec = f.request(t, http.MethodPost, "/api/categories/"+categoryID+"/animations",
		`{"command":"!HUG","visual":"y.gif"}`)
	assert.Equal(t, 409, rec.Code, "command uniqueness is case-insensitive")

	rec = f.request(t, http.MethodPost, "/api/categories/not-a-uuid/animations",
		`{"command":"!wave","visual":"w.gif"}`)
	assert.Equal(t, 400, rec.Code)
}

// --- Settings API ---

func TestSettingsUpdateValidation(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodGet, "/api/settings", "")
	assert.Equal(t, 200, rec.Code)

	rec = f.request(t, http.MethodPut, "/api/settings", `{"globalCooldownSeconds":-1}`)
	assert.Equal(t, 400, rec.Code)

	rec = f.request(t, http.MethodPut, "/api/settings", `{"globalCooldownSeconds":10,"crazyMode":true}`)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"crazyMode":true`)
}

func TestUserUpsertValidation(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodPut, "/api/users", `{"name":"","banned":true}`)
	assert.Equal(t, 400, rec.Code)

	rec = f.request(t, http.MethodPut, "/api/users", `{"name":"troll","banned":true}`)
	assert.Equal(t, 200, rec.Code)
}

// --- Playback control ---

func TestManualPlayEndpoint(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodPost, "/api/categories", `{"name":"Greetings"}`)
	require.Equal(t, 201, rec.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = f.request(t, http.MethodPost, "/api/categories/"+created["id"]+"/animations",
		`{"command":"!hug","visual":"hug.gif"}`)
	require.Equal(t, 201, rec.Code)
	var animation map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &animation))

	rec = f.request(t, http.MethodPost, "/api/animations/"+animation["id"]+"/play", `{"user":"streamer"}`)
	assert.Equal(t, 202, rec.Code)
	assert.Equal(t, 1, f.scheduler.QueueDepth())

	rec = f.request(t, http.MethodPost, "/api/animations/"+uuid.NewString()+"/play", `{}`)
	assert.Equal(t, 404, rec.Code)
}

func TestStopAllEndpoint(t *testing.T) {
	f := newServerFixture(t)
	rec := f.request(t, http.MethodPost, "/api/stop", "")
	assert.Equal(t, 200, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	f := newServerFixture(t)
	rec := f.request(t, http.MethodGet, "/api/status", "")
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queue_depth"`)
	assert.Contains(t, rec.Body.String(), `"overlay_clients"`)
}

// --- Event ingestion ---

func TestIngestEventValidation(t *testing.T) {
	f := newServerFixture(t)

	rec := f.request(t, http.MethodPost, "/events",
		`{"kind":"chat","displayName":"viewer","rawMessage":"!hug"}`)
	assert.Equal(t, 202, rec.Code)

	rec = f.request(t, http.MethodPost, "/events", `{"kind":"mystery","displayName":"viewer"}`)
	assert.Equal(t, 400, rec.Code)

	rec = f.request(t, http.MethodPost, "/events", `{"kind":"chat","rawMessage":"!hug"}`)
	assert.Equal(t, 400, rec.Code, "displayName is required")

	rec = f.request(t, http.MethodPost, "/events", `{"kind":"chat","displayName":"viewer"}`)
	assert.Equal(t, 400, rec.Code, "chat events need a message")

	rec = f.request(t, http.MethodPost, "/events", `{"kind":"manual","displayName":"viewer"}`)
	assert.Equal(t, 400, rec.Code, "manual plays go through the API, not ingestion")
}

func TestIngestEventRateLimit(t *testing.T) {
	f := newServerFixture(t)
	f.server.ingestLimiter = newIngestRateLimiter(1, 2)

	body := `{"kind":"bits","displayName":"viewer","bits":100}`
	assert.Equal(t, 202, f.request(t, http.MethodPost, "/events", body).Code)
	assert.Equal(t, 202, f.request(t, http.MethodPost, "/events", body).Code)
	assert.Equal(t, 429, f.request(t, http.MethodPost, "/events", body).Code)
}
