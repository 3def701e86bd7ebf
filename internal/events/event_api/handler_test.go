package event_api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-scheduler/internal/events/event_api"
	"event-scheduler/internal/events/store"
	"event-scheduler/internal/logger"
	"event-scheduler/internal/models"
)

type failingBackend struct{}

func (failingBackend) Load(ctx context.Context) ([]models.Event, error) {
	return []models.Event{{ID: "evt-1", Title: "Standup", StartTime: models.MustTimestamp("2025-01-01T09:00:00")}}, nil
}
func (failingBackend) Save(ctx context.Context, events []models.Event) error {
	return errors.New("read-only file system")
}
func (failingBackend) Close() error { return nil }

func setupRouter(t *testing.T, backend store.Backend) (chi.Router, *store.Store) {
	t.Helper()
	log := logger.NewWriterLogger(io.Discard)
	s, err := store.New(context.Background(), backend, log)
	require.NoError(t, err)
	return event_api.NewRouter(event_api.NewHandler(s, log), nil), s
}

func setupFileRouter(t *testing.T) (chi.Router, *store.Store) {
	return setupRouter(t, store.NewFileBackend(filepath.Join(t.TempDir(), "events.json")))
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEvent(t *testing.T, rec *httptest.ResponseRecorder) models.Event {
	t.Helper()
	var ev models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	return ev
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHome(t *testing.T) {
	r, _ := setupFileRouter(t)

	rec := do(t, r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to the Event Scheduler API")
}

func TestCreateEvent(t *testing.T) {
	r, s := setupFileRouter(t)

	rec := do(t, r, http.MethodPost, "/events", `{"title":"Standup","description":"daily","start_time":"2025-01-01T09:00:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	ev := decodeEvent(t, rec)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "Standup", ev.Title)
	assert.Equal(t, "daily", ev.Description)
	assert.Equal(t, "2025-01-01T09:00:00", ev.StartTime.String())
	assert.False(t, ev.Notified)
	assert.Equal(t, 1, s.Len())

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "2025-01-01T09:00:00", raw["start_time"])
	assert.Equal(t, false, raw["notified"])
}

func TestCreateEventValidation(t *testing.T) {
	r, s := setupFileRouter(t)

	cases := map[string]struct {
		body    string
		message string
	}{
		"empty body":     {"", "Request body must be JSON."},
		"not an object":  {`[]`, "Request body must be a JSON object."},
		"bad json":       {`{"title":`, "Invalid request body"},
		"missing title":  {`{"start_time":"2025-01-01T09:00:00"}`, "Title must be a non-empty string."},
		"numeric title":  {`{"title":5,"start_time":"2025-01-01T09:00:00"}`, "title must be a string."},
		"missing start":  {`{"title":"x"}`, "Missing required field: 'start_time'"},
		"malformed date": {`{"title":"x","start_time":"01/01/2025 09:00"}`, "Invalid start_time format"},
		"zone suffix":    {`{"title":"x","start_time":"2025-01-01T09:00:00Z"}`, "Invalid start_time format"},
		"nothing valid":  {`{}`, "Title must be a non-empty string., Missing required field: 'start_time'"},
		"trailing data":  {`{"title":"x","start_time":"2025-01-01T09:00:00"} xyz`, "unexpected data after JSON object"},
		"two objects":    {`{"title":"x","start_time":"2025-01-01T09:00:00"}{}`, "unexpected data after JSON object"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, r, http.MethodPost, "/events", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "Bad Request", body["error"])
			assert.Contains(t, body["message"], tc.message)
		})
	}
	assert.Equal(t, 0, s.Len())
}

func TestListEvents(t *testing.T) {
	r, _ := setupFileRouter(t)

	rec := do(t, r, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	do(t, r, http.MethodPost, "/events", `{"title":"late","start_time":"2025-06-01T09:00:00"}`)
	do(t, r, http.MethodPost, "/events", `{"title":"early","start_time":"2025-01-01T09:00:00"}`)

	var events []models.Event
	rec = do(t, r, http.MethodGet, "/events", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "late", events[0].Title)

	rec = do(t, r, http.MethodGet, "/events?sort=start_time", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Equal(t, "early", events[0].Title)

	rec = do(t, r, http.MethodGet, "/events?sort=title", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEvent(t *testing.T) {
	r, _ := setupFileRouter(t)
	created := decodeEvent(t, do(t, r, http.MethodPost, "/events", `{"title":"Standup","start_time":"2025-01-01T09:00:00"}`))

	rec := do(t, r, http.MethodGet, "/events/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decodeEvent(t, rec))

	rec = do(t, r, http.MethodGet, "/events/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeError(t, rec)["error"])
}

func TestUpdateEvent(t *testing.T) {
	r, s := setupFileRouter(t)
	created := decodeEvent(t, do(t, r, http.MethodPost, "/events", `{"title":"Standup","start_time":"2025-01-01T09:00:00"}`))

	rec := do(t, r, http.MethodPut, "/events/"+created.ID, `{"description":"room 4"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeEvent(t, rec)
	assert.Equal(t, "Standup", updated.Title)
	assert.Equal(t, "room 4", updated.Description)

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestUpdateEventResetsNotifiedOnReschedule(t *testing.T) {
	r, s := setupFileRouter(t)
	created := decodeEvent(t, do(t, r, http.MethodPost, "/events", `{"title":"Standup","start_time":"2025-01-01T09:00:00"}`))
	_, err := s.MarkNotified(context.Background(), created.ID, created.StartTime)
	require.NoError(t, err)

	rec := do(t, r, http.MethodPut, "/events/"+created.ID, `{"start_time":"2030-01-01T09:00:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeEvent(t, rec).Notified)
}

func TestUpdateEventErrors(t *testing.T) {
	r, _ := setupFileRouter(t)
	created := decodeEvent(t, do(t, r, http.MethodPost, "/events", `{"title":"Standup","start_time":"2025-01-01T09:00:00"}`))

	rec := do(t, r, http.MethodPut, "/events/unknown", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPut, "/events/"+created.ID, `{"start_time":"soon"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPut, "/events/"+created.ID, `{"title":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPut, "/events/"+created.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPut, "/events/"+created.ID, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPut, "/events/"+created.ID, `{"title":"y"} garbage`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEventAllowsTrailingWhitespace(t *testing.T) {
	r, _ := setupFileRouter(t)

	rec := do(t, r, http.MethodPost, "/events", "{\"title\":\"x\",\"start_time\":\"2025-01-01T09:00:00\"}\n  ")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDeleteEvent(t *testing.T) {
	r, s := setupFileRouter(t)
	created := decodeEvent(t, do(t, r, http.MethodPost, "/events", `{"title":"Standup","start_time":"2025-01-01T09:00:00"}`))

	rec := do(t, r, http.MethodDelete, "/events/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Event 'Standup' with ID '"+created.ID+"' deleted successfully")
	assert.Equal(t, 0, s.Len())
}

func TestDeleteUnknownEventLeavesCollectionUnchanged(t *testing.T) {
	r, s := setupFileRouter(t)
	do(t, r, http.MethodPost, "/events", `{"title":"Standup","start_time":"2025-01-01T09:00:00"}`)
	before := s.List()

	rec := do(t, r, http.MethodDelete, "/events/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Event with ID 'unknown' not found.", decodeError(t, rec)["message"])
	assert.Equal(t, before, s.List())
}

func TestPersistenceFailuresReturn500(t *testing.T) {
	r, s := setupRouter(t, failingBackend{})
	before := s.List()

	rec := do(t, r, http.MethodPost, "/events", `{"title":"x","start_time":"2025-01-01T09:00:00"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec)["error"])

	rec = do(t, r, http.MethodPut, "/events/evt-1", `{"title":"y"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, r, http.MethodDelete, "/events/evt-1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, before, s.List())
}

func TestReminderStreamRouteIsOptional(t *testing.T) {
	log := logger.NewWriterLogger(io.Discard)
	s, err := store.New(context.Background(), store.NewFileBackend(filepath.Join(t.TempDir(), "e.json")), log)
	require.NoError(t, err)

	called := false
	stream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	r := event_api.NewRouter(event_api.NewHandler(s, log), stream)

	rec := do(t, r, http.MethodGet, "/events/reminders/stream", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
