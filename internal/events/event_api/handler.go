package event_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"event-scheduler/internal/events/store"
	"event-scheduler/internal/logger"
	"event-scheduler/internal/models"
	"event-scheduler/internal/utils"
)

const maxBodyBytes = 1 << 20

// EventService is implemented by *store.Store.
type EventService interface {
	Create(ctx context.Context, req models.EventRequest) (models.Event, error)
	List() []models.Event
	ListByStartTime() []models.Event
	Get(id string) (models.Event, error)
	Update(ctx context.Context, id string, upd models.EventUpdate) (models.Event, error)
	Delete(ctx context.Context, id string) (models.Event, error)
}

type Handler struct {
	Events EventService
	Logger *logger.Logger
}

func NewHandler(events EventService, log *logger.Logger) *Handler {
	return &Handler{Events: events, Logger: log}
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, utils.MessageBody{
		Message: "Welcome to the Event Scheduler API! Use /events to manage events.",
	})
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := decodeBody(r, &req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateEvent: bad request body: %v", err))
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.Events.Create(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, "CreateEvent", err)
		return
	}

	h.respond(w, http.StatusCreated, event)
}

// ListEvents returns events in insertion order, or by start time with
// ?sort=start_time.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var events []models.Event
	switch sort := r.URL.Query().Get("sort"); sort {
	case "":
		events = h.Events.List()
	case "start_time":
		events = h.Events.ListByStartTime()
	default:
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported sort %q. Use sort=start_time.", sort))
		return
	}

	if events == nil {
		events = []models.Event{}
	}
	h.respond(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	event, err := h.Events.Get(eventID)
	if err != nil {
		h.writeStoreError(w, "GetEvent", err)
		return
	}
	h.respond(w, http.StatusOK, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	var upd models.EventUpdate
	if err := decodeBody(r, &upd); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("UpdateEvent: bad request body: %v", err))
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if upd.IsEmpty() {
		h.respondError(w, http.StatusBadRequest, "Request body must contain at least one of: title, description, start_time.")
		return
	}

	event, err := h.Events.Update(r.Context(), eventID, upd)
	if err != nil {
		h.writeStoreError(w, "UpdateEvent", err)
		return
	}
	h.respond(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	removed, err := h.Events.Delete(r.Context(), eventID)
	if err != nil {
		h.writeStoreError(w, "DeleteEvent", err)
		return
	}
	h.respond(w, http.StatusOK, utils.MessageBody{
		Message: fmt.Sprintf("Event '%s' with ID '%s' deleted successfully", removed.Title, removed.ID),
	})
}

func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			h.respondError(w, http.StatusBadRequest, verr.Message)
			return
		}
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		h.respondError(w, http.StatusNotFound, err.Error())
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		h.respondError(w, http.StatusInternalServerError, "An unexpected error occurred on the server.")
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, v interface{}) {
	if err := utils.WriteJSON(w, status, v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	if err := utils.WriteError(w, status, message); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode error response: %v", err))
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("Request body must be JSON.")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if typeErr.Field == "" {
				return errors.New("Request body must be a JSON object.")
			}
			return fmt.Errorf("%s must be a string.", typeErr.Field)
		}
		return fmt.Errorf("Invalid request body: %v", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("Invalid request body: unexpected data after JSON object.")
	}
	return nil
}
