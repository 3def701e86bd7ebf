package event_api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"event-scheduler/internal/logger"
)

// NewRouter wires the event routes. stream may be nil, in which case the
// reminder stream route is not registered.
func NewRouter(h *Handler, stream http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.Logger))

	r.Get("/", h.Home)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		if stream != nil {
			r.Method(http.MethodGet, "/reminders/stream", stream)
		}
		r.Get("/{eventId}", h.GetEvent)
		r.Put("/{eventId}", h.UpdateEvent)
		r.Delete("/{eventId}", h.DeleteEvent)
	})

	return r
}

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", status), time.Since(start).String())
		})
	}
}
