package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"event-scheduler/internal/logger"
	"event-scheduler/internal/models"
)

// ReminderStream fans fired reminders out to connected SSE clients. It is a
// notify.Notifier.
type ReminderStream struct {
	clients     map[chan models.Reminder]struct{}
	clientMutex sync.RWMutex
	Logger      *logger.Logger
}

func NewReminderStream(log *logger.Logger) *ReminderStream {
	return &ReminderStream{
		clients: make(map[chan models.Reminder]struct{}),
		Logger:  log,
	}
}

// Subscribe registers a client until ctx is done. The returned channel is
// closed when the client is removed.
func (s *ReminderStream) Subscribe(ctx context.Context) <-chan models.Reminder {
	clientChan := make(chan models.Reminder, 10)

	s.clientMutex.Lock()
	s.clients[clientChan] = struct{}{}
	s.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		s.removeClient(clientChan)
	}()

	return clientChan
}

// Notify never blocks: clients with a full buffer miss the reminder.
func (s *ReminderStream) Notify(ctx context.Context, r models.Reminder) error {
	s.clientMutex.RLock()
	defer s.clientMutex.RUnlock()

	for clientChan := range s.clients {
		select {
		case clientChan <- r:
		default:
			if s.Logger != nil {
				s.Logger.Warn("SSE", fmt.Sprintf("Dropping reminder %s for slow client", r.EventID))
			}
		}
	}
	return nil
}

func (s *ReminderStream) ClientCount() int {
	s.clientMutex.RLock()
	defer s.clientMutex.RUnlock()
	return len(s.clients)
}

func (s *ReminderStream) removeClient(clientChan chan models.Reminder) {
	s.clientMutex.Lock()
	defer s.clientMutex.Unlock()

	if _, ok := s.clients[clientChan]; ok {
		delete(s.clients, clientChan)
		close(clientChan)
	}
}

// ServeHTTP streams reminders as "event: reminder" frames until the client
// disconnects.
func (s *ReminderStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ctx := r.Context()
	reminders := s.Subscribe(ctx)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	if s.Logger != nil {
		s.Logger.Info("SSE", "Client connected to reminder stream")
	}

	for {
		select {
		case reminder, ok := <-reminders:
			if !ok {
				return
			}
			jsonData, err := json.Marshal(reminder)
			if err != nil {
				if s.Logger != nil {
					s.Logger.Error("SSE", fmt.Sprintf("Failed to serialize reminder: %v", err))
				}
				continue
			}
			fmt.Fprintf(w, "event: reminder\ndata: %s\n\n", jsonData)
			flusher.Flush()
		case <-ctx.Done():
			if s.Logger != nil {
				s.Logger.Debug("SSE", "Client disconnected from reminder stream")
			}
			return
		}
	}
}
