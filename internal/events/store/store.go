package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"event-scheduler/internal/logger"
	"event-scheduler/internal/models"
)

// Backend persists the whole event collection. Save always receives the full
// collection in insertion order and must replace whatever was stored before.
type Backend interface {
	Load(ctx context.Context) ([]models.Event, error)
	Save(ctx context.Context, events []models.Event) error
	Close() error
}

// Store owns the event collection. Every operation runs under one mutex and
// every mutation is written through the backend before it becomes visible.
type Store struct {
	mu      sync.Mutex
	events  []models.Event
	backend Backend
	logger  *logger.Logger
	newID   func() string
}

func New(ctx context.Context, backend Backend, log *logger.Logger) (*Store, error) {
	events, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	s := &Store{
		events:  events,
		backend: backend,
		logger:  log,
		newID:   uuid.NewString,
	}

	// Records written by hand or by older versions may lack an id or share one.
	seen := make(map[string]bool, len(events))
	repaired := 0
	for i := range s.events {
		if s.events[i].ID == "" || seen[s.events[i].ID] {
			s.events[i].ID = s.generateID(seen)
			repaired++
		}
		seen[s.events[i].ID] = true
	}
	if repaired > 0 {
		if err := backend.Save(ctx, s.events); err != nil {
			return nil, &PersistenceError{Op: "load", Err: err}
		}
		log.Warn("STORE", fmt.Sprintf("Assigned fresh ids to %d stored events", repaired))
	}

	log.LogStore("LOAD", fmt.Sprintf("Loaded %d events", len(s.events)))
	return s, nil
}

func (s *Store) Create(ctx context.Context, req models.EventRequest) (models.Event, error) {
	var problems []*ValidationError
	title, terr := validateTitle(req.Title)
	if terr != nil {
		problems = append(problems, terr)
	}
	var start models.Timestamp
	if req.StartTime == "" {
		problems = append(problems, &ValidationError{Field: "start_time", Message: "Missing required field: 'start_time'"})
	} else {
		var serr *ValidationError
		if start, serr = parseStart(req.StartTime); serr != nil {
			problems = append(problems, serr)
		}
	}
	if err := joinValidation(problems); err != nil {
		return models.Event{}, err
	}
	var description string
	if req.Description != nil {
		description = strings.TrimSpace(*req.Description)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event := models.Event{
		ID:          s.generateID(s.idSet()),
		Title:       title,
		Description: description,
		StartTime:   start,
		Notified:    false,
	}

	next := append(slices.Clone(s.events), event)
	if err := s.commit(ctx, "create", next); err != nil {
		return models.Event{}, err
	}

	s.logger.LogEvent("CREATE", event.ID, fmt.Sprintf("%q at %s", event.Title, event.StartTime))
	return event, nil
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// ListByStartTime returns the collection ordered by start_time, earliest first.
// Events with equal start times keep their insertion order.
func (s *Store) ListByStartTime() []models.Event {
	events := s.List()
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime.Time)
	})
	return events
}

func (s *Store) Get(id string) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Event{}, &NotFoundError{ID: id}
	}
	return s.events[idx], nil
}

// Update applies the supplied fields. Supplying start_time always clears the
// notified flag so the event can be reminded again.
func (s *Store) Update(ctx context.Context, id string, upd models.EventUpdate) (models.Event, error) {
	var (
		title    string
		start    models.Timestamp
		verr     *ValidationError
		problems []*ValidationError
	)
	if upd.Title != nil {
		if title, verr = validateTitle(*upd.Title); verr != nil {
			problems = append(problems, verr)
		}
	}
	if upd.StartTime != nil {
		if start, verr = parseStart(*upd.StartTime); verr != nil {
			problems = append(problems, verr)
		}
	}
	if err := joinValidation(problems); err != nil {
		return models.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Event{}, &NotFoundError{ID: id}
	}

	next := slices.Clone(s.events)
	event := &next[idx]
	if upd.Title != nil {
		event.Title = title
	}
	if upd.Description != nil {
		event.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.StartTime != nil {
		event.StartTime = start
		event.Notified = false
	}

	if err := s.commit(ctx, "update", next); err != nil {
		return models.Event{}, err
	}

	s.logger.LogEvent("UPDATE", id, fmt.Sprintf("%q at %s (notified=%t)", event.Title, event.StartTime, event.Notified))
	return *event, nil
}

// Delete removes the event and returns the removed record.
func (s *Store) Delete(ctx context.Context, id string) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Event{}, &NotFoundError{ID: id}
	}

	removed := s.events[idx]
	next := slices.Delete(slices.Clone(s.events), idx, idx+1)
	if err := s.commit(ctx, "delete", next); err != nil {
		return models.Event{}, err
	}

	s.logger.LogEvent("DELETE", id, fmt.Sprintf("%q removed", removed.Title))
	return removed, nil
}

// MarkNotified flips notified to true if the event still exists, has not been
// notified yet and still starts at start. It reports whether the flag changed.
// Comparing start time makes a sweep that raced an Update a no-op.
func (s *Store) MarkNotified(ctx context.Context, id string, start models.Timestamp) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, &NotFoundError{ID: id}
	}
	current := s.events[idx]
	if current.Notified || !current.StartTime.Equal(start) {
		return false, nil
	}

	next := slices.Clone(s.events)
	next[idx].Notified = true
	if err := s.commit(ctx, "mark_notified", next); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// commit must be called with s.mu held. The new collection replaces the old
// one only after the backend accepted it.
func (s *Store) commit(ctx context.Context, op string, next []models.Event) error {
	if err := s.backend.Save(ctx, next); err != nil {
		s.logger.Error("STORE", fmt.Sprintf("%s: persist failed, keeping previous state: %v", op, err))
		return &PersistenceError{Op: op, Err: err}
	}
	s.events = next
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.events, func(e models.Event) bool { return e.ID == id })
}

func (s *Store) idSet() map[string]bool {
	ids := make(map[string]bool, len(s.events))
	for _, e := range s.events {
		ids[e.ID] = true
	}
	return ids
}

func (s *Store) generateID(taken map[string]bool) string {
	for {
		id := s.newID()
		if id != "" && !taken[id] {
			return id
		}
	}
}

func validateTitle(raw string) (string, *ValidationError) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", &ValidationError{Field: "title", Message: "Title must be a non-empty string."}
	}
	return title, nil
}

func parseStart(raw string) (models.Timestamp, *ValidationError) {
	start, err := models.ParseTimestamp(raw)
	if err != nil {
		return models.Timestamp{}, &ValidationError{Field: "start_time", Message: "Invalid start_time format. Use YYYY-MM-DDTHH:MM:SS."}
	}
	return start, nil
}
