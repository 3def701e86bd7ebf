package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"event-scheduler/internal/events/store"
	"event-scheduler/internal/logger"
	"event-scheduler/internal/models"
	"event-scheduler/internal/notify"
)

const (
	DefaultInterval = time.Minute
	DefaultWindow   = time.Hour
)

// State is the reminder view of an event. Only Notified is persisted; Pending
// and Due are recomputed on every sweep.
type State int

const (
	Pending State = iota
	Due
	Notified
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Due:
		return "DUE"
	case Notified:
		return "NOTIFIED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Classify reports whether event is due at now: not yet notified and starting
// within [now, now+window], both ends inclusive.
func Classify(event models.Event, now time.Time, window time.Duration) State {
	if event.Notified {
		return Notified
	}
	delta := event.StartTime.WallClock().Sub(now)
	if delta >= 0 && delta <= window {
		return Due
	}
	return Pending
}

// EventStore is the part of *store.Store the sweeper relies on.
type EventStore interface {
	List() []models.Event
	MarkNotified(ctx context.Context, id string, start models.Timestamp) (bool, error)
}

type SweepResult struct {
	Checked int
	Fired   int
	Failed  int
}

type Sweeper struct {
	Store    EventStore
	Notifier notify.Notifier
	Interval time.Duration
	Window   time.Duration
	Clock    func() time.Time
	Logger   *logger.Logger
}

func NewSweeper(s EventStore, n notify.Notifier, interval, window time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Sweeper{
		Store:    s,
		Notifier: n,
		Interval: interval,
		Window:   window,
		Clock:    time.Now,
		Logger:   log,
	}
}

// Sweep runs a single pass. The flag is persisted before the reminder is
// emitted: if persisting fails nothing is emitted and the event stays due for
// the next tick.
func (s *Sweeper) Sweep(ctx context.Context) SweepResult {
	now := s.Clock()
	var res SweepResult

	for _, event := range s.Store.List() {
		res.Checked++
		if Classify(event, now, s.Window) != Due {
			continue
		}

		flipped, err := s.Store.MarkNotified(ctx, event.ID, event.StartTime)
		if errors.Is(err, store.ErrNotFound) {
			s.Logger.Debug("REMINDER", fmt.Sprintf("Event %s deleted during sweep", event.ID))
			continue
		}
		if err != nil {
			res.Failed++
			s.Logger.Error("REMINDER", fmt.Sprintf("Failed to mark event %s notified: %v", event.ID, err))
			continue
		}
		if !flipped {
			continue
		}

		res.Fired++
		if err := s.Notifier.Notify(ctx, models.NewReminder(event, now)); err != nil {
			res.Failed++
			s.Logger.Error("REMINDER", fmt.Sprintf("Failed to deliver reminder for event %s: %v", event.ID, err))
			continue
		}
		s.Logger.LogReminder(event.ID, fmt.Sprintf("reminder sent for %q starting %s", event.Title, event.StartTime))
	}

	if res.Fired > 0 || res.Failed > 0 {
		s.Logger.Info("REMINDER", fmt.Sprintf("Sweep checked=%d fired=%d failed=%d", res.Checked, res.Fired, res.Failed))
	}
	return res
}

// Run sweeps once per Interval until ctx is cancelled. The first sweep
// happens one interval after Run starts.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Logger.Info("REMINDER", fmt.Sprintf("Sweeper started (interval %s, window %s)", s.Interval, s.Window))
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("REMINDER", "Sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Start runs the sweeper in its own goroutine. The returned function stops it
// and waits for the current sweep to finish.
func (s *Sweeper) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run(ctx)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}
