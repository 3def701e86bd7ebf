// Package notify delivers reminders fired by the sweeper.
package notify

import (
	"context"
	"errors"
	"fmt"

	"event-scheduler/internal/models"
)

type Notifier interface {
	Notify(ctx context.Context, reminder models.Reminder) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, reminder models.Reminder) error

func (f NotifierFunc) Notify(ctx context.Context, reminder models.Reminder) error {
	return f(ctx, reminder)
}

// Multi delivers to every notifier, even when an earlier one fails, and
// returns the joined errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, reminder models.Reminder) error {
	var errs []error
	for i, n := range m {
		if err := n.Notify(ctx, reminder); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
