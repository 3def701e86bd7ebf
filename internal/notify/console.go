package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"event-scheduler/internal/logger"
	"event-scheduler/internal/models"
)

// ConsoleNotifier prints a human readable reminder line.
type ConsoleNotifier struct {
	Out    io.Writer
	Logger *logger.Logger
}

func NewConsoleNotifier(log *logger.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{Out: os.Stdout, Logger: log}
}

func (c *ConsoleNotifier) Notify(ctx context.Context, r models.Reminder) error {
	line := fmt.Sprintf("🔔 Reminder: %q starts at %s (in %d min)", r.Title, r.StartTime, r.MinutesUntil)
	if _, err := color.New(color.FgYellow, color.Bold).Fprintln(c.Out, line); err != nil {
		return fmt.Errorf("write reminder: %w", err)
	}
	if c.Logger != nil {
		c.Logger.LogReminder(r.EventID, "console reminder printed")
	}
	return nil
}
