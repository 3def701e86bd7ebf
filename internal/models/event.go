package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk" json:"id"`
	Position    int       `bun:"position,notnull" json:"-"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description" json:"description"`
	StartTime   Timestamp `bun:"start_time,type:varchar(19),notnull" json:"start_time"`
	Notified    bool      `bun:"notified,notnull" json:"notified"`
}

// EventRequest is the body accepted by POST /events.
type EventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	StartTime   string  `json:"start_time"`
}

// EventUpdate carries a partial update. Nil fields are left untouched.
type EventUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
}

func (u EventUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.StartTime == nil
}

// Reminder is what the sweeper emits for an event entering the lookahead window.
type Reminder struct {
	EventID      string    `json:"event_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	StartTime    Timestamp `json:"start_time"`
	MinutesUntil int       `json:"minutes_until"`
	FiredAt      time.Time `json:"fired_at"`
}

func NewReminder(event Event, now time.Time) Reminder {
	return Reminder{
		EventID:      event.ID,
		Title:        event.Title,
		Description:  event.Description,
		StartTime:    event.StartTime,
		MinutesUntil: int(event.StartTime.WallClock().Sub(now).Round(time.Minute) / time.Minute),
		FiredAt:      now,
	}
}
