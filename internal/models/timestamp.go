package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the only accepted start_time literal. No zone suffix.
const TimestampLayout = "2006-01-02T15:04:05"

// Timestamp is a wall-clock time without a zone. The fields are held in UTC
// so the literal survives unchanged; WallClock places them in the local zone
// when they are compared against the current time.
type Timestamp struct {
	time.Time
}

func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(TimestampLayout, s)
	// time.Parse tolerates single-digit hours and fractional seconds; reject
	// anything that does not format back to the same literal.
	if err != nil || t.Format(TimestampLayout) != s {
		return Timestamp{}, fmt.Errorf("invalid start_time %q, expected YYYY-MM-DDTHH:MM:SS", s)
	}
	return Timestamp{Time: t}, nil
}

func MustTimestamp(s string) Timestamp {
	ts, err := ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return ts
}

// NewTimestamp keeps the wall-clock reading of t and drops its zone.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// WallClock returns the timestamp as an instant in the local zone. A reading
// that falls into a daylight-saving gap is normalized by time.Date; the
// stored literal is not affected.
func (t Timestamp) WallClock() time.Time {
	return t.InZone(time.Local)
}

// InZone places the wall-clock reading in loc.
func (t Timestamp) InZone(loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func (t Timestamp) String() string {
	return t.Format(TimestampLayout)
}

func (t Timestamp) Equal(other Timestamp) bool {
	return t.Time.Equal(other.Time)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("start_time must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the literal form so the column stays human readable.
func (t Timestamp) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *Timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		*t = parsed
	case []byte:
		return t.Scan(string(v))
	case time.Time:
		*t = NewTimestamp(v)
	case nil:
		*t = Timestamp{}
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
	return nil
}
