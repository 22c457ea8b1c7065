package projectmodels

import (
	"encoding/json"
	"fmt"
	"time"

	teammodels "github.com/nikhil/orgchart/internal/models/teams"
)

// Status is the lifecycle stage of a project.
type Status int

const (
	StatusNotStarted Status = 1
	StatusStarted    Status = 2
	StatusEnded      Status = 3
)

var statusDisplay = map[Status]string{
	StatusNotStarted: "Not started",
	StatusStarted:    "Started",
	StatusEnded:      "Ended",
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusDisplay[s]
	return ok
}

// String returns the human readable status.
func (s Status) String() string {
	if display, ok := statusDisplay[s]; ok {
		return display
	}
	return "Unknown status"
}

// MarshalJSON renders the status the way clients display it.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the integer form sent by clients.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw int
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be an integer: %w", err)
	}
	*s = Status(raw)
	return nil
}

const dateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	*d = parsed
	return nil
}

// Project groups teams working towards one goal.
type Project struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	OwnerID     int64                  `json:"owner"`
	Status      Status                 `json:"status"`
	Description string                 `json:"description"`
	Started     Date                   `json:"started"`
	Ended       Date                   `json:"ended"`
	CreatedAt   int64                  `json:"-"`
	UpdatedAt   int64                  `json:"-"`
	Teams       []teammodels.TeamShort `json:"teams,omitempty"`
}
