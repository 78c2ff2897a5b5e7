package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UncategorizedCategory is stored in place of an empty category.
const UncategorizedCategory = "Uncategorized"

// DueDateLayout is the layout of Task.DueDate.
const DueDateLayout = "2006-01-02"

// dueLayouts are tried in order by Task.Due. Imported documents may carry a
// time of day after the date.
var dueLayouts = []string{
	DueDateLayout,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority maps user or imported input onto one of the three priorities.
// Anything unrecognised, including the empty string, becomes medium.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Rank orders priorities for sorting: high(0) < medium(1) < low(2).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

func (p *Priority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("failed to decode priority %s: %w", b, err)
	}
	*p = ParsePriority(s)
	return nil
}

// NormalizeCategory trims the category and substitutes the sentinel for empty input.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UncategorizedCategory
	}
	return s
}

// Timestamp is a UTC instant encoded the way a browser's toISOString does
// (millisecond precision, trailing Z).
type Timestamp struct {
	time.Time
}

const isoLayout = "2006-01-02T15:04:05.000Z"

// NewTimestamp truncates t to milliseconds so an encode/decode round trip is lossless.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(isoLayout)
}

// MarshalJSON implements the json.Marshaler interface for Timestamp.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON accepts any RFC 3339 value; an empty string decodes to the zero time.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		ts.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("failed to parse timestamp '%s': %w", s, err)
	}
	ts.Time = t.UTC()
	return nil
}

// Task is a todo item. Active and completed tasks share this shape; which
// collection holds a task decides whether it has been completed for good.
type Task struct {
	ID          int64      `json:"id"`
	Text        string     `json:"text"`
	Category    string     `json:"category"`
	Priority    Priority   `json:"priority"`
	DueDate     string     `json:"dueDate"`
	Completed   bool       `json:"completed"`
	CreatedAt   Timestamp  `json:"createdAt"`
	CompletedAt *Timestamp `json:"completedAt,omitempty"`
}

// Normalize enforces the category and priority invariants in place.
func (t *Task) Normalize() {
	t.Category = NormalizeCategory(t.Category)
	if !t.Priority.Valid() {
		t.Priority = PriorityMedium
	}
}

// HasDueDate reports whether the task carries a due date.
func (t Task) HasDueDate() bool {
	return strings.TrimSpace(t.DueDate) != ""
}

// Due parses DueDate in loc, with or without a time of day. ok is false when
// there is no due date or it does not parse.
func (t Task) Due(loc *time.Location) (due time.Time, ok bool) {
	if !t.HasDueDate() {
		return time.Time{}, false
	}
	s := strings.TrimSpace(t.DueDate)
	for _, layout := range dueLayouts {
		if d, err := time.ParseInLocation(layout, s, loc); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
