package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/model"
	"google.golang.org/api/calendar/v3"
)

// Published events start at this hour on the due date and last EventDuration.
const (
	EventStartHour = 9
	EventDuration  = 30 * time.Minute
)

// ExtendedPropertyKey links a calendar event back to its task id.
const ExtendedPropertyKey = "advtodo_id"

// ParseDueDate validates a user supplied due date. The empty string is allowed
// and means "no due date". "today" and "tomorrow" are resolved against now.
func ParseDueDate(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "today":
		return now.Format(model.DueDateLayout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(model.DueDateLayout), nil
	}
	if _, err := time.Parse(model.DueDateLayout, s); err != nil {
		return "", fmt.Errorf("invalid due date %q (want YYYY-MM-DD): %w", s, err)
	}
	return s, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dueDay is the calendar day a due date falls on in loc, ignoring any time of day.
func dueDay(dueDate string, loc *time.Location) (time.Time, bool) {
	due, ok := (model.Task{DueDate: dueDate}).Due(loc)
	if !ok {
		return time.Time{}, false
	}
	return startOfDay(due.In(loc)), true
}

// FormatDate renders a due date as "Today", "Tomorrow", "Jan 2" or, outside
// the current year, "Jan 2, 2006".
func FormatDate(dueDate string, now time.Time) string {
	due, ok := dueDay(dueDate, now.Location())
	if !ok {
		return strings.TrimSpace(dueDate)
	}
	today := startOfDay(now)
	switch {
	case due.Equal(today):
		return "Today"
	case due.Equal(today.AddDate(0, 0, 1)):
		return "Tomorrow"
	case due.Year() != now.Year():
		return due.Format("Jan 2, 2006")
	default:
		return due.Format("Jan 2")
	}
}

// IsPastDate reports whether dueDate is before today.
func IsPastDate(dueDate string, now time.Time) bool {
	due, ok := dueDay(dueDate, now.Location())
	return ok && due.Before(startOfDay(now))
}

// IsDueToday reports whether dueDate is today.
func IsDueToday(dueDate string, now time.Time) bool {
	due, ok := dueDay(dueDate, now.Location())
	return ok && due.Equal(startOfDay(now))
}

// IsOverdue reports whether an incomplete task's due date has passed.
func IsOverdue(task model.Task, now time.Time) bool {
	return !task.Completed && IsPastDate(task.DueDate, now)
}

// EventNeedsUpdate returns a patch event if the fields shared between a task's target event and the event
// already on the calendar differ, or nil when nothing changed.
func EventNeedsUpdate(existingEvent *calendar.Event, targetEvent *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existingEvent.Summary != targetEvent.Summary {
		patch.Summary = targetEvent.Summary
		needsUpdate = true
	}
	if existingEvent.Description != targetEvent.Description {
		patch.Description = targetEvent.Description
		needsUpdate = true
	}
	if existingEvent.ColorId != targetEvent.ColorId {
		patch.ColorId = targetEvent.ColorId
		needsUpdate = true
	}

	if existingEvent.Start == nil || existingEvent.End == nil {
		patch.Start = targetEvent.Start
		patch.End = targetEvent.End
		return patch, nil
	}
	existingStart, err := time.Parse(time.RFC3339, existingEvent.Start.DateTime)
	if err != nil {
		return nil, err
	}
	targetStart, err := time.Parse(time.RFC3339, targetEvent.Start.DateTime)
	if err != nil {
		return nil, err
	}
	existingEnd, err := time.Parse(time.RFC3339, existingEvent.End.DateTime)
	if err != nil {
		return nil, err
	}
	targetEnd, err := time.Parse(time.RFC3339, targetEvent.End.DateTime)
	if err != nil {
		return nil, err
	}
	if !existingStart.Equal(targetStart) || !existingEnd.Equal(targetEnd) {
		patch.Start = targetEvent.Start
		patch.End = targetEvent.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

// EventStart is when a task's calendar event begins: EventStartHour on the due date in loc.
func EventStart(task model.Task, loc *time.Location) (time.Time, bool) {
	due, ok := dueDay(task.DueDate, loc)
	if !ok {
		return time.Time{}, false
	}
	return due.Add(EventStartHour * time.Hour), true
}

// ConvertTaskToCalendarEvent builds the calendar event for a task. done marks tasks
// that sit in the completed collection. Tasks without a due date cannot be placed
// on a calendar and return an error.
func ConvertTaskToCalendarEvent(task model.Task, done bool, colorID string, now time.Time) (*calendar.Event, error) {
	start, ok := EventStart(task, now.Location())
	if !ok {
		return nil, fmt.Errorf("task has no usable due date: %d", task.ID)
	}
	end := start.Add(EventDuration)

	prefix := ""
	switch {
	case done || task.Completed:
		prefix = "✓"
	case IsOverdue(task, now):
		prefix = "!"
	}
	summary := task.Text
	if prefix != "" {
		summary = fmt.Sprintf("%s %s", prefix, task.Text)
	}

	var desc strings.Builder
	status := "active"
	if done {
		status = "completed"
	}
	desc.WriteString(fmt.Sprintf("Status: %s\n", status))
	desc.WriteString(fmt.Sprintf("Priority: %s\n", task.Priority))
	desc.WriteString(fmt.Sprintf("Category: %s\n", task.Category))
	desc.WriteString(fmt.Sprintf("Created: %s\n", task.CreatedAt))
	if task.CompletedAt != nil {
		desc.WriteString(fmt.Sprintf("Completed: %s\n", task.CompletedAt))
	}
	desc.WriteString(fmt.Sprintf("ID: %d\n", task.ID))

	return &calendar.Event{
		Summary: summary,
		ColorId: colorID,
		Start: &calendar.EventDateTime{
			DateTime: start.UTC().Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: end.UTC().Format(time.RFC3339),
		},
		Description: desc.String(),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				ExtendedPropertyKey: fmt.Sprintf("%d", task.ID),
			},
		},
	}, nil
}
