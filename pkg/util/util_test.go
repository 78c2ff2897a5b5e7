package util

import (
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/model"
	"google.golang.org/api/calendar/v3"
)

var now = time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)

func TestParseDueDate(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"2024-07-01": "2024-07-01",
		"today":      "2024-06-15",
		"Tomorrow":   "2024-06-16",
	}
	for in, want := range cases {
		got, err := ParseDueDate(in, now)
		if err != nil || got != want {
			t.Errorf("ParseDueDate(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseDueDate("07/01/2024", now); err == nil {
		t.Error("Expected error for non ISO date")
	}
}

func TestFormatDate(t *testing.T) {
	cases := map[string]string{
		"2024-06-15": "Today",
		"2024-06-16": "Tomorrow",
		"2024-07-04": "Jul 4",
		"2025-01-02": "Jan 2, 2025",
		"":           "",
	}
	for in, want := range cases {
		if got := FormatDate(in, now); got != want {
			t.Errorf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPastAndToday(t *testing.T) {
	if !IsPastDate("2024-06-14", now) || IsPastDate("2024-06-15", now) || IsPastDate("", now) {
		t.Error("IsPastDate misclassified")
	}
	if !IsDueToday("2024-06-15", now) || IsDueToday("2024-06-16", now) {
		t.Error("IsDueToday misclassified")
	}
	if !IsDueToday("2024-06-15T18:00", now) || IsPastDate("2024-06-15T08:00", now) {
		t.Error("Expected a time of day to count as its date")
	}
	if IsOverdue(model.Task{DueDate: "2024-06-01", Completed: true}, now) {
		t.Error("Expected completed task never overdue")
	}
	if !IsOverdue(model.Task{DueDate: "2024-06-01"}, now) {
		t.Error("Expected past due task to be overdue")
	}
}

func TestConvertTaskToCalendarEvent(t *testing.T) {
	task := model.Task{
		ID:        1718000000000,
		Text:      "Test Task",
		Category:  "Work",
		Priority:  model.PriorityHigh,
		DueDate:   "2024-06-10",
		CreatedAt: model.NewTimestamp(now.AddDate(0, 0, -10)),
	}

	event, err := ConvertTaskToCalendarEvent(task, false, "5", now)
	if err != nil {
		t.Fatalf("ConvertTaskToCalendarEvent failed: %v", err)
	}

	if event.ExtendedProperties == nil || event.ExtendedProperties.Private[ExtendedPropertyKey] != "1718000000000" {
		t.Errorf("Expected task id in extended properties, got %+v", event.ExtendedProperties)
	}
	if event.Summary != "! Test Task" {
		t.Errorf("Expected overdue prefix, got %q", event.Summary)
	}
	if event.ColorId != "5" {
		t.Errorf("Expected color 5, got %s", event.ColorId)
	}
	if event.Start.DateTime != "2024-06-10T09:00:00Z" || event.End.DateTime != "2024-06-10T09:30:00Z" {
		t.Errorf("Unexpected event window %s - %s", event.Start.DateTime, event.End.DateTime)
	}
	if !strings.Contains(event.Description, "Category: Work") || !strings.Contains(event.Description, "Priority: high") {
		t.Errorf("Expected description to contain category and priority, got: %s", event.Description)
	}

	done, err := ConvertTaskToCalendarEvent(task, true, "5", now)
	if err != nil {
		t.Fatalf("ConvertTaskToCalendarEvent failed: %v", err)
	}
	if done.Summary != "✓ Test Task" {
		t.Errorf("Expected done prefix, got %q", done.Summary)
	}

	if _, err := ConvertTaskToCalendarEvent(model.Task{ID: 1, Text: "no date"}, false, "1", now); err == nil {
		t.Error("Expected error for a task without due date")
	}
}

func TestEventNeedsUpdate(t *testing.T) {
	task := model.Task{ID: 1, Text: "Same", DueDate: "2024-06-20", Category: "c", Priority: model.PriorityLow}
	target, err := ConvertTaskToCalendarEvent(task, false, "2", now)
	if err != nil {
		t.Fatal(err)
	}

	existing := *target
	patch, err := EventNeedsUpdate(&existing, target)
	if err != nil || patch != nil {
		t.Fatalf("Expected no patch for identical events, got %+v, %v", patch, err)
	}

	existing.Summary = "Old"
	existing.Start = &calendar.EventDateTime{DateTime: "2024-06-19T09:00:00Z"}
	patch, err = EventNeedsUpdate(&existing, target)
	if err != nil {
		t.Fatalf("EventNeedsUpdate failed: %v", err)
	}
	if patch == nil || patch.Summary != "Same" || patch.Start == nil {
		t.Errorf("Expected summary and time patch, got %+v", patch)
	}
	if patch.ColorId != "" {
		t.Error("Expected unchanged color to be left out of the patch")
	}
}
