// Package filters derives display-ready views from the task collections.
// Every function here is pure: inputs are never modified and the same inputs
// always give the same output.
package filters

import (
	"strings"

	"github.com/harrisonrobin/advtodo/pkg/model"
)

type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterActive    FilterMode = "active"
	FilterCompleted FilterMode = "completed"
	FilterHigh      FilterMode = "high"
)

// ParseFilterMode maps user input onto a FilterMode; anything unknown is FilterAll.
func ParseFilterMode(s string) FilterMode {
	switch m := FilterMode(strings.ToLower(strings.TrimSpace(s))); m {
	case FilterActive, FilterCompleted, FilterHigh:
		return m
	default:
		return FilterAll
	}
}

// SelectActiveView applies the status filter and then the search term to the
// active collection, keeping the original relative order. search is expected
// to be lower-cased already.
func SelectActiveView(active []model.Task, mode FilterMode, search string) []model.Task {
	result := make([]model.Task, 0, len(active))
	for _, t := range active {
		if keepForMode(t, mode) && Matches(t, search) {
			result = append(result, t)
		}
	}
	return result
}

// SelectCompletedView applies only the search term; everything in the
// completed collection is completed already.
func SelectCompletedView(completed []model.Task, search string) []model.Task {
	result := make([]model.Task, 0, len(completed))
	for _, t := range completed {
		if Matches(t, search) {
			result = append(result, t)
		}
	}
	return result
}

// Matches reports whether search is a substring of the task's text or category,
// ignoring case. An empty search matches everything.
func Matches(t model.Task, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Text), search) ||
		strings.Contains(strings.ToLower(t.Category), search)
}

func keepForMode(t model.Task, mode FilterMode) bool {
	switch mode {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterHigh:
		return t.Priority == model.PriorityHigh && !t.Completed
	default:
		return true
	}
}
