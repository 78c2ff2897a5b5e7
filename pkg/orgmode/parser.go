package orgmode

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/model"
)

var (
	headlineRegex = regexp.MustCompile(`^\*+\s+(TODO|DONE)\s*(?:\[#([A-Z])\])?\s*(.*?)(?:\s+(:([\w@]+(:[\w@]+)*):))?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})[^>]*>`)
	closedRegex   = regexp.MustCompile(`CLOSED:\s+\[(\d{4}-\d{2}-\d{2}\s+[A-Za-z]{2,3}(?:\s+\d{2}:\d{2})?)\]`)
)

// Entry is a TODO or DONE headline of an Org-mode file.
type Entry struct {
	Done     bool
	Priority string // A, B or C
	Title    string
	Tags     []string
	Deadline string // YYYY-MM-DD
	Closed   time.Time
}

// Parse reads TODO and DONE headlines at any level together with their
// DEADLINE and CLOSED planning lines. Other headlines end the current entry.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var entries []Entry
	var current *Entry

	flush := func() {
		if current != nil && current.Title != "" {
			entries = append(entries, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "*") {
			flush()
			matches := headlineRegex.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			current = &Entry{
				Done:     matches[1] == "DONE",
				Priority: matches[2],
				Title:    strings.TrimSpace(matches[3]),
			}
			if matches[4] != "" {
				current.Tags = strings.Split(strings.Trim(matches[4], ":"), ":")
			}
			continue
		}
		if current == nil {
			continue
		}

		if m := deadlineRegex.FindStringSubmatch(line); m != nil {
			current.Deadline = m[1]
		}
		if m := closedRegex.FindStringSubmatch(line); m != nil {
			if closed, ok := parseOrgTimestamp(m[1]); ok {
				current.Closed = closed
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseOrgTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02 Mon 15:04", "2006-01-02 Mon"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToTodos converts entries into active and completed todos. Ids are derived
// from now, one millisecond apart, in file order.
func ToTodos(entries []Entry, now time.Time) (active, completed []model.Task) {
	active, completed = []model.Task{}, []model.Task{}
	for i, e := range entries {
		created := now.Add(time.Duration(i) * time.Millisecond)
		todo := model.Task{
			ID:        created.UnixMilli(),
			Text:      e.Title,
			Category:  model.UncategorizedCategory,
			Priority:  priorityFromOrg(e.Priority),
			DueDate:   e.Deadline,
			CreatedAt: model.NewTimestamp(created),
		}
		if len(e.Tags) > 0 {
			todo.Category = model.NormalizeCategory(e.Tags[0])
		}

		if !e.Done {
			active = append(active, todo)
			continue
		}
		closed := created
		if !e.Closed.IsZero() {
			closed = e.Closed
		}
		// A task cannot be created after it was closed.
		if closed.Before(created) {
			todo.CreatedAt = model.NewTimestamp(closed)
		}
		at := model.NewTimestamp(closed)
		todo.Completed = true
		todo.CompletedAt = &at
		completed = append(completed, todo)
	}
	return active, completed
}

func priorityFromOrg(p string) model.Priority {
	switch p {
	case "A":
		return model.PriorityHigh
	case "C":
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}
