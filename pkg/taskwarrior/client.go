package taskwarrior

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/model"
)

type Client struct {
	// Binary is the taskwarrior executable, "task" by default.
	Binary string
}

func NewClient() *Client {
	return &Client{Binary: "task"}
}

// Export runs `task <filter> export` with hooks disabled and parses the result.
func (c *Client) Export(filter []string) ([]Task, error) {
	args := append(append([]string{}, filter...), "export", "rc.hooks=0")
	cmd := exec.Command(c.Binary, args...)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("taskwarrior command failed: exit code %d, %s, stderr: %s",
				exitErr.ExitCode(), err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("taskwarrior command failed: %w", err)
	}
	return ParseTasks(bytes.NewReader(output))
}

// ParseTasks reads either a JSON array (the output of `task export`) or a
// stream of JSON objects (what hooks receive).
func ParseTasks(r io.Reader) ([]Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var tasks []Task
		if err := json.Unmarshal(data, &tasks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal taskwarrior output: %w", err)
		}
		return tasks, nil
	}

	var tasks []Task
	decoder := json.NewDecoder(bytes.NewReader(data))
	for {
		var task Task
		if err := decoder.Decode(&task); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ToTodos converts taskwarrior tasks into active and completed todos.
// Deleted and recurring template tasks are dropped. now stands in for a
// missing entry time. Ids come from the entry time; entry only has second
// precision, so a taken id is bumped to the next free millisecond.
func ToTodos(tasks []Task, now time.Time) (active, completed []model.Task) {
	active, completed = []model.Task{}, []model.Task{}
	used := make(map[int64]bool, len(tasks))
	for _, t := range tasks {
		if t.Status == DELETED || t.Status == RECURRING || t.Description == "" {
			continue
		}

		created := now
		if t.Entry.valid() {
			created = t.Entry.Time
		}
		id := created.UnixMilli()
		for used[id] {
			id++
		}
		used[id] = true

		todo := model.Task{
			ID:        id,
			Text:      t.Description,
			Category:  model.NormalizeCategory(t.Project),
			Priority:  priorityFromTaskwarrior(t.Priority),
			CreatedAt: model.NewTimestamp(created),
		}
		if t.Due.valid() {
			todo.DueDate = t.Due.Local().Format(model.DueDateLayout)
		}

		if t.Status == COMPLETED {
			end := created
			if t.End.valid() {
				end = t.End.Time
			}
			at := model.NewTimestamp(end)
			todo.Completed = true
			todo.CompletedAt = &at
			completed = append(completed, todo)
			continue
		}
		active = append(active, todo)
	}
	return active, completed
}

func priorityFromTaskwarrior(p string) model.Priority {
	switch p {
	case "H":
		return model.PriorityHigh
	case "L":
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}
