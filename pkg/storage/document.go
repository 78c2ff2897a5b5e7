package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/model"
)

// ExportVersion is written into every export document.
const ExportVersion = "1.0"

var ErrMalformedImport = errors.New("invalid file format")

// Export is the portable document produced by WriteExport.
type Export struct {
	Version    string          `json:"version"`
	ExportDate model.Timestamp `json:"exportDate"`
	Todos      []model.Task    `json:"todos"`
	Completed  []model.Task    `json:"completed"`
	TotalTasks int             `json:"totalTasks"`
}

// Import is the part of a document that ParseImport keeps.
type Import struct {
	Todos     []model.Task
	Completed []model.Task
}

// Total is the number of tasks carried by the import.
func (i Import) Total() int {
	return len(i.Todos) + len(i.Completed)
}

// NewExport builds the export document for the given collections.
func NewExport(active, completed []model.Task, now time.Time) Export {
	if active == nil {
		active = []model.Task{}
	}
	if completed == nil {
		completed = []model.Task{}
	}
	return Export{
		Version:    ExportVersion,
		ExportDate: model.NewTimestamp(now),
		Todos:      active,
		Completed:  completed,
		TotalTasks: len(active) + len(completed),
	}
}

// WriteExport encodes the export document to w, indented by two spaces.
func WriteExport(w io.Writer, active, completed []model.Task, now time.Time) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(NewExport(active, completed, now)); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// ExportFileName is the default file name for an export made at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("todos-%s.json", now.UTC().Format(model.DueDateLayout))
}

// ParseImport decodes an import document. Both "todos" and "completed" must be
// present as arrays; other fields are ignored. Nothing is returned on failure.
func ParseImport(r io.Reader) (Import, error) {
	var doc struct {
		Todos     json.RawMessage `json:"todos"`
		Completed json.RawMessage `json:"completed"`
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return Import{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Import{}, fmt.Errorf("%w: unexpected data after the document", ErrMalformedImport)
	}

	todos, err := decodeTaskArray("todos", doc.Todos)
	if err != nil {
		return Import{}, err
	}
	completed, err := decodeTaskArray("completed", doc.Completed)
	if err != nil {
		return Import{}, err
	}
	return Import{Todos: todos, Completed: completed}, nil
}

func decodeTaskArray(field string, raw json.RawMessage) ([]model.Task, error) {
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: %q must be an array", ErrMalformedImport, field)
	}

	var tasks []model.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedImport, field, err)
	}
	for i := range tasks {
		tasks[i].Normalize()
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}
