// Package todo owns the active and completed task collections and every
// operation that changes them. Each successful mutation is flushed to the
// Persister before the call returns.
package todo

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/model"
)

var ErrEmptyText = errors.New("task text is empty")

// Persister durably stores both collections. It reports success rather than
// returning an error; a failed save leaves the in-memory state as it is.
type Persister interface {
	Save(active, completed []model.Task) bool
}

// Loader is a Persister that can also produce the stored collections.
type Loader interface {
	Persister
	Load() (active, completed []model.Task, ok bool)
}

// AddInput describes a new task. Priority defaults to medium and an empty
// Category to the Uncategorized sentinel.
type AddInput struct {
	Text     string
	DueDate  string
	Priority model.Priority
	Category string
}

// EditInput replaces every editable field of an active task.
type EditInput struct {
	Text     string
	DueDate  string
	Priority model.Priority
	Category string
}

type Store struct {
	mu        sync.Mutex
	active    []model.Task
	completed []model.Task
	persister Persister
	now       func() time.Time
	log       *slog.Logger
	lastID    int64
	persisted bool
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithTasks seeds the store without flushing.
func WithTasks(active, completed []model.Task) Option {
	return func(s *Store) {
		s.active = append([]model.Task(nil), active...)
		s.completed = append([]model.Task(nil), completed...)
	}
}

// New creates an empty store. persister may be nil for a purely in-memory store.
func New(persister Persister, opts ...Option) *Store {
	s := &Store{
		persister: persister,
		now:       time.Now,
		log:       slog.Default(),
		persisted: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, t := range s.active {
		s.noteID(t.ID)
	}
	for _, t := range s.completed {
		s.noteID(t.ID)
	}
	return s
}

// Open creates a store holding whatever loader has saved. ok is false when
// loading failed; the store is then empty but still usable.
func Open(loader Loader, opts ...Option) (s *Store, ok bool) {
	active, completed, ok := loader.Load()
	opts = append([]Option{WithTasks(active, completed)}, opts...)
	return New(loader, opts...), ok
}

// Add appends a new active task. It fails only when text is blank.
func (s *Store) Add(in AddInput) (model.Task, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return model.Task{}, ErrEmptyText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	priority := in.Priority
	if !priority.Valid() {
		priority = model.PriorityMedium
	}
	task := model.Task{
		ID:        s.nextID(now),
		Text:      text,
		Category:  model.NormalizeCategory(in.Category),
		Priority:  priority,
		DueDate:   strings.TrimSpace(in.DueDate),
		Completed: false,
		CreatedAt: model.NewTimestamp(now),
	}
	s.active = append(s.active, task)
	s.flush()
	s.log.Debug("task added", "id", task.ID)
	return task, nil
}

// Edit rewrites text, due date, priority and category of an active task.
// Unknown ids and blank text are ignored.
func (s *Store) Edit(id int64, in EditInput) {
	if strings.TrimSpace(in.Text) == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.active, id)
	if i < 0 {
		return
	}
	priority := in.Priority
	if !priority.Valid() {
		priority = model.PriorityMedium
	}

	active := cloneTasks(s.active)
	active[i].Text = strings.TrimSpace(in.Text)
	active[i].DueDate = strings.TrimSpace(in.DueDate)
	active[i].Priority = priority
	active[i].Category = model.NormalizeCategory(in.Category)
	s.active = active
	s.flush()
}

// ToggleActive flips the completed flag of an active task without moving it
// to the completed collection.
func (s *Store) ToggleActive(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.active, id)
	if i < 0 {
		return
	}
	active := cloneTasks(s.active)
	active[i].Completed = !active[i].Completed
	s.active = active
	s.flush()
}

// Complete moves an active task to the front of the completed collection.
func (s *Store) Complete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.active, id)
	if i < 0 {
		return
	}
	task := s.active[i]
	completedAt := model.NewTimestamp(s.now())
	if completedAt.Before(task.CreatedAt.Time) {
		completedAt = task.CreatedAt
	}
	task.Completed = true
	task.CompletedAt = &completedAt

	active := make([]model.Task, 0, len(s.active)-1)
	active = append(active, s.active[:i]...)
	active = append(active, s.active[i+1:]...)

	completed := make([]model.Task, 0, len(s.completed)+1)
	completed = append(completed, task)
	completed = append(completed, s.completed...)

	s.active = active
	s.completed = completed
	s.flush()
	s.log.Debug("task completed", "id", id)
}

// DeleteActive removes every active task with the given id.
func (s *Store) DeleteActive(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept, removed := without(s.active, id)
	if !removed {
		return false
	}
	s.active = kept
	s.flush()
	return true
}

// DeleteCompleted removes every completed task with the given id.
func (s *Store) DeleteCompleted(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept, removed := without(s.completed, id)
	if !removed {
		return false
	}
	s.completed = kept
	s.flush()
	return true
}

// ClearCompleted empties the completed collection and returns how many tasks it held.
func (s *Store) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.completed)
	s.completed = []model.Task{}
	s.flush()
	return count
}

// Get looks a task up in either collection.
func (s *Store) Get(id int64) (task model.Task, completed bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.active, id); i >= 0 {
		return cloneTasks(s.active[i : i+1])[0], false, true
	}
	if i := indexOf(s.completed, id); i >= 0 {
		return cloneTasks(s.completed[i : i+1])[0], true, true
	}
	return model.Task{}, false, false
}

// Active returns a copy of the active collection in insertion order.
func (s *Store) Active() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.active)
}

// Completed returns a copy of the completed collection, newest first.
func (s *Store) Completed() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.completed)
}

// Persisted reports whether the most recent flush succeeded.
func (s *Store) Persisted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persisted
}

// flush must be called with mu held.
func (s *Store) flush() {
	if s.persister == nil {
		return
	}
	s.persisted = s.persister.Save(s.active, s.completed)
	if !s.persisted {
		s.log.Warn("tasks changed in memory but could not be saved")
	}
}

// nextID derives an id from the creation time, bumping past the highest id
// seen so far when two tasks share a millisecond.
func (s *Store) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) noteID(id int64) {
	if id > s.lastID {
		s.lastID = id
	}
}

func indexOf(tasks []model.Task, id int64) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func without(tasks []model.Task, id int64) ([]model.Task, bool) {
	kept := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	return kept, len(kept) != len(tasks)
}

// cloneTasks copies the slice and the CompletedAt pointers so callers never share state with the store.
func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		if out[i].CompletedAt != nil {
			at := *out[i].CompletedAt
			out[i].CompletedAt = &at
		}
	}
	return out
}
