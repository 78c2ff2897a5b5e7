package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/harrisonrobin/advtodo/pkg/model"
)

// Adapter persists the active and completed collections to a KV store.
// Faults never escape: they are logged and reported as a false result.
type Adapter struct {
	kv  KV
	log *slog.Logger
}

func NewAdapter(kv KV, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{kv: kv, log: log}
}

// KV exposes the underlying store so other components can keep their own keys next to the tasks.
func (a *Adapter) KV() KV {
	return a.kv
}

// Load reads both collections. Absent keys are empty collections.
func (a *Adapter) Load() (active, completed []model.Task, ok bool) {
	active, err := a.readTasks(ActiveKey)
	if err != nil {
		a.log.Error("error loading data", "key", ActiveKey, "error", err)
		return nil, nil, false
	}
	completed, err = a.readTasks(CompletedKey)
	if err != nil {
		a.log.Error("error loading data", "key", CompletedKey, "error", err)
		return nil, nil, false
	}
	return active, completed, true
}

// Save writes both collections. A failure after the first write can leave
// the two keys out of step; the next successful Save repairs that.
func (a *Adapter) Save(active, completed []model.Task) bool {
	if err := a.writeTasks(ActiveKey, active); err != nil {
		a.log.Error("error saving data", "key", ActiveKey, "error", err)
		return false
	}
	if err := a.writeTasks(CompletedKey, completed); err != nil {
		a.log.Error("error saving data", "key", CompletedKey, "error", err)
		return false
	}
	a.log.Debug("saved tasks", "active", len(active), "completed", len(completed))
	return true
}

func (a *Adapter) readTasks(key string) ([]model.Task, error) {
	raw, ok, err := a.kv.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" || raw == "null" {
		return []model.Task{}, nil
	}

	var tasks []model.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (a *Adapter) writeTasks(key string, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return a.kv.Set(key, string(b))
}
