package overdue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/storage"
)

// StorageKey is where the table lives in the KV store.
const StorageKey = "calendarOverdue"

type Entry struct {
	EventID string    `json:"event_id"`
	Summary string    `json:"summary"`
	Due     time.Time `json:"due"`
}

// Table remembers published events of active tasks that are not overdue yet,
// so a sweep can flag them once their due time passes.
type Table struct {
	Entries map[int64]Entry `json:"entries"`
	kv      storage.KV
	dirty   bool
}

func NewTable(kv storage.KV) (*Table, error) {
	t := &Table{
		Entries: make(map[int64]Entry),
		kv:      kv,
	}
	if err := t.Load(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) Load() error {
	raw, ok, err := t.kv.Get(StorageKey)
	if err != nil || !ok {
		return err
	}
	if err := json.Unmarshal([]byte(raw), t); err != nil {
		return fmt.Errorf("failed to decode overdue table: %w", err)
	}
	if t.Entries == nil {
		t.Entries = make(map[int64]Entry)
	}
	return nil
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := t.kv.Set(StorageKey, string(b)); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

// Update records a task whose event should be flagged at due.
// A zero due removes the task instead.
func (t *Table) Update(taskID int64, eventID string, summary string, due time.Time) {
	if due.IsZero() {
		t.Remove(taskID)
		return
	}
	old, exists := t.Entries[taskID]
	if !exists || !old.Due.Equal(due) || old.EventID != eventID || old.Summary != summary {
		t.Entries[taskID] = Entry{
			EventID: eventID,
			Summary: summary,
			Due:     due,
		}
		t.dirty = true
	}
}

func (t *Table) Remove(taskID int64) {
	if _, exists := t.Entries[taskID]; exists {
		delete(t.Entries, taskID)
		t.dirty = true
	}
}

// Sweep returns entries that have become overdue (Due < now) and removes them.
func (t *Table) Sweep(now time.Time) []Entry {
	var swept []Entry
	for id, entry := range t.Entries {
		if entry.Due.Before(now) {
			swept = append(swept, entry)
			delete(t.Entries, id)
			t.dirty = true
		}
	}
	return swept
}
