package index

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/harrisonrobin/advtodo/pkg/storage"
)

// StorageKey is where the index lives in the KV store.
const StorageKey = "calendarEvents"

// EventIndex maps task ids to the calendar events published for them.
type EventIndex struct {
	Mappings map[int64]string `json:"mappings"`
	kv       storage.KV
	mu       sync.RWMutex
	dirty    bool
}

func NewEventIndex(kv storage.KV) (*EventIndex, error) {
	idx := &EventIndex{
		Mappings: make(map[int64]string),
		kv:       kv,
	}
	if err := idx.Load(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *EventIndex) Load() error {
	raw, ok, err := idx.kv.Get(StorageKey)
	if err != nil || !ok {
		return err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := json.Unmarshal([]byte(raw), &idx.Mappings); err != nil {
		return fmt.Errorf("failed to decode event index: %w", err)
	}
	if idx.Mappings == nil {
		idx.Mappings = make(map[int64]string)
	}
	return nil
}

func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	b, err := json.Marshal(idx.Mappings)
	if err != nil {
		return err
	}
	if err := idx.kv.Set(StorageKey, string(b)); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *EventIndex) Get(taskID int64) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[taskID]
}

func (idx *EventIndex) Set(taskID int64, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[taskID] != eventID {
		idx.Mappings[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(taskID int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[taskID]; exists {
		delete(idx.Mappings, taskID)
		idx.dirty = true
	}
}

// TaskIDs lists every task that currently has an event.
func (idx *EventIndex) TaskIDs() []int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]int64, 0, len(idx.Mappings))
	for id := range idx.Mappings {
		ids = append(ids, id)
	}
	return ids
}
