package colors

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/model"
	"github.com/harrisonrobin/advtodo/pkg/storage"
)

// StorageKey is where the cache lives in the KV store.
const StorageKey = "calendarColors"

// Google Calendar event colours 1..11; 8 (graphite) is kept for uncategorized tasks.
const (
	uncategorizedColor = "8"
	firstColor         = 1
	lastColor          = 11
)

type CategoryState struct {
	ColorID  string    `json:"color_id"`
	LastUsed time.Time `json:"last_used"`
}

// ColorCache hands every category a stable event colour and recycles the
// least recently used one once all colours are taken.
type ColorCache struct {
	Categories map[string]*CategoryState `json:"categories"`
	kv         storage.KV
	now        func() time.Time
	dirty      bool
}

func NewColorCache(kv storage.KV) (*ColorCache, error) {
	cache := &ColorCache{
		Categories: make(map[string]*CategoryState),
		kv:         kv,
		now:        time.Now,
	}
	if err := cache.Load(); err != nil {
		return nil, err
	}
	return cache, nil
}

func (c *ColorCache) Load() error {
	raw, ok, err := c.kv.Get(StorageKey)
	if err != nil || !ok {
		return err
	}
	if err := json.Unmarshal([]byte(raw), &c.Categories); err != nil {
		return fmt.Errorf("failed to decode color cache: %w", err)
	}
	if c.Categories == nil {
		c.Categories = make(map[string]*CategoryState)
	}
	return nil
}

func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	b, err := json.Marshal(c.Categories)
	if err != nil {
		return err
	}
	if err := c.kv.Set(StorageKey, string(b)); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// GetColorID returns the colour for a category, assigning one if needed.
func (c *ColorCache) GetColorID(category string) string {
	if category == "" || category == model.UncategorizedCategory {
		return uncategorizedColor
	}

	if state, exists := c.Categories[category]; exists {
		state.LastUsed = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assignColor(category)
}

func (c *ColorCache) assignColor(category string) string {
	used := make(map[string]bool)
	for _, s := range c.Categories {
		used[s.ColorID] = true
	}

	for i := firstColor; i <= lastColor; i++ {
		id := strconv.Itoa(i)
		if id == uncategorizedColor || used[id] {
			continue
		}
		c.Categories[category] = &CategoryState{ColorID: id, LastUsed: c.now()}
		c.dirty = true
		return id
	}

	// All colours taken: evict the least recently used category.
	var oldest string
	var oldestTime time.Time
	first := true
	for name, s := range c.Categories {
		if first || s.LastUsed.Before(oldestTime) {
			oldest, oldestTime, first = name, s.LastUsed, false
		}
	}

	recycled := c.Categories[oldest].ColorID
	delete(c.Categories, oldest)
	c.Categories[category] = &CategoryState{ColorID: recycled, LastUsed: c.now()}
	c.dirty = true
	return recycled
}
