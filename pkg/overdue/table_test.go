package overdue

import (
	"testing"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/storage"
)

func TestSweep(t *testing.T) {
	kv := storage.NewMemoryKV()
	table, err := NewTable(kv)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	table.Update(1, "evt-1", "Pay rent", now.Add(-time.Hour))
	table.Update(2, "evt-2", "Walk dog", now.Add(time.Hour))
	table.Update(3, "evt-3", "No date", time.Time{})

	swept := table.Sweep(now)
	if len(swept) != 1 || swept[0].EventID != "evt-1" {
		t.Fatalf("Expected evt-1 swept, got %+v", swept)
	}
	if err := table.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := NewTable(kv)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(reloaded.Entries) != 1 {
		t.Errorf("Expected 1 pending entry after sweep, got %d", len(reloaded.Entries))
	}
	if _, ok := reloaded.Entries[2]; !ok {
		t.Error("Expected entry 2 to remain pending")
	}
}
