package storage

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTasks() (active, completed []model.Task) {
	created := model.NewTimestamp(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	done := model.NewTimestamp(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC))
	active = []model.Task{
		{ID: 1, Text: "Buy milk", Category: "Grocery", Priority: model.PriorityHigh, DueDate: "2024-01-03", CreatedAt: created},
		{ID: 2, Text: "Call mom", Category: model.UncategorizedCategory, Priority: model.PriorityLow, CreatedAt: created},
	}
	completed = []model.Task{
		{ID: 3, Text: "File taxes", Category: "Admin", Priority: model.PriorityMedium, Completed: true, CreatedAt: created, CompletedAt: &done},
	}
	return active, completed
}

func TestKVBackends(t *testing.T) {
	dir := t.TempDir()
	backends := map[string]func() (KV, error){
		"memory": func() (KV, error) { return NewMemoryKV(), nil },
		"file":   func() (KV, error) { return NewFileKV(filepath.Join(dir, "nested", "todos.json")) },
		"sqlite": func() (KV, error) { return NewSQLiteKV(filepath.Join(dir, "todos.db")) },
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			kv, err := open()
			if err != nil {
				t.Fatalf("open failed: %v", err)
			}
			defer kv.Close()

			if _, ok, err := kv.Get("missing"); err != nil || ok {
				t.Fatalf("Expected missing key to report ok=false, got ok=%v err=%v", ok, err)
			}
			if err := kv.Set("k", "v1"); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := kv.Set("k", "v2"); err != nil {
				t.Fatalf("Set (overwrite) failed: %v", err)
			}
			v, ok, err := kv.Get("k")
			if err != nil || !ok || v != "v2" {
				t.Errorf("Expected v2, got %q ok=%v err=%v", v, ok, err)
			}
		})
	}
}

func TestFileKVPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")

	kv, err := NewFileKV(path)
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}
	if err := kv.Set(ActiveKey, "[]"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected store file to exist: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	reopened, err := NewFileKV(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if v, ok, _ := reopened.Get(ActiveKey); !ok || v != "[]" {
		t.Errorf("Expected persisted value, got %q ok=%v", v, ok)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("redis", "")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Expected ErrUnknownBackend, got %v", err)
	}
}

func TestAdapterLoadEmpty(t *testing.T) {
	a := NewAdapter(NewMemoryKV(), quietLogger())
	active, completed, ok := a.Load()
	if !ok {
		t.Fatal("Expected Load on an empty store to succeed")
	}
	if len(active) != 0 || len(completed) != 0 {
		t.Errorf("Expected empty collections, got %d/%d", len(active), len(completed))
	}
}

func TestAdapterSaveLoad(t *testing.T) {
	a := NewAdapter(NewMemoryKV(), quietLogger())
	active, completed := sampleTasks()

	if !a.Save(active, completed) {
		t.Fatal("Save failed")
	}
	gotActive, gotCompleted, ok := a.Load()
	if !ok {
		t.Fatal("Load failed")
	}
	if len(gotActive) != 2 || len(gotCompleted) != 1 {
		t.Fatalf("Expected 2/1 tasks, got %d/%d", len(gotActive), len(gotCompleted))
	}
	if gotActive[0].Text != "Buy milk" || gotCompleted[0].CompletedAt == nil {
		t.Errorf("Unexpected round trip: %+v %+v", gotActive[0], gotCompleted[0])
	}
}

func TestAdapterLoadCorrupt(t *testing.T) {
	kv := NewMemoryKV()
	kv.Set(ActiveKey, "{not json")
	a := NewAdapter(kv, quietLogger())
	if _, _, ok := a.Load(); ok {
		t.Error("Expected Load of corrupt data to report failure")
	}
}

type failingKV struct{ *MemoryKV }

func (failingKV) Set(string, string) error { return errors.New("disk full") }

func TestAdapterSaveFailure(t *testing.T) {
	var logs bytes.Buffer
	a := NewAdapter(failingKV{NewMemoryKV()}, slog.New(slog.NewTextHandler(&logs, nil)))
	active, completed := sampleTasks()
	if a.Save(active, completed) {
		t.Error("Expected Save to report failure")
	}
	if !strings.Contains(logs.String(), "disk full") {
		t.Errorf("Expected failure to be logged, got %q", logs.String())
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	active, completed := sampleTasks()
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := WriteExport(&buf, active, completed, now); err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"version": "1.0"`, `"exportDate": "2024-02-01T10:00:00.000Z"`, `"totalTasks": 3`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected export to contain %s, got:\n%s", want, out)
		}
	}

	imp, err := ParseImport(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}
	if imp.Total() != 3 {
		t.Fatalf("Expected 3 tasks, got %d", imp.Total())
	}
	for i := range active {
		assertTaskEqual(t, active[i], imp.Todos[i])
	}
	assertTaskEqual(t, completed[0], imp.Completed[0])
}

func assertTaskEqual(t *testing.T, want, got model.Task) {
	t.Helper()
	if want.ID != got.ID || want.Text != got.Text || want.Category != got.Category ||
		want.Priority != got.Priority || want.DueDate != got.DueDate || want.Completed != got.Completed ||
		!want.CreatedAt.Equal(got.CreatedAt.Time) {
		t.Errorf("task mismatch:\nwant %+v\ngot  %+v", want, got)
	}
	if (want.CompletedAt == nil) != (got.CompletedAt == nil) {
		t.Errorf("completedAt presence mismatch for task %d", want.ID)
	} else if want.CompletedAt != nil && !want.CompletedAt.Equal(got.CompletedAt.Time) {
		t.Errorf("completedAt mismatch for task %d", want.ID)
	}
}

func TestParseImportRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"todos": [`,
		"missing todos":     `{"completed": []}`,
		"missing completed": `{"todos": []}`,
		"null completed":    `{"todos": [], "completed": null}`,
		"todos not array":   `{"todos": {}, "completed": []}`,
		"top-level array":   `[]`,
		"bad task":          `{"todos": [{"id": "x"}], "completed": []}`,
		"trailing garbage":  `{"todos": [], "completed": []} garbage`,
		"second document":   `{"todos": [], "completed": []} {}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseImport(strings.NewReader(doc))
			if !errors.Is(err, ErrMalformedImport) {
				t.Errorf("Expected ErrMalformedImport, got %v", err)
			}
		})
	}
}

func TestParseImportNormalizes(t *testing.T) {
	doc := `{"todos": [{"id": 5, "text": "x", "category": " ", "priority": "bogus", "createdAt": "2024-01-01T00:00:00Z"}], "completed": [], "extra": 1}`
	imp, err := ParseImport(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}
	task := imp.Todos[0]
	if task.Category != model.UncategorizedCategory || task.Priority != model.PriorityMedium {
		t.Errorf("Expected normalized task, got %+v", task)
	}
}

func TestExportFileName(t *testing.T) {
	got := ExportFileName(time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC))
	if got != "todos-2024-03-09.json" {
		t.Errorf("Expected todos-2024-03-09.json, got %s", got)
	}
}
