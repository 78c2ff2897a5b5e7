package todo

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/harrisonrobin/advtodo/pkg/model"
	"github.com/harrisonrobin/advtodo/pkg/storage"
)

func TestParseConflictPolicy(t *testing.T) {
	cases := map[string]ConflictPolicy{
		"":         ConflictAppend,
		"append":   ConflictAppend,
		"SKIP":     ConflictSkip,
		"reassign": ConflictReassign,
	}
	for in, want := range cases {
		got, err := ParseConflictPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseConflictPolicy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseConflictPolicy("merge"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}

func TestMergeImportAppendsWithoutDedup(t *testing.T) {
	s, p := newTestStore(t)
	existing := mustAdd(t, s, AddInput{Text: "existing"})

	imported := []model.Task{existing, {ID: 7, Text: "new", Category: "c", Priority: model.PriorityLow}}
	s.MergeImport(imported, nil)

	active := s.Active()
	if len(active) != 3 {
		t.Fatalf("Expected 3 active tasks, got %d", len(active))
	}
	if active[0].ID != existing.ID || active[1].ID != existing.ID || active[2].ID != 7 {
		t.Errorf("Expected imported tasks appended in order, got ids %d %d %d", active[0].ID, active[1].ID, active[2].ID)
	}
	if len(p.active) != 3 {
		t.Error("Expected merge to flush")
	}
}

func TestMergeImportWithSkip(t *testing.T) {
	s, _ := newTestStore(t)
	existing := mustAdd(t, s, AddInput{Text: "existing"})

	res := s.MergeImportWith(ConflictSkip,
		[]model.Task{existing, {ID: 7, Text: "new"}, {ID: 7, Text: "dup in import"}},
		[]model.Task{{ID: 8, Text: "done", Completed: true}})

	if res.Imported != 2 || res.Skipped != 2 {
		t.Errorf("Expected 2 imported and 2 skipped, got %+v", res)
	}
	if len(s.Active()) != 2 || len(s.Completed()) != 1 {
		t.Errorf("Unexpected sizes %d/%d", len(s.Active()), len(s.Completed()))
	}
	assertPartition(t, s)
}

func TestMergeImportWithReassign(t *testing.T) {
	s, _ := newTestStore(t)
	existing := mustAdd(t, s, AddInput{Text: "existing"})
	doneAt := model.NewTimestamp(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	res := s.MergeImportWith(ConflictReassign,
		[]model.Task{existing},
		[]model.Task{{ID: existing.ID, Text: "done", Completed: true, CompletedAt: &doneAt}})

	if res.Imported != 2 || res.Reassigned != 2 {
		t.Errorf("Expected 2 imported, 2 reassigned, got %+v", res)
	}
	assertPartition(t, s)

	next := mustAdd(t, s, AddInput{Text: "after import"})
	for _, task := range append(s.Active()[:2], s.Completed()...) {
		if task.ID == next.ID {
			t.Errorf("Expected fresh id for new task, collided with %d", task.ID)
		}
	}
}

func TestExportImportRoundTripIntoFreshStore(t *testing.T) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	src, _ := newTestStore(t)
	for _, in := range []AddInput{
		{Text: "Buy Milk", Category: "Grocery", Priority: model.PriorityHigh, DueDate: "2024-01-10"},
		{Text: "Walk dog", Priority: model.PriorityLow},
		{Text: "Pay rent", Category: "Home"},
	} {
		mustAdd(t, src, in)
	}
	src.Complete(src.Active()[2].ID)

	var buf bytes.Buffer
	if err := storage.WriteExport(&buf, src.Active(), src.Completed(), time.Now()); err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	imp, err := storage.ParseImport(&buf)
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}

	dst := New(storage.NewAdapter(storage.NewMemoryKV(), quiet), WithLogger(quiet))
	dst.MergeImport(imp.Todos, imp.Completed)

	assertSameTasks(t, src.Active(), dst.Active())
	assertSameTasks(t, src.Completed(), dst.Completed())
}

func assertSameTasks(t *testing.T, want, got []model.Task) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("Expected %d tasks, got %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.ID != g.ID || w.Text != g.Text || w.Category != g.Category || w.Priority != g.Priority ||
			w.DueDate != g.DueDate || w.Completed != g.Completed || !w.CreatedAt.Equal(g.CreatedAt.Time) {
			t.Errorf("task %d differs:\nwant %+v\ngot  %+v", i, w, g)
		}
		if (w.CompletedAt == nil) != (g.CompletedAt == nil) ||
			(w.CompletedAt != nil && !w.CompletedAt.Equal(g.CompletedAt.Time)) {
			t.Errorf("task %d completedAt differs", i)
		}
	}
}
