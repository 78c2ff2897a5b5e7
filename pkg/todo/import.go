package todo

import (
	"fmt"
	"strings"

	"github.com/harrisonrobin/advtodo/pkg/model"
)

// ConflictPolicy decides what happens to imported tasks whose id is already taken.
type ConflictPolicy string

const (
	// ConflictAppend keeps every imported task as is; ids may end up duplicated.
	ConflictAppend ConflictPolicy = "append"
	// ConflictSkip drops imported tasks whose id is already present.
	ConflictSkip ConflictPolicy = "skip"
	// ConflictReassign gives colliding imported tasks fresh ids.
	ConflictReassign ConflictPolicy = "reassign"
)

func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", ConflictAppend:
		return ConflictAppend, nil
	case ConflictSkip, ConflictReassign:
		return p, nil
	default:
		return "", fmt.Errorf("unknown import conflict policy %q (want append, skip or reassign)", s)
	}
}

type ImportResult struct {
	Imported   int
	Skipped    int
	Reassigned int
}

// MergeImport appends imported tasks to the tail of each collection without
// checking ids.
func (s *Store) MergeImport(active, completed []model.Task) {
	s.MergeImportWith(ConflictAppend, active, completed)
}

// MergeImportWith appends imported tasks, resolving id collisions with policy.
// Collisions are checked against both collections and against tasks earlier
// in the same import.
func (s *Store) MergeImportWith(policy ConflictPolicy, active, completed []model.Task) ImportResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res ImportResult
	seen := make(map[int64]bool, len(s.active)+len(s.completed))
	for _, t := range s.active {
		seen[t.ID] = true
	}
	for _, t := range s.completed {
		seen[t.ID] = true
	}

	resolve := func(in []model.Task) []model.Task {
		out := make([]model.Task, 0, len(in))
		for _, t := range cloneTasks(in) {
			if seen[t.ID] {
				switch policy {
				case ConflictSkip:
					res.Skipped++
					continue
				case ConflictReassign:
					t.ID = s.lastID + 1
					res.Reassigned++
				}
			}
			seen[t.ID] = true
			s.noteID(t.ID)
			out = append(out, t)
		}
		return out
	}

	importedActive := resolve(active)
	importedCompleted := resolve(completed)
	res.Imported = len(importedActive) + len(importedCompleted)

	s.active = append(cloneTasks(s.active), importedActive...)
	s.completed = append(cloneTasks(s.completed), importedCompleted...)
	s.flush()
	s.log.Debug("tasks imported", "policy", policy, "imported", res.Imported, "skipped", res.Skipped)
	return res
}
