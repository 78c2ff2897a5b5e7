package filters

import (
	"reflect"
	"testing"

	"github.com/harrisonrobin/advtodo/pkg/model"
)

func TestSortByPriority(t *testing.T) {
	view := []model.Task{
		{ID: 1, Priority: model.PriorityMedium, CreatedAt: at(1)},
		{ID: 2, Priority: model.PriorityMedium, CreatedAt: at(2)},
		{ID: 3, Priority: model.PriorityHigh, CreatedAt: at(0)},
		{ID: 4, Priority: model.PriorityLow, CreatedAt: at(5)},
	}
	got := ids(SortView(view, SortPriority))
	want := []int64{3, 2, 1, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSortByDate(t *testing.T) {
	view := []model.Task{
		{ID: 1, DueDate: ""},
		{ID: 2, DueDate: "2024-03-01"},
		{ID: 3, DueDate: "2024-01-15"},
		{ID: 4, DueDate: ""},
		{ID: 5, DueDate: "2024-01-15"},
	}
	got := ids(SortView(view, SortDate))
	want := []int64{3, 5, 2, 1, 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSortByDateWithTimeOfDay(t *testing.T) {
	view := []model.Task{
		{ID: 1, DueDate: ""},
		{ID: 2, DueDate: "2024-01-04"},
		{ID: 3, DueDate: "2024-01-03T10:00"},
		{ID: 4, DueDate: "2024-01-03"},
	}
	got := ids(SortView(view, SortDate))
	want := []int64{4, 3, 2, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSortByName(t *testing.T) {
	view := []model.Task{
		{ID: 1, Text: "banana"},
		{ID: 2, Text: "Apple"},
		{ID: 3, Text: "cherry"},
		{ID: 4, Text: "apple"},
	}
	got := SortView(view, SortName)
	if got[2].ID != 1 || got[3].ID != 3 {
		t.Errorf("Expected banana then cherry last, got %v", ids(got))
	}
	if !(got[0].ID == 4 || got[0].ID == 2) || !(got[1].ID == 4 || got[1].ID == 2) {
		t.Errorf("Expected both apples first regardless of case, got %v", ids(got))
	}
}

func TestSortByNewest(t *testing.T) {
	view := []model.Task{
		{ID: 1, CreatedAt: at(1)},
		{ID: 2, CreatedAt: at(3)},
		{ID: 3, CreatedAt: at(2)},
	}
	got := ids(SortView(view, SortNewest))
	if !reflect.DeepEqual(got, []int64{2, 3, 1}) {
		t.Errorf("got %v", got)
	}
}

func TestSortUnknownKeyIsIdentity(t *testing.T) {
	view := []model.Task{{ID: 3}, {ID: 1}, {ID: 2}}
	got := ids(SortView(view, SortKey("shuffle")))
	if !reflect.DeepEqual(got, []int64{3, 1, 2}) {
		t.Errorf("got %v", got)
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	view := []model.Task{{ID: 1, Priority: model.PriorityLow}, {ID: 2, Priority: model.PriorityHigh}}
	SortView(view, SortPriority)
	if view[0].ID != 1 {
		t.Error("Expected input order preserved")
	}
}
