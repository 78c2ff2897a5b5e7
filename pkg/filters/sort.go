package filters

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/harrisonrobin/advtodo/pkg/model"
)

type SortKey string

const (
	SortDate     SortKey = "date"
	SortPriority SortKey = "priority"
	SortName     SortKey = "name"
	SortNewest   SortKey = "newest"
)

// ParseSortKey lower-cases and trims s. Unknown keys are passed through and
// leave the view unsorted.
func ParseSortKey(s string) SortKey {
	return SortKey(strings.ToLower(strings.TrimSpace(s)))
}

// SortView returns a sorted copy of view. Sorting is stable, so ties keep
// their incoming order.
func SortView(view []model.Task, key SortKey) []model.Task {
	sorted := make([]model.Task, len(view))
	copy(sorted, view)

	switch key {
	case SortDate:
		// Tasks without a usable due date go last.
		sort.SliceStable(sorted, func(i, j int) bool {
			di, oki := sorted[i].Due(time.UTC)
			dj, okj := sorted[j].Due(time.UTC)
			if oki && okj {
				return di.Before(dj)
			}
			return oki && !okj
		})
	case SortPriority:
		sort.SliceStable(sorted, func(i, j int) bool {
			ri, rj := sorted[i].Priority.Rank(), sorted[j].Priority.Rank()
			if ri != rj {
				return ri < rj
			}
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt.Time)
		})
	case SortName:
		c := collate.New(language.English)
		sort.SliceStable(sorted, func(i, j int) bool {
			return c.CompareString(sorted[i].Text, sorted[j].Text) < 0
		})
	case SortNewest:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt.Time)
		})
	}
	return sorted
}
