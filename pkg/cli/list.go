package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/advtodo/pkg/filters"
	"github.com/harrisonrobin/advtodo/pkg/model"
	"github.com/harrisonrobin/advtodo/pkg/storage"
	"github.com/harrisonrobin/advtodo/pkg/todo"
	"github.com/harrisonrobin/advtodo/pkg/util"
)

type listView struct {
	Active    []model.Task  `json:"active"`
	Completed []model.Task  `json:"completed"`
	Stats     filters.Stats `json:"stats"`
}

func newListCmd(a *app) *cobra.Command {
	var filter, search, sortKey string
	var hideCompleted, asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show tasks, filtered, searched and sorted",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("filter") {
				filter = a.cfg.View.Filter
			}
			if !cmd.Flags().Changed("sort") {
				sortKey = a.cfg.View.Sort
			}
			mode := filters.ParseFilterMode(filter)
			key := filters.ParseSortKey(sortKey)
			term := strings.ToLower(strings.TrimSpace(search))

			return a.withStore(cmd, func(store *todo.Store, _ storage.KV) error {
				active, completed := store.Active(), store.Completed()
				view := listView{
					Active:    filters.SortView(filters.SelectActiveView(active, mode, term), key),
					Completed: filters.SelectCompletedView(completed, term),
					Stats:     filters.Summarize(active, completed),
				}
				if hideCompleted {
					view.Completed = []model.Task{}
				}

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(view)
				}
				printView(out, view, term != "", a.now())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "Filter: all, active, completed or high")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show tasks whose text or category contains this")
	cmd.Flags().StringVar(&sortKey, "sort", "date", "Sort: date, priority, name or newest")
	cmd.Flags().BoolVar(&hideCompleted, "hide-completed", false, "Do not show the completed list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON")
	return cmd
}

func printView(w io.Writer, view listView, searching bool, now time.Time) {
	fmt.Fprintf(w, "Active (%d)\n", len(view.Active))
	if len(view.Active) == 0 {
		if searching {
			fmt.Fprintln(w, "  No matching tasks")
		} else {
			fmt.Fprintln(w, "  No tasks yet. Add one to get started!")
		}
	}
	for _, t := range view.Active {
		fmt.Fprintln(w, formatActive(t, now))
	}

	if len(view.Completed) > 0 {
		fmt.Fprintf(w, "\nCompleted (%d)\n", len(view.Completed))
		for _, t := range view.Completed {
			fmt.Fprintln(w, formatCompleted(t, now))
		}
	}

	st := view.Stats
	fmt.Fprintf(w, "\n%d active, %d completed, %d%% done\n", st.Active, st.Completed, st.Progress)
}

func formatActive(t model.Task, now time.Time) string {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("  %s %d  %s  (%s, %s)", box, t.ID, t.Text, t.Priority, t.Category)
	if t.HasDueDate() {
		line += "  due " + util.FormatDate(t.DueDate, now)
		switch {
		case util.IsOverdue(t, now):
			line += " [overdue]"
		case !t.Completed && util.IsDueToday(t.DueDate, now):
			line += " [today]"
		}
	}
	return line
}

func formatCompleted(t model.Task, now time.Time) string {
	line := fmt.Sprintf("  [x] %d  %s  (%s, %s)", t.ID, t.Text, t.Priority, t.Category)
	if t.CompletedAt != nil && !t.CompletedAt.IsZero() {
		line += "  completed " + util.FormatDate(t.CompletedAt.In(now.Location()).Format(model.DueDateLayout), now)
	}
	return line
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task counts and progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(store *todo.Store, _ storage.KV) error {
				st := filters.Summarize(store.Active(), store.Completed())
				out := cmd.OutOrStdout()
				if asJSON {
					return json.NewEncoder(out).Encode(st)
				}
				fmt.Fprintf(out, "Active:    %d\n", st.Active)
				fmt.Fprintf(out, "Completed: %d\n", st.Completed)
				fmt.Fprintf(out, "Total:     %d\n", st.Total)
				fmt.Fprintf(out, "Progress:  %d%%\n", st.Progress)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print stats as JSON")
	return cmd
}
