package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/advtodo/pkg/model"
	"github.com/harrisonrobin/advtodo/pkg/storage"
	"github.com/harrisonrobin/advtodo/pkg/todo"
	"github.com/harrisonrobin/advtodo/pkg/util"
)

func newAddCmd(a *app) *cobra.Command {
	var due, priority, category string

	cmd := &cobra.Command{
		Use:   "add TEXT...",
		Short: "Add a new active task",
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := util.ParseDueDate(due, a.now())
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(store *todo.Store, _ storage.KV) error {
				task, err := store.Add(todo.AddInput{
					Text:     strings.Join(args, " "),
					DueDate:  dueDate,
					Priority: model.ParsePriority(priority),
					Category: category,
				})
				if errors.Is(err, todo.ErrEmptyText) {
					return errors.New("please enter a task")
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task added successfully (id %d)\n", task.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date: YYYY-MM-DD, today or tomorrow")
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "Priority: high, medium or low")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category (default Uncategorized)")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var text, due, priority, category string

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the text, due date, priority or category of an active task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(store *todo.Store, _ storage.KV) error {
				current, completed, ok := store.Get(id)
				if !ok || completed {
					return fmt.Errorf("no active task with id %d", id)
				}

				in := todo.EditInput{
					Text:     current.Text,
					DueDate:  current.DueDate,
					Priority: current.Priority,
					Category: current.Category,
				}
				flags := cmd.Flags()
				if flags.Changed("text") {
					if strings.TrimSpace(text) == "" {
						return errors.New("please enter a task")
					}
					in.Text = text
				}
				if flags.Changed("due") {
					if in.DueDate, err = util.ParseDueDate(due, a.now()); err != nil {
						return err
					}
				}
				if flags.Changed("priority") {
					in.Priority = model.ParsePriority(priority)
				}
				if flags.Changed("category") {
					in.Category = category
				}

				store.Edit(id, in)
				fmt.Fprintln(cmd.OutOrStdout(), "Task updated successfully")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "New task text")
	cmd.Flags().StringVarP(&due, "due", "d", "", "New due date, empty to clear")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority")
	cmd.Flags().StringVarP(&category, "category", "c", "", "New category")
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip the completed mark of an active task without moving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(store *todo.Store, _ storage.KV) error {
				store.ToggleActive(id)
				if task, completed, ok := store.Get(id); ok && !completed {
					state := "not done"
					if task.Completed {
						state = "done"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Task marked as %s\n", state)
				}
				return nil
			})
		},
	}
}

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Complete an active task and move it to the completed list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(store *todo.Store, _ storage.KV) error {
				store.Complete(id)
				if _, completed, ok := store.Get(id); ok && completed {
					fmt.Fprintln(cmd.OutOrStdout(), "Task completed!")
				}
				return nil
			})
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	var fromCompleted bool

	cmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(store *todo.Store, _ storage.KV) error {
				var removed bool
				if fromCompleted {
					removed = store.DeleteCompleted(id)
				} else {
					removed = store.DeleteActive(id)
				}
				if removed {
					fmt.Fprintln(cmd.OutOrStdout(), "Task deleted")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&fromCompleted, "completed", false, "Delete from the completed list")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(store *todo.Store, _ storage.KV) error {
				n := store.ClearCompleted()
				if n == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No completed tasks to clear")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", plural(n, "completed task"))
				return nil
			})
		},
	}
}
