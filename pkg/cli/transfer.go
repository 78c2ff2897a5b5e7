package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/advtodo/pkg/model"
	"github.com/harrisonrobin/advtodo/pkg/orgmode"
	"github.com/harrisonrobin/advtodo/pkg/storage"
	"github.com/harrisonrobin/advtodo/pkg/taskwarrior"
	"github.com/harrisonrobin/advtodo/pkg/todo"
)

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write both lists to a portable JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(store *todo.Store, _ storage.KV) error {
				now := a.now()
				active, completed := store.Active(), store.Completed()

				if output == "-" {
					return storage.WriteExport(cmd.OutOrStdout(), active, completed, now)
				}
				path := output
				if path == "" {
					path = storage.ExportFileName(now)
				}

				var buf bytes.Buffer
				if err := storage.WriteExport(&buf, active, completed, now); err != nil {
					return err
				}
				if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", plural(len(active)+len(completed), "task"), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout (default todos-YYYY-MM-DD.json)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var format, onConflict string

	cmd := &cobra.Command{
		Use:   "import [FILE]",
		Short: "Merge tasks from an export file, a taskwarrior export or an Org-mode file",
		Long: `Merge tasks into the current lists.

FILE may be - for stdin. With --format taskwarrior and no FILE, tasks are read
by running "task export". Imported tasks are appended; --on-conflict skip or
reassign handles ids that are already taken.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("on-conflict") {
				onConflict = a.cfg.Import.OnConflict
			}
			policy, err := todo.ParseConflictPolicy(onConflict)
			if err != nil {
				return err
			}

			active, completed, err := a.readImport(cmd.InOrStdin(), format, args)
			if err != nil {
				return err
			}

			return a.withStore(cmd, func(store *todo.Store, _ storage.KV) error {
				res := store.MergeImportWith(policy, active, completed)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %s\n", plural(res.Imported, "task"))
				if res.Skipped > 0 {
					fmt.Fprintf(out, "Skipped %s with an existing id\n", plural(res.Skipped, "task"))
				}
				if res.Reassigned > 0 {
					fmt.Fprintf(out, "Gave %s a new id\n", plural(res.Reassigned, "task"))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Input format: json, taskwarrior or org")
	cmd.Flags().StringVar(&onConflict, "on-conflict", "append", "What to do with ids already in use: append, skip or reassign")
	return cmd
}

func (a *app) readImport(stdin io.Reader, format string, args []string) (active, completed []model.Task, err error) {
	if format == "taskwarrior" && len(args) == 0 {
		tasks, err := taskwarrior.NewClient().Export(nil)
		if err != nil {
			return nil, nil, err
		}
		active, completed = taskwarrior.ToTodos(tasks, a.now())
		return active, completed, nil
	}
	if len(args) == 0 {
		return nil, nil, errors.New("no file to import")
	}

	r := stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	switch format {
	case "", "json":
		doc, err := storage.ParseImport(r)
		if err != nil {
			return nil, nil, err
		}
		a.log.Debug("import document parsed", "tasks", doc.Total())
		return doc.Todos, doc.Completed, nil
	case "taskwarrior":
		tasks, err := taskwarrior.ParseTasks(r)
		if err != nil {
			return nil, nil, err
		}
		active, completed = taskwarrior.ToTodos(tasks, a.now())
		return active, completed, nil
	case "org":
		entries, err := orgmode.Parse(r)
		if err != nil {
			return nil, nil, err
		}
		active, completed = orgmode.ToTodos(entries, a.now())
		return active, completed, nil
	default:
		return nil, nil, fmt.Errorf("unknown import format %q", format)
	}
}
