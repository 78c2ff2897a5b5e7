package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/advtodo/pkg/auth"
	"github.com/harrisonrobin/advtodo/pkg/colors"
	"github.com/harrisonrobin/advtodo/pkg/google"
	"github.com/harrisonrobin/advtodo/pkg/index"
	"github.com/harrisonrobin/advtodo/pkg/overdue"
	"github.com/harrisonrobin/advtodo/pkg/storage"
	"github.com/harrisonrobin/advtodo/pkg/todo"
)

func newCalendarCmd(a *app) *cobra.Command {
	var calendarName string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Publish tasks with a due date to Google Calendar",
	}
	cmd.PersistentFlags().StringVar(&calendarName, "calendar", "", "Google Calendar name (overrides config)")

	selected := func() string {
		if calendarName != "" {
			return calendarName
		}
		return a.cfg.Calendar.Name
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			authn, err := a.authenticator()
			if err != nil {
				return err
			}
			if err := authn.Reset(); err != nil {
				return err
			}
			if _, err := authn.CalendarService(cmd.Context(), true); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", authn.TokenPath())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "publish",
		Short: "Create, update and delete calendar events to match the task lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(store *todo.Store, kv storage.KV) error {
				publisher, err := a.publisher(cmd.Context(), kv, selected())
				if err != nil {
					return err
				}
				res, err := publisher.Publish(cmd.Context(), store.Active(), store.Completed())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Published to %s: %d created, %d updated, %d unchanged, %d deleted\n",
					selected(), res.Created, res.Updated, res.Unchanged, res.Deleted)
				if res.Failed > 0 {
					return fmt.Errorf("%s could not be published, run with --verbose for details", plural(res.Failed, "event"))
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Mark events of tasks that became overdue since the last publish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kv, err := a.openKV()
			if err != nil {
				return err
			}
			defer kv.Close()

			publisher, err := a.publisher(cmd.Context(), kv, selected())
			if err != nil {
				return err
			}
			n, err := publisher.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as overdue\n", plural(n, "event"))
			return nil
		},
	})

	return cmd
}

func (a *app) authenticator() (*auth.Authenticator, error) {
	dir, err := a.dataDir()
	if err != nil {
		return nil, err
	}
	return auth.New(dir, a.log), nil
}

// publisher wires the calendar client and the publish state kept in kv.
func (a *app) publisher(ctx context.Context, kv storage.KV, calendarName string) (*google.Publisher, error) {
	authn, err := a.authenticator()
	if err != nil {
		return nil, err
	}
	srv, err := authn.CalendarService(ctx, false)
	if err != nil {
		return nil, err
	}
	client, err := google.NewClient(ctx, srv, calendarName)
	if err != nil {
		return nil, err
	}

	idx, err := index.NewEventIndex(kv)
	if err != nil {
		return nil, fmt.Errorf("failed to load event index: %w", err)
	}
	cc, err := colors.NewColorCache(kv)
	if err != nil {
		return nil, fmt.Errorf("failed to load color cache: %w", err)
	}
	pending, err := overdue.NewTable(kv)
	if err != nil {
		return nil, fmt.Errorf("failed to load overdue table: %w", err)
	}
	return google.NewPublisher(client, idx, cc, pending, a.log), nil
}
