package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/advtodo/pkg/config"
	"github.com/harrisonrobin/advtodo/pkg/storage"
	"github.com/harrisonrobin/advtodo/pkg/todo"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg *config.Config
	log *slog.Logger
	now func() time.Time
}

// Execute runs the root command
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd(&app{now: time.Now})
	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "todo",
		Short: "Track, prioritize and complete short tasks",
		Long: `todo keeps a list of active tasks and a list of completed ones.

Tasks carry a category, a priority and an optional due date. They can be
filtered, searched, sorted, exported to a portable JSON file, imported back,
and published to a Google Calendar.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/advtodo/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newAddCmd(a),
		newEditCmd(a),
		newToggleCmd(a),
		newDoneCmd(a),
		newRmCmd(a),
		newClearCmd(a),
		newListCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newConfigCmd(a),
		newCalendarCmd(a),
	)
	return rootCmd
}

func (a *app) setup(stderr io.Writer) error {
	if a.now == nil {
		a.now = time.Now
	}
	path, err := a.resolvedConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "DEBUG"
	}
	a.log = mustMakeLogger(level, stderr)
	a.log.Debug("config loaded", "path", path, "backend", cfg.Storage.Backend, "data", cfg.Storage.Path)
	return nil
}

func (a *app) resolvedConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

// dataDir holds the OAuth credentials and token, next to the config file.
func (a *app) dataDir() (string, error) {
	path, err := a.resolvedConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

func mustMakeLogger(logLevel string, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (a *app) openKV() (storage.KV, error) {
	kv, err := storage.Open(a.cfg.Storage.Backend, a.cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", a.cfg.Storage.Backend, err)
	}
	return kv, nil
}

// withStore opens the configured storage, loads the store and runs fn. A
// failed save is reported on stderr after fn returns.
func (a *app) withStore(cmd *cobra.Command, fn func(store *todo.Store, kv storage.KV) error) error {
	kv, err := a.openKV()
	if err != nil {
		return err
	}
	defer kv.Close()

	adapter := storage.NewAdapter(kv, a.log)
	store, ok := todo.Open(adapter, todo.WithClock(a.now), todo.WithLogger(a.log))
	if !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: stored tasks could not be loaded, starting with an empty list")
	}

	if err := fn(store, kv); err != nil {
		return err
	}
	if !store.Persisted() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: failed to save tasks")
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
