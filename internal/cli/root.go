package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"todotree-cli/internal/app"
	"todotree-cli/internal/store"
	"todotree-cli/internal/term"
)

type App struct {
	Dir      string
	Backend  string
	LogLevel string
}

func NewRootCmd() *cobra.Command {
	a := &App{}

	cmd := &cobra.Command{
		Use:          "todotree",
		Short:        "Keyboard-driven hierarchical task manager (TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  todotree

  # Use an alternate data directory
  todotree --dir ~/notes/tasks

  # Dump the current snapshot as JSON
  todotree export
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(a)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.resolveConfig()
	}

	cmd.PersistentFlags().StringVar(&a.Dir, "dir", envOr("TODOTREE_DIR", ""), "Path to the data dir (default: ~/.todotree, or dir from the config file)")
	cmd.PersistentFlags().StringVar(&a.Backend, "backend", envOr("TODOTREE_BACKEND", ""), "Snapshot backend (json|sqlite)")

	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// resolveConfig layers flag > env > config file > default for every setting.
// A missing config file is fine; a malformed one is an error the user needs
// to see.
func (a *App) resolveConfig() error {
	v := viper.New()
	v.SetDefault("dir", defaultDataDir())
	v.SetDefault("backend", "json")
	v.SetDefault("log_level", "info")

	if dir, err := os.UserConfigDir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(dir, "todotree"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if a.Dir == "" {
		a.Dir = v.GetString("dir")
	}
	if a.Backend == "" {
		a.Backend = v.GetString("backend")
	}
	a.LogLevel = v.GetString("log_level")
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".todotree"
	}
	return filepath.Join(home, ".todotree")
}

// openStore validates the resolved settings and makes sure the data dir
// exists.
func (a *App) openStore() (store.Store, error) {
	backend, err := store.NormalizeBackend(a.Backend)
	if err != nil {
		return store.Store{}, err
	}
	st := store.Store{Dir: a.Dir, Backend: backend}
	if err := st.Ensure(); err != nil {
		return store.Store{}, err
	}
	return st, nil
}

func runTUI(a *App) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(st.Dir, a.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	snap, err := st.Load()
	if err != nil {
		return err
	}
	col, err := app.ImportSnapshot(snap)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// External edits to the snapshot file trigger a reload. Watching can
	// fail on exotic filesystems; the TUI still works without it.
	reload, err := st.Watch(ctx)
	if err != nil {
		log.WithError(err).Warn("snapshot watcher unavailable")
		reload = nil
	}

	t := term.New()
	sess := app.NewSession(st, col, log)

	teaErr := make(chan error, 1)
	go func() {
		teaErr <- t.Run()
	}()

	if err := sess.Run(ctx, t, t, reload); err != nil {
		t.Close()
		<-teaErr
		return err
	}
	t.Close()
	return <-teaErr
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
