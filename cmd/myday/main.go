package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tgienger/myday/internal/config"
	"github.com/tgienger/myday/internal/db"
	"github.com/tgienger/myday/internal/logging"
	"github.com/tgienger/myday/internal/repository"
	"github.com/tgienger/myday/internal/storage"
	"github.com/tgienger/myday/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "myday",
	Short: "Projects, tasks and a day planner for the terminal",
	Long: `myday keeps named projects of tasks and shows them through three smart views:
- All My Tasks: every task, grouped by project.
- My Day: tasks due today.
- Next 7 Days: tasks due from today through six days ahead.

Run without arguments to open the terminal UI.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runTUI,
}

func init() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	// A .env next to the working directory may carry MYDAY_* overrides
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn("config", "reading .env: %v", err)
	}
	viper.SetEnvPrefix("MYDAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("config", "", "config file (default $XDG_CONFIG_HOME/myday/config.toml)")
	rootCmd.PersistentFlags().String("backend", "", "storage backend: sqlite, json or memory")
	rootCmd.PersistentFlags().String("driver", "", "sqlite driver: sqlite3 (cgo) or sqlite (pure Go)")
	rootCmd.PersistentFlags().String("path", "", "database file, or directory for the json backend")
	rootCmd.PersistentFlags().String("key", "", "storage key holding the projects")
	rootCmd.PersistentFlags().String("move-policy", "", "status of moved tasks: preserve or reset")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("debug", false, "verbose logging")
	for _, name := range []string{"config", "backend", "driver", "path", "key", "move-policy", "json", "debug"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())
}

// loadConfig reads the config file and applies flag and MYDAY_* env overrides
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if p := viper.GetString("config"); p != "" {
		cfg, err = config.LoadFrom(p)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"backend":     &cfg.Storage.Backend,
		"driver":      &cfg.Storage.Driver,
		"path":        &cfg.Storage.Path,
		"key":         &cfg.Storage.Key,
		"move-policy": &cfg.Tasks.MovePolicy,
	}
	for name, field := range overrides {
		if v := viper.GetString(name); v != "" {
			*field = v
		}
	}
	if viper.GetBool("debug") {
		cfg.Log.Debug = true
	}
	if cfg.Log.Debug {
		logging.SetDebug(true)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the configured backend
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return db.Open(cfg.Storage.Driver, cfg.Storage.Path)
	case config.BackendJSON:
		return storage.NewDir(cfg.Storage.Path)
	case config.BackendMemory:
		return storage.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// withRepo opens the store and repository for one command
func withRepo(fn func(*config.Config, storage.Store, *repository.Repository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	defer store.Close()

	policy, err := repository.ParseMovePolicy(cfg.Tasks.MovePolicy)
	if err != nil {
		return err
	}
	r, err := repository.Open(store,
		repository.WithKey(cfg.Storage.Key),
		repository.WithMovePolicy(policy),
	)
	if err != nil {
		if !errors.Is(err, repository.ErrCorrupt) {
			return err
		}
		// Continue with an empty collection; the raw data was backed up
		logging.Warn("storage", "%v (raw data kept under %q)", err, cfg.Storage.Key+".bak")
	}
	return fn(cfg, store, r)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return withRepo(func(cfg *config.Config, store storage.Store, r *repository.Repository) error {
		// Logs would corrupt the alt screen, send them to a file instead
		if cfg.Log.File != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
				return err
			}
			f, err := tea.LogToFile(cfg.Log.File, "myday")
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
		}

		app := ui.NewApp(r, store, ui.Options{
			DefaultView:   cfg.UI.DefaultView,
			ShowCompleted: cfg.UI.ShowCompleted,
		})
		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running application: %w", err)
		}
		return nil
	})
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "myday %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
