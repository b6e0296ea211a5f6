package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const appName = "myday"

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
	BackendMemory = "memory"
)

// Config holds the application configuration
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Tasks   TasksConfig   `toml:"tasks"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig selects where the project collection is kept
type StorageConfig struct {
	Backend string `toml:"backend"` // sqlite, json or memory
	Driver  string `toml:"driver"`  // sqlite3 (cgo) or sqlite (pure Go)
	Path    string `toml:"path"`    // database file, or directory for json
	Key     string `toml:"key"`
}

// TasksConfig holds data model policies
type TasksConfig struct {
	MovePolicy string `toml:"move_policy"` // preserve or reset
}

// UIConfig holds terminal UI preferences
type UIConfig struct {
	DefaultView   string `toml:"default_view"`
	ShowCompleted bool   `toml:"show_completed"`
}

// LogConfig holds logging preferences
type LogConfig struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file"`
}

// Default returns the default configuration
func Default() *Config {
	dataDir := DataDir()
	return &Config{
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Driver:  "sqlite3",
			Path:    filepath.Join(dataDir, appName+".db"),
			Key:     "projects",
		},
		Tasks: TasksConfig{
			MovePolicy: "preserve",
		},
		UI: UIConfig{
			DefaultView:   "My Day",
			ShowCompleted: true,
		},
		Log: LogConfig{
			File: filepath.Join(dataDir, appName+".log"),
		},
	}
}

// DataDir returns the XDG data directory for the app, falling back to ~/.local/share
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName)
}

// Path returns the standard config file location
func Path() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home dir: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, appName, "config.toml"), nil
}

// Load loads configuration from the standard location
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads configuration from a specific path. A missing file yields the defaults.
func LoadFrom(configPath string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.Driver != "sqlite3" && c.Storage.Driver != "sqlite" {
			return fmt.Errorf("storage.driver must be sqlite3 or sqlite, got %q", c.Storage.Driver)
		}
	case BackendJSON, BackendMemory:
	default:
		return fmt.Errorf("storage.backend must be sqlite, json or memory, got %q", c.Storage.Backend)
	}
	if c.Storage.Backend != BackendMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}
	switch c.Tasks.MovePolicy {
	case "", "preserve", "reset":
	default:
		return fmt.Errorf("tasks.move_policy must be preserve or reset, got %q", c.Tasks.MovePolicy)
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves the configuration to the standard location
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}
