package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "advtodo"
	configFile = "config.yaml"
	envPrefix  = "ADVTODO"
)

type Config struct {
	LogLevel string         `yaml:"log_level" mapstructure:"log_level"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	View     ViewConfig     `yaml:"view" mapstructure:"view"`
	Import   ImportConfig   `yaml:"import" mapstructure:"import"`
	Calendar CalendarConfig `yaml:"calendar" mapstructure:"calendar"`
}

type StorageConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // file, sqlite or memory
	Path    string `yaml:"path" mapstructure:"path"`
}

type ViewConfig struct {
	Filter string `yaml:"filter" mapstructure:"filter"`
	Sort   string `yaml:"sort" mapstructure:"sort"`
}

type ImportConfig struct {
	OnConflict string `yaml:"on_conflict" mapstructure:"on_conflict"`
}

type CalendarConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
}

// Dir returns the directory holding the config file, the token and the default data files.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// DefaultPath returns the path of the config file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func Default() *Config {
	return &Config{
		LogLevel: "WARN",
		Storage:  StorageConfig{Backend: "file"},
		View:     ViewConfig{Filter: "all", Sort: "date"},
		Import:   ImportConfig{OnConflict: "append"},
		Calendar: CalendarConfig{Name: "Tasks"},
	}
}

// Keys lists the settable keys in dotted form.
func Keys() []string {
	keys := []string{
		"log_level",
		"storage.backend", "storage.path",
		"view.filter", "view.sort",
		"import.on_conflict",
		"calendar.name",
	}
	sort.Strings(keys)
	return keys
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	def := Default()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("storage.backend", def.Storage.Backend)
	v.SetDefault("storage.path", "")
	v.SetDefault("view.filter", def.View.Filter)
	v.SetDefault("view.sort", def.View.Sort)
	v.SetDefault("import.on_conflict", def.Import.OnConflict)
	v.SetDefault("calendar.name", def.Calendar.Name)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path (DefaultPath when empty). A missing
// file is not an error. Values from a .env file in the working directory and
// ADVTODO_* environment variables override the file.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	// .env is optional
	_ = godotenv.Load()

	v := newViper(path)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// resolvePaths fills in the data file next to the config file when none is set.
func (c *Config) resolvePaths(dir string) {
	if c.Storage.Path != "" || c.Storage.Backend == "memory" {
		return
	}
	name := "todos.json"
	if c.Storage.Backend == "sqlite" {
		name = "todos.db"
	}
	c.Storage.Path = filepath.Join(dir, name)
}

// Save writes the config as YAML to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Set updates a single dotted key in the config file at path, leaving the
// other keys as they are in the file.
func Set(path, key, value string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if !validKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode config: %w", err)
		}
	}

	switch key {
	case "log_level":
		cfg.LogLevel = value
	case "storage.backend":
		cfg.Storage.Backend = value
	case "storage.path":
		cfg.Storage.Path = value
	case "view.filter":
		cfg.View.Filter = value
	case "view.sort":
		cfg.View.Sort = value
	case "import.on_conflict":
		cfg.Import.OnConflict = value
	case "calendar.name":
		cfg.Calendar.Name = value
	}
	return Save(cfg, path)
}

func validKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}
