package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "WARN" || cfg.Storage.Backend != "file" || cfg.View.Sort != "date" || cfg.Calendar.Name != "Tasks" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.Storage.Path != filepath.Join(dir, "todos.json") {
		t.Errorf("Expected data file next to config, got %s", cfg.Storage.Path)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "storage:\n  backend: sqlite\nview:\n  sort: priority\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ADVTODO_VIEW_SORT", "name")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Expected sqlite backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != filepath.Join(dir, "todos.db") {
		t.Errorf("Expected todos.db, got %s", cfg.Storage.Path)
	}
	if cfg.View.Sort != "name" {
		t.Errorf("Expected env override name, got %s", cfg.View.Sort)
	}
	if cfg.View.Filter != "all" {
		t.Errorf("Expected default filter, got %s", cfg.View.Filter)
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("view: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected error for broken yaml")
	}
}

func TestSetAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := Set(path, "calendar.name", "Work"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := Set(path, "import.on_conflict", "skip"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Calendar.Name != "Work" || cfg.Import.OnConflict != "skip" {
		t.Errorf("Expected both keys saved, got %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600, got %v", info.Mode().Perm())
	}
}

func TestSetUnknownKey(t *testing.T) {
	err := Set(filepath.Join(t.TempDir(), "config.yaml"), "colour", "red")
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("Expected unknown key error, got %v", err)
	}
}
