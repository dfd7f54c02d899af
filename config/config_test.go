package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/condadist/condadist/config"
)

func TestNewDefaults(t *testing.T) {
	cfg := config.New()
	if cfg.Channel != config.DefaultChannel {
		t.Fatalf("expected config's channel = '%v', got '%v'", config.DefaultChannel, cfg.Channel)
	}
	if cfg.Parallelism != config.DefaultParallelism {
		t.Fatalf("expected default parallelism %d, got %d", config.DefaultParallelism, cfg.Parallelism)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("channel: custom\nparallelism: 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Channel != "custom" || cfg.Parallelism != 8 {
		t.Fatalf("loaded config did not contain values from config file: %+v", cfg)
	}

	if _, err := config.Load(filepath.Join(dir, "nonexistent.yaml")); err == nil {
		t.Fatal("expected error loading nonexistent config path")
	}
}

func TestWriteAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := config.New()
	cfg.Channel = "conda-forge"

	if err := cfg.Write(path); err != nil {
		t.Fatal(err)
	}

	reloaded, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Channel != "conda-forge" {
		t.Fatalf("config did not persist: expected 'conda-forge', got '%v'", reloaded.Channel)
	}
}

func TestPathHonorsXDGConfigHome(t *testing.T) {
	home := t.TempDir()
	expected := filepath.Join(home, "condadist")

	t.Setenv("XDG_CONFIG_HOME", home)

	if config.Path() != expected {
		t.Fatalf("expected config path '%v', got '%v'", expected, config.Path())
	}
}

func TestConfigPathHonorsEnvOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom-config.yaml")
	t.Setenv("CONDADIST_CONFIG_FILE", override)

	if config.ConfigPath() != override {
		t.Fatalf("expected override path '%v', got '%v'", override, config.ConfigPath())
	}
}

func TestNewDefaultConfigNotRequired(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	if _, err := config.NewDefault(); err != nil {
		t.Fatal(err)
	}
}

func TestNewDefaultLoadsConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	if err := config.CreatePath(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(config.ConfigPath(), []byte("channel: custom\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.NewDefault()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Channel != "custom" {
		t.Fatalf("config file not loaded: %+v", cfg)
	}
}

func TestCreatePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	if err := config.CreatePath(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(config.Path()); err != nil {
		t.Fatalf("config path '%v' not created: %v", config.Path(), err)
	}
}
