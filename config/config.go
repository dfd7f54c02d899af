package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"
)

const (
	// Filename into which Config is serialized
	Filename = "config.yaml"

	// DefaultChannel is intentionally undefined; the manifest's own
	// channel list always takes precedence over a global default.
	DefaultChannel = ""

	// DefaultParallelism is the concurrent-download cap used when
	// the config file sets none.
	DefaultParallelism = 4
)

// DefaultCacheRoot is ~/.cache/condadist if a home directory can be
// expanded, falling back to a relative path otherwise.
func DefaultCacheRoot() string {
	if home, err := homedir.Expand("~"); err == nil {
		return filepath.Join(home, ".cache", "condadist")
	}
	return filepath.Join(".cache", "condadist")
}

// Global configuration settings.
type Config struct {
	Channel     string `yaml:"channel,omitempty"`
	CacheRoot   string `yaml:"cacheRoot,omitempty"`
	Parallelism int    `yaml:"parallelism,omitempty"`
	Confirm     bool   `yaml:"confirm,omitempty"`
	Verbose     bool   `yaml:"verbose,omitempty"`
}

// New Config struct with all members set to static defaults.  See NewDefault
// for one which further takes into account the optional config file.
func New() Config {
	return Config{
		Channel:     DefaultChannel,
		CacheRoot:   DefaultCacheRoot(),
		Parallelism: DefaultParallelism,
	}
}

// NewDefault returns a config populated by global defaults as defined by the
// config file located at ConfigPath() (the global condadist settings path,
// which is usually ~/.config/condadist).
// The config path is not required to be present.
func NewDefault() (cfg Config, err error) {
	cfg = New()
	cp := ConfigPath()
	bb, err := os.ReadFile(cp)
	if err != nil {
		if os.IsNotExist(err) {
			err = nil // config file is not required
		}
		return
	}
	err = yaml.Unmarshal(bb, &cfg) // cfg now has applied config.yaml
	return
}

// Load the config exactly as it exists at path (no static defaults)
func Load(path string) (c Config, err error) {
	bb, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("error reading global config: %v", err)
	}
	err = yaml.Unmarshal(bb, &c)
	return
}

// Write the config to the given path
func (c Config) Write(path string) (err error) {
	bb, _ := yaml.Marshal(&c) // Marshaling no longer errors; this is back compat
	return os.WriteFile(path, bb, os.ModePerm)
}

// Path is derived in the following order, from lowest
// to highest precedence.
// 1.  The static default is a relative path (./.config/condadist)
// 2.  ~/.config/condadist if it exists (can be expanded: user has a home dir)
// 3.  The value of $XDG_CONFIG_HOME/condadist if the environment variable exists.
// The path is only computed here; CreatePath creates it.
func Path() (path string) {
	// default path is a relative path used in the unlikely event that
	// the user has no home directory (no ~), there is no
	// XDG_CONFIG_HOME set
	path = filepath.Join(".config", "condadist")

	// ~/.config/condadist is the default if ~ can be expanded
	if home, err := homedir.Expand("~"); err == nil {
		path = filepath.Join(home, ".config", "condadist")
	}

	// 'XDG_CONFIG_HOME/condadist' takes precedence if defined
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		path = filepath.Join(xdg, "condadist")
	}

	return
}

// ConfigPath returns the full path at which to look for a config file.
// Use CONDADIST_CONFIG_FILE to override default.
func ConfigPath() string {
	path := filepath.Join(Path(), Filename)
	if e := os.Getenv("CONDADIST_CONFIG_FILE"); e != "" {
		path = e
	}
	return path
}

// CreatePath is a convenience function for creating the on-disk condadist
// config directory. All operations should be tolerant of nonexistant disk
// footprint where possible (loading config should not require an extant
// path, but writing one does require that the directory exist).
// Current structure is:
// ~/.config/condadist
func CreatePath() (err error) {
	if err = os.MkdirAll(Path(), os.ModePerm); err != nil {
		return fmt.Errorf("error creating global config path: %v", err)
	}
	return
}
