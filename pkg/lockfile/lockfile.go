// Package lockfile implements the Lockfile Store (C4): reading and
// writing the conda-lock.yml v6-style YAML document that records a
// solved environment's closure per platform.
package lockfile

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/digest"
	"github.com/condadist/condadist/pkg/record"
)

// FileName is the canonical lockfile name, both on the workspace and
// inside an installer bundle.
const FileName = "conda-lock.yml"

// Strategy and ChannelPriority are fixed: every lockfile this toolchain
// writes uses "Highest" solve strategy and "Strict" channel priority,
// with no exclude-newer cutoff.
const (
	StrategyHighest       = "highest"
	ChannelPriorityStrict = "strict"
)

// PackageEntry is one locked record as it appears in the lockfile's flat
// package list.
type PackageEntry struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Build        string   `yaml:"build"`
	Subdir       string   `yaml:"subdir"`
	FileName     string   `yaml:"filename"`
	URL          string   `yaml:"url"`
	SHA256       string   `yaml:"sha256,omitempty"`
	Dependencies []string `yaml:"depends,omitempty"`
	Noarch       string   `yaml:"noarch,omitempty"`
	Category     string   `yaml:"category"` // always "main"; closed sum, source entries are never written
}

// SolveOptions mirrors rattler_lock's per-environment solve options.
type SolveOptions struct {
	Strategy        string `yaml:"strategy"`
	ChannelPriority string `yaml:"channel_priority"`
}

// Environment is one named environment's channel list, solve options,
// and platform-keyed package lists.
type Environment struct {
	Channels []string                  `yaml:"channels"`
	Options  SolveOptions               `yaml:"options"`
	Packages map[string][]PackageEntry `yaml:"packages"`
}

// Lockfile is the top-level conda-lock.yml document.
type Lockfile struct {
	Version      int                    `yaml:"version"`
	Environments map[string]Environment `yaml:"environments"`
}

const currentVersion = 6

// Load parses a lockfile at path. Read errors, a missing file included,
// are returned unwrapped, so callers (C6/C7) can tell "no lockfile" from
// other failures with os.IsNotExist; a YAML parse failure is returned as
// a StagingFailed error.
func Load(path string) (*Lockfile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lf Lockfile
	if err := yaml.Unmarshal(b, &lf); err != nil {
		return nil, condaerr.New(condaerr.StagingFailed, path, err)
	}
	return &lf, nil
}

// Records selects environmentName's locked records for the requested
// platforms. A missing environment yields an empty list, not an error.
func (lf *Lockfile) Records(environmentName string, platforms []string) []record.Record {
	env, ok := lf.Environments[environmentName]
	if !ok {
		return nil
	}
	var out []record.Record
	for _, p := range platforms {
		for _, pkg := range env.Packages[p] {
			out = append(out, toRecord(pkg))
		}
	}
	return out
}

func toRecord(p PackageEntry) record.Record {
	return record.Record{
		Name:         p.Name,
		Version:      p.Version,
		Build:        p.Build,
		Subdir:       p.Subdir,
		FileName:     p.FileName,
		URL:          p.URL,
		SHA256:       digest.SHA256(p.SHA256),
		Dependencies: p.Dependencies,
		Noarch:       record.NoarchKind(p.Noarch),
	}
}

// Build constructs a Lockfile for one environment from channelURLs and
// records, grouping records by their subdir-derived platform and
// applying the fixed Highest/Strict solve options.
func Build(environmentName string, channelURLs []string, records []record.Record) *Lockfile {
	byPlatform := map[string][]PackageEntry{}
	for _, r := range records {
		byPlatform[r.Subdir] = append(byPlatform[r.Subdir], fromRecord(r))
	}
	for platform := range byPlatform {
		sort.Slice(byPlatform[platform], func(i, j int) bool {
			return byPlatform[platform][i].Name < byPlatform[platform][j].Name
		})
	}

	return &Lockfile{
		Version: currentVersion,
		Environments: map[string]Environment{
			environmentName: {
				Channels: channelURLs,
				Options: SolveOptions{
					Strategy:        StrategyHighest,
					ChannelPriority: ChannelPriorityStrict,
				},
				Packages: byPlatform,
			},
		},
	}
}

func fromRecord(r record.Record) PackageEntry {
	return PackageEntry{
		Name:         r.Name,
		Version:      r.Version,
		Build:        r.Build,
		Subdir:       r.Subdir,
		FileName:     r.FileName,
		URL:          r.URL,
		SHA256:       string(r.SHA256),
		Dependencies: r.Dependencies,
		Noarch:       string(r.Noarch),
		Category:     "main",
	}
}

// Marshal serializes lf to YAML bytes without touching disk, used by the
// Archive Builder (C9) to embed the in-bundle lockfile.
func Marshal(lf *Lockfile) ([]byte, error) {
	out, err := yaml.Marshal(lf)
	if err != nil {
		return nil, condaerr.New(condaerr.StagingFailed, "", err)
	}
	return out, nil
}

// Write serializes lf to path atomically (write-then-rename), so a
// cancelled pipeline never leaves a half-written lockfile.
func Write(path string, lf *Lockfile) error {
	out, err := Marshal(lf)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return condaerr.New(condaerr.StagingFailed, path, err)
	}
	partPath := path + ".part"
	_ = os.Remove(partPath)
	if err := os.WriteFile(partPath, out, 0o644); err != nil {
		return condaerr.New(condaerr.StagingFailed, path, err)
	}
	if err := os.Rename(partPath, path); err != nil {
		return condaerr.New(condaerr.StagingFailed, path, err)
	}
	return nil
}

