// Package repodata reads and writes the per-subdir repodata.json index
// that Channel Staging (C3) produces and the Solver Driver (C5) consumes.
//
// Grounded on the conda package filename parsing technique demonstrated by
// a conda-lock differ's lockfile reader, and on pkg/oci/builder.go's
// deterministic, sorted-entry output convention.
package repodata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/condadist/condadist/pkg/condaerr"
)

// PackageEntry is the minimal per-file record a repodata index carries.
// Fields mirror the subset of a Conda repodata.json package entry this
// toolchain actually consumes.
type PackageEntry struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Build      string `json:"build"`
	BuildNum   int    `json:"build_number"`
	Subdir     string `json:"subdir"`
	Depends    []string `json:"depends,omitempty"`
	NoarchType string `json:"noarch,omitempty"`
}

// RepoData is the on-disk repodata.json shape: separate maps for ".conda"
// and legacy ".tar.bz2" package files, keyed by filename.
type RepoData struct {
	Info struct {
		Subdir string `json:"subdir"`
	} `json:"info"`
	Packages      map[string]PackageEntry `json:"packages"`
	PackagesConda map[string]PackageEntry `json:"packages.conda"`
}

// ParseFileName splits a conda package filename of the form
// "<name>-<version>-<build>.conda" or "<name>-<version>-<build>.tar.bz2"
// into its three components. Names and versions may themselves contain
// hyphens, so the split anchors on the last two hyphen-separated fields.
func ParseFileName(fileName string) (name, version, build string, ok bool) {
	base := fileName
	switch {
	case strings.HasSuffix(base, ".conda"):
		base = strings.TrimSuffix(base, ".conda")
	case strings.HasSuffix(base, ".tar.bz2"):
		base = strings.TrimSuffix(base, ".tar.bz2")
	default:
		return "", "", "", false
	}

	lastDash := strings.LastIndex(base, "-")
	if lastDash <= 0 || lastDash == len(base)-1 {
		return "", "", "", false
	}
	build = base[lastDash+1:]
	rest := base[:lastDash]

	secondDash := strings.LastIndex(rest, "-")
	if secondDash <= 0 || secondDash == len(rest)-1 {
		return "", "", "", false
	}
	version = rest[secondDash+1:]
	name = rest[:secondDash]
	if name == "" || version == "" || build == "" {
		return "", "", "", false
	}
	return name, version, build, true
}

// Index scans subdirPath for package files and writes a deterministic
// repodata.json describing them, unconditionally overwriting any
// existing index.
func Index(subdirPath string) error {
	entries, err := os.ReadDir(subdirPath)
	if err != nil {
		return condaerr.New(condaerr.StagingFailed, subdirPath, err)
	}

	idx := RepoData{
		Packages:      map[string]PackageEntry{},
		PackagesConda: map[string]PackageEntry{},
	}
	idx.Info.Subdir = filepath.Base(subdirPath)

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, fileName := range names {
		name, version, build, ok := ParseFileName(fileName)
		if !ok {
			continue
		}
		entry := PackageEntry{
			Name:    name,
			Version: version,
			Build:   build,
			Subdir:  idx.Info.Subdir,
		}
		if strings.HasSuffix(fileName, ".conda") {
			idx.PackagesConda[fileName] = entry
		} else {
			idx.Packages[fileName] = entry
		}
	}

	out, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return condaerr.New(condaerr.StagingFailed, subdirPath, err)
	}
	out = append(out, '\n')

	target := filepath.Join(subdirPath, "repodata.json")
	partPath := target + ".part"
	_ = os.Remove(partPath)
	if err := os.WriteFile(partPath, out, 0o644); err != nil {
		return condaerr.New(condaerr.StagingFailed, target, err)
	}
	if err := os.Rename(partPath, target); err != nil {
		return condaerr.New(condaerr.StagingFailed, target, err)
	}
	return nil
}

// Load reads and parses a subdir's repodata.json.
func Load(subdirPath string) (*RepoData, error) {
	b, err := os.ReadFile(filepath.Join(subdirPath, "repodata.json"))
	if err != nil {
		return nil, condaerr.New(condaerr.StagingFailed, subdirPath, err)
	}
	var idx RepoData
	if err := json.Unmarshal(b, &idx); err != nil {
		return nil, condaerr.New(condaerr.StagingFailed, subdirPath, err)
	}
	return &idx, nil
}
