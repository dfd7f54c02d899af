// Package manifest parses and validates the declarative TOML manifest that
// drives every condadist operation. Grounded on pkg/functions/function.go's
// struct-tag-driven, validate-on-load style (there: func.yaml/yaml.v2;
// here: manifest.toml/go-toml, a teacher dependency used for the same kind
// of developer-facing declarative config).
package manifest

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml"

	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/platform"
)

// namePattern restricts identity names to letters, digits, dots,
// underscores, and hyphens.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// DefaultChannel is used when a manifest specifies no channels.
const DefaultChannel = "conda-forge"

// Manifest is the fully-parsed, schema-validated input document.
type Manifest struct {
	Name         string                 `toml:"name"`
	Author       string                 `toml:"author"`
	Version      string                 `toml:"version"`
	License      string                 `toml:"license"`
	Channels     []string               `toml:"channels"`
	Platforms    []string               `toml:"platforms"`
	Dependencies map[string]DepSpec     `toml:"dependencies"`
	Metadata     *Metadata              `toml:"metadata"`
	Container    *ContainerConfig       `toml:"container"`
	Package      *PackageConfig         `toml:"package"`
	VirtualPkgs  map[string]VirtualOverride `toml:"virtual_packages"`

	// Dir is the directory the manifest was loaded from, set by Load; not
	// part of the TOML document.
	Dir string `toml:"-"`
}

// DepSpec is either a bare constraint string ("*", ">=1.2", "") or a list
// of match-spec strings; TOML allows both shapes for a dependency value.
type DepSpec struct {
	Constraint string
	List       []string
}

// UnmarshalTOML implements custom decoding so a dependency value may be
// either a scalar string or an array of strings.
func (d *DepSpec) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		d.Constraint = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("dependency list entries must be strings")
			}
			d.List = append(d.List, s)
		}
	default:
		return fmt.Errorf("unsupported dependency value type %T", data)
	}
	return nil
}

// MatchSpecs returns the dependency expressed as one or more match-spec
// strings, combining the package name with its constraint(s).
func (d DepSpec) MatchSpecs(name string) []string {
	if len(d.List) > 0 {
		return d.List
	}
	c := strings.TrimSpace(d.Constraint)
	if c == "" || c == "*" {
		return []string{name}
	}
	return []string{name + " " + c}
}

type Metadata struct {
	Summary      string   `toml:"summary"`
	Description  string   `toml:"description"`
	ReleaseNotes string   `toml:"release_notes"`
	Featured     []string `toml:"featured"`
}

type ContainerConfig struct {
	BaseImage string `toml:"base_image"`
	Prefix    string `toml:"prefix"`
	Tag       string `toml:"tag"` // template with {name}/{version}
}

// RenderTag substitutes {name} and {version} placeholders.
func (c ContainerConfig) RenderTag(name, version string) string {
	tag := c.Tag
	tag = strings.ReplaceAll(tag, "{name}", name)
	tag = strings.ReplaceAll(tag, "{version}", version)
	return tag
}

type PackageConfig struct {
	SplitDeps bool   `toml:"split_deps"`
	Release   string `toml:"release"`
}

// VirtualOverride allows per-platform overriding of detected virtual
// packages. An empty string value clears that package; unset fields use
// the detected default.
type VirtualOverride struct {
	Linux *string `toml:"linux"`
	OSX   *string `toml:"osx"`
	Win   *string `toml:"win"`
	Libc  *struct {
		Family  string `toml:"family"`
		Version string `toml:"version"`
	} `toml:"libc"`
	Cuda *string `toml:"cuda"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, condaerr.New(condaerr.ManifestInvalid, path, err)
	}
	var m Manifest
	if err := toml.Unmarshal(b, &m); err != nil {
		return nil, condaerr.New(condaerr.ManifestInvalid, path, fmt.Errorf("parsing TOML: %w", err))
	}
	m.Dir = dirOf(path)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func dirOf(path string) string {
	i := strings.LastIndexAny(path, `/\`)
	if i < 0 {
		return "."
	}
	return path[:i]
}

// Validate enforces the manifest schema's required fields and formats.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return condaerr.Newf(condaerr.ManifestInvalid, "name", "name is required")
	}
	if !namePattern.MatchString(m.Name) {
		return condaerr.Newf(condaerr.ManifestInvalid, "name", "name %q must match [A-Za-z0-9._-]+", m.Name)
	}
	if m.Author == "" {
		return condaerr.Newf(condaerr.ManifestInvalid, "author", "author is required")
	}
	if strings.TrimSpace(m.Version) == "" || strings.ContainsAny(m.Version, " \t\n") {
		return condaerr.Newf(condaerr.ManifestInvalid, "version", "version must be non-empty and whitespace-free")
	}
	if len(m.Dependencies) == 0 {
		return condaerr.Newf(condaerr.ManifestInvalid, "dependencies", "at least one dependency is required")
	}
	for _, c := range m.Channels {
		if strings.TrimSpace(c) == "" {
			return condaerr.Newf(condaerr.ManifestInvalid, "channels", "channel entries must not be empty")
		}
	}
	for _, p := range m.Platforms {
		if strings.TrimSpace(p) == "" {
			return condaerr.Newf(condaerr.ManifestInvalid, "platforms", "platform entries must not be empty")
		}
		if _, err := platform.Parse(p); err != nil {
			return condaerr.New(condaerr.ManifestInvalid, "platforms", err)
		}
	}
	return nil
}

// EffectiveChannels returns m.Channels, defaulting to conda-forge.
func (m *Manifest) EffectiveChannels() []string {
	if len(m.Channels) == 0 {
		return []string{DefaultChannel}
	}
	return m.Channels
}

// TargetPlatforms parses m.Platforms, defaulting to the host platform when
// none are declared.
func (m *Manifest) TargetPlatforms() ([]platform.Platform, error) {
	if len(m.Platforms) == 0 {
		host, err := platform.Current()
		if err != nil {
			return nil, condaerr.New(condaerr.ManifestInvalid, "platforms", err)
		}
		return []platform.Platform{host}, nil
	}
	out := make([]platform.Platform, 0, len(m.Platforms))
	for _, p := range m.Platforms {
		parsed, err := platform.Parse(p)
		if err != nil {
			return nil, condaerr.New(condaerr.ManifestInvalid, "platforms", err)
		}
		out = append(out, parsed)
	}
	return out, nil
}

// MatchSpecs flattens the dependency map into a sorted slice of match-spec
// strings suitable for the solver/validator.
func (m *Manifest) MatchSpecs() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	var specs []string
	for _, name := range names {
		specs = append(specs, m.Dependencies[name].MatchSpecs(name)...)
	}
	return specs
}
