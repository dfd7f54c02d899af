// Package bundle implements Bundle Metadata (C8): deriving the
// presentation metadata blob embedded in every installer image, by
// defaulting and then validating against what was actually built.
package bundle

import (
	"encoding/json"

	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/manifest"
	"github.com/condadist/condadist/pkg/matchspec"
	"github.com/condadist/condadist/pkg/record"
)

// Metadata is the bundle-metadata.json payload embedded alongside a
// staged bundle.
type Metadata struct {
	Summary      string   `json:"summary"`
	Author       string   `json:"author"`
	Description  string   `json:"description,omitempty"`
	ReleaseNotes string   `json:"release_notes,omitempty"`
	Featured     []string `json:"featured"`
}

// Derive builds Metadata for environmentName from an optional manifest
// metadata config, the resolved record set, and the manifest's author.
// Summary defaults to environmentName; every featured entry must parse
// as a bare, normalized package name and appear in records (by package
// name), else MetadataInvalid.
func Derive(environmentName string, cfg *manifest.Metadata, records []record.Record, author string) (*Metadata, error) {
	names := make(map[string]bool, len(records))
	for _, r := range records {
		names[r.Name] = true
	}

	md := &Metadata{
		Summary: environmentName,
		Author:  author,
	}
	if cfg == nil {
		return md, nil
	}

	if cfg.Summary != "" {
		md.Summary = cfg.Summary
	}
	md.Description = cfg.Description
	md.ReleaseNotes = cfg.ReleaseNotes

	seen := make(map[string]bool, len(cfg.Featured))
	for _, name := range cfg.Featured {
		spec, err := matchspec.Parse(name)
		if err != nil || spec.Constraint != "" || spec.Build != "" || spec.Name != name {
			return nil, condaerr.Newf(condaerr.MetadataInvalid, name,
				"featured package %q does not parse as a normalized package name", name)
		}
		if !names[name] {
			return nil, condaerr.Newf(condaerr.MetadataInvalid, name,
				"featured package %q is not present in the resolved record set", name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		md.Featured = append(md.Featured, name)
	}
	return md, nil
}

// MarshalJSON-friendly encode helper used by the archive/installer
// builders.
func (m *Metadata) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// LauncherMetadata is the minimal object serialized into the installer
// trailer for the launcher's own use: currently just the bundle summary.
type LauncherMetadata struct {
	Summary string `json:"summary"`
}

func (m *Metadata) ForLauncher() LauncherMetadata {
	return LauncherMetadata{Summary: m.Summary}
}
