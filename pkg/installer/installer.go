// Package installer implements the Installer Assembler (C10):
// concatenating a native launcher, metadata, and a payload archive into
// the self-extracting image format, framed by a trailer.
//
// Grounded on pkg/oci/builder.go's deterministic, temp-file-then-finalize
// write style.
package installer

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/condadist/condadist/pkg/archive"
	"github.com/condadist/condadist/pkg/bundle"
	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/lockfile"
	"github.com/condadist/condadist/pkg/manifest"
	"github.com/condadist/condadist/pkg/platform"
)

// Magic is the fixed trailer magic, shared with pkg/launcher — both ends
// of the contract must agree on this constant exactly.
const Magic = "CONDADIST!"

// Selection is the closed PlatformSelection sum: all target platforms,
// just the host, or one named platform.
type Selection struct {
	All      bool
	Host     bool
	Platform string
}

// ResolvePlatforms expands a Selection against the manifest's declared
// (non-noarch) target platforms.
func ResolvePlatforms(sel Selection, m *manifest.Manifest) ([]platform.Platform, error) {
	targets, err := m.TargetPlatforms()
	if err != nil {
		return nil, err
	}

	switch {
	case sel.All:
		return targets, nil
	case sel.Host:
		host, err := platform.Current()
		if err != nil {
			return nil, condaerr.New(condaerr.ManifestInvalid, "", err)
		}
		for _, p := range targets {
			if p == host {
				return []platform.Platform{p}, nil
			}
		}
		return nil, condaerr.Newf(condaerr.ManifestInvalid, string(host),
			"host platform %s is not among the manifest's declared platforms", host)
	default:
		p, err := platform.Parse(sel.Platform)
		if err != nil {
			return nil, condaerr.New(condaerr.ManifestInvalid, sel.Platform, err)
		}
		for _, t := range targets {
			if t == p {
				return []platform.Platform{t}, nil
			}
		}
		return nil, condaerr.Newf(condaerr.ManifestInvalid, sel.Platform,
			"platform %s is not among the manifest's declared platforms", sel.Platform)
	}
}

// OutputPath implements the output-dir/prefix decision: if requested is
// an existing directory, outputs go there with the environment name as
// prefix; otherwise the parent directory is used and requested's base
// name is the prefix.
func OutputPath(requested, envName string, p platform.Platform) string {
	prefix := envName
	dir := requested

	if info, err := os.Stat(requested); err != nil || !info.IsDir() {
		dir = filepath.Dir(requested)
		if base := filepath.Base(requested); base != "." && base != string(filepath.Separator) {
			prefix = base
		}
	}
	return filepath.Join(dir, prefix+"-"+string(p))
}

// Assemble builds the archive for platform p via pkg/archive, serializes
// the launcher-facing metadata, and writes the trailer-framed image to
// outputPath, chmod'ing it 0755 on unix hosts.
func Assemble(registry Registry, outputPath string, p platform.Platform, envName string, md *bundle.Metadata, lf *lockfile.Lockfile, channelDir string) error {
	launcherBytes, err := registry.Launcher(string(p))
	if err != nil {
		return err
	}

	lockYAML, err := lockfile.Marshal(lf)
	if err != nil {
		return err
	}

	metadataJSON, err := json.Marshal(md.ForLauncher())
	if err != nil {
		return condaerr.New(condaerr.MetadataInvalid, "", err)
	}

	var payload bytes.Buffer
	if err := archive.BuildBundle(&payload, envName, lockYAML, mustMetadataBytes(md), launcherBytes,
		lockfile.FileName, channelDir, string(p)); err != nil {
		return err
	}

	return writeImage(outputPath, launcherBytes, metadataJSON, payload.Bytes())
}

func mustMetadataBytes(md *bundle.Metadata) []byte {
	b, _ := md.Bytes()
	return b
}

// writeImage concatenates the framed trailer exactly:
// launcher || metadata || u64_le(len(metadata)) || payload ||
// u64_le(len(payload)) || magic.
func writeImage(outputPath string, launcher, metadata, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return condaerr.New(condaerr.StagingFailed, outputPath, err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return condaerr.New(condaerr.StagingFailed, outputPath, err)
	}
	defer f.Close()

	if _, err := f.Write(launcher); err != nil {
		return condaerr.New(condaerr.StagingFailed, outputPath, err)
	}
	if _, err := f.Write(metadata); err != nil {
		return condaerr.New(condaerr.StagingFailed, outputPath, err)
	}
	if err := writeU64LE(f, uint64(len(metadata))); err != nil {
		return condaerr.New(condaerr.StagingFailed, outputPath, err)
	}
	if _, err := f.Write(payload); err != nil {
		return condaerr.New(condaerr.StagingFailed, outputPath, err)
	}
	if err := writeU64LE(f, uint64(len(payload))); err != nil {
		return condaerr.New(condaerr.StagingFailed, outputPath, err)
	}
	if _, err := f.Write([]byte(Magic)); err != nil {
		return condaerr.New(condaerr.StagingFailed, outputPath, err)
	}
	if err := f.Close(); err != nil {
		return condaerr.New(condaerr.StagingFailed, outputPath, err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(outputPath, 0o755); err != nil {
			return condaerr.New(condaerr.StagingFailed, outputPath, err)
		}
	}
	return nil
}

func writeU64LE(f *os.File, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := f.Write(b[:])
	return err
}
