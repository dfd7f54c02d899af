// Package launcher implements the embedded installer's execution path:
// the half of the installer-image contract that must exactly round-trip
// pkg/installer's framing, with explicit, distinctly-kinded errors at
// every parse step.
package launcher

import (
	"archive/tar"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/condadist/condadist/pkg/bundle"
	"github.com/condadist/condadist/pkg/channel"
	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/lockfile"
	"github.com/condadist/condadist/pkg/platform"
	"github.com/condadist/condadist/pkg/record"
)

// Magic must match pkg/installer.Magic exactly.
const Magic = "CONDADIST!"

const minImageSize = int64(len(Magic)) + 16

// Image holds everything recovered from a trailer parse: the two
// offsets/lengths plus the already-read, already-parsed metadata. The
// payload itself is read lazily by Extract, since it may be large.
type Image struct {
	path         string
	payloadStart int64
	payloadLen   uint64
	Metadata     bundle.LauncherMetadata
}

// Open locates the trailer at the end of the file, verifies the magic,
// and parses both length-prefixed sections. Each failed edge surfaces a
// distinct, terminal condaerr.Kind.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, condaerr.New(condaerr.ImageCorrupt, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, condaerr.New(condaerr.ImageCorrupt, path, err)
	}
	size := info.Size()
	if size < minImageSize {
		return nil, condaerr.Newf(condaerr.ImageCorrupt, path, "image too small (%d bytes)", size)
	}

	magic := make([]byte, len(Magic))
	if _, err := f.ReadAt(magic, size-int64(len(Magic))); err != nil {
		return nil, condaerr.New(condaerr.ImageCorrupt, path, err)
	}
	if string(magic) != Magic {
		return nil, condaerr.Newf(condaerr.ImageCorrupt, path, "trailer magic mismatch")
	}

	payloadLen, err := readU64LEAt(f, size-int64(len(Magic))-8)
	if err != nil {
		return nil, condaerr.New(condaerr.ImageCorrupt, path, err)
	}
	if payloadLen == 0 {
		return nil, condaerr.Newf(condaerr.ImageCorrupt, path, "payload length is zero")
	}

	payloadStart := size - int64(len(Magic)) - 8 - int64(payloadLen)
	if payloadStart < 0 {
		return nil, condaerr.Newf(condaerr.ImageCorrupt, path, "payload length %d underflows image bounds", payloadLen)
	}

	metaLen, err := readU64LEAt(f, payloadStart-8)
	if err != nil {
		return nil, condaerr.New(condaerr.ImageCorrupt, path, err)
	}
	if metaLen == 0 {
		return nil, condaerr.Newf(condaerr.ImageCorrupt, path, "metadata length is zero")
	}

	metaStart := payloadStart - 8 - int64(metaLen)
	if metaStart < 0 {
		return nil, condaerr.Newf(condaerr.ImageCorrupt, path, "metadata length %d underflows image bounds", metaLen)
	}

	metaBytes := make([]byte, metaLen)
	if _, err := f.ReadAt(metaBytes, metaStart); err != nil {
		return nil, condaerr.New(condaerr.ImageCorrupt, path, err)
	}
	var md bundle.LauncherMetadata
	if err := json.Unmarshal(metaBytes, &md); err != nil {
		return nil, condaerr.New(condaerr.ImageCorrupt, path, err)
	}

	return &Image{path: path, payloadStart: payloadStart, payloadLen: payloadLen, Metadata: md}, nil
}

func readU64LEAt(f *os.File, offset int64) (uint64, error) {
	var b [8]byte
	if _, err := f.ReadAt(b[:], offset); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Extract reads the payload range and pipes it through gzip+tar into
// destDir.
func (img *Image) Extract(destDir string) error {
	f, err := os.Open(img.path)
	if err != nil {
		return condaerr.New(condaerr.PayloadInvalid, img.path, err)
	}
	defer f.Close()

	if _, err := f.Seek(img.payloadStart, io.SeekStart); err != nil {
		return condaerr.New(condaerr.PayloadInvalid, img.path, err)
	}
	payload := io.LimitReader(f, int64(img.payloadLen))

	gr, err := gzip.NewReader(payload)
	if err != nil {
		return condaerr.New(condaerr.PayloadInvalid, img.path, err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return condaerr.New(condaerr.PayloadInvalid, img.path, err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return condaerr.New(condaerr.PayloadInvalid, hdr.Name, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return condaerr.New(condaerr.PayloadInvalid, target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return condaerr.New(condaerr.PayloadInvalid, target, err)
			}
			mode := os.FileMode(hdr.Mode)
			if mode == 0 {
				mode = 0o644
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
			if err != nil {
				return condaerr.New(condaerr.PayloadInvalid, target, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return condaerr.New(condaerr.PayloadInvalid, target, err)
			}
			if err := out.Close(); err != nil {
				return condaerr.New(condaerr.PayloadInvalid, target, err)
			}
		}
	}
	return nil
}

// safeJoin rejects any tar entry that would escape destDir, the same
// safety guard pkg/tar.go applies to container image layers.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, name)
	rel, err := filepath.Rel(destDir, target)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", condaerr.Newf(condaerr.PayloadInvalid, name, "tar entry escapes extraction root")
	}
	return target, nil
}

// BundleRoot locates the extracted bundle's single top-level directory:
// exactly one top-level directory must exist under extractedDir.
func BundleRoot(extractedDir string) (string, error) {
	entries, err := os.ReadDir(extractedDir)
	if err != nil {
		return "", condaerr.New(condaerr.PayloadInvalid, extractedDir, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) != 1 {
		return "", condaerr.Newf(condaerr.PayloadInvalid, extractedDir,
			"expected exactly one bundle root directory, found %d", len(dirs))
	}
	return filepath.Join(extractedDir, dirs[0]), nil
}

// LocalRecord is a record.Record resolved to an on-disk, file://-addressed
// package, ready to hand to a Conda install library.
type LocalRecord struct {
	record.Record
	FileURL string
	Channel string // always "local"
}

// PrepareRecords reads the embedded lockfile, selects environmentName
// (or the sole environment if empty),
// filter to target ∪ noarch, verify each file exists under bundleRoot,
// and synthesize LocalRecords addressed by file:// URL.
func PrepareRecords(bundleRoot, environmentName string, target platform.Platform) ([]LocalRecord, error) {
	lf, err := lockfile.Load(filepath.Join(bundleRoot, lockfile.FileName))
	if err != nil {
		return nil, condaerr.New(condaerr.PayloadInvalid, bundleRoot, err)
	}

	envName := environmentName
	if envName == "" {
		names := make([]string, 0, len(lf.Environments))
		for n := range lf.Environments {
			names = append(names, n)
		}
		sort.Strings(names)
		if len(names) != 1 {
			return nil, condaerr.Newf(condaerr.PayloadInvalid, bundleRoot,
				"expected exactly one environment in the bundled lockfile, found %d", len(names))
		}
		envName = names[0]
	}

	records := lf.Records(envName, []string{string(target), "noarch"})
	if len(records) == 0 {
		return nil, condaerr.Newf(condaerr.PayloadInvalid, string(target),
			"bundle contains no component for platform %s", target)
	}

	out := make([]LocalRecord, 0, len(records))
	for _, r := range records {
		path := filepath.Join(bundleRoot, r.Subdir, r.FileName)
		if _, err := os.Stat(path); err != nil {
			return nil, condaerr.Newf(condaerr.PayloadInvalid, path, "component file missing: %s", path)
		}
		u, err := channel.FileURL(path)
		if err != nil {
			return nil, err
		}
		out = append(out, LocalRecord{Record: r, FileURL: u, Channel: "local"})
	}
	return out, nil
}
