// Package channel implements Channel Staging (C3): materializing a
// resolved record set into a local file-channel directory and producing
// a repodata index per subdir.
//
// Grounded on pkg/oci/builder.go's writeBaseLayer (copy-then-index,
// temp-file-then-rename writes) and pkg/tar/tar.go's careful path
// handling for filesystem materialization.
package channel

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	"github.com/condadist/condadist/pkg/cache"
	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/record"
	"github.com/condadist/condadist/pkg/repodata"
)

// Stage materializes records into root, creating one directory per
// distinct subdir (plus an always-present, possibly-empty "noarch/"),
// copying each record's cached file into place atomically, then
// re-indexing every touched subdir with force=true. c resolves each
// record's cached path; pkg/cache.Cache satisfies this.
func Stage(c *cache.Cache, root string, records []record.Record) error {
	subdirs := map[string]bool{"noarch": true}
	for _, r := range records {
		subdirs[r.Subdir] = true
	}
	for subdir := range subdirs {
		if err := os.MkdirAll(filepath.Join(root, subdir), 0o755); err != nil {
			return condaerr.New(condaerr.StagingFailed, root, err)
		}
	}

	for _, r := range records {
		src := c.Path(r)
		dst := filepath.Join(root, r.Subdir, r.FileName)
		if err := copyAtomic(src, dst); err != nil {
			return condaerr.New(condaerr.StagingFailed, dst, err)
		}
	}

	for subdir := range subdirs {
		if err := repodata.Index(filepath.Join(root, subdir)); err != nil {
			return err
		}
	}
	return nil
}

// copyAtomic copies src to dst via a sibling ".part" file and rename, so
// a crash mid-copy never leaves a corrupt file at dst.
func copyAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	partPath := dst + ".part"
	_ = os.Remove(partPath)
	out, err := os.Create(partPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(partPath)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(partPath)
		return err
	}
	return os.Rename(partPath, dst)
}

// FileURL converts an absolute (or absolute-able) filesystem path into a
// "file://" URL. The only failure mode is a path that cannot be made
// absolute, guarded against by always resolving via filepath.Abs first.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", condaerr.New(condaerr.StagingFailed, path, err)
	}
	if runtime.GOOS == "windows" {
		// Drive-letter paths need an extra leading slash: file:///C:/...
		abs = "/" + filepathToSlash(abs)
	} else {
		abs = filepathToSlash(abs)
	}
	u := url.URL{Scheme: "file", Path: abs}
	return u.String(), nil
}

func filepathToSlash(p string) string {
	out := make([]rune, 0, len(p))
	for _, r := range p {
		if r == '\\' {
			r = '/'
		}
		out = append(out, r)
	}
	return string(out)
}
