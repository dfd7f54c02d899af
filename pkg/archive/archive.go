// Package archive implements the Archive Builder (C9): a deterministic
// tar+gzip byte stream containing a staged channel, lockfile, bundle
// metadata, and native launcher.
//
// Grounded directly on pkg/oci/builder.go's newDataTarball (filepath.Walk
// + tar.FileInfoHeader + fixed Uid/Gid), adapted for bit-identical
// determinism: mtime zeroed, uid/gid zeroed, and entries visited in
// sorted order rather than directory-walk order.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/condadist/condadist/pkg/condaerr"
)

// Entry is one file to place into the archive at Name (a "/"-separated
// path rooted at the environment name), with Mode controlling the tar
// header's permission bits.
type Entry struct {
	Name string
	Mode int64
	Data []byte
}

// Build writes a deterministic tar+gzip stream to w containing:
//   - every Entry in entries, written in order of Name;
//   - the full contents of channelDir's "noarch" and platformSubdir
//     subtrees, each file visited in lexical order.
//
// All headers get ModTime zero and Uid/Gid zero so identical inputs
// always produce identical gzip bytes (Property 4).
func Build(w io.Writer, envName string, entries []Entry, channelDir, platformSubdir string) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	sorted := append([]Entry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, e := range sorted {
		if err := writeEntry(tw, path.Join(envName, e.Name), e.Mode, e.Data); err != nil {
			return condaerr.New(condaerr.StagingFailed, e.Name, err)
		}
	}

	for _, subdir := range []string{"noarch", platformSubdir} {
		if subdir == "" {
			continue
		}
		if err := writeSubtree(tw, filepath.Join(channelDir, subdir), path.Join(envName, subdir)); err != nil {
			return condaerr.New(condaerr.StagingFailed, subdir, err)
		}
	}

	if err := tw.Close(); err != nil {
		return condaerr.New(condaerr.StagingFailed, "", err)
	}
	if err := gw.Close(); err != nil {
		return condaerr.New(condaerr.StagingFailed, "", err)
	}
	return nil
}

// BuildBundle assembles the C9 archive for one target platform: the
// in-bundle lockfile, every top-level file in channelDir except the
// lockfile itself, the noarch/ and platformSubdir/ subtrees, the bundle
// metadata blob, and the native launcher binary.
func BuildBundle(w io.Writer, envName string, lockfileYAML, metadataJSON, launcherBytes []byte, lockfileName string, channelDir, platformSubdir string) error {
	entries := []Entry{
		{Name: lockfileName, Mode: 0o644, Data: lockfileYAML},
		{Name: "bundle-metadata.json", Mode: 0o644, Data: metadataJSON},
		{Name: "installer", Mode: 0o755, Data: launcherBytes},
	}

	topLevel, err := os.ReadDir(channelDir)
	if err != nil {
		return condaerr.New(condaerr.StagingFailed, channelDir, err)
	}
	for _, e := range topLevel {
		if e.IsDir() || e.Name() == lockfileName {
			continue
		}
		data, err := os.ReadFile(filepath.Join(channelDir, e.Name()))
		if err != nil {
			return condaerr.New(condaerr.StagingFailed, e.Name(), err)
		}
		entries = append(entries, Entry{Name: e.Name(), Mode: 0o644, Data: data})
	}

	return Build(w, envName, entries, channelDir, platformSubdir)
}

func writeEntry(tw *tar.Writer, name string, mode int64, data []byte) error {
	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Size:     int64(len(data)),
		Mode:     mode,
		Uid:      0,
		Gid:      0,
		ModTime:  time.Unix(0, 0),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

// writeSubtree walks root (which may not exist, e.g. an empty noarch/)
// and writes every regular file under it, sorted by path, rooted at
// archiveRoot inside the archive.
func writeSubtree(tw *tar.Writer, root, archiveRoot string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	var paths []string
	if err := filepath.Walk(root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		paths = append(paths, p)
		return nil
	}); err != nil {
		return err
	}
	sort.Strings(paths)

	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		mode := int64(0o644)
		if info.Mode()&0o111 != 0 {
			mode = 0o755
		}
		if err := writeEntry(tw, path.Join(archiveRoot, filepath.ToSlash(rel)), mode, data); err != nil {
			return err
		}
	}
	return nil
}
