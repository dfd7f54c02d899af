package launcher

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/condadist/condadist/pkg/condaerr"
)

// About is the subset of a package's info/about.json the --summary
// subcommand displays for featured packages: bundle metadata and
// featured-package "about" data read from each package's about.json.
type About struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Home        string `json:"home"`
	License     string `json:"license"`
}

// ReadAbout extracts info/about.json from a .conda or .tar.bz2 package
// archive at path. Both are Conda's two on-disk package formats: .conda
// is a zip of two zstd-compressed tarballs (info-*.tar.zst,
// pkg-*.tar.zst); .tar.bz2 is a single bzip2-compressed tarball. Only the
// info component is needed here.
func ReadAbout(path string) (About, error) {
	if strings.HasSuffix(path, ".conda") {
		return readAboutFromConda(path)
	}
	return readAboutFromTarBz2(path)
}

func readAboutFromConda(path string) (About, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return About{}, condaerr.New(condaerr.PayloadInvalid, path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "info-") || !strings.HasSuffix(f.Name, ".tar.zst") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return About{}, condaerr.New(condaerr.PayloadInvalid, path, err)
		}
		defer rc.Close()

		dr, err := zstd.NewReader(rc)
		if err != nil {
			return About{}, condaerr.New(condaerr.PayloadInvalid, path, err)
		}
		defer dr.Close()

		return findAboutInTar(dr)
	}
	return About{}, condaerr.Newf(condaerr.PayloadInvalid, path, "no info-*.tar.zst entry found")
}

func readAboutFromTarBz2(path string) (About, error) {
	f, err := os.Open(path)
	if err != nil {
		return About{}, condaerr.New(condaerr.PayloadInvalid, path, err)
	}
	defer f.Close()

	return findAboutInTar(bzip2.NewReader(f))
}

func findAboutInTar(r io.Reader) (About, error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return About{}, condaerr.Newf(condaerr.PayloadInvalid, "", "info/about.json not found")
		}
		if err != nil {
			return About{}, condaerr.New(condaerr.PayloadInvalid, "", err)
		}
		if hdr.Name != "info/about.json" {
			continue
		}
		var about About
		if err := json.NewDecoder(tr).Decode(&about); err != nil {
			return About{}, condaerr.New(condaerr.PayloadInvalid, hdr.Name, err)
		}
		return about, nil
	}
}
