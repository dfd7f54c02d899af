package channel_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/condadist/condadist/pkg/cache"
	"github.com/condadist/condadist/pkg/channel"
	"github.com/condadist/condadist/pkg/digest"
	"github.com/condadist/condadist/pkg/record"
	"github.com/condadist/condadist/pkg/repodata"
)

type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

func TestStageCreatesSubdirsAndRepodata(t *testing.T) {
	cacheDir := t.TempDir()
	root := t.TempDir()

	body := []byte("conda-package-bytes")
	sum := digest.OfBytes(body)
	c := &cache.Cache{Root: cacheDir, Fetcher: fetcherFunc(func(_ context.Context, _ string) ([]byte, error) {
		return body, nil
	})}

	records := []record.Record{
		{Name: "numpy", Version: "1.26.0", Build: "py310h0", Subdir: "linux-64",
			FileName: "numpy-1.26.0-py310h0.conda", URL: "https://example.invalid/numpy.conda", SHA256: sum},
	}

	if _, err := c.Fetch(context.Background(), records[0]); err != nil {
		t.Fatal(err)
	}

	if err := channel.Stage(c, root, records); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(root, "noarch")); err != nil {
		t.Fatal("expected noarch/ to always exist")
	}
	staged := filepath.Join(root, "linux-64", "numpy-1.26.0-py310h0.conda")
	got, err := os.ReadFile(staged)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(body) {
		t.Fatal("staged content mismatch")
	}

	idx, err := repodata.Load(filepath.Join(root, "linux-64"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.PackagesConda["numpy-1.26.0-py310h0.conda"]; !ok {
		t.Fatal("expected repodata entry for staged package")
	}

	noarchIdx, err := repodata.Load(filepath.Join(root, "noarch"))
	if err != nil {
		t.Fatal(err)
	}
	if len(noarchIdx.Packages)+len(noarchIdx.PackagesConda) != 0 {
		t.Fatal("expected empty noarch repodata")
	}
}

func TestFileURLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	u, err := channel.FileURL(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(u, "file://") {
		t.Fatalf("expected file:// scheme, got %s", u)
	}
}

func TestFileURLRelativePathResolves(t *testing.T) {
	u, err := channel.FileURL(".")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(u, "file://") {
		t.Fatalf("expected file:// scheme, got %s", u)
	}
}
