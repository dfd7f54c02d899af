package repodata_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/condadist/condadist/pkg/repodata"
)

func TestParseFileName(t *testing.T) {
	cases := []struct {
		file                          string
		name, version, build string
		ok                            bool
	}{
		{"numpy-1.26.0-py310h0.conda", "numpy", "1.26.0", "py310h0", true},
		{"my-long-name-pkg-2.3.4-h_abc123_0.tar.bz2", "my-long-name-pkg", "2.3.4", "h_abc123_0", true},
		{"repodata.json", "", "", "", false},
		{"malformed.conda", "", "", "", false},
	}
	for _, c := range cases {
		name, version, build, ok := repodata.ParseFileName(c.file)
		if ok != c.ok || name != c.name || version != c.version || build != c.build {
			t.Fatalf("ParseFileName(%q) = (%q,%q,%q,%v), want (%q,%q,%q,%v)",
				c.file, name, version, build, ok, c.name, c.version, c.build, c.ok)
		}
	}
}

func TestIndexWritesDeterministicJSON(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"numpy-1.26.0-py310h0.conda", "scipy-1.11.0-py310h1.tar.bz2", "repodata.json"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := repodata.Index(dir); err != nil {
		t.Fatal(err)
	}

	idx, err := repodata.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.PackagesConda["numpy-1.26.0-py310h0.conda"]; !ok {
		t.Fatal("expected numpy entry in packages.conda")
	}
	if _, ok := idx.Packages["scipy-1.11.0-py310h1.tar.bz2"]; !ok {
		t.Fatal("expected scipy entry in packages")
	}
	if len(idx.Packages)+len(idx.PackagesConda) != 2 {
		t.Fatalf("expected exactly 2 parsed entries, got %d", len(idx.Packages)+len(idx.PackagesConda))
	}

	raw, err := os.ReadFile(filepath.Join(dir, "repodata.json"))
	if err != nil {
		t.Fatal(err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatal(err)
	}
}

func TestIndexForceOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "repodata.json"), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "numpy-1.0-0.conda"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := repodata.Index(dir); err != nil {
		t.Fatal(err)
	}
	idx, err := repodata.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.PackagesConda) != 1 {
		t.Fatalf("expected re-index to replace stale content, got %+v", idx)
	}
}
