package launcher_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/condadist/condadist/pkg/bundle"
	"github.com/condadist/condadist/pkg/installer"
	"github.com/condadist/condadist/pkg/launcher"
	"github.com/condadist/condadist/pkg/lockfile"
	"github.com/condadist/condadist/pkg/platform"
	"github.com/condadist/condadist/pkg/record"
)

type fakeRegistry struct{ bytes []byte }

func (r fakeRegistry) Launcher(string) ([]byte, error) { return r.bytes, nil }

func buildSampleImage(t *testing.T) (string, string) {
	t.Helper()
	channelDir := t.TempDir()
	os.MkdirAll(filepath.Join(channelDir, "noarch"), 0o755)
	os.MkdirAll(filepath.Join(channelDir, "linux-64"), 0o755)
	os.WriteFile(filepath.Join(channelDir, "linux-64", "numpy-1.0-0.conda"), []byte("pkgbytes"), 0o644)
	os.WriteFile(filepath.Join(channelDir, lockfile.FileName), []byte("unused"), 0o644)

	out := filepath.Join(t.TempDir(), "demo-linux-64")
	md := &bundle.Metadata{Summary: "demo env", Author: "jane"}
	lf := lockfile.Build("demo", []string{"file:./"}, []record.Record{
		{Name: "numpy", Version: "1.0", Build: "0", Subdir: "linux-64", FileName: "numpy-1.0-0.conda"},
	})

	registry := fakeRegistry{bytes: []byte("launcher-stub-bytes")}
	if err := installer.Assemble(registry, out, platform.LinuxAMD64, "demo", md, lf, channelDir); err != nil {
		t.Fatal(err)
	}
	return out, channelDir
}

func TestOpenParsesValidImage(t *testing.T) {
	path, _ := buildSampleImage(t)
	img, err := launcher.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Metadata.Summary != "demo env" {
		t.Fatalf("unexpected metadata %+v", img.Metadata)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path, _ := buildSampleImage(t)
	data, _ := os.ReadFile(path)
	data[len(data)-1] = 'X'
	bad := filepath.Join(t.TempDir(), "bad")
	os.WriteFile(bad, data, 0o644)

	if _, err := launcher.Open(bad); err == nil {
		t.Fatal("expected trailer magic mismatch error")
	}
}

func TestOpenRejectsZeroPayloadLen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zero-payload")
	var buf []byte
	buf = append(buf, []byte("launcher")...)
	buf = append(buf, []byte(`{"summary":"x"}`)...)
	metaLen := make([]byte, 8)
	metaLen[0] = byte(len(`{"summary":"x"}`))
	buf = append(buf, metaLen...)
	payloadLen := make([]byte, 8) // all zero
	buf = append(buf, payloadLen...)
	buf = append(buf, []byte(launcher.Magic)...)
	os.WriteFile(path, buf, 0o644)

	if _, err := launcher.Open(path); err == nil {
		t.Fatal("expected zero payload length to be rejected")
	}
}

func TestExtractAndBundleRoot(t *testing.T) {
	path, _ := buildSampleImage(t)
	img, err := launcher.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	dest := t.TempDir()
	if err := img.Extract(dest); err != nil {
		t.Fatal(err)
	}
	root, err := launcher.BundleRoot(dest)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(root) != "demo" {
		t.Fatalf("expected bundle root 'demo', got %s", root)
	}
	if _, err := os.Stat(filepath.Join(root, "linux-64", "numpy-1.0-0.conda")); err != nil {
		t.Fatal("expected extracted package file")
	}
}

func TestBundleRootRejectsMultipleRoots(t *testing.T) {
	dir := t.TempDir()
	os.Mkdir(filepath.Join(dir, "a"), 0o755)
	os.Mkdir(filepath.Join(dir, "b"), 0o755)
	if _, err := launcher.BundleRoot(dir); err == nil {
		t.Fatal("expected error: multiple bundle roots")
	}
}

func TestPrepareRecordsResolvesFileURLs(t *testing.T) {
	path, channelDir := buildSampleImage(t)
	img, err := launcher.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	dest := t.TempDir()
	if err := img.Extract(dest); err != nil {
		t.Fatal(err)
	}
	root, err := launcher.BundleRoot(dest)
	if err != nil {
		t.Fatal(err)
	}

	// The extracted bundle's lockfile was a placeholder ("unused"); write
	// a real one so PrepareRecords has something to parse.
	lf := lockfile.Build("demo", []string{"file:./"}, []record.Record{
		{Name: "numpy", Version: "1.0", Build: "0", Subdir: "linux-64", FileName: "numpy-1.0-0.conda"},
	})
	if err := lockfile.Write(filepath.Join(root, lockfile.FileName), lf); err != nil {
		t.Fatal(err)
	}
	_ = channelDir

	recs, err := launcher.PrepareRecords(root, "", platform.LinuxAMD64)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Channel != "local" {
		t.Fatalf("unexpected records %+v", recs)
	}
}

func TestPrepareRecordsMissingPlatformFails(t *testing.T) {
	path, _ := buildSampleImage(t)
	img, err := launcher.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	dest := t.TempDir()
	if err := img.Extract(dest); err != nil {
		t.Fatal(err)
	}
	root, err := launcher.BundleRoot(dest)
	if err != nil {
		t.Fatal(err)
	}
	lf := lockfile.Build("demo", []string{"file:./"}, []record.Record{
		{Name: "numpy", Version: "1.0", Build: "0", Subdir: "linux-64", FileName: "numpy-1.0-0.conda"},
	})
	if err := lockfile.Write(filepath.Join(root, lockfile.FileName), lf); err != nil {
		t.Fatal(err)
	}

	if _, err := launcher.PrepareRecords(root, "", platform.OSXARM64); err == nil {
		t.Fatal("expected error: no component for osx-arm64")
	}
}
