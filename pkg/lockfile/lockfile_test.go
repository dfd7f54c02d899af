package lockfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/condadist/condadist/pkg/digest"
	"github.com/condadist/condadist/pkg/lockfile"
	"github.com/condadist/condadist/pkg/record"
)

func sampleRecords() []record.Record {
	return []record.Record{
		{Name: "numpy", Version: "1.26.0", Build: "py310h0", Subdir: "linux-64",
			FileName: "numpy-1.26.0-py310h0.conda", URL: "https://example.invalid/numpy.conda",
			SHA256: digest.SHA256("abc123")},
		{Name: "six", Version: "1.16.0", Build: "pyh0", Subdir: "noarch",
			FileName: "six-1.16.0-pyh0.tar.bz2", URL: "https://example.invalid/six.tar.bz2",
			Noarch: record.NoarchPython},
	}
}

func TestBuildWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, lockfile.FileName)

	lf := lockfile.Build("env", []string{"file:./"}, sampleRecords())
	if err := lockfile.Write(path, lf); err != nil {
		t.Fatal(err)
	}

	loaded, err := lockfile.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	recs := loaded.Records("env", []string{"linux-64", "noarch"})
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	env := loaded.Environments["env"]
	if env.Options.Strategy != lockfile.StrategyHighest || env.Options.ChannelPriority != lockfile.ChannelPriorityStrict {
		t.Fatalf("expected fixed solve options, got %+v", env.Options)
	}
}

func TestRecordsMissingEnvironmentIsEmptyNotError(t *testing.T) {
	lf := lockfile.Build("env", []string{"file:./"}, sampleRecords())
	recs := lf.Records("other-env", []string{"linux-64"})
	if recs != nil {
		t.Fatalf("expected nil records for missing environment, got %+v", recs)
	}
}

func TestWriteIsAtomicNoLeftoverPart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, lockfile.FileName)
	lf := lockfile.Build("env", []string{"file:./"}, sampleRecords())
	if err := lockfile.Write(path, lf); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".part"); !os.IsNotExist(err) {
		t.Fatal("expected no leftover .part file")
	}
}
