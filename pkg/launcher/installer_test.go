package launcher_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/launcher"
	"github.com/condadist/condadist/pkg/record"
)

func fakeCondaBinary(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake conda script is POSIX shell only")
	}
	path := filepath.Join(t.TempDir(), "fake-conda")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecInstallerRunsWithOfflineFlags(t *testing.T) {
	recordsSeen := filepath.Join(t.TempDir(), "args.txt")
	path := fakeCondaBinary(t, `echo "$@" > `+recordsSeen)

	inst := launcher.ExecInstaller{Path: path}
	prefix := t.TempDir()
	records := []launcher.LocalRecord{
		{Record: record.Record{Name: "numpy"}, FileURL: "file:///tmp/numpy-1.0-0.conda", Channel: "local"},
	}
	if err := inst.Install(context.Background(), t.TempDir(), records, prefix); err != nil {
		t.Fatal(err)
	}

	out, err := os.ReadFile(recordsSeen)
	if err != nil {
		t.Fatal(err)
	}
	got := string(out)
	for _, want := range []string{"install", "-y", "-p", prefix, "--pkgs-dirs", "--offline", "file:///tmp/numpy-1.0-0.conda"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected args to contain %q, got %q", want, got)
		}
	}
}

func TestExecInstallerFailureIsInstallFailed(t *testing.T) {
	path := fakeCondaBinary(t, `echo "boom" >&2; exit 1`)
	inst := launcher.ExecInstaller{Path: path}
	err := inst.Install(context.Background(), t.TempDir(), nil, t.TempDir())
	if err == nil {
		t.Fatal("expected error")
	}
	if kind, ok := condaerr.As(err); !ok || kind != condaerr.InstallFailed {
		t.Fatalf("expected InstallFailed kind, got %v (ok=%v)", kind, ok)
	}
}
