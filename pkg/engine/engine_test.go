package engine_test

import (
	"context"
	"testing"

	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/engine"
)

func TestDiscoverExplicitPathWins(t *testing.T) {
	e, err := engine.Discover("/usr/local/bin/my-engine")
	if err != nil {
		t.Fatal(err)
	}
	if e.Path != "/usr/local/bin/my-engine" || e.Name != "custom" {
		t.Fatalf("unexpected engine %+v", e)
	}
}

func TestDiscoverNoEngineOnPathFails(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := engine.Discover("")
	if err == nil {
		t.Fatal("expected ErrNoEngine")
	}
	if kind, ok := condaerr.As(err); !ok || kind != condaerr.EngineMissing {
		t.Fatalf("expected EngineMissing kind, got %v (ok=%v)", kind, ok)
	}
}

func TestBuildxArgsComposesPlatforms(t *testing.T) {
	args := engine.BuildxArgs("Dockerfile", ".", "out.tar", []string{"linux/amd64", "linux/arm64/v8"})
	if !contains(args, "--platform") || !contains(args, "linux/amd64") || !contains(args, "linux/arm64/v8") {
		t.Fatalf("expected platform flags in %v", args)
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func TestDiscoverToolExplicitPathWins(t *testing.T) {
	e, err := engine.DiscoverTool("rpmbuild", "/usr/local/bin/rpmbuild")
	if err != nil {
		t.Fatal(err)
	}
	if e.Path != "/usr/local/bin/rpmbuild" || e.Name != "rpmbuild" {
		t.Fatalf("unexpected engine %+v", e)
	}
}

func TestDiscoverToolMissingFails(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := engine.DiscoverTool("rpmbuild", "")
	if err == nil {
		t.Fatal("expected error when rpmbuild is not on PATH")
	}
	if kind, ok := condaerr.As(err); !ok || kind != condaerr.EngineMissing {
		t.Fatalf("expected EngineMissing kind, got %v (ok=%v)", kind, ok)
	}
}

func TestRunFailurePropagates(t *testing.T) {
	e := &engine.Engine{Name: "custom", Path: "/nonexistent-binary-xyz"}
	if err := e.Run(context.Background(), "version"); err == nil {
		t.Fatal("expected error invoking nonexistent binary")
	}
}
