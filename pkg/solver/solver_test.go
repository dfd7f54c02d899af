package solver_test

import (
	"context"
	"testing"

	"github.com/condadist/condadist/pkg/manifest"
	"github.com/condadist/condadist/pkg/platform"
	"github.com/condadist/condadist/pkg/record"
	"github.com/condadist/condadist/pkg/repodata"
	"github.com/condadist/condadist/pkg/solver"
)

type fakeSolver struct {
	calls []solver.Request
	byPlatform map[string][]record.Record
}

func (f *fakeSolver) Solve(_ context.Context, req solver.Request) ([]record.Record, error) {
	f.calls = append(f.calls, req)
	return f.byPlatform[string(req.Platform)], nil
}

func testManifest() *manifest.Manifest {
	return &manifest.Manifest{
		Name: "demo", Author: "a", Version: "1",
		Dependencies: map[string]manifest.DepSpec{"numpy": {Constraint: ">=1.2"}},
	}
}

func TestSolveAggregatesAndDedups(t *testing.T) {
	fake := &fakeSolver{byPlatform: map[string][]record.Record{
		"linux-64": {
			{Name: "numpy", Subdir: "linux-64", FileName: "numpy-1.0-0.conda"},
			{Name: "six", Subdir: "noarch", FileName: "six-1.0-0.conda"},
		},
		"osx-arm64": {
			{Name: "numpy", Subdir: "osx-arm64", FileName: "numpy-1.0-0.conda"},
			{Name: "six", Subdir: "noarch", FileName: "six-1.0-0.conda"}, // duplicate across platforms
		},
	}}
	d := &solver.Driver{Solver: fake}

	targets := []platform.Platform{platform.LinuxAMD64, platform.OSXARM64}
	solved, err := d.Solve(context.Background(), testManifest(), targets, map[string]*repodata.RepoData{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(solved) != 3 {
		t.Fatalf("expected 3 deduplicated records, got %d: %+v", len(solved), solved)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected one solve call per platform, got %d", len(fake.calls))
	}
	if fake.calls[0].ChannelPriority != "strict" || fake.calls[0].Strategy != "highest" {
		t.Fatalf("expected fixed strict/highest options, got %+v", fake.calls[0])
	}
}

func TestSolvePassesPinsFromLocked(t *testing.T) {
	fake := &fakeSolver{byPlatform: map[string][]record.Record{"linux-64": nil}}
	d := &solver.Driver{Solver: fake}
	locked := []record.Record{
		{Name: "numpy", Subdir: "linux-64", FileName: "numpy-1.0-0.conda"},
		{Name: "six", Subdir: "noarch", FileName: "six-1.0-0.conda"},
		{Name: "scipy", Subdir: "osx-arm64", FileName: "scipy-1.0-0.conda"},
	}

	_, err := d.Solve(context.Background(), testManifest(), []platform.Platform{platform.LinuxAMD64}, map[string]*repodata.RepoData{}, locked)
	if err != nil {
		t.Fatal(err)
	}
	pins := fake.calls[0].Pins
	if len(pins) != 2 {
		t.Fatalf("expected pins from linux-64+noarch only, got %+v", pins)
	}
}

func TestSolveFailurePropagates(t *testing.T) {
	d := &solver.Driver{Solver: failingSolver{}}
	_, err := d.Solve(context.Background(), testManifest(), []platform.Platform{platform.LinuxAMD64}, map[string]*repodata.RepoData{}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

type failingSolver struct{}

func (failingSolver) Solve(context.Context, solver.Request) ([]record.Record, error) {
	return nil, errUnsatisfiable
}

var errUnsatisfiable = testErr("unsatisfiable")

type testErr string

func (e testErr) Error() string { return string(e) }
