// Package solver implements the Solver Driver (C5): invoking an external
// dependency solver per target platform and aggregating deduplicated
// results.
//
// The actual Conda SAT solver is an external collaborator, consumed
// through its interface rather than reimplemented; it is modeled as the
// injectable Solver interface, mirroring pkg/functions/client.go's
// Builder/Deployer injection pattern so tests never need a real solver
// binary.
package solver

import (
	"context"

	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/manifest"
	"github.com/condadist/condadist/pkg/platform"
	"github.com/condadist/condadist/pkg/record"
	"github.com/condadist/condadist/pkg/repodata"
)

// Request is a single-platform solve request: everything a Solver
// implementation needs to produce a record set for one subdir.
type Request struct {
	Platform        platform.Platform
	SolveSubdirs    []string // {platform, "noarch"}
	Repodata        map[string]*repodata.RepoData // keyed by subdir
	Pins            []record.Record
	VirtualPackages []record.Record
	MatchSpecs      []string
	ChannelPriority string // always "strict"
	Strategy        string // always "highest"
}

// Solver resolves one platform's solve set into a record list.
type Solver interface {
	Solve(ctx context.Context, req Request) ([]record.Record, error)
}

// Driver drives a Solver across every target platform and aggregates
// the results.
type Driver struct {
	Solver Solver
}

// Solve issues one solve per platform in targets, passing pins drawn
// from locked (the existing lockfile's records for that platform plus
// noarch) and the manifest's virtual-package overrides, then
// deduplicates the union keyed by (subdir, file_name) in first-seen
// platform order. Failure of any one platform fails the whole solve.
func (d *Driver) Solve(ctx context.Context, m *manifest.Manifest, targets []platform.Platform, repo map[string]*repodata.RepoData, locked []record.Record) ([]record.Record, error) {
	lockedByPlatform := record.GroupByPlatform(locked)
	specs := m.MatchSpecs()

	var groups [][]record.Record
	for _, p := range targets {
		subdirs := []string{string(p), "noarch"}
		pins := append(append([]record.Record{}, lockedByPlatform[string(p)]...), lockedByPlatform["noarch"]...)

		virtual := DefaultVirtualPackages(p)
		if override, ok := m.VirtualPkgs[string(p)]; ok {
			virtual = ApplyVirtualOverrides(virtual, p, &override)
		}

		req := Request{
			Platform:        p,
			SolveSubdirs:    subdirs,
			Repodata:        repo,
			Pins:            pins,
			VirtualPackages: virtual,
			MatchSpecs:      specs,
			ChannelPriority: "strict",
			Strategy:        "highest",
		}

		solved, err := d.Solver.Solve(ctx, req)
		if err != nil {
			return nil, condaerr.New(condaerr.SolveFailed, string(p), err)
		}
		groups = append(groups, solved)
	}

	return record.Dedup(groups...), nil
}
