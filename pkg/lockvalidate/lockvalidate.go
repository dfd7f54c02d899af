// Package lockvalidate implements the Lock Validator (C6): determining
// whether an existing lockfile's record set satisfies a manifest's match
// specs across every target platform.
//
// For each target platform, walks that platform's dependency closure
// breadth-first from the manifest's direct specs, using a fresh visited
// set per platform since a dependency may resolve differently (or only
// through noarch) per subdir. The per-platform visited keys accumulate
// into a single reachable set; any locked record outside that union is
// extraneous.
package lockvalidate

import (
	"fmt"

	"github.com/condadist/condadist/pkg/matchspec"
	"github.com/condadist/condadist/pkg/platform"
	"github.com/condadist/condadist/pkg/record"
)

// Result carries the validation outcome: valid, or a human-readable
// stale reason on failure.
type Result struct {
	Valid  bool
	Reason string
}

// Validate checks that records satisfies every manifest spec, that the
// dependency closure of those specs resolves entirely within records,
// and that no locked record is left unreachable from that closure.
func Validate(records []record.Record, specs []string, targets []platform.Platform) Result {
	byPlatform := record.GroupByPlatform(records)
	reachable := make(map[record.NameKey]bool)

	for _, p := range targets {
		subdir := string(p)
		visited := make(map[record.NameKey]bool)
		pool := append(append([]record.Record{}, byPlatform[subdir]...), byPlatform["noarch"]...)
		if len(pool) == 0 {
			return Result{Reason: fmt.Sprintf("no locked records for platform %s", subdir)}
		}

		byName := make(map[string]record.Record, len(pool))
		for _, r := range pool {
			if _, dup := byName[r.Name]; dup {
				return Result{Reason: fmt.Sprintf("duplicate package name %q locked for platform %s", r.Name, subdir)}
			}
			byName[r.Name] = r
		}

		var queue []record.Record
		for _, s := range specs {
			spec, err := matchspec.Parse(s)
			if err != nil {
				return Result{Reason: fmt.Sprintf("unparseable match spec %q: %v", s, err)}
			}
			r, ok := byName[spec.Name]
			if !ok || !spec.Matches(r.Name, r.Version, r.Build) {
				return Result{Reason: fmt.Sprintf("no locked record satisfies %q on platform %s", s, subdir)}
			}
			if key := r.NameKey(); !visited[key] {
				visited[key] = true
				reachable[key] = true
				queue = append(queue, r)
			}
		}

		for len(queue) > 0 {
			r := queue[0]
			queue = queue[1:]

			for _, dep := range r.Dependencies {
				depSpec, ok := matchspec.ParseLenient(dep)
				if !ok {
					return Result{Reason: fmt.Sprintf("unparseable dependency %q of %s on platform %s", dep, r.Name, subdir)}
				}
				if depSpec.IsVirtual() {
					continue
				}
				dr, ok := byName[depSpec.Name]
				if !ok || !depSpec.Matches(dr.Name, dr.Version, dr.Build) {
					return Result{Reason: fmt.Sprintf("no locked record satisfies dependency %q of %s on platform %s", dep, r.Name, subdir)}
				}
				if key := dr.NameKey(); !visited[key] {
					visited[key] = true
					reachable[key] = true
					queue = append(queue, dr)
				}
			}
		}
	}

	for _, r := range records {
		if !reachable[r.NameKey()] {
			return Result{Reason: fmt.Sprintf("extraneous locked package %s (%s) not reachable from any manifest spec", r.Name, r.Subdir)}
		}
	}

	return Result{Valid: true}
}
