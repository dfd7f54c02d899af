// Package record defines PackageRecord, the fully-resolved package
// identity shared by every downstream component (C2–C10). Grounded on
// pkg/functions/function.go's plain-struct, immutable-after-construction
// style for core domain types.
package record

import (
	"fmt"

	"github.com/condadist/condadist/pkg/digest"
	"github.com/condadist/condadist/pkg/platform"
)

// NoarchKind classifies a noarch package, if any.
type NoarchKind string

const (
	NoarchNone    NoarchKind = ""
	NoarchGeneric NoarchKind = "generic"
	NoarchPython  NoarchKind = "python"
)

// Record is a fully resolved package identity. Records are immutable after
// resolution: every field is populated by the solver or lockfile store and
// never mutated afterward.
type Record struct {
	Name         string
	Version      string
	Build        string
	Subdir       string // == platform string, including "noarch"
	FileName     string
	URL          string
	SHA256       digest.SHA256 // "" if not yet known
	Dependencies []string      // raw dependency strings, lenient-parsed by consumers
	Noarch       NoarchKind
}

// Platform parses Subdir into a platform.Platform.
func (r Record) Platform() (platform.Platform, error) {
	return platform.Parse(r.Subdir)
}

// Key is the deduplication identity used throughout record aggregation:
// (subdir, file_name).
type Key struct {
	Subdir   string
	FileName string
}

func (r Record) Key() Key { return Key{Subdir: r.Subdir, FileName: r.FileName} }

func (k Key) String() string { return fmt.Sprintf("%s/%s", k.Subdir, k.FileName) }

// NameKey is used where records are indexed by package name within a
// single platform's pool (C6 Lock Validator).
type NameKey struct {
	Subdir string
	Name   string
}

func (r Record) NameKey() NameKey { return NameKey{Subdir: r.Subdir, Name: r.Name} }

// Dedup merges a sequence of record slices, keeping the first occurrence
// of each (subdir, file_name) key and preserving first-seen order — the
// aggregation rule the Solver Driver requires.
func Dedup(groups ...[]Record) []Record {
	seen := make(map[Key]bool)
	var out []Record
	for _, group := range groups {
		for _, r := range group {
			k := r.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, r)
		}
	}
	return out
}

// GroupByPlatform buckets records by their Subdir field.
func GroupByPlatform(records []Record) map[string][]Record {
	out := make(map[string][]Record)
	for _, r := range records {
		out[r.Subdir] = append(out[r.Subdir], r)
	}
	return out
}
