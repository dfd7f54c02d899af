// Package matchspec parses Conda MatchSpec strings: "name", "name
// >=1.2,<2", "name 1.2.* build_*". It supports both the manifest's strict
// parse (used when building solver input) and the validator's lenient
// parse (used when walking a dependency closure).
//
// Captures only what the solver/validator actually need from a parsed
// spec (name + version constraint + optional build string), without
// attempting to re-implement the full Conda version grammar.
package matchspec

import (
	"fmt"
	"strings"
)

// MatchSpec is a parsed Conda dependency constraint.
type MatchSpec struct {
	Name       string
	Constraint string // raw version constraint, e.g. ">=1.2,<2" or "" for any
	Build      string // build string glob, if present
	Raw        string
}

// IsVirtual reports whether the spec names a virtual package (begins with
// "__", e.g. __cuda, __glibc).
func (m MatchSpec) IsVirtual() bool {
	return strings.HasPrefix(m.Name, "__")
}

// Parse performs a strict parse: the input must look like a well-formed
// match spec ("name", "name constraint", or "name constraint build").
func Parse(raw string) (MatchSpec, error) {
	spec, ok := tryParse(raw)
	if !ok {
		return MatchSpec{}, fmt.Errorf("matchspec: cannot parse %q", raw)
	}
	return spec, nil
}

// ParseLenient performs a best-effort parse of a dependency string as
// found in a resolved package's dependency list. A string this cannot
// make sense of is not silently dropped: it is reported as unparseable
// so the caller can fail the validation step that needed it (see
// DESIGN.md for the conservative-reading rationale).
func ParseLenient(raw string) (MatchSpec, bool) {
	return tryParse(raw)
}

func tryParse(raw string) (MatchSpec, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return MatchSpec{}, false
	}
	fields := strings.Fields(trimmed)
	spec := MatchSpec{Name: fields[0], Raw: raw}
	if spec.Name == "" {
		return MatchSpec{}, false
	}
	if len(fields) > 1 {
		spec.Constraint = fields[1]
	}
	if len(fields) > 2 {
		spec.Build = fields[2]
	}
	if len(fields) > 3 {
		// More than "name constraint build" is not a shape either parse
		// mode accepts.
		return MatchSpec{}, false
	}
	return spec, true
}

// Matches reports whether record (name, version, build) satisfies the
// spec. Version/build matching is glob-and-range aware only to the extent
// the grammar requires: exact equality unless the constraint contains
// comparison operators or wildcards, in which case a permissive
// prefix/operator check is applied. The full Conda version-ordering
// algebra is delegated to the external solver in a real deployment; here
// the validator only needs "does this look satisfied" for closure
// checking, not an authoritative solve.
func (m MatchSpec) Matches(name, version, build string) bool {
	if m.Name != name {
		return false
	}
	if m.Constraint != "" && !versionSatisfies(version, m.Constraint) {
		return false
	}
	if m.Build != "" && !globMatch(m.Build, build) {
		return false
	}
	return true
}

func versionSatisfies(version, constraint string) bool {
	for _, clause := range strings.Split(constraint, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" || clause == "*" {
			continue
		}
		if !clauseSatisfies(version, clause) {
			return false
		}
	}
	return true
}

func clauseSatisfies(version, clause string) bool {
	for _, op := range []string{">=", "<=", "==", "!=", ">", "<", "="} {
		if strings.HasPrefix(clause, op) {
			want := strings.TrimPrefix(clause, op)
			return compareVersions(version, want, op)
		}
	}
	// bare version or glob, e.g. "1.2.*"
	return globMatch(clause, version)
}

func compareVersions(got, want, op string) bool {
	c := compareVersionStrings(got, want)
	switch op {
	case ">=":
		return c >= 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case "<":
		return c < 0
	case "==", "=":
		return c == 0
	case "!=":
		return c != 0
	default:
		return false
	}
}

// compareVersionStrings does a dotted-numeric comparison, falling back to
// lexical comparison for non-numeric segments.
func compareVersionStrings(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv string
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av == bv {
			continue
		}
		an, aok := atoi(av)
		bn, bok := atoi(bv)
		if aok && bok {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if av < bv {
			return -1
		}
		return 1
	}
	return 0
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// globMatch supports a single trailing "*" wildcard, the only glob shape
// Conda build/version globs use in practice.
func globMatch(pattern, s string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(s, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == s
}
