package solver

import (
	"github.com/condadist/condadist/pkg/manifest"
	"github.com/condadist/condadist/pkg/platform"
	"github.com/condadist/condadist/pkg/record"
)

// defaultVirtualPackage builds a minimal virtual PackageRecord; virtual
// packages carry no URL or digest since the solver never fetches them.
func defaultVirtualPackage(name, version, subdir string) record.Record {
	return record.Record{Name: name, Version: version, Build: "0", Subdir: subdir}
}

// DefaultVirtualPackages returns the baseline virtual-package set the
// solver exposes for platform p, before any manifest overrides are
// applied.
func DefaultVirtualPackages(p platform.Platform) []record.Record {
	subdir := string(p)
	var pkgs []record.Record
	switch {
	case p.IsLinux():
		pkgs = append(pkgs,
			defaultVirtualPackage("__linux", "5.10.0", subdir),
			defaultVirtualPackage("__glibc", "2.31", subdir),
			defaultVirtualPackage("__unix", "0", subdir),
		)
	case p.IsOSX():
		pkgs = append(pkgs,
			defaultVirtualPackage("__osx", "11.0", subdir),
			defaultVirtualPackage("__unix", "0", subdir),
		)
	case p.IsWindows():
		pkgs = append(pkgs, defaultVirtualPackage("__win", "0", subdir))
	}
	return pkgs
}

// ApplyVirtualOverrides adjusts base according to a manifest's
// per-platform virtual-package override for p: empty-string values clear
// the named package, non-empty values replace its version, and a nil
// override leaves base untouched.
func ApplyVirtualOverrides(base []record.Record, p platform.Platform, override *manifest.VirtualOverride) []record.Record {
	if override == nil {
		return base
	}

	set := func(pkgs []record.Record, name, version string) []record.Record {
		if version == "" {
			var out []record.Record
			for _, r := range pkgs {
				if r.Name != name {
					out = append(out, r)
				}
			}
			return out
		}
		found := false
		var out []record.Record
		for _, r := range pkgs {
			if r.Name == name {
				r.Version = version
				found = true
			}
			out = append(out, r)
		}
		if !found {
			out = append(out, defaultVirtualPackage(name, version, string(p)))
		}
		return out
	}

	out := base
	switch {
	case p.IsLinux() && override.Linux != nil:
		out = set(out, "__linux", *override.Linux)
	case p.IsOSX() && override.OSX != nil:
		out = set(out, "__osx", *override.OSX)
	case p.IsWindows() && override.Win != nil:
		out = set(out, "__win", *override.Win)
	}
	if override.Libc != nil {
		out = set(out, "__"+override.Libc.Family, override.Libc.Version)
	}
	if override.Cuda != nil {
		out = set(out, "__cuda", *override.Cuda)
	}
	return out
}
