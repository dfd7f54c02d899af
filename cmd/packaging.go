package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/condadist/condadist/pkg/manifest"
)

// rpmbuildArgs renders a minimal .spec file describing the installer as
// a single %post-executed payload, then returns the rpmbuild invocation
// for it. Grounded on the same generated-build-file approach as
// writeContainerDockerfile, applied to rpmbuild's spec format instead of
// a Dockerfile.
func rpmbuildArgs(buildRoot, installerPath, name, version, release, output string) []string {
	specPath := filepath.Join(buildRoot, name+".spec")
	spec := fmt.Sprintf(`Name: %s
Version: %s
Release: %s
Summary: %s (condadist environment)
License: Unspecified
BuildArch: noarch

%%description
Conda environment %s packaged by condadist.

%%install
mkdir -p %%{buildroot}/opt/condadist
install -m 0755 %s %%{buildroot}/opt/condadist/%s-installer

%%files
/opt/condadist/%s-installer

%%post
/opt/condadist/%s-installer --prefix /opt/conda
`, name, version, release, name, name, installerPath, name, name, name)

	_ = os.WriteFile(specPath, []byte(spec), 0o644)
	return []string{"--define", "_topdir " + buildRoot, "--define", "_rpmdir " + filepath.Dir(output), "-bb", specPath}
}

// stageDebPayload assembles a minimal dpkg-deb source directory: the
// DEBIAN/control file plus the installer under /opt/condadist, run from
// postinst.
func stageDebPayload(buildRoot, installerPath string, m *manifest.Manifest) (string, error) {
	stageDir := filepath.Join(buildRoot, "deb-stage")
	debianDir := filepath.Join(stageDir, "DEBIAN")
	optDir := filepath.Join(stageDir, "opt", "condadist")
	if err := os.MkdirAll(debianDir, 0o755); err != nil {
		return stageDir, err
	}
	if err := os.MkdirAll(optDir, 0o755); err != nil {
		return stageDir, err
	}

	installerData, err := os.ReadFile(installerPath)
	if err != nil {
		return stageDir, err
	}
	destInstaller := filepath.Join(optDir, m.Name+"-installer")
	if err := os.WriteFile(destInstaller, installerData, 0o755); err != nil {
		return stageDir, err
	}

	control := fmt.Sprintf(`Package: %s
Version: %s
Section: utils
Priority: optional
Architecture: all
Maintainer: %s
Description: Conda environment %s packaged by condadist
`, m.Name, m.Version, m.Author, m.Name)
	if err := os.WriteFile(filepath.Join(debianDir, "control"), []byte(control), 0o644); err != nil {
		return stageDir, err
	}

	postinst := fmt.Sprintf("#!/bin/sh\nset -e\n/opt/condadist/%s-installer --prefix /opt/conda\n", m.Name)
	if err := os.WriteFile(filepath.Join(debianDir, "postinst"), []byte(postinst), 0o755); err != nil {
		return stageDir, err
	}

	return stageDir, nil
}
