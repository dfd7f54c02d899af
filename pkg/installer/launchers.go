package installer

import (
	"embed"
	"io/fs"

	"github.com/condadist/condadist/pkg/condaerr"
)

// launchersFS embeds whatever cross-compiled condadist-launcher binaries
// the build system has populated pkg/installer/launchers/<platform> with
// before building the producer binary. The directory ships with only a
// .gitkeep in this repository, so EmbeddedRegistry.Launcher below
// degrades gracefully to "platform not embedded" for every platform
// until that build step runs.
//
//go:embed launchers/*
var launchersFS embed.FS

const launchersDir = "launchers"

// launcherNotEmbeddedError classifies a platform missing from the embedded
// registry; EmbeddedRegistry.Launcher wraps it as condaerr.StagingFailed,
// since it is a build-time asset problem rather than an install-time one.
type launcherNotEmbeddedError struct {
	platform string
}

func (e *launcherNotEmbeddedError) Error() string {
	return "no embedded launcher for platform " + e.platform
}

// Registry resolves the compile-time platform -> launcher-bytes table.
// A fake Registry is substituted in tests so the asset-population build
// step is never required to exercise C10's framing logic.
type Registry interface {
	Launcher(platformString string) ([]byte, error)
}

// EmbeddedRegistry reads cross-compiled launcher binaries from
// launchersFS, named by platform string (e.g. "launchers/linux-64").
type EmbeddedRegistry struct{}

func (EmbeddedRegistry) Launcher(platformString string) ([]byte, error) {
	b, err := fs.ReadFile(launchersFS, launchersDir+"/"+platformString)
	if err != nil {
		return nil, condaerr.New(condaerr.StagingFailed, platformString, &launcherNotEmbeddedError{platform: platformString})
	}
	return b, nil
}
