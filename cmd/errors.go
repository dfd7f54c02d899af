package cmd

import (
	"fmt"
	"os"

	"github.com/condadist/condadist/pkg/condaerr"
)

// ExitCode maps a condaerr.Kind to a process exit code.
func ExitCode(err error) int {
	kind, ok := condaerr.As(err)
	if !ok {
		return 1
	}
	switch kind {
	case condaerr.ManifestInvalid:
		return 2
	case condaerr.LockStale, condaerr.LockMissing:
		return 3
	case condaerr.SolveFailed:
		return 4
	case condaerr.FetchFailed:
		return 5
	case condaerr.StagingFailed, condaerr.MetadataInvalid:
		return 6
	case condaerr.ImageCorrupt, condaerr.PayloadInvalid:
		return 7
	case condaerr.InstallFailed:
		return 8
	case condaerr.EngineMissing:
		return 9
	default:
		return 1
	}
}

// PrintError writes a user-actionable message for err to stderr,
// special-casing an install hint for a missing container engine.
func PrintError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if kind, ok := condaerr.As(err); ok && kind == condaerr.EngineMissing {
		fmt.Fprintln(os.Stderr, `Docker/Podman not installed or not on PATH.
Please consider installing one of these:
  https://podman-desktop.io/
  https://www.docker.com/products/docker-desktop/`)
	}
}
