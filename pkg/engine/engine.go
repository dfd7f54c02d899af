// Package engine discovers and invokes a container engine (docker or
// podman) for the container/package subcommands' external image builds,
// avoiding any dependency on a full Docker Engine API client.
//
// Grounded on cmd/func/main.go's dockerOrPodmanInstalled PATH probe and
// the exec.CommandContext pattern pkg/oci/builder.go's newConfigEnvs uses
// for shelling out to "git describe".
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/condadist/condadist/pkg/condaerr"
)

// ErrNoEngine is returned by Discover when neither docker nor podman is
// on PATH and no explicit path override was given.
var ErrNoEngine = errors.New("no container engine (docker or podman) found on PATH")

// Engine is a discovered container-engine binary, ready to drive builds.
type Engine struct {
	Name string // "docker" or "podman"
	Path string
}

// Discover resolves the container engine to use: explicitPath if given,
// otherwise podman then docker on PATH, in that order (mirroring
// cmd/func/main.go's own preference order).
func Discover(explicitPath string) (*Engine, error) {
	if explicitPath != "" {
		return &Engine{Name: "custom", Path: explicitPath}, nil
	}
	if path, err := exec.LookPath("podman"); err == nil {
		return &Engine{Name: "podman", Path: path}, nil
	}
	if path, err := exec.LookPath("docker"); err == nil {
		return &Engine{Name: "docker", Path: path}, nil
	}
	return nil, condaerr.New(condaerr.EngineMissing, "", ErrNoEngine)
}

// DiscoverTool resolves an arbitrary packaging tool (rpmbuild, dpkg-deb)
// on PATH, or explicitPath if given. Used by the package subcommand,
// which shells out the same way container does but to a native
// packaging tool rather than a container engine.
func DiscoverTool(name, explicitPath string) (*Engine, error) {
	if explicitPath != "" {
		return &Engine{Name: name, Path: explicitPath}, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, condaerr.New(condaerr.EngineMissing, name, fmt.Errorf("%s not found on PATH: %w", name, err))
	}
	return &Engine{Name: name, Path: path}, nil
}

// Run invokes the engine binary with args, capturing combined stdout and
// stderr into the returned error's context when the command fails.
func (e *Engine) Run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, e.Path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w\n%s", e.Path, args, err, out.String())
	}
	return nil
}

// BuildxArgs composes the "buildx build --platform ... " invocation used
// by the container subcommand to assemble a multi-arch OCI archive from a
// generated Dockerfile.
func BuildxArgs(dockerfilePath, contextDir, ociOutputPath string, platforms []string) []string {
	args := []string{"buildx", "build", "-f", dockerfilePath}
	for _, p := range platforms {
		args = append(args, "--platform", p)
	}
	args = append(args, "-o", "type=oci,dest="+ociOutputPath, contextDir)
	return args
}
