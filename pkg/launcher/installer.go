package launcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/condadist/condadist/pkg/condaerr"
)

// Installer is the injectable collaborator that drives the actual
// install:
// "hand the records to the Conda install library targeting the
// user-chosen prefix, backed by a fresh temporary package cache."
// Grounded on pkg/engine's Discover/Run split: tests substitute a fake,
// production uses ExecInstaller to shell out to a real conda/micromamba
// binary.
type Installer interface {
	Install(ctx context.Context, bundleRoot string, records []LocalRecord, prefix string) error
}

// ExecInstaller drives a Conda-compatible binary's "install from explicit
// file:// URLs" mode, using a fresh temporary directory as its package
// cache so the launcher never touches the invoking user's real cache.
type ExecInstaller struct {
	// Path to the conda-compatible binary. Defaults to "conda".
	Path string
}

func (e ExecInstaller) Install(ctx context.Context, bundleRoot string, records []LocalRecord, prefix string) error {
	path := e.Path
	if path == "" {
		path = "conda"
	}

	cacheDir, err := os.MkdirTemp("", "condadist-install-cache-")
	if err != nil {
		return condaerr.New(condaerr.InstallFailed, cacheDir, err)
	}
	defer os.RemoveAll(cacheDir)

	args := []string{"install", "-y", "-p", prefix, "--pkgs-dirs", cacheDir, "--offline"}
	for _, r := range records {
		args = append(args, r.FileURL)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return condaerr.New(condaerr.InstallFailed, prefix, fmt.Errorf("%s: %w\n%s", path, err, out.String()))
	}
	return nil
}
