package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/manifest"
	"github.com/condadist/condadist/pkg/pipeline"
	"github.com/condadist/condadist/pkg/platform"
)

const manifestFilename = "manifest.toml"

// addLockModeFlags registers the mutually-exclusive --locked/--unlock
// pair shared by every command that calls pipeline.Prepare. Passing both
// is a usage error.
func addLockModeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("locked", false, "fail if the lockfile is missing or stale, never re-solve")
	cmd.Flags().Bool("unlock", false, "always re-solve, ignoring any existing lockfile")
}

func lockModeFromFlags(cmd *cobra.Command) (pipeline.LockMode, error) {
	locked, _ := cmd.Flags().GetBool("locked")
	unlock, _ := cmd.Flags().GetBool("unlock")
	if locked && unlock {
		return pipeline.Auto, fmt.Errorf("--locked and --unlock are mutually exclusive")
	}
	if locked {
		return pipeline.Locked, nil
	}
	if unlock {
		return pipeline.Unlock, nil
	}
	return pipeline.Auto, nil
}

// workDir resolves the --work-dir flag, defaulting to the current
// directory.
func workDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("work-dir")
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

// loadManifest resolves the manifest to load: an explicit positional
// <manifest> argument naming either the manifest file itself or its
// containing directory, else --work-dir's manifest.toml.
func loadManifest(cmd *cobra.Command, args []string) (*manifest.Manifest, string, error) {
	path, err := manifestPath(cmd, args)
	if err != nil {
		return nil, "", err
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, "", err
	}
	return m, filepath.Dir(path), nil
}

func manifestPath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			return filepath.Join(args[0], manifestFilename), nil
		}
		return args[0], nil
	}
	dir, err := workDir(cmd)
	if err != nil {
		return "", condaerr.New(condaerr.ManifestInvalid, dir, err)
	}
	return filepath.Join(dir, manifestFilename), nil
}

// resolveTargets parses the manifest's declared platforms, or narrows to
// a single --platform flag value when given.
func resolveTargets(cmd *cobra.Command, m *manifest.Manifest) ([]platform.Platform, error) {
	requested, _ := cmd.Flags().GetString("platform")
	if requested == "" {
		return m.TargetPlatforms()
	}
	p, err := platform.Parse(requested)
	if err != nil {
		return nil, condaerr.New(condaerr.ManifestInvalid, "platform", err)
	}
	return []platform.Platform{p}, nil
}

func verboseFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("verbose")
	return v
}
