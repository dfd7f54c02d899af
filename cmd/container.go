package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/engine"
	"github.com/condadist/condadist/pkg/installer"
	"github.com/condadist/condadist/pkg/platform"
)

// NewContainerCmd builds installer images for every target platform, then
// assembles a multi-arch OCI archive around them via buildx. No novel
// systems design here beyond shelling out to the discovered container
// engine.
func NewContainerCmd(newPipeline PipelineFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "container [manifest]",
		Args:  cobra.MaximumNArgs(1),
		Short: "Build a multi-arch OCI image wrapping the installer(s)",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, dir, err := loadManifest(cmd, args)
			if err != nil {
				return err
			}
			mode, err := lockModeFromFlags(cmd)
			if err != nil {
				return err
			}

			targets, err := installer.ResolvePlatforms(installer.Selection{All: true}, m)
			if err != nil {
				return err
			}
			targets = linuxOnly(targets)
			if len(targets) == 0 {
				return condaerr.Newf(condaerr.ManifestInvalid, "",
					"container requires at least one linux-* platform in the manifest")
			}

			p := newPipeline(PipelineConfig{Verbose: verboseFlag(cmd)})
			prep, err := p.Prepare(cmd.Context(), m, dir, targets, mode)
			if err != nil {
				return err
			}
			defer prep.Close()

			buildCtx, err := os.MkdirTemp("", "condadist-container-")
			if err != nil {
				return condaerr.New(condaerr.StagingFailed, buildCtx, err)
			}
			defer os.RemoveAll(buildCtx)

			registry := installer.EmbeddedRegistry{}
			runtimeTriples := make([]string, 0, len(targets))
			for _, target := range targets {
				imgName := string(target) + "-installer"
				outPath := filepath.Join(buildCtx, imgName)
				if err := installer.Assemble(registry, outPath, target, m.Name, prep.Metadata, prep.Lockfile, prep.ChannelDir); err != nil {
					return err
				}
				triple, err := target.RuntimeTriple()
				if err != nil {
					return condaerr.New(condaerr.StagingFailed, string(target), err)
				}
				runtimeTriples = append(runtimeTriples, triple)
			}

			dockerfile := filepath.Join(buildCtx, "Dockerfile")
			if err := writeContainerDockerfile(dockerfile, m, targets); err != nil {
				return condaerr.New(condaerr.StagingFailed, dockerfile, err)
			}

			engPath, _ := cmd.Flags().GetString("engine-path")
			eng, err := engine.Discover(engPath)
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = filepath.Join(dir, m.Name+".oci.tar")
			}

			args := engine.BuildxArgs(dockerfile, buildCtx, output, runtimeTriples)
			if err := eng.Run(cmd.Context(), args...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().String("engine-path", "", "explicit path to docker/podman (overrides PATH discovery)")
	cmd.Flags().String("output", "", "OCI archive output path")
	addLockModeFlags(cmd)
	return cmd
}

// linuxOnly narrows targets to the platforms buildx can actually run
// under a Linux container base image. The OCI archive this command
// builds never carries macOS or Windows installers.
func linuxOnly(targets []platform.Platform) []platform.Platform {
	out := targets[:0]
	for _, t := range targets {
		if t.IsLinux() {
			out = append(out, t)
		}
	}
	return out
}
