package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/engine"
	"github.com/condadist/condadist/pkg/installer"
)

// NewPackageCmd builds a host-platform installer and wraps it as a native
// rpm or deb package via rpmbuild/dpkg-deb. Like container, this adds no
// novel systems design beyond shelling out.
func NewPackageCmd(newPipeline PipelineFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package [manifest]",
		Args:  cobra.MaximumNArgs(1),
		Short: "Build a native rpm/deb package wrapping the host installer",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, dir, err := loadManifest(cmd, args)
			if err != nil {
				return err
			}
			mode, err := lockModeFromFlags(cmd)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			if format != "rpm" && format != "deb" {
				return condaerr.Newf(condaerr.ManifestInvalid, "format", "--format must be rpm or deb, got %q", format)
			}

			targets, err := installer.ResolvePlatforms(installer.Selection{Host: true}, m)
			if err != nil {
				return err
			}

			p := newPipeline(PipelineConfig{Verbose: verboseFlag(cmd)})
			prep, err := p.Prepare(cmd.Context(), m, dir, targets, mode)
			if err != nil {
				return err
			}
			defer prep.Close()

			buildRoot, err := os.MkdirTemp("", "condadist-package-")
			if err != nil {
				return condaerr.New(condaerr.StagingFailed, buildRoot, err)
			}
			defer os.RemoveAll(buildRoot)

			release := "1"
			if m.Package != nil && m.Package.Release != "" {
				release = m.Package.Release
			}

			registry := installer.EmbeddedRegistry{}
			installerPath := filepath.Join(buildRoot, m.Name+"-installer")
			if err := installer.Assemble(registry, installerPath, targets[0], m.Name, prep.Metadata, prep.Lockfile, prep.ChannelDir); err != nil {
				return err
			}

			toolName := "rpmbuild"
			if format == "deb" {
				toolName = "dpkg-deb"
			}
			toolPath, _ := cmd.Flags().GetString("tool-path")
			tool, err := engine.DiscoverTool(toolName, toolPath)
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = filepath.Join(dir, fmt.Sprintf("%s-%s-%s.%s", m.Name, m.Version, release, format))
			}

			var args []string
			if format == "rpm" {
				args = rpmbuildArgs(buildRoot, installerPath, m.Name, m.Version, release, output)
			} else {
				stageDir, derr := stageDebPayload(buildRoot, installerPath, m)
				if derr != nil {
					return condaerr.New(condaerr.StagingFailed, stageDir, derr)
				}
				args = []string{"--build", stageDir, output}
			}

			if err := tool.Run(cmd.Context(), args...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().String("format", "rpm", "package format: rpm or deb")
	cmd.Flags().String("tool-path", "", "explicit path to rpmbuild/dpkg-deb (overrides PATH discovery)")
	cmd.Flags().String("output", "", "package output path")
	addLockModeFlags(cmd)
	return cmd
}
