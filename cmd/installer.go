package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/condadist/condadist/pkg/installer"
)

// NewInstallerCmd builds one self-extracting installer image per
// resolved target platform.
func NewInstallerCmd(newPipeline PipelineFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "installer [manifest]",
		Args:  cobra.MaximumNArgs(1),
		Short: "Build self-extracting installer image(s)",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, dir, err := loadManifest(cmd, args)
			if err != nil {
				return err
			}
			mode, err := lockModeFromFlags(cmd)
			if err != nil {
				return err
			}

			all, _ := cmd.Flags().GetBool("all")
			host, _ := cmd.Flags().GetBool("host")
			platformFlag, _ := cmd.Flags().GetString("platform")
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = dir
			}

			sel := installer.Selection{All: all, Host: host, Platform: platformFlag}
			if !all && !host && platformFlag == "" {
				sel.All = true
			}
			targets, err := installer.ResolvePlatforms(sel, m)
			if err != nil {
				return err
			}

			p := newPipeline(PipelineConfig{Verbose: verboseFlag(cmd)})
			prep, err := p.Prepare(cmd.Context(), m, dir, targets, mode)
			if err != nil {
				return err
			}
			defer prep.Close()

			registry := installer.EmbeddedRegistry{}
			for _, target := range targets {
				outPath := installer.OutputPath(output, m.Name, target)
				if err := installer.Assemble(registry, outPath, target, m.Name, prep.Metadata, prep.Lockfile, prep.ChannelDir); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			}
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "build an installer for every manifest platform (default)")
	cmd.Flags().Bool("host", false, "build an installer for the host platform only")
	cmd.Flags().String("platform", "", "build an installer for a single named platform")
	cmd.Flags().String("output", "", "output directory or file-name prefix")
	addLockModeFlags(cmd)
	return cmd
}
