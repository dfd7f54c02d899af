package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLockCmd drives pipeline.Prepare and reports the resulting lock
// decision and fetch summary, without producing any installer artifacts.
func NewLockCmd(newPipeline PipelineFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock [manifest]",
		Args:  cobra.MaximumNArgs(1),
		Short: "Resolve the manifest and write (or refresh) its lockfile",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, dir, err := loadManifest(cmd, args)
			if err != nil {
				return err
			}
			targets, err := resolveTargets(cmd, m)
			if err != nil {
				return err
			}
			mode, err := lockModeFromFlags(cmd)
			if err != nil {
				return err
			}

			p := newPipeline(PipelineConfig{Verbose: verboseFlag(cmd)})
			prep, err := p.Prepare(cmd.Context(), m, dir, targets, mode)
			if err != nil {
				return err
			}
			defer prep.Close()

			if prep.LockReused {
				fmt.Fprintf(cmd.OutOrStdout(), "lockfile is up to date (%d packages)\n", len(prep.Records))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "resolved %d packages, fetched %d new, %d total\n",
					len(prep.Records), prep.NewlyFetched, prep.TotalFetched)
			}
			return nil
		},
	}
	cmd.Flags().String("platform", "", "limit resolution to a single platform (defaults to all manifest platforms)")
	addLockModeFlags(cmd)
	return cmd
}
