package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information populated on build.
type Version struct {
	Vers string // git tag, or "tip" if untagged
	Date string
	Hash string
}

func (v Version) String() string {
	if v.Vers == "" {
		return "tip"
	}
	return v.Vers
}

// StringVerbose returns the version along with build date and commit hash.
func (v Version) StringVerbose() string {
	return fmt.Sprintf("Version: %s\nDate: %s\nCommit: %s\n", v.String(), v.Date, v.Hash)
}

func NewVersionCmd(version Version) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print condadist version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Fprint(cmd.OutOrStdout(), version.StringVerbose())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
			}
			return nil
		},
	}
}
