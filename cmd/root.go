// Package cmd implements the condadist command tree: root plus
// lock/installer/container/package subcommands. Grounded on cmd/root.go's
// cobra+viper wiring (persistent --verbose flag bound through viper,
// env-prefixed automatic binding) and cmd/client.go's ClientFactory
// injection pattern, generalized here to PipelineFactory.
package cmd

import (
	"github.com/ory/viper"
	"github.com/spf13/cobra"
)

// RootCommandConfig carries build metadata and an optional injected
// PipelineFactory (nil selects the default, network-backed factory).
type RootCommandConfig struct {
	Name    string
	Version Version
	NewPipeline PipelineFactory
}

// NewRootCmd builds the root of the command tree. Running the resultant
// binary with no arguments prints the help/usage text; it has no action
// of its own.
func NewRootCmd(cfg RootCommandConfig) *cobra.Command {
	root := &cobra.Command{
		Use:           cfg.Name,
		Short:         "Build and distribute Conda dependency closures",
		SilenceErrors: true, // errors are explicitly handled in main()
		SilenceUsage:  true,
		Long: `condadist resolves a Conda dependency manifest into a locked
environment, stages it into a local channel, and packages it as a
self-extracting installer, OCI image, or native package.`,
	}

	viper.SetEnvPrefix("condadist")
	viper.AutomaticEnv()

	verbose := viper.GetBool("verbose")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", verbose, "print verbose logs")
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.PersistentFlags().String("work-dir", "", "directory containing manifest.toml (defaults to .)")
	_ = viper.BindPFlag("work-dir", root.PersistentFlags().Lookup("work-dir"))

	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.Version = cfg.Version.String()

	newPipeline := cfg.NewPipeline
	if newPipeline == nil {
		newPipeline = NewDefaultPipelineFactory()
	}

	root.AddCommand(NewVersionCmd(cfg.Version))
	root.AddCommand(NewLockCmd(newPipeline))
	root.AddCommand(NewInstallerCmd(newPipeline))
	root.AddCommand(NewContainerCmd(newPipeline))
	root.AddCommand(NewPackageCmd(newPipeline))

	return root
}
