package cmd

import (
	"net/http"
	"os"

	"github.com/condadist/condadist/config"
	"github.com/condadist/condadist/pkg/cache"
	"github.com/condadist/condadist/pkg/pipeline"
	"github.com/condadist/condadist/pkg/solver"
)

// PipelineConfig holds the settings needed to construct a default
// Pipeline.
type PipelineConfig struct {
	CacheRoot   string
	SolverPath  string
	Parallelism int
	Verbose     bool
}

// PipelineFactory constructs a *pipeline.Pipeline for use by commands.
// Mirrors cmd.ClientFactory's "constructor function held by the command
// tree, swappable in tests" pattern from cmd/client.go.
type PipelineFactory func(PipelineConfig) *pipeline.Pipeline

// NewTestPipelineFactory returns a factory that ignores the config passed
// at call time, always returning a pipeline built from the given options
// (mirrors cmd.NewTestClient).
func NewTestPipelineFactory(options ...pipeline.Option) PipelineFactory {
	return func(PipelineConfig) *pipeline.Pipeline {
		return pipeline.New(options...)
	}
}

// NewDefaultPipelineFactory builds pipelines with the concrete
// collaborators: an HTTP-backed cache.Fetcher and an ExecSolver shelling
// out to the configured solver binary. Settings not supplied by the
// caller (PipelineConfig, populated from CLI flags) fall back to the
// global config.yaml loaded via config.NewDefault, which itself falls
// back to the static config.Default* values when no config file exists.
func NewDefaultPipelineFactory() PipelineFactory {
	return func(cfg PipelineConfig) *pipeline.Pipeline {
		fileCfg, _ := config.NewDefault()

		root := cfg.CacheRoot
		if root == "" {
			root = fileCfg.CacheRoot
		}
		parallelism := cfg.Parallelism
		if parallelism <= 0 {
			parallelism = fileCfg.Parallelism
		}
		verbose := cfg.Verbose || fileCfg.Verbose

		options := []pipeline.Option{
			pipeline.WithCache(&cache.Cache{
				Root:    root,
				Fetcher: cache.HTTPFetcher{Client: http.DefaultClient},
				Verbose: verbose,
			}),
			pipeline.WithSolver(solver.ExecSolver{Path: cfg.SolverPath}),
			pipeline.WithVerbose(verbose),
			pipeline.WithParallelism(parallelism),
		}
		if verbose {
			options = append(options, pipeline.WithProgress(os.Stderr))
		}
		return pipeline.New(options...)
	}
}
