// Package pipeline implements the Environment Pipeline (C7), the apex
// orchestrator: decide lock mode, solve or reuse, fetch+stage, write
// lockfile(s).
//
// Grounded on pkg/functions/client.go's functional-options Client
// construction (builder/pusher/deployer injected, New(options...)
// pattern), generalized to this pipeline's Cache/Solver collaborators.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/condadist/condadist/pkg/bundle"
	"github.com/condadist/condadist/pkg/cache"
	"github.com/condadist/condadist/pkg/channel"
	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/downloader"
	"github.com/condadist/condadist/pkg/lockfile"
	"github.com/condadist/condadist/pkg/lockvalidate"
	"github.com/condadist/condadist/pkg/manifest"
	"github.com/condadist/condadist/pkg/platform"
	"github.com/condadist/condadist/pkg/progress"
	"github.com/condadist/condadist/pkg/record"
	"github.com/condadist/condadist/pkg/solver"
)

// LockMode is the closed three-valued lock-resolution decision: solve
// automatically, require an already-valid lockfile, or always re-solve.
type LockMode int

const (
	Auto LockMode = iota
	Locked
	Unlock
)

// Pipeline orchestrates C4-C6, C2-C3. Constructed via New(options...);
// the zero value is not usable.
type Pipeline struct {
	cache       *cache.Cache
	solver      solver.Solver
	verbose     bool
	parallelism int
	out         io.Writer // optional progress sink; nil means silent
}

// Option mutates a Pipeline at construction time.
type Option func(*Pipeline)

// WithCache provides the package cache collaborator.
func WithCache(c *cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithSolver provides the external solver collaborator.
func WithSolver(s solver.Solver) Option {
	return func(p *Pipeline) { p.solver = s }
}

// WithVerbose toggles verbose diagnostic output.
func WithVerbose(v bool) Option {
	return func(p *Pipeline) { p.verbose = v }
}

// WithParallelism overrides the concurrent-download cap.
func WithParallelism(n int) Option {
	return func(p *Pipeline) { p.parallelism = n }
}

// WithProgress directs download progress output to out; nil suppresses it.
func WithProgress(out io.Writer) Option {
	return func(p *Pipeline) { p.out = out }
}

// New constructs a Pipeline from options, defaulting parallelism to
// downloader.DefaultParallelism.
func New(options ...Option) *Pipeline {
	p := &Pipeline{parallelism: downloader.DefaultParallelism}
	for _, o := range options {
		o(p)
	}
	return p
}

// Preparation is C7's output: the staged channel root (owned by this
// value; call Close to destroy it), the resolved records, bundle
// metadata, and a download summary.
type Preparation struct {
	StagingDir  string
	ChannelDir  string
	Records     []record.Record
	Metadata    *bundle.Metadata
	Lockfile    *lockfile.Lockfile
	LockReused  bool
	TotalFetched int
	NewlyFetched int
}

// Close removes the staging directory; the preparation value is
// destroyed on scope exit.
func (prep *Preparation) Close() error {
	if prep.StagingDir == "" {
		return nil
	}
	return os.RemoveAll(prep.StagingDir)
}

// Prepare runs the full manifest-to-staged-bundle pipeline: resolve the
// lockfile (solving if needed), fetch every record into the cache, and
// stage a local channel with a fresh repodata index.
func (p *Pipeline) Prepare(ctx context.Context, m *manifest.Manifest, workspace string, targets []platform.Platform, mode LockMode) (*Preparation, error) {
	// (a) create staging dir; create <staging>/<env_name>/
	stagingRoot, err := os.MkdirTemp("", "condadist-stage-")
	if err != nil {
		return nil, condaerr.New(condaerr.StagingFailed, stagingRoot, err)
	}
	channelDir := filepath.Join(stagingRoot, m.Name)
	if err := os.MkdirAll(channelDir, 0o755); err != nil {
		_ = os.RemoveAll(stagingRoot)
		return nil, condaerr.New(condaerr.StagingFailed, channelDir, err)
	}
	prep := &Preparation{StagingDir: stagingRoot, ChannelDir: channelDir}

	// (b) build the effective channel list.
	channels := m.EffectiveChannels()

	// (c) load existing lockfile records for targets ∪ {noarch}.
	workspaceLockPath := filepath.Join(workspace, lockfile.FileName)
	var locked []record.Record
	existingLockfile, loadErr := lockfile.Load(workspaceLockPath)
	if loadErr == nil {
		platformStrings := platformStrings(targets)
		platformStrings = append(platformStrings, "noarch")
		locked = existingLockfile.Records(m.Name, platformStrings)
	}

	// (d) resolve LockMode via C6.
	reuse, reason, err := p.decide(mode, locked, m, targets)
	if err != nil {
		prep.Close()
		return nil, err
	}

	// (e) if reusing: solved <- locked; else: solve per-platform via C5.
	var solved []record.Record
	if reuse {
		solved = locked
		prep.LockReused = true
	} else {
		if mode == Locked {
			prep.Close()
			return nil, condaerr.Newf(condaerr.LockStale, "", "lockfile is stale: %s", reason)
		}
		if p.solver == nil {
			prep.Close()
			return nil, condaerr.Newf(condaerr.SolveFailed, "", "no solver configured")
		}
		driver := &solver.Driver{Solver: p.solver}
		solved, err = driver.Solve(ctx, m, targets, nil, locked)
		if err != nil {
			prep.Close()
			return nil, err
		}
	}

	// (f) derive bundle metadata (C8) from solved records.
	md, err := bundle.Derive(m.Name, m.Metadata, solved, m.Author)
	if err != nil {
		prep.Close()
		return nil, err
	}

	// (g) fetch+stage through C2->C3, reporting (total, newly-fetched).
	total, newly, err := p.fetchAndStage(ctx, channelDir, solved)
	if err != nil {
		prep.Close()
		return nil, err
	}

	// (h) write lockfile twice: workspace path, and inside the staged channel.
	lf := lockfile.Build(m.Name, channels, solved)
	if err := lockfile.Write(workspaceLockPath, lf); err != nil {
		prep.Close()
		return nil, err
	}
	inBundleURL, err := channel.FileURL(channelDir)
	if err != nil {
		prep.Close()
		return nil, err
	}
	inBundleLockfile := lockfile.Build(m.Name, []string{inBundleURL}, solved)
	if err := lockfile.Write(filepath.Join(channelDir, lockfile.FileName), inBundleLockfile); err != nil {
		prep.Close()
		return nil, err
	}

	prep.Records = solved
	prep.Metadata = md
	prep.Lockfile = inBundleLockfile
	prep.TotalFetched = total
	prep.NewlyFetched = newly
	return prep, nil
}

func (p *Pipeline) decide(mode LockMode, locked []record.Record, m *manifest.Manifest, targets []platform.Platform) (reuse bool, reason string, err error) {
	if mode == Unlock {
		return false, "", nil
	}
	if len(locked) == 0 {
		if mode == Locked {
			return false, "", condaerr.New(condaerr.LockMissing, "", fmt.Errorf("no lockfile present"))
		}
		return false, "missing", nil
	}
	result := lockvalidate.Validate(locked, m.MatchSpecs(), targets)
	if result.Valid {
		return true, "", nil
	}
	return false, result.Reason, nil
}

func (p *Pipeline) fetchAndStage(ctx context.Context, channelDir string, records []record.Record) (total, newly int, err error) {
	if p.cache == nil {
		return 0, 0, condaerr.Newf(condaerr.StagingFailed, "", "no cache configured")
	}
	total = len(records)
	var newlyFetched int64

	reporter := progress.New(p.out, len(records), "fetching")
	err = downloader.Run(ctx, records, p.parallelism, func(ctx context.Context, r record.Record) error {
		existed := p.cache.Path(r)
		wasCached := fileExists(existed)
		if _, err := p.cache.Fetch(ctx, r); err != nil {
			return err
		}
		if !wasCached {
			atomic.AddInt64(&newlyFetched, 1)
		}
		reporter.Add()
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if err := channel.Stage(p.cache, channelDir, records); err != nil {
		return 0, 0, err
	}
	return total, int(newlyFetched), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func platformStrings(platforms []platform.Platform) []string {
	out := make([]string, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, string(p))
	}
	return out
}
