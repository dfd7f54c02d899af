package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/record"
)

// ExecSolver drives a real Conda-compatible solver binary (conda, mamba,
// or micromamba) as a subprocess, passing the request as JSON on stdin
// and parsing a record list as JSON from stdout. Grounded on pkg/engine's
// exec.CommandContext invocation pattern: the solving algorithm itself is
// out of scope here — the Conda solver is consumed as a library through
// its interface, not reimplemented — so this type is the thinnest
// possible bridge to an external process.
type ExecSolver struct {
	// Path to the solver binary. Defaults to "conda" when empty.
	Path string
}

type execRequest struct {
	Platform        string            `json:"platform"`
	SolveSubdirs    []string          `json:"solve_subdirs"`
	Pins            []record.Record   `json:"pins"`
	VirtualPackages []record.Record   `json:"virtual_packages"`
	MatchSpecs      []string          `json:"match_specs"`
	ChannelPriority string            `json:"channel_priority"`
	Strategy        string            `json:"strategy"`
}

// Solve implements Solver by invoking the configured binary with
// "condadist-solve --json", writing the request as JSON to its stdin and
// expecting a JSON array of record.Record on its stdout.
func (s ExecSolver) Solve(ctx context.Context, req Request) ([]record.Record, error) {
	path := s.Path
	if path == "" {
		path = "conda"
	}

	payload, err := json.Marshal(execRequest{
		Platform:        string(req.Platform),
		SolveSubdirs:    req.SolveSubdirs,
		Pins:            req.Pins,
		VirtualPackages: req.VirtualPackages,
		MatchSpecs:      req.MatchSpecs,
		ChannelPriority: req.ChannelPriority,
		Strategy:        req.Strategy,
	})
	if err != nil {
		return nil, condaerr.New(condaerr.SolveFailed, string(req.Platform), err)
	}

	cmd := exec.CommandContext(ctx, path, "condadist-solve", "--json")
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, condaerr.New(condaerr.SolveFailed, string(req.Platform),
			fmt.Errorf("%s: %w\n%s", path, err, stderr.String()))
	}

	var records []record.Record
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil {
		return nil, condaerr.New(condaerr.SolveFailed, string(req.Platform), err)
	}
	return records, nil
}
