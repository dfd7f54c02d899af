// Package progress provides a shared progress-reporter handle that is
// passed by value into concurrent tasks — no global mutable state.
// Built on schollz/progressbar and dustin/go-humanize for the on-screen
// byte-count/ETA formatting.
package progress

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// Reporter is a cheap-to-copy handle around a shared progress bar. The
// zero value is a no-op reporter (useful in tests and non-interactive
// runs).
type Reporter struct {
	bar   *progressbar.ProgressBar
	bytes *int64
}

// New creates a Reporter over total discrete steps (e.g. the number of
// packages to fetch), writing to out. If out is nil, progress is
// suppressed (the zero Reporter's behavior).
func New(out io.Writer, total int, description string) Reporter {
	if out == nil || total <= 0 {
		return Reporter{}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
	)
	return Reporter{bar: bar, bytes: new(int64)}
}

// Add increments the bar by one unit (one fetched/staged package).
func (r Reporter) Add() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Add(1)
}

// AddBytes accumulates a byte counter (used for the final download
// summary) without touching the visual bar.
func (r Reporter) AddBytes(n int64) {
	if r.bytes == nil {
		return
	}
	atomic.AddInt64(r.bytes, n)
}

// TotalBytes returns the humanized running byte total.
func (r Reporter) TotalBytes() string {
	if r.bytes == nil {
		return "0 B"
	}
	return humanize.Bytes(uint64(atomic.LoadInt64(r.bytes)))
}

// Done finalizes the bar (prints a trailing newline).
func (r Reporter) Done() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
}

// Summary formats a download summary line: "N package(s) resolved, M
// newly fetched (H)", where H is the humanized byte count.
func Summary(total, fetched int, bytes int64) string {
	return fmt.Sprintf("%d package(s) resolved, %d newly fetched (%s)",
		total, fetched, humanize.Bytes(uint64(bytes)))
}
