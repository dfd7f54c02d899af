// Package cache implements the content-addressed Package Cache (C2): an
// on-disk store keyed by (subdir, filename), validated by digest.
//
// Grounded on pkg/oci/builder.go's ensureCached/writeBaseLayer
// (cache-dir keyed by digest, temp-file-then-rename writes) and the
// content-addressed temp+atomic-rename layout documented in
// other_examples/8a934c2d_rsc-cloud__diskcache-cache.go.go.
package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/digest"
	"github.com/condadist/condadist/pkg/record"
)

// Fetcher retrieves the bytes of a remote package file. The default
// implementation uses net/http; tests substitute an in-memory one —
// mirrors the Builder/Pusher interface-injection pattern of
// pkg/functions/client.go.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is the default Fetcher, enforcing a 2xx response.
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// Cache is a content-addressed on-disk package store rooted at Root.
type Cache struct {
	Root    string
	Fetcher Fetcher
	Verbose bool
}

// New creates a Cache rooted at root, using the default HTTP fetcher.
func New(root string) *Cache {
	return &Cache{Root: root, Fetcher: HTTPFetcher{}}
}

// Path returns the on-disk location a record's file would occupy,
// regardless of whether it is currently cached.
func (c *Cache) Path(r record.Record) string {
	return filepath.Join(c.Root, r.Subdir, r.FileName)
}

// Fetch resolves r into a cached, validated local file path, downloading
// it if necessary.
//
// Concurrency: safe under multiple goroutines fetching *different* keys.
// Concurrent fetches of the *same* key are not coordinated, but each
// writer uses its own uuid-suffixed temp file, so two writers (even from
// separate runs sharing a cache root) never clobber each other's partial
// write; the last rename wins and the final bytes must match the same
// digest (when one is known). No per-key locking is added.
func (c *Cache) Fetch(ctx context.Context, r record.Record) (string, error) {
	path := c.Path(r)

	if r.SHA256 != "" {
		if _, err := os.Stat(path); err == nil {
			if digest.Matches(path, r.SHA256) {
				if c.Verbose {
					fmt.Fprintf(os.Stderr, "cache hit: %s\n", path)
				}
				return path, nil
			}
			// Digest mismatch: invalidate and fall through to re-download,
			// the one error this layer recovers from locally.
			if c.Verbose {
				fmt.Fprintf(os.Stderr, "cache digest mismatch, refetching: %s\n", path)
			}
			_ = os.Remove(path)
		}
	}
	// No digest on the record: the cache never attempts to validate or
	// reuse, so the fetch is always re-performed.

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", condaerr.New(condaerr.FetchFailed, path, err)
	}

	body, err := c.Fetcher.Fetch(ctx, r.URL)
	if err != nil {
		return "", condaerr.New(condaerr.FetchFailed, r.URL, err)
	}

	if r.SHA256 != "" {
		got := digest.OfBytes(body)
		if got != r.SHA256 {
			return "", condaerr.Newf(condaerr.FetchFailed, r.URL,
				"digest mismatch: expected sha256:%s, got sha256:%s", r.SHA256, got)
		}
	}

	if err := writeAtomically(path, body); err != nil {
		return "", condaerr.New(condaerr.FetchFailed, path, err)
	}
	if c.Verbose {
		fmt.Fprintf(os.Stderr, "fetched %s -> %s\n", r.URL, path)
	}
	return path, nil
}

// writeAtomically writes body to a sibling, uniquely-named ".part" file
// and renames it into place. The uuid suffix keeps concurrent writers
// (including ones from separate processes sharing a cache root) from
// racing on the same temp path.
func writeAtomically(path string, body []byte) error {
	partPath := path + ".part." + uuid.NewString()

	f, err := os.Create(partPath)
	if err != nil {
		return err
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		_ = os.Remove(partPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(partPath)
		return err
	}
	return os.Rename(partPath, path)
}
