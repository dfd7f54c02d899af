// Package digest computes and compares the SHA-256 content hashes used to
// validate cached and downloaded package files (C1).
//
// Grounded on pkg/oci/builder.go's writeAsJSONBlob (hashing while writing
// via io.MultiWriter) and ensureCached (hash-then-compare-before-reuse).
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// SHA256 is a lowercase-hex-encoded sha256 digest.
type SHA256 string

// OfBytes computes the digest of b.
func OfBytes(b []byte) SHA256 {
	sum := sha256.Sum256(b)
	return SHA256(hex.EncodeToString(sum[:]))
}

// OfFile computes the digest of the file at path without holding its
// entire content in memory.
func OfFile(path string) (SHA256, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return SHA256(hex.EncodeToString(h.Sum(nil))), nil
}

// Matches reports whether the file at path has the given digest. A file
// that cannot be read does not match (and the read error, if any, is
// swallowed — callers that need to distinguish "missing" from "corrupt"
// should stat the file themselves first).
func Matches(path string, want SHA256) bool {
	got, err := OfFile(path)
	if err != nil {
		return false
	}
	return got == want
}

// Validate returns an error if the digest of the file at path does not
// equal want.
func Validate(path string, want SHA256) error {
	got, err := OfFile(path)
	if err != nil {
		return fmt.Errorf("digest: cannot read %s: %w", path, err)
	}
	if got != want {
		return fmt.Errorf("digest: %s: expected sha256:%s, got sha256:%s", path, want, got)
	}
	return nil
}
