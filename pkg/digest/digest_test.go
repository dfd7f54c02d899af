package digest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/condadist/condadist/pkg/digest"
)

func TestOfBytesAndOfFileAgree(t *testing.T) {
	content := []byte("hello condadist")
	want := digest.OfBytes(content)

	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := digest.OfFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("OfFile = %s, want %s", got, want)
	}
	if !digest.Matches(path, want) {
		t.Fatal("Matches should be true for matching digest")
	}
	if digest.Matches(path, "deadbeef") {
		t.Fatal("Matches should be false for mismatched digest")
	}
}

func TestValidateMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := digest.Validate(path, "deadbeef"); err == nil {
		t.Fatal("expected mismatch error")
	}
}
