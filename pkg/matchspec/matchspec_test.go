package matchspec_test

import (
	"testing"

	"github.com/condadist/condadist/pkg/matchspec"
)

func TestParse(t *testing.T) {
	spec, err := matchspec.Parse("numpy >=1.2,<2")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Name != "numpy" || spec.Constraint != ">=1.2,<2" {
		t.Fatalf("got %+v", spec)
	}
}

func TestParseLenientRejectsGarbage(t *testing.T) {
	if _, ok := matchspec.ParseLenient("a b c d e"); ok {
		t.Fatal("expected lenient parse to reject a 5-field string")
	}
	if _, ok := matchspec.ParseLenient(""); ok {
		t.Fatal("expected lenient parse to reject empty string")
	}
}

func TestIsVirtual(t *testing.T) {
	spec, _ := matchspec.Parse("__cuda >=11")
	if !spec.IsVirtual() {
		t.Fatal("expected __cuda to be virtual")
	}
	spec2, _ := matchspec.Parse("numpy")
	if spec2.IsVirtual() {
		t.Fatal("numpy should not be virtual")
	}
}

func TestMatches(t *testing.T) {
	spec, _ := matchspec.Parse("numpy >=1.2")
	if !spec.Matches("numpy", "1.5.0", "py310h0") {
		t.Fatal("expected match")
	}
	if spec.Matches("numpy", "1.1.0", "py310h0") {
		t.Fatal("expected no match for older version")
	}
	if spec.Matches("scipy", "1.5.0", "py310h0") {
		t.Fatal("expected no match for different name")
	}
}

func TestMatchesBuildGlob(t *testing.T) {
	spec, _ := matchspec.Parse("numpy * py310*")
	if !spec.Matches("numpy", "1.5.0", "py310h0_0") {
		t.Fatal("expected build glob match")
	}
	if spec.Matches("numpy", "1.5.0", "py311h0_0") {
		t.Fatal("expected build glob mismatch")
	}
}
