package lockvalidate_test

import (
	"testing"

	"github.com/condadist/condadist/pkg/lockvalidate"
	"github.com/condadist/condadist/pkg/platform"
	"github.com/condadist/condadist/pkg/record"
)

func validClosure() []record.Record {
	return []record.Record{
		{Name: "numpy", Version: "1.26.0", Build: "0", Subdir: "linux-64", FileName: "numpy-1.26.0-0.conda",
			Dependencies: []string{"six"}},
		{Name: "six", Version: "1.16.0", Build: "0", Subdir: "noarch", FileName: "six-1.16.0-0.conda"},
	}
}

func TestValidateOkClosure(t *testing.T) {
	res := lockvalidate.Validate(validClosure(), []string{"numpy"}, []platform.Platform{platform.LinuxAMD64})
	if !res.Valid {
		t.Fatalf("expected valid, got reason %q", res.Reason)
	}
}

func TestValidateMissingPlatformRecords(t *testing.T) {
	res := lockvalidate.Validate(validClosure(), []string{"numpy"}, []platform.Platform{platform.OSXARM64})
	if res.Valid {
		t.Fatal("expected invalid: no records for osx-arm64")
	}
}

func TestValidateUnsatisfiedSpecFailsStale(t *testing.T) {
	res := lockvalidate.Validate(validClosure(), []string{"scipy"}, []platform.Platform{platform.LinuxAMD64})
	if res.Valid {
		t.Fatal("expected invalid: scipy not locked")
	}
}

func TestValidateExtraneousPackageFails(t *testing.T) {
	withExtra := append(validClosure(), record.Record{
		Name: "pandas", Version: "2.0.0", Build: "0", Subdir: "linux-64", FileName: "pandas-2.0.0-0.conda",
	})
	res := lockvalidate.Validate(withExtra, []string{"numpy"}, []platform.Platform{platform.LinuxAMD64})
	if res.Valid {
		t.Fatal("expected invalid: pandas unreachable from specs")
	}
}

func TestValidateUnsatisfiedDependencyFails(t *testing.T) {
	records := []record.Record{
		{Name: "numpy", Version: "1.26.0", Build: "0", Subdir: "linux-64", FileName: "numpy-1.26.0-0.conda",
			Dependencies: []string{"missingdep"}},
	}
	res := lockvalidate.Validate(records, []string{"numpy"}, []platform.Platform{platform.LinuxAMD64})
	if res.Valid {
		t.Fatal("expected invalid: missingdep not present")
	}
}

func TestValidateVirtualDependencySkipped(t *testing.T) {
	records := []record.Record{
		{Name: "numpy", Version: "1.26.0", Build: "0", Subdir: "linux-64", FileName: "numpy-1.26.0-0.conda",
			Dependencies: []string{"__glibc >=2.17"}},
	}
	res := lockvalidate.Validate(records, []string{"numpy"}, []platform.Platform{platform.LinuxAMD64})
	if !res.Valid {
		t.Fatalf("expected valid: virtual deps are skipped, got %q", res.Reason)
	}
}
