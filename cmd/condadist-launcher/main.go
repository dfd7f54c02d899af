// cmd/condadist-launcher builds the binary embedded by the installer
// assembler and cross-compiled per-platform into
// pkg/installer/launchers/<platform>. At runtime it is the tail half of
// a self-extracting installer image: it locates itself on disk, parses
// its own trailer, and drives the install.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/condadist/condadist/pkg/bundle"
	"github.com/condadist/condadist/pkg/condaerr"
	"github.com/condadist/condadist/pkg/launcher"
	"github.com/condadist/condadist/pkg/platform"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
		<-sigs
		os.Exit(137)
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if kind, ok := condaerr.As(err); ok {
			os.Exit(exitCode(kind))
		}
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	prefix := flag.String("prefix", "", "install prefix")
	env := flag.String("environment", "", "environment name (defaults to the bundle's sole environment)")
	summary := flag.Bool("summary", false, "print bundle metadata and featured-package descriptions")
	listPackages := flag.Bool("list-packages", false, "list packages for the current platform")
	listPackagesJSON := flag.Bool("list-packages-json", false, "list packages for the current platform, as JSON")
	flag.Parse()

	self, err := os.Executable()
	if err != nil {
		return condaerr.New(condaerr.ImageCorrupt, "", err)
	}

	img, err := launcher.Open(self)
	if err != nil {
		return err
	}

	name := projectName(img)

	tempDir, err := os.MkdirTemp("", "condadist-launcher-")
	if err != nil {
		return condaerr.New(condaerr.PayloadInvalid, tempDir, err)
	}
	defer os.RemoveAll(tempDir)

	if err := img.Extract(tempDir); err != nil {
		return err
	}
	bundleRoot, err := launcher.BundleRoot(tempDir)
	if err != nil {
		return err
	}

	target, err := platform.Current()
	if err != nil {
		return condaerr.New(condaerr.PayloadInvalid, "", err)
	}

	records, err := launcher.PrepareRecords(bundleRoot, *env, target)
	if err != nil {
		return err
	}

	switch {
	case *summary:
		return printSummary(bundleRoot, name, img.Metadata.Summary, records)
	case *listPackages:
		printPackageTable(records)
		return nil
	case *listPackagesJSON:
		return printPackageJSON(records)
	}

	if *prefix == "" {
		return condaerr.Newf(condaerr.InstallFailed, "", "missing --prefix")
	}

	installer := launcher.ExecInstaller{}
	if err := installer.Install(ctx, bundleRoot, records, *prefix); err != nil {
		return err
	}

	fmt.Printf("%s installed to %s (%d packages)\n", name, *prefix, len(records))
	return nil
}

// projectName honors CONDA_DIST_PROJECT_NAME as a banner override,
// falling back to the bundle's own summary.
func projectName(img *launcher.Image) string {
	if v := os.Getenv("CONDA_DIST_PROJECT_NAME"); v != "" {
		return v
	}
	return img.Metadata.Summary
}

func printSummary(bundleRoot, name, summary string, records []launcher.LocalRecord) error {
	featured := map[string]bool{}
	if b, err := os.ReadFile(filepath.Join(bundleRoot, "bundle-metadata.json")); err == nil {
		var md bundle.Metadata
		if err := json.Unmarshal(b, &md); err == nil {
			for _, n := range md.Featured {
				featured[n] = true
			}
		}
	}

	fmt.Printf("%s\n%s\n\n", name, summary)
	for _, r := range records {
		if !featured[r.Name] {
			continue
		}
		path := filepath.Join(bundleRoot, r.Subdir, r.FileName)
		about, err := launcher.ReadAbout(path)
		if err != nil {
			continue // not every package carries an about.json worth surfacing
		}
		if about.Summary == "" {
			continue
		}
		fmt.Printf("  %-20s %s\n", r.Name, about.Summary)
	}
	return nil
}

func printPackageTable(records []launcher.LocalRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tBUILD\tSUBDIR")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Version, r.Build, r.Subdir)
	}
	w.Flush()
}

func printPackageJSON(records []launcher.LocalRecord) error {
	type pkg struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Build   string `json:"build"`
		Subdir  string `json:"subdir"`
	}
	out := make([]pkg, 0, len(records))
	for _, r := range records {
		out = append(out, pkg{Name: r.Name, Version: r.Version, Build: r.Build, Subdir: r.Subdir})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func exitCode(kind condaerr.Kind) int {
	switch kind {
	case condaerr.ImageCorrupt:
		return 2
	case condaerr.PayloadInvalid:
		return 3
	case condaerr.InstallFailed:
		return 4
	default:
		return 1
	}
}
