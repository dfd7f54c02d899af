package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/condadist/condadist/pkg/manifest"
	"github.com/condadist/condadist/pkg/platform"
)

// defaultBaseImage is used when the manifest declares no container.base_image.
const defaultBaseImage = "debian:stable-slim"

// defaultInstallPrefix is used when the manifest declares no
// container.prefix.
const defaultInstallPrefix = "/opt/conda"

// writeContainerDockerfile renders a minimal Dockerfile that COPYs each
// target's installer image in, selects the right one per
// TARGETPLATFORM, and runs it into the configured install prefix; the
// ENTRYPOINT is <prefix>/bin/<manifest name>. Grounded on pkg/oci/builder.go's
// generated-Dockerfile style (var builders = map[string]languageBuilder),
// here reduced to the single condadist use case.
func writeContainerDockerfile(path string, m *manifest.Manifest, targets []platform.Platform) error {
	baseImage := defaultBaseImage
	prefix := defaultInstallPrefix
	if m.Container != nil {
		if m.Container.BaseImage != "" {
			baseImage = m.Container.BaseImage
		}
		if m.Container.Prefix != "" {
			prefix = m.Container.Prefix
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s\n", baseImage)
	fmt.Fprintf(&b, "ARG TARGETPLATFORM\n")
	for _, t := range targets {
		triple, err := t.RuntimeTriple()
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "COPY %s-installer /tmp/installer-%s\n", t, sanitizeArg(triple))
	}
	fmt.Fprintf(&b, "RUN case \"$TARGETPLATFORM\" in \\\n")
	for _, t := range targets {
		triple, err := t.RuntimeTriple()
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "    \"%s\") cp /tmp/installer-%s /tmp/installer ;; \\\n", triple, sanitizeArg(triple))
	}
	fmt.Fprintf(&b, "    esac && chmod +x /tmp/installer && /tmp/installer --prefix %s && rm -rf /tmp/installer*\n", prefix)
	fmt.Fprintf(&b, "ENTRYPOINT [%q]\n", prefix+"/bin/"+m.Name)

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func sanitizeArg(s string) string {
	return strings.ReplaceAll(s, "/", "-")
}
