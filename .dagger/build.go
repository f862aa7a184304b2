package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/vmentor/internal/dagger"
)

// binaries built for every platform
var binaries = []string{"./cli/vmentor", "./cli/vmentorprox", "./cli/vmentorapi"}

// Build and return directory of go binaries
func (v *Vmentor) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	outputs := dag.Directory()

	for _, goos := range []string{"linux", "darwin"} {
		for _, goarch := range []string{"amd64", "arm64"} {
			path := fmt.Sprintf("%s/%s/", goos, goarch)

			// go-sqlite3 needs cgo, so each target is built in a
			// cross-compiling zig container.
			build := v.crossContainer(goos, goarch)
			for _, bin := range binaries {
				build = build.WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, bin})
			}

			outputs = outputs.WithDirectory(path, build.Directory(path))
		}
	}

	return outputs
}

func (v *Vmentor) crossContainer(goos, goarch string) *dagger.Container {
	zigTarget := map[string]string{
		"linux/amd64":  "x86_64-linux-gnu",
		"linux/arm64":  "aarch64-linux-gnu",
		"darwin/amd64": "x86_64-macos",
		"darwin/arm64": "aarch64-macos",
	}[goos+"/"+goarch]

	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"sh", "-c", "apt-get update && apt-get install -y xz-utils && " +
			"curl -sSL https://ziglang.org/download/0.13.0/zig-linux-x86_64-0.13.0.tar.xz | tar -xJ -C /opt"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("GOOS", goos).
		WithEnvVariable("GOARCH", goarch).
		WithEnvVariable("CC", "/opt/zig-linux-x86_64-0.13.0/zig cc -target "+zigTarget).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build-"+goos+"-"+goarch)).
		WithDirectory("/src", v.Source).
		WithWorkdir("/src")
}

// BuildRelease compiles versioned release binaries with embedded version info
func (v *Vmentor) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/vmentor/vmentor/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/vmentor/vmentor/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/vmentor/vmentor/pkg/utils.Buildtime=%s'", buildtime),
	}

	return v.Build(ctx, strings.Join(ldflags, " "))
}
