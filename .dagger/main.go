// vmentor CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/vmentor/internal/dagger"
)

// Vmentor is the main module for the vmentor CI/CD pipeline
type Vmentor struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new vmentor CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".vmentor", "build", "output", "tmp"]
	source *dagger.Directory,
) *Vmentor {
	return &Vmentor{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted.
func (v *Vmentor) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", v.Source)
}

// postgres returns a throwaway PostgreSQL service for the storage tests.
func (v *Vmentor) postgres() *dagger.Service {
	return dag.Container().
		From("postgres:17-alpine").
		WithEnvVariable("POSTGRES_USER", "vmentor").
		WithEnvVariable("POSTGRES_PASSWORD", "vmentor").
		WithEnvVariable("POSTGRES_DB", "vmentor").
		WithExposedPort(5432).
		AsService()
}

// Test runs the vmentor unit tests via "go test". The PostgreSQL driver
// specs run against a service container.
func (v *Vmentor) Test(ctx context.Context) (string, error) {
	return v.goContainer().
		WithServiceBinding("db", v.postgres()).
		WithEnvVariable("VMENTOR_TEST_POSTGRES_DSN", "postgres://vmentor:vmentor@db:5432/vmentor?sslmode=disable").
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}
