// Cards CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
// It is the main harness for handling nearly all dev operations.
package main

import (
	"context"

	"dagger/cards/internal/dagger"
)

// Cards is the main module for the cards CI/CD pipeline
type Cards struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Cards CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", ".cards", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Cards {
	return &Cards{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc and
// libsqlite3-dev for the sqlite-vec driver, CGO enabled, and the project
// source mounted.
func (c *Cards) goContainer() *dagger.Container {
	return c.goContainerFor("")
}

// goContainerFor is goContainer pinned to a platform such as "linux/arm64".
// An empty platform uses the engine's own.
func (c *Cards) goContainerFor(platform dagger.Platform) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{Platform: platform}).
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", c.Source)
}

// Test runs the cards unit tests via "go test". The postgres suite runs when
// a DSN is provided.
func (c *Cards) Test(
	ctx context.Context,

	// PostgreSQL DSN for the pgvector driver tests
	// +optional
	postgresDSN *dagger.Secret,
) (string, error) {
	ctr := c.goContainer()
	if postgresDSN != nil {
		ctr = ctr.WithSecretVariable("CARDS_TEST_POSTGRES_DSN", postgresDSN)
	}
	return ctr.
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
