package main

import (
	"context"
	"fmt"
	"path"
	"time"

	"dagger/cards/internal/dagger"
)

// releaseRoot is the bucket prefix every cards artifact lives under.
const releaseRoot = "cards"

// bucketCreds addresses an S3 compatible bucket.
type bucketCreds struct {
	endpoint        *dagger.Secret
	bucket          *dagger.Secret
	accessKeyId     *dagger.Secret
	secretAccessKey *dagger.Secret
}

// Package turns the per-platform binaries from BuildRelease into
// cards_<version>_linux_<arch>.tar.gz archives and a SHA256SUMS file.
func (c *Cards) Package(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,
) *dagger.Directory {
	binaries := c.BuildRelease(ctx, version, commit)

	packer := dag.Container().
		From("alpine:3").
		WithDirectory("/in", binaries).
		WithWorkdir("/out")

	for _, goarch := range []string{"amd64", "arm64"} {
		archive := fmt.Sprintf("cards_%s_linux_%s.tar.gz", version, goarch)
		packer = packer.WithExec([]string{
			"tar", "-czf", archive, "-C", "/in/linux/" + goarch, "cards",
		})
	}

	return packer.
		WithExec([]string{"sh", "-c", "sha256sum *.tar.gz > SHA256SUMS"}).
		Directory("/out")
}

// publish copies a directory of artifacts to <bucket>/cards/<channel>.
// Existing objects under the prefix that are not in dir are removed.
func (c *Cards) publish(
	ctx context.Context,
	dir *dagger.Directory,
	channel string,
	creds bucketCreds,
) error {
	bucketName, err := creds.bucket.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("reading bucket name: %w", err)
	}
	endpointUrl, err := creds.endpoint.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("reading bucket endpoint: %w", err)
	}

	destination := "s3://" + path.Join(bucketName, releaseRoot, channel)

	_, err = dag.Container().
		From("amazon/aws-cli:latest").
		WithSecretVariable("AWS_ACCESS_KEY_ID", creds.accessKeyId).
		WithSecretVariable("AWS_SECRET_ACCESS_KEY", creds.secretAccessKey).
		WithEnvVariable("AWS_DEFAULT_REGION", "auto").
		WithDirectory("/artifacts", dir).
		WithWorkdir("/artifacts").
		WithExec([]string{
			"aws", "s3", "sync", ".", destination,
			"--delete",
			"--endpoint-url", endpointUrl,
		}).
		Sync(ctx)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", destination, err)
	}
	return nil
}

// Release packages a tagged build and publishes it to cards/<version> and
// cards/latest.
func (c *Cards) Release(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucket *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	creds := bucketCreds{
		endpoint:        endpoint,
		bucket:          bucket,
		accessKeyId:     accessKeyId,
		secretAccessKey: secretAccessKey,
	}

	artifacts := c.Package(ctx, version, commit)
	for _, channel := range []string{version, "latest"} {
		if err := c.publish(ctx, artifacts, channel, creds); err != nil {
			return artifacts, err
		}
	}
	return artifacts, nil
}

// Nightly packages the given commit as cards/nightly/<date> and points
// cards/nightly/latest at it.
func (c *Cards) Nightly(
	ctx context.Context,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucket *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	creds := bucketCreds{
		endpoint:        endpoint,
		bucket:          bucket,
		accessKeyId:     accessKeyId,
		secretAccessKey: secretAccessKey,
	}

	date := time.Now().UTC().Format("2006-01-02")
	artifacts := c.Package(ctx, "nightly-"+date, commit)
	for _, channel := range []string{path.Join("nightly", date), path.Join("nightly", "latest")} {
		if err := c.publish(ctx, artifacts, channel, creds); err != nil {
			return artifacts, err
		}
	}
	return artifacts, nil
}
