// Package s3 stores snapshots as a single object in an S3-compatible
// bucket (AWS, MinIO, or any other implementation of the API). Credentials
// are static keys from the application configuration, so authentication is
// a pure "are the keys present" check.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/daybook/internal/backend"
	"github.com/dmitrijs2005/daybook/internal/snapshot"
)

// Test seams, following the same pattern the AWS calls are stubbed with
// elsewhere in the ecosystem.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*awss3.Options)) api {
		return awss3.NewFromConfig(cfg, optFns...)
	}
)

// api is the slice of the S3 client the backend uses.
type api interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
}

// Config holds the static settings for one bucket target.
type Config struct {
	Region          string
	Endpoint        string // optional, for S3-compatible stores
	Bucket          string
	Key             string // object key holding the snapshot
	AccessKeyID     string
	SecretAccessKey string
}

func (c Config) complete() bool {
	return c.Region != "" && c.Bucket != "" && c.Key != "" &&
		c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type Backend struct {
	cfg Config

	mu     sync.Mutex
	client api
}

func New(cfg Config) *Backend {
	return &Backend{cfg: cfg}
}

func (b *Backend) Name() string { return "s3" }

// IsAuthenticated reports whether credentials are configured. There is no
// token lifecycle for static keys; expiry never happens locally.
func (b *Backend) IsAuthenticated() bool {
	return b.cfg.complete()
}

func (b *Backend) getClient(ctx context.Context) (api, error) {
	if !b.cfg.complete() {
		return nil, backend.ErrNotConfigured
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return b.client, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(b.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			b.cfg.AccessKeyID,
			b.cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to build aws config: %w", err)
	}

	b.client = newS3ClientFromConfig(cfg, func(o *awss3.Options) {
		if b.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(b.cfg.Endpoint)
		}
		o.UsePathStyle = true
	})
	return b.client, nil
}

func (b *Backend) Upload(ctx context.Context, snap *snapshot.Snapshot) error {
	client, err := b.getClient(ctx)
	if err != nil {
		return err
	}

	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(b.cfg.Bucket),
		Key:         aws.String(b.cfg.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	return nil
}

func (b *Backend) Download(ctx context.Context) (*snapshot.Snapshot, error) {
	client, err := b.getClient(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(b.cfg.Key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil // nothing uploaded yet
		}
		return nil, &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	return snapshot.Decode(data)
}

func (b *Backend) RemoteModifiedTime(ctx context.Context) (*time.Time, error) {
	client, err := b.getClient(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(b.cfg.Key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, &backend.ConnectionError{Backend: b.Name(), Err: err}
	}
	if out.LastModified == nil {
		return nil, nil
	}
	t := out.LastModified.UTC()
	return &t, nil
}
