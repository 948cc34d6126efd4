// Package s3 provides a source that reads configuration or role-metadata
// documents from an S3 object. The source is read-only.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/remotesyssupport/stemcell/source"
)

// TypeS3 is the source type identifier for S3 sources.
const TypeS3 source.SourceType = "s3"

// GetObjectAPI is the subset of the S3 client used by Source.
// It exists so tests can substitute a fake client.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source loads raw data from an S3 object.
//
// The client is created lazily from the default AWS configuration on first
// Load unless one is injected with WithClient.
type Source struct {
	bucket string
	key    string
	client GetObjectAPI

	clientInit    sync.Once
	clientInitErr error
}

// Ensure Source implements the source.Source interface.
var _ source.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithClient sets a custom S3 client.
func WithClient(client GetObjectAPI) Option {
	return func(s *Source) {
		s.client = client
	}
}

// New creates an S3 source for the given bucket and key.
//
// Example:
//
//	src := s3.New("infra-config", "stemcell/config.yml")
//	src := s3.New("infra-config", "stemcell/config.yml", s3.WithClient(client))
func New(bucket, key string, opts ...Option) *Source {
	s := &Source{
		bucket: bucket,
		key:    key,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Type returns the source type identifier.
func (s *Source) Type() source.SourceType {
	return TypeS3
}

// Bucket returns the configured bucket name.
func (s *Source) Bucket() string {
	return s.bucket
}

// Key returns the configured object key.
func (s *Source) Key() string {
	return s.key
}

// ensureClient creates a default S3 client if one was not provided.
func (s *Source) ensureClient(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	s.clientInit.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			s.clientInitErr = fmt.Errorf("failed to load AWS configuration: %w", err)
			return
		}
		s.client = s3.NewFromConfig(cfg)
	})
	return s.clientInitErr
}

// Load implements the source.Source interface.
// A missing object is reported as an error wrapping source.ErrNotExist.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.ensureClient(ctx); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, s.key, source.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return data, nil
}
