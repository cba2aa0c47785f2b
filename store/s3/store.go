// Package s3 provides a store.Store that keeps the book as a single JSON
// object in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/xraph/tally"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// API is the subset of *s3.Client the store uses.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Config locates the bucket and object.
type Config struct {
	Bucket       string `json:"bucket" mapstructure:"bucket" yaml:"bucket"`
	Key          string `json:"key" mapstructure:"key" yaml:"key"`
	Region       string `json:"region" mapstructure:"region" yaml:"region"`
	Endpoint     string `json:"endpoint" mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey    string `json:"access_key" mapstructure:"access_key" yaml:"access_key"`
	SecretKey    string `json:"secret_key" mapstructure:"secret_key" yaml:"secret_key"` //nolint:gosec // config field, not a literal secret
	UsePathStyle bool   `json:"use_path_style" mapstructure:"use_path_style" yaml:"use_path_style"`
}

// Store implements store.Store on an S3 bucket.
type Store struct {
	client API
	bucket string
	key    string
}

// New wraps an S3 client. An empty key selects store.DefaultKey + ".json".
func New(client API, bucket, key string) *Store {
	if key == "" {
		key = store.DefaultKey + ".json"
	}
	return &Store{client: client, bucket: bucket, key: key}
}

// Open builds an S3 client from cfg. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("tally/s3: bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("tally/s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})
	return New(client, cfg.Bucket, cfg.Key), nil
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context) (*document.Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, tally.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("tally/s3: get %s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close() //nolint:errcheck // read-only body

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("tally/s3: read %s/%s: %w", s.bucket, s.key, err)
	}
	return document.Decode(data)
}

// Save implements store.Store. A PUT replaces the whole object.
func (s *Store) Save(ctx context.Context, doc *document.Document) error {
	data, err := document.Encode(doc)
	if err != nil {
		return fmt.Errorf("tally/s3: encode: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("tally/s3: put %s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}

// Migrate implements store.Store. Buckets are provisioned out of band.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping checks that the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("tally/s3: head bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }
