package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound is returned when the named object is absent from the bucket.
// It matches fs.ErrNotExist so callers can stay backend-agnostic.
var ErrNotFound = fmt.Errorf("s3: object not found: %w", fs.ErrNotExist)

// Store keeps message images in an S3-compatible bucket and returns a
// public URL per object.
type Store struct {
	bucket         string
	publicBaseURL  string
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

// NewStore configures the bucket-backed store using the provided endpoint
// and credentials.
func NewStore(endpoint string, useSSL bool, accessKey, secretKey, bucket, publicBaseURL string, logger *slog.Logger) (*Store, error) {
	cleanEndpoint := strings.TrimSpace(endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	clientEndpoint := parseEndpoint(cleanEndpoint)
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	}
	minioClient, err := minio.New(clientEndpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	base := strings.TrimSpace(publicBaseURL)
	if base == "" {
		base = cleanEndpoint
	}

	return &Store{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		client:        minioClient,
		logger:        logger,
	}, nil
}

// Save stores the content and returns a direct URL (bucket is made publicly
// readable for local demo).
func (s *Store) Save(ctx context.Context, filename string, data []byte) (string, error) {
	key, err := objectKey(filename)
	if err != nil {
		return "", err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}

	publicURL := s.objectURL(key)
	if s.logger != nil {
		s.logger.Info("s3 upload completed", "bucket", s.bucket, "key", key, "url", publicURL)
	}
	return publicURL, nil
}

func (s *Store) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	key, err := objectKey(filename)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3: get object: %w", err)
	}
	// GetObject is lazy; Stat forces the first request so absence surfaces
	// here instead of on the first Read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3: stat object: %w", err)
	}
	return obj, nil
}

func (s *Store) Delete(ctx context.Context, filename string) error {
	key, err := objectKey(filename)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3: remove object: %w", err)
	}
	return nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	s.bucketInitOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			s.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		if err := s.allowPublicRead(ctx); err != nil {
			s.bucketInitErr = err
		}
	})
	return s.bucketInitErr
}

func (s *Store) allowPublicRead(ctx context.Context) error {
	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, s.bucket)
	if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
		return fmt.Errorf("s3: set bucket policy: %w", err)
	}
	return nil
}

func (s *Store) objectURL(key string) string {
	base := strings.TrimRight(s.publicBaseURL, "/")
	return fmt.Sprintf("%s/%s/%s", base, s.bucket, strings.TrimLeft(key, "/"))
}

func objectKey(filename string) (string, error) {
	key := strings.Trim(strings.TrimSpace(filename), "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	return key, nil
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}
