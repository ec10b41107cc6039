package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultPresignExpiry must outlive the transcription hard timeout.
const DefaultPresignExpiry = 30 * time.Minute

// Store resolves and reads pitch media kept in MinIO / S3.
type Store struct {
	client        *minio.Client
	bucketName    string
	region        string
	presignExpiry time.Duration
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("media bucket %q does not exist", bucket)
	}

	return &Store{client: cli, bucketName: bucket, region: region, presignExpiry: DefaultPresignExpiry}, nil
}

// Location of one media object.
type Location struct {
	Bucket string
	Key    string
	// External is set for http(s) URLs that are not ours to sign.
	External string
}

// ParseMediaURL understands "s3://bucket/key", "minio://bucket/key", http(s)
// URLs and bare keys (which live in defaultBucket).
func ParseMediaURL(raw, defaultBucket string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("empty media url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse media url: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		return Location{External: raw}, nil
	case "s3", "minio":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("media url %q needs bucket and key", raw)
		}
		return Location{Bucket: u.Host, Key: key}, nil
	case "":
		return Location{Bucket: defaultBucket, Key: strings.TrimPrefix(raw, "/")}, nil
	}
	return Location{}, fmt.Errorf("unsupported media url scheme %q", u.Scheme)
}

// ResolveMediaURL returns a URL an external provider can fetch: http(s) URLs
// pass through, stored objects get a presigned GET.
func (s *Store) ResolveMediaURL(ctx context.Context, raw string) (string, error) {
	loc, err := ParseMediaURL(raw, s.bucketName)
	if err != nil {
		return "", err
	}
	if loc.External != "" {
		return loc.External, nil
	}
	u, err := s.client.PresignedGetObject(ctx, loc.Bucket, loc.Key, s.presignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", loc.Bucket, loc.Key, err)
	}
	return u.String(), nil
}

// Open streams a stored media object; the returned name keeps the extension
// so providers can sniff the format.
func (s *Store) Open(ctx context.Context, raw string) (io.ReadCloser, string, error) {
	loc, err := ParseMediaURL(raw, s.bucketName)
	if err != nil {
		return nil, "", err
	}
	if loc.External != "" {
		return nil, "", fmt.Errorf("media %q is not in object storage", raw)
	}
	obj, err := s.client.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get %s/%s: %w", loc.Bucket, loc.Key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key now
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, "", fmt.Errorf("stat %s/%s: %w", loc.Bucket, loc.Key, err)
	}
	return obj, path.Base(loc.Key), nil
}

// Ping checks the bucket is reachable (readiness).
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}
