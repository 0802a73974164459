// minio.go - the blob store capability, backed by a MinIO/S3 bucket.
package server

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// autoDeleteTags marks every object for the bucket's own 24-hour lifecycle
// rule. This is a backstop independent of the metadata sweeper: a dangling
// blob whose row was already purged still gets evicted by the store.
var autoDeleteTags = map[string]string{"deleteAfter24H": "true"}

// BlobStore is the put/get capability the orchestration layer depends on.
// Keys follow the "{id}-{originalName}" convention established at upload.
type BlobStore interface {
	// Put stores the payload under key and returns its public location URL.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Get opens a read stream for the object. The caller must close it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// MinioStore implements BlobStore against a single bucket.
type MinioStore struct {
	client   *minio.Client
	endpoint string
	bucket   string
	secure   bool
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept "minio:9000" as well as "http(s)://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}

	return raw, false, nil
}

// NewBlobStore builds the MinIO client from settings and verifies the
// bucket exists before the first request can hit it.
func NewBlobStore(s Settings) (*MinioStore, error) {
	endpoint, secure, err := normaliseEndpoint(s.S3Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.S3AccessKey, s.S3SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(context.Background(), s.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket does not exist: %s", s.Bucket)
	}

	return &MinioStore{
		client:   client,
		endpoint: endpoint,
		bucket:   s.Bucket,
		secure:   secure,
	}, nil
}

func (m *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserTags:    autoDeleteTags,
	})
	if err != nil {
		return "", err
	}
	return m.objectURL(key), nil
}

func (m *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat forces an early error for missing objects.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

func (m *MinioStore) objectURL(key string) string {
	scheme := "http"
	if m.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, m.endpoint, m.bucket, url.PathEscape(key))
}
