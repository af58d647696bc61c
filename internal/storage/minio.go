package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio stores objects in an S3-compatible bucket. The existence check in
// Put is not atomic; two writers racing on one key can both succeed.
type Minio struct {
	client *minio.Client
	bucket string
}

func normaliseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}
	if !strings.Contains(raw, "://") {
		return raw, useSSL, nil
	}
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

// NewMinio connects and checks that the bucket exists.
func NewMinio(ctx context.Context, cfg config.MinioConfig) (*Minio, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio configuration incomplete")
	}
	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("minio bucket does not exist: %s", cfg.Bucket)
	}
	return &Minio{client: client, bucket: cfg.Bucket}, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

func (m *Minio) Exists(ctx context.Context, key string) (bool, error) {
	k, err := CleanKey(key)
	if err != nil {
		return false, err
	}
	_, err = m.client.StatObject(ctx, m.bucket, k, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, err
}

func (m *Minio) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	exists, err := m.Exists(ctx, k)
	if err != nil {
		return err
	}
	if exists {
		return ErrExists
	}
	_, err = m.client.PutObject(ctx, m.bucket, k, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return err
}

func (m *Minio) Open(ctx context.Context, key string) (*Object, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, k, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Object{ReadCloser: obj, Size: info.Size, ContentType: info.ContentType}, nil
}

func (m *Minio) Remove(ctx context.Context, key string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	return m.client.RemoveObject(ctx, m.bucket, k, minio.RemoveObjectOptions{})
}
