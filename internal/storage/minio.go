// Package storage fetches deployment packages from S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/remyxai/remyxai-cli/internal/deploy"
)

// S3Prefix is the URL scheme of package locations.
const S3Prefix = "s3"

// packageSuffix names a model's archive inside the prefix.
const packageSuffix = "_deployment_package.zip"

// MinioConfig locates the bucket holding deployment packages.
type MinioConfig struct {
	// URL is s3://bucket[/prefix].
	URL       string
	Endpoint  string
	AccessKey string
	SecretKey string
	Token     string
	UseSSL    bool
	// Region skips the bucket location lookup when set.
	Region string
	Logger zerolog.Logger
}

// MinioSource implements deploy.PackageSource on an S3 bucket.
type MinioSource struct {
	client *minio.Client
	bucket string
	prefix string
	log    zerolog.Logger
}

var _ deploy.PackageSource = (*MinioSource)(nil)

// NewMinioSource creates a client for cfg.Endpoint.
func NewMinioSource(cfg MinioConfig) (*MinioSource, error) {
	bucket, prefix, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required for %s", cfg.URL)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.Token),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize minio client failed, endpoint = %s: %w", cfg.Endpoint, err)
	}
	return &MinioSource{client: client, bucket: bucket, prefix: prefix, log: cfg.Logger}, nil
}

// ParseURL splits s3://bucket/prefix.
func ParseURL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid url(%s)", raw)
	}
	if u.Scheme != S3Prefix || u.Host == "" {
		return "", "", fmt.Errorf("invalid url(%s): want s3://bucket[/prefix]", raw)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// ObjectName is the key of model's package.
func (s *MinioSource) ObjectName(model string) string {
	return path.Join(s.prefix, model+packageSuffix)
}

// FetchPackage copies the model's archive into w.
func (s *MinioSource) FetchPackage(ctx context.Context, model string, w io.Writer) error {
	key := s.ObjectName(model)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return s.wrap(model, key, err)
	}
	defer obj.Close()
	n, err := io.Copy(w, obj)
	if err != nil {
		return s.wrap(model, key, err)
	}
	s.log.Debug().Str("event", "package_downloaded").Str("model", model).Str("object", key).Int64("bytes", n).Msg("storage")
	return nil
}

func (s *MinioSource) wrap(model, key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: no package s3://%s/%s for %s", deploy.ErrModelNotFound, s.bucket, key, model)
	}
	return fmt.Errorf("download s3://%s/%s: %w", s.bucket, key, err)
}
