package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"srcset/internal/config"
	"srcset/internal/logging"
	"srcset/internal/services"
)

const (
	defaultRegion  = "us-east-1"
	keyPlaceholder = "{key}"
)

// objectClient is the subset of *minio.Client the publisher uses.
type objectClient interface {
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

// S3 publishes derivatives to an S3-compatible bucket.
type S3 struct {
	client    objectClient
	bucket    string
	endpoint  string
	useSSL    bool
	publicURL string
	logger    *slog.Logger
}

// NewS3 constructs a publisher from a complete remote configuration.
func NewS3(remote config.Remote, logger *slog.Logger) (*S3, error) {
	if !remote.Complete() {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "new s3",
			"missing "+strings.Join(remote.Missing(), ", "), nil)
	}
	region := strings.TrimSpace(remote.Region)
	if region == "" {
		region = defaultRegion
	}
	client, err := minio.New(remote.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(remote.AccessKey, remote.SecretKey, ""),
		Secure: remote.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "init s3 client", remote.Endpoint, err)
	}
	return newS3WithClient(client, remote, logger), nil
}

func newS3WithClient(client objectClient, remote config.Remote, logger *slog.Logger) *S3 {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &S3{
		client:    client,
		bucket:    remote.Bucket,
		endpoint:  remote.Endpoint,
		useSSL:    remote.UseSSL,
		publicURL: strings.TrimRight(strings.TrimSpace(remote.PublicURL), "/"),
		logger:    logger,
	}
	logger.Info("remote publishing enabled",
		logging.String("endpoint", s.endpoint),
		logging.String("bucket", s.bucket),
		logging.String(logging.FieldEventType, "remote_enabled"),
	)
	return s
}

func (s *S3) Remote() bool { return true }

// Ping confirms the bucket is reachable with the configured credentials.
func (s *S3) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return services.Wrap(services.ErrRemoteCheck, "publish", "bucket exists", s.bucket, err)
	}
	if !ok {
		return services.Wrap(services.ErrNotFound, "publish", "bucket exists", "bucket "+s.bucket+" does not exist", nil)
	}
	return nil
}

// Exists issues a HEAD for key. A missing object is (false, nil); any other
// failure is reported so the caller can decide to upload regardless.
func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, services.Wrap(services.ErrRemoteCheck, "publish", "stat object", key, err)
}

// Publish uploads body under key with the given content type.
func (s *S3) Publish(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	info, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return services.Wrap(services.ErrUpload, "publish", "put object", key, err)
	}
	s.logger.Debug("uploaded derivative",
		logging.String("key", key),
		logging.Int64("bytes", info.Size),
		logging.String("etag", info.ETag),
	)
	return nil
}

// PublicURL renders the locator for key. A configured public URL is used as
// a template when it contains {key} and as a base otherwise; without one the
// path-style endpoint URL is returned.
func (s *S3) PublicURL(key string) string {
	if s.publicURL != "" {
		if strings.Contains(s.publicURL, keyPlaceholder) {
			return strings.ReplaceAll(s.publicURL, keyPlaceholder, key)
		}
		return s.publicURL + "/" + key
	}
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, key)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound", "NoSuchObject":
		return true
	}
	return resp.StatusCode == http.StatusNotFound
}
