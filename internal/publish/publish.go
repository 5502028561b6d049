package publish

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"srcset/internal/config"
	"srcset/internal/formats"
	"srcset/internal/logging"
)

// Publisher is the storage backend consumed by the pipeline.
type Publisher interface {
	// Remote reports whether derivatives are uploaded.
	Remote() bool
	// Exists reports whether an object already exists under key.
	Exists(ctx context.Context, key string) (bool, error)
	// Publish uploads body under key.
	Publish(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// PublicURL returns the locator recorded in the manifest for key.
	PublicURL(key string) string
}

// ContentType returns the MIME type uploaded for a derivative format.
func ContentType(f formats.Format) string {
	return f.ContentType()
}

// Key derives the object key for a derivative: its path relative to siteDir
// in slash form, behind prefix when one is configured. Derivatives outside
// siteDir fall back to their base name.
func Key(siteDir, derivative, prefix string) string {
	rel, err := filepath.Rel(siteDir, derivative)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(derivative)
	}
	key := filepath.ToSlash(rel)
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// NewFromConfig returns the S3 publisher when remote is active and the Local
// publisher otherwise.
func NewFromConfig(remote config.Remote, logger *slog.Logger) (Publisher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "publish")

	switch {
	case !remote.Enabled:
		logger.Debug("remote publishing disabled by configuration")
		return Local{}, nil
	case !remote.Complete():
		if missing := remote.Missing(); len(missing) < 4 {
			logger.Info("remote publishing disabled: incomplete object store settings",
				logging.String("missing", strings.Join(missing, ",")),
				logging.String(logging.FieldEventType, "remote_config_incomplete"),
			)
		}
		return Local{}, nil
	}
	return NewS3(remote, logger)
}

// Local keeps derivatives on disk.
type Local struct{}

func (Local) Remote() bool { return false }

func (Local) Exists(context.Context, string) (bool, error) { return false, nil }

func (Local) Publish(context.Context, string, io.Reader, int64, string) error { return nil }

// PublicURL returns key unchanged; callers pass the unprefixed site-relative
// path.
func (Local) PublicURL(key string) string { return key }
