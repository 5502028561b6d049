package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"srcset/internal/logging"
	"srcset/internal/services"
)

var sourceExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// Options tunes a scan.
type Options struct {
	// Exclude lists directories that are pruned from the walk, typically the
	// output root when it lives under the input root.
	Exclude []string
	Logger  *slog.Logger
}

// IsSource reports whether name carries one of the accepted source extensions.
func IsSource(name string) bool {
	_, ok := sourceExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Scan walks root and returns every source image path relative to it.
// A missing root is created and yields no sources.
func Scan(root string, opts Options) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	root = filepath.Clean(root)

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if mkErr := os.MkdirAll(root, 0o755); mkErr != nil {
			return nil, services.Wrap(services.ErrSourceUnreadable, "scan", "create input root", root, mkErr)
		}
		logger.Info("created missing input root",
			logging.String("path", root),
			logging.String(logging.FieldEventType, "input_root_created"),
		)
		return nil, nil
	case err != nil:
		return nil, services.Wrap(services.ErrSourceUnreadable, "scan", "stat input root", root, err)
	case !info.IsDir():
		return nil, services.Wrap(services.ErrSourceUnreadable, "scan", "input root", fmt.Sprintf("%s is not a directory", root), nil)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, services.Wrap(services.ErrSourceUnreadable, "scan", "list input root", root, err)
	}

	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			excluded[abs] = struct{}{}
		}
	}

	var sources []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Debug("skipping unreadable path",
				logging.String("path", path),
				logging.Error(walkErr),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && len(excluded) > 0 {
				if abs, err := filepath.Abs(path); err == nil {
					if _, skip := excluded[abs]; skip {
						return fs.SkipDir
					}
				}
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsSource(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		sources = append(sources, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrSourceUnreadable, "scan", "walk input root", root, err)
	}

	sort.Strings(sources)
	return sources, nil
}
