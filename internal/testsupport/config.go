package testsupport

import (
	"path/filepath"
	"testing"

	"srcset/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted at a unique temp site directory with
// every path resolved to an absolute location beneath it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SiteDir = base
	cfgVal.Paths.InputDir = filepath.Join(base, "assets", "images")
	cfgVal.Paths.OutputDir = filepath.Join(base, "assets", "processed")
	cfgVal.Paths.ManifestPath = filepath.Join(base, ".cache", "image-manifest.json")
	cfgVal.Paths.RunLogPath = ""
	cfgVal.Paths.LogDir = ""
	cfgVal.Paths.SiteConfig = filepath.Join(base, "config.yaml")
	cfgVal.Paths.EnvFile = ""
	cfgVal.Pipeline.SourceWorkers = 2
	cfgVal.Pipeline.DerivativeWorkers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWidths overrides the configured target widths.
func WithWidths(widths ...int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Images.Widths = append([]int(nil), widths...)
	}
}

// WithDefaultFormats overrides the configured fallback formats.
func WithDefaultFormats(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Images.DefaultFormats = append([]string(nil), names...)
	}
}

// WithWorkers sets both worker pool sizes.
func WithWorkers(sources, derivatives int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.SourceWorkers = sources
		b.cfg.Pipeline.DerivativeWorkers = derivatives
	}
}

// WithRunLog enables the run history database under the site directory.
func WithRunLog() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.RunLogPath = filepath.Join(b.baseDir, ".cache", "srcset-runs.db")
	}
}

// BaseDir returns the site directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.SiteDir
}
