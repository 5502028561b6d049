package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeImages()
	c.normalizePipeline()
	c.normalizeRemote()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	site := strings.TrimSpace(c.Paths.SiteDir)
	if site == "" {
		site = defaultSiteDir
	}
	var err error
	if c.Paths.SiteDir, err = expandPath(site); err != nil {
		return fmt.Errorf("paths.site_dir: %w", err)
	}

	fields := []struct {
		name     string
		value    *string
		fallback string
		optional bool
	}{
		{"paths.input_dir", &c.Paths.InputDir, defaultInputDir, false},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir, false},
		{"paths.manifest_path", &c.Paths.ManifestPath, defaultManifestPath, false},
		{"paths.run_log_path", &c.Paths.RunLogPath, "", true},
		{"paths.log_dir", &c.Paths.LogDir, "", true},
		{"paths.site_config", &c.Paths.SiteConfig, defaultSiteConfig, false},
		{"paths.env_file", &c.Paths.EnvFile, "", true},
	}
	for _, field := range fields {
		value := strings.TrimSpace(*field.value)
		if value == "" {
			if field.optional {
				*field.value = ""
				continue
			}
			value = field.fallback
		}
		resolved, err := c.resolveSitePath(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = resolved
	}
	return nil
}

// resolveSitePath anchors relative paths at the site directory; "~" and
// absolute paths pass through expandPath unchanged in meaning.
func (c *Config) resolveSitePath(value string) (string, error) {
	if strings.HasPrefix(value, "~") || filepath.IsAbs(value) {
		return expandPath(value)
	}
	return expandPath(filepath.Join(c.Paths.SiteDir, value))
}

func (c *Config) normalizeImages() {
	if len(c.Images.DefaultFormats) == 0 {
		c.Images.DefaultFormats = []string{defaultFormat}
	}
	formats := make([]string, 0, len(c.Images.DefaultFormats))
	for _, f := range c.Images.DefaultFormats {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			formats = append(formats, f)
		}
	}
	c.Images.DefaultFormats = formats
	if c.Images.MetadataCacheSize <= 0 {
		c.Images.MetadataCacheSize = defaultMetadataCacheSize
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.SourceWorkers == 0 {
		c.Pipeline.SourceWorkers = defaultSourceWorkers
	}
	if c.Pipeline.DerivativeWorkers == 0 {
		c.Pipeline.DerivativeWorkers = defaultDerivativeWorkers
	}
}

func (c *Config) normalizeRemote() {
	c.Remote.KeyPrefix = strings.Trim(strings.TrimSpace(c.Remote.KeyPrefix), "/")
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
