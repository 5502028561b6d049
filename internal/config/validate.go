package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.InputDir == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.input_dir")
	}
	if IsWithin(c.Paths.OutputDir, c.Paths.InputDir) {
		return errors.New("paths.input_dir must not live inside paths.output_dir")
	}
	return nil
}

func (c *Config) validateImages() error {
	for _, w := range c.Images.Widths {
		if w <= 0 {
			return fmt.Errorf("images.widths must be positive, got %d", w)
		}
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.SourceWorkers < 1 {
		return errors.New("pipeline.source_workers must be at least 1")
	}
	if c.Pipeline.DerivativeWorkers < 1 {
		return errors.New("pipeline.derivative_workers must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}

// IsWithin reports whether path lies strictly inside dir.
func IsWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
