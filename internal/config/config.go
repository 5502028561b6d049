package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directory layout of the site being processed. Relative
// values resolve against SiteDir.
type Paths struct {
	SiteDir      string `toml:"site_dir"`
	InputDir     string `toml:"input_dir"`
	OutputDir    string `toml:"output_dir"`
	ManifestPath string `toml:"manifest_path"`
	RunLogPath   string `toml:"run_log_path"`
	LogDir       string `toml:"log_dir"`
	SiteConfig   string `toml:"site_config"`
	EnvFile      string `toml:"env_file"`
}

// Images contains derivative planning settings.
type Images struct {
	// Widths are the target widths offered to every source; widths larger than
	// a source's intrinsic width are dropped for that source.
	Widths []int `toml:"widths"`
	// DefaultFormats apply when the site config names no usable format.
	DefaultFormats    []string `toml:"default_formats"`
	MetadataCacheSize int      `toml:"metadata_cache_size"`
}

// Pipeline contains worker pool limits.
type Pipeline struct {
	SourceWorkers     int `toml:"source_workers"`
	DerivativeWorkers int `toml:"derivative_workers"`
}

// RemoteOptions holds the non-secret remote publishing knobs. Credentials are
// never read from the config file; see LoadRemote.
type RemoteOptions struct {
	Enabled   bool   `toml:"enabled"`
	KeyPrefix string `toml:"key_prefix"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for srcset.
//
// Configuration sections by subsystem:
//   - Paths: site, input, output, manifest and run log locations
//   - Images: target widths, fallback formats, metadata cache size
//   - Pipeline: worker pool limits
//   - Remote: object store publishing options (credentials come from env)
//   - Logging: log format and level
type Config struct {
	Paths    Paths         `toml:"paths"`
	Images   Images        `toml:"images"`
	Pipeline Pipeline      `toml:"pipeline"`
	Remote   RemoteOptions `toml:"remote"`
	Logging  Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/srcset/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// resolveConfigPath prefers an explicit path, then ./srcset.toml, then the
// per-user default location.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("srcset.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return projectPath, false, nil
}

// EnsureDirectories creates the directories a run writes into. The input
// directory is created too so a fresh site starts with zero sources instead
// of an error.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.InputDir,
		c.Paths.OutputDir,
		filepath.Dir(c.Paths.ManifestPath),
	}
	if strings.TrimSpace(c.Paths.RunLogPath) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.RunLogPath))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
