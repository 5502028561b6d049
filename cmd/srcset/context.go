package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"srcset/internal/config"
	"srcset/internal/logging"
	"srcset/internal/manifest"
	"srcset/internal/runlog"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// remote captures object store settings from the env file and process
// environment. It is called once per command.
func (c *commandContext) remote() (config.Remote, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return config.Remote{}, err
	}
	return config.LoadRemote(cfg.Remote, cfg.Paths.EnvFile)
}

// siteFormats reads images.formats from the site config. A malformed file is
// logged and treated as naming no formats.
func (c *commandContext) siteFormats(logger *slog.Logger) []string {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil
	}
	site, err := config.LoadSite(cfg.Paths.SiteConfig)
	if err != nil {
		logging.WarnWithContext(logger, "failed to read site config", "site_config_invalid",
			logging.String("path", cfg.Paths.SiteConfig),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the YAML or remove images.formats"),
			logging.String(logging.FieldImpact, "default formats used"),
		)
		return nil
	}
	return site.Images.Formats
}

func (c *commandContext) loadManifest() (manifest.Manifest, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return manifest.Read(cfg.Paths.ManifestPath)
}

func (c *commandContext) openRunLog() (*runlog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Paths.RunLogPath) == "" {
		return nil, nil
	}
	return runlog.Open(cfg.Paths.RunLogPath)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
