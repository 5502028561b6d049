package config

const (
	defaultSiteDir           = "."
	defaultInputDir          = "assets/images"
	defaultOutputDir         = "assets/processed"
	defaultManifestPath      = ".cache/image-manifest.json"
	defaultRunLogPath        = ".cache/srcset-runs.db"
	defaultSiteConfig        = "config.yaml"
	defaultEnvFile           = ".env"
	defaultFormat            = "webp"
	defaultMetadataCacheSize = 1024
	defaultSourceWorkers     = 4
	defaultDerivativeWorkers = 4
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SiteDir:      defaultSiteDir,
			InputDir:     defaultInputDir,
			OutputDir:    defaultOutputDir,
			ManifestPath: defaultManifestPath,
			RunLogPath:   defaultRunLogPath,
			SiteConfig:   defaultSiteConfig,
			EnvFile:      defaultEnvFile,
		},
		Images: Images{
			Widths:            []int{640, 1280},
			DefaultFormats:    []string{defaultFormat},
			MetadataCacheSize: defaultMetadataCacheSize,
		},
		Pipeline: Pipeline{
			SourceWorkers:     defaultSourceWorkers,
			DerivativeWorkers: defaultDerivativeWorkers,
		},
		Remote: RemoteOptions{
			Enabled: true,
			UseSSL:  true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
