package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Site is the subset of the site's own configuration file that the image
// pipeline consumes.
type Site struct {
	Images SiteImages `yaml:"images"`
}

// SiteImages lists the output formats requested by the site.
type SiteImages struct {
	Formats []string `yaml:"formats"`
}

// LoadSite parses the site configuration YAML. A missing file yields an empty
// Site and no error; a malformed file returns an error so callers can warn and
// fall back to defaults.
func LoadSite(path string) (Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Site{}, nil
		}
		return Site{}, fmt.Errorf("read site config: %w", err)
	}

	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return Site{}, fmt.Errorf("parse site config: %w", err)
	}
	return site, nil
}
