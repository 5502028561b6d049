package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"srcset/internal/config"
)

func TestLoadDefaultsResolveAgainstSiteDir(t *testing.T) {
	site := t.TempDir()
	cfgPath := filepath.Join(site, "srcset.toml")
	writeConfig(t, cfgPath, map[string]any{
		"paths": map[string]any{"site_dir": site},
	})

	cfg, resolved, exists, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != cfgPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.InputDir != filepath.Join(site, "assets", "images") {
		t.Fatalf("unexpected input dir: %q", cfg.Paths.InputDir)
	}
	if cfg.Paths.OutputDir != filepath.Join(site, "assets", "processed") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.ManifestPath != filepath.Join(site, ".cache", "image-manifest.json") {
		t.Fatalf("unexpected manifest path: %q", cfg.Paths.ManifestPath)
	}
	if got := cfg.Images.Widths; len(got) != 2 || got[0] != 640 || got[1] != 1280 {
		t.Fatalf("unexpected widths: %v", got)
	}
	if got := cfg.Images.DefaultFormats; len(got) != 1 || got[0] != "webp" {
		t.Fatalf("unexpected default formats: %v", got)
	}
	if cfg.Pipeline.SourceWorkers != 4 || cfg.Pipeline.DerivativeWorkers != 4 {
		t.Fatalf("unexpected worker defaults: %+v", cfg.Pipeline)
	}
	if !cfg.Remote.Enabled || !cfg.Remote.UseSSL {
		t.Fatalf("expected remote enabled with ssl by default: %+v", cfg.Remote)
	}
}

func TestLoadMissingExplicitPathUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be reported absent")
	}
	if resolved != missing {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		values map[string]any
		want   string
	}{
		{"negative width", map[string]any{"images": map[string]any{"widths": []int{640, -1}}}, "images.widths"},
		{"same dirs", map[string]any{"paths": map[string]any{"input_dir": "img", "output_dir": "img"}}, "paths.output_dir"},
		{"input inside output", map[string]any{"paths": map[string]any{"input_dir": "out/src", "output_dir": "out"}}, "paths.input_dir"},
		{"workers", map[string]any{"pipeline": map[string]any{"source_workers": -2}}, "pipeline.source_workers"},
		{"log format", map[string]any{"logging": map[string]any{"format": "xml"}}, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			site := t.TempDir()
			values := tc.values
			paths, _ := values["paths"].(map[string]any)
			if paths == nil {
				paths = map[string]any{}
				values["paths"] = paths
			}
			paths["site_dir"] = site
			cfgPath := filepath.Join(site, "srcset.toml")
			writeConfig(t, cfgPath, values)

			_, _, _, err := config.Load(cfgPath)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestOutputInsideInputIsAllowed(t *testing.T) {
	site := t.TempDir()
	cfgPath := filepath.Join(site, "srcset.toml")
	writeConfig(t, cfgPath, map[string]any{
		"paths": map[string]any{"site_dir": site, "input_dir": "assets/images", "output_dir": "assets/images/processed"},
	})
	if _, _, _, err := config.Load(cfgPath); err != nil {
		t.Fatalf("expected nested output dir to be accepted: %v", err)
	}
}

func TestEnsureDirectoriesCreatesInputAndOutput(t *testing.T) {
	site := t.TempDir()
	cfgPath := filepath.Join(site, "srcset.toml")
	writeConfig(t, cfgPath, map[string]any{"paths": map[string]any{"site_dir": site}})
	cfg, _, _, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.InputDir, cfg.Paths.OutputDir, filepath.Dir(cfg.Paths.ManifestPath)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "srcset.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(target); err != nil || !exists {
		t.Fatalf("sample config should load cleanly: exists=%v err=%v", exists, err)
	}
}

func TestIsWithin(t *testing.T) {
	cases := []struct {
		dir, path string
		want      bool
	}{
		{"/a/b", "/a/b/c", true},
		{"/a/b", "/a/b", false},
		{"/a/b", "/a/bc", false},
		{"/a/b", "/a", false},
	}
	for _, tc := range cases {
		if got := config.IsWithin(tc.dir, tc.path); got != tc.want {
			t.Fatalf("IsWithin(%q, %q) = %v, want %v", tc.dir, tc.path, got, tc.want)
		}
	}
}

func writeConfig(t *testing.T, path string, values map[string]any) {
	t.Helper()
	data, err := toml.Marshal(values)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
