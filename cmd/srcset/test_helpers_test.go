package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"srcset/internal/config"
	"srcset/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	siteDir    string
}

// setupCLITestEnv writes a config file for a temp site with run history
// enabled and remote publishing off.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithWidths(64, 128), testsupport.WithRunLog())
	site := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(site, "home"))

	configPath := filepath.Join(site, "srcset.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		siteDir:    site,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nsite_dir = %q\ninput_dir = %q\noutput_dir = %q\nmanifest_path = %q\nrun_log_path = %q\nsite_config = %q\nenv_file = \"\"\n\n"+
			"[images]\nwidths = %s\n\n"+
			"[pipeline]\nsource_workers = 2\nderivative_workers = 2\n\n"+
			"[remote]\nenabled = false\n",
		cfg.Paths.SiteDir,
		cfg.Paths.InputDir,
		cfg.Paths.OutputDir,
		cfg.Paths.ManifestPath,
		cfg.Paths.RunLogPath,
		cfg.Paths.SiteConfig,
		"["+joinInts(cfg.Images.Widths)+"]",
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
