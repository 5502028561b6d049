package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"srcset/internal/manifest"
)

func writeManifest(t *testing.T, path string, m manifest.Manifest) {
	t.Helper()
	data, err := manifest.Encode(m)
	if err != nil {
		t.Fatalf("encode manifest: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func TestManifestShow(t *testing.T) {
	env := setupCLITestEnv(t)
	writeManifest(t, env.cfg.Paths.ManifestPath, manifest.Manifest{
		"hero.png": {
			"webp": {{Width: 640, Path: "assets/processed/hero-640.webp"}, {Width: 1280, Path: "assets/processed/hero-1280.webp"}},
		},
		"blog/cover.jpg": {
			"avif": {{Width: 640, Path: "https://cdn.example.com/assets/processed/blog/cover-640.avif"}},
		},
	})

	out, _, err := runCLI(t, []string{"manifest", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("manifest show: %v", err)
	}
	requireContains(t, out, "hero.png")
	requireContains(t, out, "640, 1280")
	requireContains(t, out, "remote")

	out, _, err = runCLI(t, []string{"manifest", "show", "cover.jpg"}, env.configPath)
	if err != nil {
		t.Fatalf("manifest show source: %v", err)
	}
	requireContains(t, out, "cover-640.avif")
	requireNotContains(t, out, "hero")

	if _, _, err := runCLI(t, []string{"manifest", "show", "missing.png"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown source")
	}
}

func TestManifestShowEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"manifest", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("manifest show: %v", err)
	}
	requireContains(t, out, "Manifest is empty")
}

func TestManifestCheck(t *testing.T) {
	env := setupCLITestEnv(t)
	local := filepath.Join(env.siteDir, "assets", "processed", "hero-640.webp")
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(local, []byte("webp"), 0o644); err != nil {
		t.Fatalf("write derivative: %v", err)
	}
	writeManifest(t, env.cfg.Paths.ManifestPath, manifest.Manifest{
		"hero.png": {"webp": {{Width: 640, Path: "assets/processed/hero-640.webp"}}},
		"logo.png": {"webp": {{Width: 300, Path: "https://cdn.example.com/logo-300.webp"}}},
	})

	out, _, err := runCLI(t, []string{"manifest", "check"}, env.configPath)
	if err != nil {
		t.Fatalf("manifest check: %v\n%s", err, out)
	}
	requireContains(t, out, "2 sources consistent")

	writeManifest(t, env.cfg.Paths.ManifestPath, manifest.Manifest{
		"hero.png": {"webp": {
			{Width: 1280, Path: "assets/processed/hero-1280.webp"},
			{Width: 640, Path: "assets/processed/hero-640.webp"},
		}},
	})
	out, _, err = runCLI(t, []string{"manifest", "check"}, env.configPath)
	if err == nil {
		t.Fatal("expected check failure")
	}
	if !strings.Contains(err.Error(), "1 missing") {
		t.Fatalf("unexpected error: %v", err)
	}
	requireContains(t, out, "hero-1280.webp not found")
}
