package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"srcset/internal/config"
)

func TestLoadSiteReadsFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "title: Blog\nimages:\n  formats:\n    - avif\n    - webp\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write site config: %v", err)
	}
	site, err := config.LoadSite(path)
	if err != nil {
		t.Fatalf("LoadSite: %v", err)
	}
	if got := site.Images.Formats; len(got) != 2 || got[0] != "avif" || got[1] != "webp" {
		t.Fatalf("unexpected formats %v", got)
	}
}

func TestLoadSiteMissingFileIsEmpty(t *testing.T) {
	site, err := config.LoadSite(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadSite: %v", err)
	}
	if len(site.Images.Formats) != 0 {
		t.Fatalf("expected no formats, got %v", site.Images.Formats)
	}
}

func TestLoadSiteMalformedReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("images: [unterminated"), 0o644); err != nil {
		t.Fatalf("write site config: %v", err)
	}
	if _, err := config.LoadSite(path); err == nil {
		t.Fatal("expected parse error")
	}
}
