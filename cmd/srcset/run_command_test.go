package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"srcset/internal/manifest"
	"srcset/internal/testsupport"
)

func TestRunCommandRendersAndRecords(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WritePNG(t, filepath.Join(env.cfg.Paths.InputDir, "hero.png"), 200, 100)
	testsupport.WriteGarbage(t, filepath.Join(env.cfg.Paths.InputDir, "broken.jpg"))

	out, _, err := runCLI(t, []string{"run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var summary runSummaryJSON
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Sources != 2 || summary.Rendered != 3 || summary.SkippedSources != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}

	m, err := manifest.Read(env.cfg.Paths.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	records := m["hero.png"]["webp"]
	if len(records) != 3 || records[0].Width != 64 || records[1].Width != 128 || records[2].Width != 200 {
		t.Fatalf("unexpected records: %+v", records)
	}
	if records[0].Path != "assets/processed/hero-64.webp" {
		t.Fatalf("unexpected locator %q", records[0].Path)
	}

	out, _, err = runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	requireContains(t, out, "0 new, 3 reused")
	requireContains(t, out, "broken.jpg")

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, summary.RunID[:8])
	requireContains(t, out, "succeeded")

	out, _, err = runCLI(t, []string{"history", "show", summary.RunID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Run "+summary.RunID)
	requireContains(t, out, "broken.jpg")
}

func TestRunCommandSingleFile(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WritePNG(t, filepath.Join(env.cfg.Paths.InputDir, "a.png"), 100, 50)
	testsupport.WritePNG(t, filepath.Join(env.cfg.Paths.InputDir, "b.png"), 100, 50)

	if _, _, err := runCLI(t, []string{"run", "--file", "a.png"}, env.configPath); err != nil {
		t.Fatalf("run --file: %v", err)
	}
	m, err := manifest.Read(env.cfg.Paths.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if _, ok := m["a.png"]; !ok {
		t.Fatalf("expected a.png in manifest: %v", m.Sources())
	}
	if _, ok := m["b.png"]; ok {
		t.Fatal("b.png should not be processed")
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.OutputDir, "a-64.webp")); err != nil {
		t.Fatalf("expected derivative: %v", err)
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.RunLogPath = ""
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err == nil {
		t.Fatal("expected error when run history is disabled")
	}
	requireContains(t, err.Error(), "run history disabled")
}
