package preflight

import (
	"context"
	"log/slog"

	"srcset/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config and remote
// settings. The bucket probe only runs when remote publishing is active.
func RunAll(ctx context.Context, cfg *config.Config, remote config.Remote, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckSourceDirectory("Input directory", cfg.Paths.InputDir),
		CheckWritableDirectory("Output directory", cfg.Paths.OutputDir),
		CheckManifest("Manifest", cfg.Paths.ManifestPath),
	}
	if cfg.Paths.RunLogPath != "" {
		results = append(results, CheckWritableParent("Run history", cfg.Paths.RunLogPath))
	}
	results = append(results, CheckRemoteConfig(remote))
	if remote.Active() {
		results = append(results, CheckBucket(ctx, remote, logger))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
