package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"srcset/internal/config"
	"srcset/internal/formats"
	"srcset/internal/logging"
	"srcset/internal/manifest"
	"srcset/internal/planner"
	"srcset/internal/publish"
	"srcset/internal/render"
	"srcset/internal/runlog"
	"srcset/internal/scanner"
	"srcset/internal/services"
)

const (
	modeFull  = "full"
	modeFiles = "files"
)

// Options configures a Pipeline.
type Options struct {
	Config *config.Config
	// Publisher defaults to publish.Local.
	Publisher publish.Publisher
	// SiteFormats are the format names read from the site configuration.
	SiteFormats []string
	// RunLog is optional; when set every finished run is recorded.
	RunLog *runlog.Store
	Logger *slog.Logger
}

// Pipeline renders, publishes and records derivatives.
type Pipeline struct {
	cfg       *config.Config
	engine    *render.Engine
	publisher publish.Publisher
	runlog    *runlog.Store
	logger    *slog.Logger
	formats   []formats.Format
}

// New validates options and prepares the render engine.
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "config is required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "pipeline")

	engine, err := render.NewEngine(render.Options{
		OutputRoot: opts.Config.Paths.OutputDir,
		CacheSize:  opts.Config.Images.MetadataCacheSize,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = publish.Local{}
	}

	fallback := planner.ResolveFormats(opts.Config.Images.DefaultFormats, planner.DefaultFormats, logger)
	return &Pipeline{
		cfg:       opts.Config,
		engine:    engine,
		publisher: publisher,
		runlog:    opts.RunLog,
		logger:    logger,
		formats:   planner.ResolveFormats(opts.SiteFormats, fallback, logger),
	}, nil
}

// Formats returns the output formats this pipeline produces.
func (p *Pipeline) Formats() []formats.Format {
	return append([]formats.Format(nil), p.formats...)
}

// Run processes every source under the input root.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	return p.run(ctx, modeFull, nil)
}

// RunFiles processes only the named sources. Paths may be absolute or
// relative to the input root.
func (p *Pipeline) RunFiles(ctx context.Context, paths ...string) (*Result, error) {
	return p.run(ctx, modeFiles, paths)
}

func (p *Pipeline) run(ctx context.Context, mode string, files []string) (*Result, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now()
	record := runlog.Run{ID: runID, Mode: mode, StartedAt: started}

	logger.Info("pipeline run started",
		logging.String("mode", mode),
		logging.String("input_dir", p.cfg.Paths.InputDir),
		logging.String("output_dir", p.cfg.Paths.OutputDir),
		logging.Bool("remote", p.publisher.Remote()),
		logging.String(logging.FieldEventType, "run_started"),
	)

	store := manifest.NewStore(p.cfg.Paths.ManifestPath, logger)
	if err := store.Lock(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer store.Unlock()
	store.Load()

	t := &tally{}
	sources, err := p.sources(mode, files, t, logger)
	if err != nil {
		p.finish(ctx, logger, record, t, err)
		return nil, err
	}
	t.add(func(s *Summary) { s.Sources = len(sources) })
	warnOutputCollisions(logger, sources)

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Pipeline.SourceWorkers)
	for _, rel := range sources {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			p.processSource(ctx, rel, store, t)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		logger.Info("pipeline run canceled; manifest not written",
			logging.String(logging.FieldEventType, "run_canceled"),
		)
		p.finish(ctx, logger, record, t, err)
		return nil, err
	}

	if err := store.Save(); err != nil {
		p.finish(ctx, logger, record, t, err)
		return nil, fmt.Errorf("save manifest: %w", err)
	}

	summary := t.snapshot()
	p.finish(ctx, logger, record, t, nil)
	logger.Info("pipeline run finished",
		logging.Int("sources", summary.Sources),
		logging.Int("rendered", summary.Rendered),
		logging.Int("reused", summary.Reused),
		logging.Int("uploaded", summary.Uploaded),
		logging.Int("remote_hits", summary.RemoteHits),
		logging.Int("skipped_sources", summary.SkippedSources),
		logging.Int("skipped_derivatives", summary.SkippedDerivatives),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "run_finished"),
	)
	return &Result{RunID: runID, Manifest: store.Snapshot(), Summary: summary}, nil
}

// sources resolves the work list for a run.
func (p *Pipeline) sources(mode string, files []string, t *tally, logger *slog.Logger) ([]string, error) {
	input := p.cfg.Paths.InputDir
	if mode == modeFull {
		var exclude []string
		if config.IsWithin(input, p.cfg.Paths.OutputDir) {
			exclude = append(exclude, p.cfg.Paths.OutputDir)
		}
		return scanner.Scan(input, scanner.Options{Exclude: exclude, Logger: logger})
	}

	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, raw := range files {
		rel, err := p.relativeSource(raw)
		if err != nil {
			t.skip(runlog.Event{Source: raw, Kind: services.Kind(err), Message: err.Error()})
			logging.WarnWithContext(logger, "skipping requested source", "source_skipped",
				logging.String(logging.FieldSource, raw),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "pass an image path under the input directory"),
				logging.String(logging.FieldImpact, "no derivatives produced for this file"),
			)
			continue
		}
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}
		out = append(out, rel)
	}
	return out, nil
}

func (p *Pipeline) relativeSource(raw string) (string, error) {
	input := p.cfg.Paths.InputDir
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", services.Wrap(services.ErrNotFound, "scan", "resolve source", "empty path", nil)
	}
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(input, filepath.FromSlash(candidate))
	}
	candidate = filepath.Clean(candidate)
	if !config.IsWithin(input, candidate) || candidate == filepath.Clean(input) {
		return "", services.Wrap(services.ErrNotFound, "scan", "resolve source", raw+" is outside the input directory", nil)
	}
	if !scanner.IsSource(candidate) {
		return "", services.Wrap(services.ErrNotFound, "scan", "resolve source", raw+" is not a supported source image", nil)
	}
	info, err := os.Stat(candidate)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "scan", "stat source", raw, err)
	}
	if !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrNotFound, "scan", "resolve source", raw+" is not a regular file", nil)
	}
	rel, err := filepath.Rel(input, candidate)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "scan", "resolve source", raw, err)
	}
	return filepath.ToSlash(rel), nil
}

// finish records the run in the history store when one is configured.
func (p *Pipeline) finish(ctx context.Context, logger *slog.Logger, record runlog.Run, t *tally, runErr error) {
	if p.runlog == nil {
		return
	}
	summary := t.snapshot()
	record.FinishedAt = time.Now()
	record.Sources = summary.Sources
	record.Rendered = summary.Rendered
	record.Reused = summary.Reused
	record.Uploaded = summary.Uploaded
	record.RemoteHits = summary.RemoteHits
	record.SkippedSources = summary.SkippedSources
	record.SkippedDerivatives = summary.SkippedDerivatives
	record.Events = summary.Skips
	switch {
	case runErr == nil:
		record.Status = runlog.StatusSucceeded
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		record.Status = runlog.StatusCanceled
		record.Error = runErr.Error()
	default:
		record.Status = runlog.StatusFailed
		record.Error = runErr.Error()
	}

	// The run's own context may already be canceled; history is still written.
	if err := p.runlog.Record(context.WithoutCancel(ctx), record); err != nil {
		logging.WarnWithContext(logger, "failed to record run history", "runlog_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check run_log_path permissions"),
			logging.String(logging.FieldImpact, "run missing from srcset history"),
		)
	}
}

// warnOutputCollisions flags sources in one directory that differ only by
// extension. They share derivative file names, so whichever renders first
// is reused for the others.
func warnOutputCollisions(logger *slog.Logger, sources []string) {
	byStem := make(map[string][]string, len(sources))
	for _, rel := range sources {
		stem := strings.TrimSuffix(rel, path.Ext(rel))
		byStem[stem] = append(byStem[stem], rel)
	}
	for _, rel := range sources {
		stem := strings.TrimSuffix(rel, path.Ext(rel))
		group := byStem[stem]
		if len(group) < 2 || group[0] != rel {
			continue
		}
		logging.WarnWithContext(logger, "sources share derivative file names", "derivative_collision",
			logging.String(logging.FieldSource, rel),
			logging.String("colliding_sources", strings.Join(group, ", ")),
			logging.String(logging.FieldErrorHint, "rename one of the sources so their base names differ"),
			logging.String(logging.FieldImpact, "derivatives of one source are recorded for the others"),
		)
	}
}
