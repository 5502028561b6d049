package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"srcset/internal/logging"
	"srcset/internal/manifest"
	"srcset/internal/planner"
	"srcset/internal/publish"
	"srcset/internal/render"
	"srcset/internal/runlog"
	"srcset/internal/services"
)

// processSource takes one source from metadata read through manifest merge.
// A source whose header or pixels cannot be decoded leaves the manifest
// untouched; any other failure drops only the affected derivative.
func (p *Pipeline) processSource(ctx context.Context, rel string, store *manifest.Store, t *tally) {
	ctx = services.WithSource(ctx, rel)
	logger := logging.WithContext(ctx, p.logger)

	src, err := p.engine.Open(p.cfg.Paths.InputDir, rel)
	if err != nil {
		p.skipSource(logger, t, rel, "metadata", err)
		return
	}

	specs := planner.Plan(src.Width, p.cfg.Images.Widths, p.formats)
	logger.Debug("planned derivatives",
		logging.Int("intrinsic_width", src.Width),
		logging.Int("derivatives", len(specs)),
	)

	var (
		mu           sync.Mutex
		entry        = make(manifest.Entry)
		decodeFailed atomic.Bool
		decodeErr    error
	)

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Pipeline.DerivativeWorkers)
	for _, spec := range specs {
		if ctx.Err() != nil || decodeFailed.Load() {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil || decodeFailed.Load() {
				return nil
			}
			rec, err := p.derive(ctx, logger, src, spec, t)
			switch {
			case err == nil:
				mu.Lock()
				entry[string(spec.Format)] = append(entry[string(spec.Format)], rec)
				mu.Unlock()
			case errors.Is(err, services.ErrDecode):
				mu.Lock()
				if decodeErr == nil {
					decodeErr = err
				}
				mu.Unlock()
				decodeFailed.Store(true)
			case ctx.Err() != nil:
			default:
				p.skipDerivative(logger, t, rel, spec, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if decodeFailed.Load() {
		p.skipSource(logger, t, rel, "decode", decodeErr)
		return
	}
	if ctx.Err() != nil {
		return
	}
	store.Merge(rel, entry)
}

// derive renders one derivative and, for remote publishers, makes sure the
// object exists in the bucket. It returns the manifest record on success.
func (p *Pipeline) derive(ctx context.Context, logger *slog.Logger, src *render.Source, spec planner.Spec, t *tally) (manifest.Record, error) {
	res, err := p.engine.Render(ctx, src, spec)
	if err != nil {
		return manifest.Record{}, err
	}
	if res.Reused {
		t.add(func(s *Summary) { s.Reused++ })
	} else {
		t.add(func(s *Summary) { s.Rendered++ })
	}

	// key_prefix names a bucket location; local locators stay site-relative.
	if !p.publisher.Remote() {
		local := publish.Key(p.cfg.Paths.SiteDir, res.Path, "")
		return manifest.Record{Width: spec.Width, Path: p.publisher.PublicURL(local)}, nil
	}
	key := publish.Key(p.cfg.Paths.SiteDir, res.Path, p.cfg.Remote.KeyPrefix)

	exists, err := p.publisher.Exists(ctx, key)
	if err != nil {
		logging.WarnWithContext(logger, "remote existence check failed; uploading anyway", "remote_check_failed",
			logging.String("key", key),
			logging.Int(logging.FieldWidth, spec.Width),
			logging.String(logging.FieldFormat, string(spec.Format)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check object store connectivity and credentials"),
			logging.String(logging.FieldImpact, "derivative may be uploaded again"),
		)
	}
	if exists {
		t.add(func(s *Summary) { s.RemoteHits++ })
		return manifest.Record{Width: spec.Width, Path: p.publisher.PublicURL(key)}, nil
	}
	if err := ctx.Err(); err != nil {
		return manifest.Record{}, err
	}

	if err := p.upload(ctx, key, res, spec); err != nil {
		return manifest.Record{}, err
	}
	t.add(func(s *Summary) { s.Uploaded++ })
	logger.Debug("published derivative",
		logging.String("key", key),
		logging.Int(logging.FieldWidth, spec.Width),
		logging.String(logging.FieldFormat, string(spec.Format)),
	)
	return manifest.Record{Width: spec.Width, Path: p.publisher.PublicURL(key)}, nil
}

func (p *Pipeline) upload(ctx context.Context, key string, res render.Result, spec planner.Spec) error {
	f, err := os.Open(res.Path)
	if err != nil {
		return services.Wrap(services.ErrUpload, "publish", "open derivative", res.Path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return services.Wrap(services.ErrUpload, "publish", "stat derivative", res.Path, err)
	}
	return p.publisher.Publish(ctx, key, f, info.Size(), publish.ContentType(spec.Format))
}

func (p *Pipeline) skipSource(logger *slog.Logger, t *tally, rel, stage string, err error) {
	t.skip(runlog.Event{Source: rel, Kind: services.Kind(err), Message: errorMessage(err)})
	logging.WarnWithContext(logger, "skipping source image", "source_skipped",
		logging.String(logging.FieldStage, stage),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check that the file is a valid PNG, JPEG or GIF"),
		logging.String(logging.FieldImpact, "no derivatives recorded for this source"),
	)
}

func (p *Pipeline) skipDerivative(logger *slog.Logger, t *tally, rel string, spec planner.Spec, err error) {
	t.skip(runlog.Event{
		Source:  rel,
		Format:  string(spec.Format),
		Width:   spec.Width,
		Kind:    services.Kind(err),
		Message: errorMessage(err),
	})
	hint := "check output directory permissions and free space"
	if errors.Is(err, services.ErrUpload) {
		hint = "check object store connectivity and credentials"
	}
	logging.WarnWithContext(logger, "skipping derivative", "derivative_skipped",
		logging.Int(logging.FieldWidth, spec.Width),
		logging.String(logging.FieldFormat, string(spec.Format)),
		logging.String("kind", services.Kind(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, fmt.Sprintf("%s %dw missing from manifest this run", spec.Format, spec.Width)),
	)
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
