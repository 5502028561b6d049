// Package planner decides which derivatives to produce for a source image.
package planner

import (
	"log/slog"
	"sort"
	"strings"

	"srcset/internal/formats"
	"srcset/internal/logging"
)

// DefaultFormats is used when no configured format names an encoder.
var DefaultFormats = []formats.Format{formats.WebP}

// Spec is one derivative to produce.
type Spec struct {
	Width  int
	Format formats.Format
}

// Widths returns the target widths that do not exceed intrinsic, plus
// intrinsic itself, deduplicated and ascending. Images are never upscaled.
func Widths(intrinsic int, targets []int) []int {
	if intrinsic <= 0 {
		return nil
	}
	seen := map[int]struct{}{intrinsic: {}}
	widths := []int{intrinsic}
	for _, w := range targets {
		if w <= 0 || w > intrinsic {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		widths = append(widths, w)
	}
	sort.Ints(widths)
	return widths
}

// ResolveFormats maps configured format names onto known encoders, dropping
// unknown names (with a warning) and duplicates. When nothing survives the
// fallback list is used, and DefaultFormats when that is empty too.
func ResolveFormats(configured []string, fallback []formats.Format, logger *slog.Logger) []formats.Format {
	if logger == nil {
		logger = logging.NewNop()
	}
	seen := make(map[formats.Format]struct{}, len(configured))
	resolved := make([]formats.Format, 0, len(configured))
	for _, name := range configured {
		if strings.TrimSpace(name) == "" {
			continue
		}
		format, ok := formats.Parse(name)
		if !ok {
			logging.WarnWithContext(logger, "ignoring unsupported image format", "format_unsupported",
				logging.String(logging.FieldFormat, name),
				logging.String(logging.FieldErrorHint, "use one of webp, avif, jpeg, jpg, png"),
				logging.String(logging.FieldImpact, "no derivatives produced for this format"),
			)
			continue
		}
		if _, dup := seen[format]; dup {
			continue
		}
		seen[format] = struct{}{}
		resolved = append(resolved, format)
	}
	if len(resolved) > 0 {
		return resolved
	}
	if len(fallback) > 0 {
		return append([]formats.Format(nil), fallback...)
	}
	return append([]formats.Format(nil), DefaultFormats...)
}

// Plan returns every (width, format) pair for a source of the given intrinsic
// width, ordered by format then ascending width.
func Plan(intrinsic int, targets []int, fmts []formats.Format) []Spec {
	widths := Widths(intrinsic, targets)
	specs := make([]Spec, 0, len(widths)*len(fmts))
	for _, format := range fmts {
		for _, w := range widths {
			specs = append(specs, Spec{Width: w, Format: format})
		}
	}
	return specs
}
