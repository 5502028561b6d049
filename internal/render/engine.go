package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"

	"srcset/internal/fileutil"
	"srcset/internal/formats"
	"srcset/internal/logging"
	"srcset/internal/planner"
	"srcset/internal/services"
)

const defaultCacheSize = 1024

// Options configures an Engine.
type Options struct {
	OutputRoot string
	// CacheSize bounds the number of remembered source dimensions.
	CacheSize int
	Logger    *slog.Logger
}

// Engine renders derivatives into OutputRoot.
type Engine struct {
	outputRoot string
	logger     *slog.Logger
	widths     *lru.Cache[metaKey, int]
}

type metaKey struct {
	path  string
	size  int64
	mtime int64
}

// Result describes a derivative on disk.
type Result struct {
	Path   string
	Size   int64
	Reused bool
}

// NewEngine constructs an Engine.
func NewEngine(opts Options) (*Engine, error) {
	if strings.TrimSpace(opts.OutputRoot) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "render", "new engine", "output root is required", nil)
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[metaKey, int](size)
	if err != nil {
		return nil, fmt.Errorf("create metadata cache: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		outputRoot: opts.OutputRoot,
		logger:     logging.NewComponentLogger(logger, "render"),
		widths:     cache,
	}, nil
}

// OutputRoot returns the directory derivatives are written under.
func (e *Engine) OutputRoot() string {
	return e.outputRoot
}

// ReadWidth returns the intrinsic pixel width of the image at path, reading
// only its header. Results are cached until the file's size or mtime changes.
func (e *Engine) ReadWidth(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, services.Wrap(services.ErrDecode, "metadata", "stat source", path, err)
	}
	key := metaKey{path: path, size: info.Size(), mtime: info.ModTime().UnixNano()}
	if w, ok := e.widths.Get(key); ok {
		return w, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, services.Wrap(services.ErrDecode, "metadata", "open source", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, services.Wrap(services.ErrDecode, "metadata", "read header", path, err)
	}
	if cfg.Width <= 0 {
		return 0, services.Wrap(services.ErrDecode, "metadata", "read header", fmt.Sprintf("%s reports width %d", path, cfg.Width), nil)
	}
	e.widths.Add(key, cfg.Width)
	return cfg.Width, nil
}

// OutputPath returns where the derivative of relSource at width in format f
// lives: <outputRoot>/<relDir>/<basename>-<width>.<ext>.
func OutputPath(outputRoot, relSource string, width int, f formats.Format) string {
	rel := filepath.ToSlash(relSource)
	dir := path.Dir(rel)
	base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	name := base + "-" + strconv.Itoa(width) + "." + f.Extension()
	if dir == "." {
		return filepath.Join(outputRoot, name)
	}
	return filepath.Join(outputRoot, filepath.FromSlash(dir), name)
}

// Source is a source image opened for rendering. Its pixels are decoded on
// first use and shared by every derivative rendered from it.
type Source struct {
	Rel   string
	Path  string
	Width int

	decode func() (image.Image, error)
}

// Open reads the header of root/rel and prepares it for rendering.
func (e *Engine) Open(root, rel string) (*Source, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))
	width, err := e.ReadWidth(full)
	if err != nil {
		return nil, err
	}
	src := &Source{Rel: rel, Path: full, Width: width}
	src.decode = sync.OnceValues(func() (image.Image, error) {
		img, err := imaging.Open(full)
		if err != nil {
			return nil, services.Wrap(services.ErrDecode, "render", "decode source", rel, err)
		}
		return img, nil
	})
	return src, nil
}

// Render produces the derivative described by spec. An existing output file
// is returned as-is with Reused set.
func (e *Engine) Render(ctx context.Context, src *Source, spec planner.Spec) (Result, error) {
	out := OutputPath(e.outputRoot, src.Rel, spec.Width, spec.Format)

	if info, err := os.Stat(out); err == nil && info.Mode().IsRegular() {
		return Result{Path: out, Size: info.Size(), Reused: true}, nil
	}

	encode, ok := encoderFor(spec.Format)
	if !ok {
		return Result{}, services.Wrap(services.ErrEncode, "render", "lookup encoder", string(spec.Format), nil)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	img, err := src.decode()
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	resized := img
	if spec.Width != src.Width {
		resized = imaging.Resize(img, spec.Width, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := encode(&buf, resized); err != nil {
		return Result{}, services.Wrap(services.ErrEncode, "render", "encode "+string(spec.Format), out, err)
	}
	if err := fileutil.WriteFileAtomic(out, buf.Bytes(), 0o644); err != nil {
		return Result{}, services.Wrap(services.ErrEncode, "render", "write derivative", out, err)
	}

	e.logger.Debug("rendered derivative",
		logging.String(logging.FieldSource, src.Rel),
		logging.Int(logging.FieldWidth, spec.Width),
		logging.String(logging.FieldFormat, string(spec.Format)),
		logging.String("path", out),
		logging.Int("bytes", buf.Len()),
	)
	return Result{Path: out, Size: int64(buf.Len())}, nil
}
