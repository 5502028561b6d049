package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// Gradient returns an opaque RGBA image of the requested size.
func Gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 255 / max(width, 1)),
				G: uint8(y * 255 / max(height, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// WritePNG writes a width×height PNG to path.
func WritePNG(t testing.TB, path string, width, height int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, Gradient(width, height)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

// WriteJPEG writes a width×height JPEG to path.
func WriteJPEG(t testing.TB, path string, width, height int) {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Gradient(width, height), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

// WriteGIF writes a width×height single-frame GIF to path.
func WriteGIF(t testing.TB, path string, width, height int) {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, Gradient(width, height), nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

// WriteTruncatedPNG writes a PNG whose header is intact but whose pixel data
// is cut short: reading its dimensions succeeds while a full decode fails.
func WriteTruncatedPNG(t testing.TB, path string, width, height int) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, Gradient(width, height)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	data := buf.Bytes()
	// 8-byte signature + 25-byte IHDR chunk, then a fragment of IDAT.
	cut := min(len(data), 8+25+16)
	writeBytes(t, path, data[:cut])
}

// WriteGarbage writes bytes that no image decoder recognizes.
func WriteGarbage(t testing.TB, path string) {
	t.Helper()
	writeBytes(t, path, []byte("this is not an image"))
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
