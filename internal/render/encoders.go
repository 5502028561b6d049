package render

import (
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"

	"srcset/internal/formats"
)

type encodeFunc func(w io.Writer, img image.Image) error

const (
	webpQuality = 80
	webpMethod  = 4
	avifQuality = 50
	avifSpeed   = 6
	jpegQuality = 82
)

var encoders = map[formats.Format]encodeFunc{
	formats.WebP: encodeWebP,
	formats.AVIF: encodeAVIF,
	formats.JPEG: encodeJPEG,
	formats.JPG:  encodeJPEG,
	formats.PNG:  encodePNG,
}

func encoderFor(f formats.Format) (encodeFunc, bool) {
	enc, ok := encoders[f]
	return enc, ok
}

func encodeWebP(w io.Writer, img image.Image) error {
	return webp.Encode(w, img, webp.Options{Quality: webpQuality, Method: webpMethod})
}

func encodeAVIF(w io.Writer, img image.Image) error {
	return avif.Encode(w, img, avif.Options{
		Quality:           avifQuality,
		QualityAlpha:      avifQuality,
		Speed:             avifSpeed,
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
	})
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
}

func encodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
}
