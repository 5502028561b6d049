// Package formats names the derivative output formats srcset can encode.
package formats

import "strings"

// Format is an output format name as written in configuration, the manifest,
// and derivative file extensions.
type Format string

const (
	WebP Format = "webp"
	AVIF Format = "avif"
	JPEG Format = "jpeg"
	JPG  Format = "jpg"
	PNG  Format = "png"
)

var known = []Format{WebP, AVIF, JPEG, JPG, PNG}

// Known returns every supported format.
func Known() []Format {
	return append([]Format(nil), known...)
}

// Parse normalizes a configured format name. The second result is false for
// names without an encoder.
func Parse(name string) (Format, bool) {
	candidate := Format(strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "."))))
	for _, f := range known {
		if f == candidate {
			return f, true
		}
	}
	return "", false
}

// Extension is the file extension used for derivatives, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType is the MIME type sent with uploads and emitted in markup.
func (f Format) ContentType() string {
	if f == JPG || f == JPEG {
		return "image/jpeg"
	}
	return "image/" + string(f)
}

func (f Format) String() string {
	return string(f)
}
