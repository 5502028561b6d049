// Package picture renders manifest entries as responsive <picture> markup and
// rewrites <img> tags in HTML documents to use it.
package picture

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"srcset/internal/formats"
	"srcset/internal/manifest"
)

const defaultSizes = "100vw"

var (
	sourcePriority   = []formats.Format{formats.AVIF, formats.WebP, formats.JPG, formats.JPEG, formats.PNG}
	fallbackPriority = []formats.Format{formats.JPG, formats.JPEG, formats.PNG, formats.WebP, formats.AVIF}
)

// consumed attributes are replaced by the generated markup.
var consumed = map[string]struct{}{
	"src":            {},
	"srcset":         {},
	"sizes":          {},
	"data-img-sizes": {},
}

// Build returns <picture> markup for entry, carrying over the attributes of
// the <img> it replaces. The second result is false when entry has nothing
// usable.
func Build(entry manifest.Entry, attrs []html.Attribute) (string, bool) {
	if len(entry) == 0 {
		return "", false
	}
	sizes := sizesFor(attrs)

	var b strings.Builder
	b.WriteString("<picture>")
	wrote := false
	for _, f := range sourcePriority {
		variants := usable(entry[string(f)])
		if len(variants) == 0 {
			continue
		}
		fmt.Fprintf(&b, `<source type="%s" srcset="%s" sizes="%s">`,
			f.ContentType(), html.EscapeString(srcset(variants)), html.EscapeString(sizes))
		wrote = true
	}
	if !wrote {
		return "", false
	}

	var fallback []manifest.Record
	for _, f := range fallbackPriority {
		if variants := usable(entry[string(f)]); len(variants) > 0 {
			fallback = variants
			break
		}
	}
	if len(fallback) == 0 {
		return "", false
	}

	b.WriteString("<img")
	writeAttr(&b, "src", Locator(fallback[len(fallback)-1].Path))
	for _, a := range attrs {
		if _, skip := consumed[strings.ToLower(a.Key)]; skip {
			continue
		}
		writeAttr(&b, a.Key, a.Val)
	}
	writeAttr(&b, "srcset", srcset(fallback))
	writeAttr(&b, "sizes", sizes)
	b.WriteString("></picture>")
	return b.String(), true
}

// Locator renders a manifest path for use in markup: URLs (including
// protocol-relative ones) pass through and site-relative paths become
// root-relative.
func Locator(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "//") {
		return path
	}
	return "/" + strings.TrimLeft(path, "/")
}

func sizesFor(attrs []html.Attribute) string {
	var sizes, dataSizes string
	for _, a := range attrs {
		switch strings.ToLower(a.Key) {
		case "data-img-sizes":
			dataSizes = a.Val
		case "sizes":
			sizes = a.Val
		}
	}
	switch {
	case dataSizes != "":
		return dataSizes
	case sizes != "":
		return sizes
	default:
		return defaultSizes
	}
}

func usable(records []manifest.Record) []manifest.Record {
	out := make([]manifest.Record, 0, len(records))
	for _, r := range records {
		if r.Width > 0 && r.Path != "" {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Width < out[j].Width })
	return out
}

func srcset(records []manifest.Record) string {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, fmt.Sprintf("%s %dw", Locator(r.Path), r.Width))
	}
	return strings.Join(parts, ", ")
}

func writeAttr(b *strings.Builder, key, val string) {
	fmt.Fprintf(b, ` %s="%s"`, key, html.EscapeString(val))
}
