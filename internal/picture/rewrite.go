package picture

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/net/html"

	"srcset/internal/manifest"
)

// DefaultMarker identifies image references that point into the source tree.
const DefaultMarker = "assets/images/"

// Rewrite copies an HTML document from r to w, replacing every <img> whose
// src points under marker and has a manifest entry with <picture> markup.
// Everything else is copied byte for byte. It returns the number of images
// replaced.
func Rewrite(r io.Reader, w io.Writer, m manifest.Manifest, marker string) (int, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	z := html.NewTokenizer(r)
	replaced := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return replaced, nil
			}
			return replaced, fmt.Errorf("tokenize html: %w", z.Err())
		}
		raw := z.Raw()
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			// Token lowercases names in the tokenizer buffer that Raw aliases.
			raw = append([]byte(nil), raw...)
			tok := z.Token()
			if tok.Data == "img" {
				if markup, ok := replacement(tok.Attr, m, marker); ok {
					if _, err := io.WriteString(w, markup); err != nil {
						return replaced, err
					}
					replaced++
					continue
				}
			}
		}
		if _, err := w.Write(raw); err != nil {
			return replaced, err
		}
	}
}

func replacement(attrs []html.Attribute, m manifest.Manifest, marker string) (string, bool) {
	if len(m) == 0 {
		return "", false
	}
	var src string
	for _, a := range attrs {
		if strings.EqualFold(a.Key, "src") {
			src = a.Val
			break
		}
	}
	rel, ok := SourceFromSrc(src, marker)
	if !ok {
		return "", false
	}
	entry, ok := Lookup(m, rel)
	if !ok {
		return "", false
	}
	return Build(entry, attrs)
}

// SourceFromSrc extracts the source path from an <img> src that references
// the source tree, dropping query strings, fragments and leading slashes.
func SourceFromSrc(src, marker string) (string, bool) {
	if src == "" {
		return "", false
	}
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	src = strings.TrimLeft(src, "/")
	src = strings.TrimPrefix(src, "./")
	_, rel, found := strings.Cut(src, marker)
	if !found || rel == "" {
		return "", false
	}
	return rel, true
}

// Lookup finds the entry for rel, falling back to the first source (in sorted
// order) with the same base name.
func Lookup(m manifest.Manifest, rel string) (manifest.Entry, bool) {
	if entry, ok := m[rel]; ok {
		return entry, true
	}
	base := path.Base(rel)
	for _, source := range m.Sources() {
		if path.Base(source) == base {
			return m[source], true
		}
	}
	return nil, false
}
