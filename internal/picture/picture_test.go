package picture

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"srcset/internal/manifest"
)

func sampleEntry() manifest.Entry {
	return manifest.Entry{
		"webp": {
			{Width: 1280, Path: "assets/processed/photo-1280.webp"},
			{Width: 640, Path: "assets/processed/photo-640.webp"},
		},
		"jpg": {
			{Width: 640, Path: "https://cdn.example.com/photo-640.jpg"},
			{Width: 1280, Path: "https://cdn.example.com/photo-1280.jpg"},
		},
	}
}

func TestBuildOrdersSourcesAndPicksFallback(t *testing.T) {
	attrs := []html.Attribute{
		{Key: "src", Val: "/assets/images/photo.jpg"},
		{Key: "alt", Val: "A \"quoted\" view"},
		{Key: "data-img-sizes", Val: "(max-width: 600px) 100vw, 50vw"},
		{Key: "class", Val: "hero"},
	}

	got, ok := Build(sampleEntry(), attrs)
	if !ok {
		t.Fatal("expected markup")
	}
	want := `<picture>` +
		`<source type="image/webp" srcset="/assets/processed/photo-640.webp 640w, /assets/processed/photo-1280.webp 1280w" sizes="(max-width: 600px) 100vw, 50vw">` +
		`<source type="image/jpeg" srcset="https://cdn.example.com/photo-640.jpg 640w, https://cdn.example.com/photo-1280.jpg 1280w" sizes="(max-width: 600px) 100vw, 50vw">` +
		`<img src="https://cdn.example.com/photo-1280.jpg" alt="A &#34;quoted&#34; view" class="hero"` +
		` srcset="https://cdn.example.com/photo-640.jpg 640w, https://cdn.example.com/photo-1280.jpg 1280w" sizes="(max-width: 600px) 100vw, 50vw">` +
		`</picture>`
	if got != want {
		t.Fatalf("Build mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildDefaultsSizesAndFallsBackToWebP(t *testing.T) {
	entry := manifest.Entry{"webp": {{Width: 300, Path: "assets/processed/icon-300.webp"}}}
	got, ok := Build(entry, nil)
	if !ok {
		t.Fatal("expected markup")
	}
	if !strings.Contains(got, `sizes="100vw"`) {
		t.Fatalf("expected default sizes in %s", got)
	}
	if !strings.Contains(got, `<img src="/assets/processed/icon-300.webp"`) {
		t.Fatalf("expected webp fallback in %s", got)
	}
}

func TestBuildRejectsEmptyEntries(t *testing.T) {
	if _, ok := Build(nil, nil); ok {
		t.Fatal("nil entry should not build")
	}
	if _, ok := Build(manifest.Entry{"webp": {{Width: 0, Path: ""}}}, nil); ok {
		t.Fatal("entry without usable records should not build")
	}
}

func TestSourceFromSrc(t *testing.T) {
	tests := []struct {
		src  string
		want string
		ok   bool
	}{
		{"/assets/images/photo.jpg", "photo.jpg", true},
		{"./assets/images/trip/a.png?v=2#top", "trip/a.png", true},
		{"https://example.com/assets/images/a.png", "a.png", true},
		{"/static/logo.png", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := SourceFromSrc(tt.src, DefaultMarker)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("SourceFromSrc(%q) = (%q, %v), want (%q, %v)", tt.src, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLookupFallsBackToBaseName(t *testing.T) {
	m := manifest.Manifest{"gallery/photo.jpg": sampleEntry()}
	if _, ok := Lookup(m, "gallery/photo.jpg"); !ok {
		t.Fatal("exact lookup failed")
	}
	if _, ok := Lookup(m, "photo.jpg"); !ok {
		t.Fatal("base name lookup failed")
	}
	if _, ok := Lookup(m, "other.jpg"); ok {
		t.Fatal("unexpected match")
	}
}

func TestRewriteReplacesOnlyKnownImages(t *testing.T) {
	m := manifest.Manifest{"photo.jpg": sampleEntry()}
	in := `<!DOCTYPE html><html><body><!-- hero -->` +
		`<IMG SRC="/assets/images/photo.jpg" alt="x"/>` +
		`<img src="/assets/images/unknown.jpg">` +
		`<img src="/static/logo.png">` +
		`<p>Fish &amp; chips</p><script>if (a < b) {}</script></body></html>`

	var out bytes.Buffer
	n, err := Rewrite(strings.NewReader(in), &out, m, "")
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if n != 1 {
		t.Fatalf("replaced %d images, want 1", n)
	}
	got := out.String()
	for _, keep := range []string{
		`<!DOCTYPE html>`,
		`<!-- hero -->`,
		`<img src="/assets/images/unknown.jpg">`,
		`<img src="/static/logo.png">`,
		`<p>Fish &amp; chips</p>`,
		`<script>if (a < b) {}</script>`,
	} {
		if !strings.Contains(got, keep) {
			t.Fatalf("output lost %q:\n%s", keep, got)
		}
	}
	if !strings.Contains(got, `<picture><source type="image/webp"`) {
		t.Fatalf("expected picture markup:\n%s", got)
	}
	if strings.Contains(got, "SRC=") {
		t.Fatalf("original tag should be replaced:\n%s", got)
	}
}

func TestRewriteEmptyManifestCopiesInput(t *testing.T) {
	in := `<p><img src="/assets/images/a.png"></p>`
	var out bytes.Buffer
	n, err := Rewrite(strings.NewReader(in), &out, nil, DefaultMarker)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if n != 0 || out.String() != in {
		t.Fatalf("expected unchanged output, got %q (n=%d)", out.String(), n)
	}
}

func TestLocator(t *testing.T) {
	cases := map[string]string{
		"assets/processed/a-640.webp":        "/assets/processed/a-640.webp",
		"/assets/processed/a-640.webp":       "/assets/processed/a-640.webp",
		"https://cdn.example.com/a-640.webp": "https://cdn.example.com/a-640.webp",
		"http://cdn.example.com/a-640.webp":  "http://cdn.example.com/a-640.webp",
		"//cdn.example.com/media/a-640.webp": "//cdn.example.com/media/a-640.webp",
	}
	for in, want := range cases {
		if got := Locator(in); got != want {
			t.Fatalf("Locator(%q) = %q, want %q", in, got, want)
		}
	}
}
