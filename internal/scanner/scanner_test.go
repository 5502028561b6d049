package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"srcset/internal/services"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestScanFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"b/photo.JPG",
		"a.png",
		"nested/deep/icon.gif",
		"c.jpeg",
		"notes.txt",
		"vector.svg",
		"b/readme",
	} {
		touch(t, filepath.Join(root, filepath.FromSlash(rel)))
	}

	got, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{"a.png", "b/photo.JPG", "c.jpeg", "nested/deep/icon.gif"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "assets", "images")

	got, err := Scan(root, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no sources, got %v", got)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Fatalf("expected root to be created, stat err=%v", err)
	}
}

func TestScanRootIsFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "images")
	touch(t, root)

	_, err := Scan(root, Options{})
	if !errors.Is(err, services.ErrSourceUnreadable) {
		t.Fatalf("expected ErrSourceUnreadable, got %v", err)
	}
}

func TestScanPrunesExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "photo.jpg"))
	touch(t, filepath.Join(root, "processed", "photo-640.jpg"))

	got, err := Scan(root, Options{Exclude: []string{filepath.Join(root, "processed")}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"photo.jpg"}) {
		t.Fatalf("unexpected sources %v", got)
	}
}

func TestIsSource(t *testing.T) {
	cases := map[string]bool{
		"a.png":  true,
		"a.JPEG": true,
		"a.gif":  true,
		"a.webp": false,
		"a":      false,
	}
	for name, want := range cases {
		if got := IsSource(name); got != want {
			t.Fatalf("IsSource(%q) = %v, want %v", name, got, want)
		}
	}
}
