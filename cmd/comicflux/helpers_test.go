package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"comicflux/internal/archive"
	"comicflux/internal/config"
	"comicflux/internal/viewer"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// writeBook writes a zip archive to fsys. Entries without image data are
// written as text so they fail to decode.
func writeBook(t *testing.T, fsys afero.Fs, path string, names []string, imagePages map[string]bool) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		data := []byte("not an image")
		if imagePages[name] {
			data = pngBytes(t, 8, 12)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

// openController opens /comics/book.cbz on a MemMapFs.
func openController(t *testing.T, names []string, imagePages map[string]bool) (*viewer.Controller, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writeBook(t, fsys, "/comics/book.cbz", names, imagePages)

	c := viewer.NewController(archive.Options{Fs: fsys, SupportsRar: true, SortMethod: archive.SortNatural}, 0)
	if err := c.Open("/comics/book.cbz"); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, fsys
}

// numberedBook returns page names 01.png, 02.png, ... all holding images.
func numberedBook(pages int) ([]string, map[string]bool) {
	names := make([]string, pages)
	images := make(map[string]bool)
	for i := range names {
		names[i] = fmt.Sprintf("%02d.png", i+1)
		images[names[i]] = true
	}
	return names, images
}

func newTestGame(t *testing.T, pages int) *Game {
	t.Helper()
	g, _ := newTestGameFs(t, pages)
	return g
}

func newTestGameFs(t *testing.T, pages int) (*Game, afero.Fs) {
	t.Helper()
	names, images := numberedBook(pages)
	c, fsys := openController(t, names, images)
	return NewGame(c, config.Default(), ""), fsys
}
