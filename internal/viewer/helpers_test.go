package viewer

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"comicflux/internal/archive"
)

type testPage struct {
	name string
	data []byte
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{uint8(x), 128, 255, 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func writeArchive(t *testing.T, fsys afero.Fs, path string, pages []testPage) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	zw := zip.NewWriter(f)
	for _, p := range pages {
		w, err := zw.Create(p.name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", p.name, err)
		}
		if _, err := w.Write(p.data); err != nil {
			t.Fatalf("Failed to write %s: %v", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func numberedPages(t *testing.T, count, w, h int) []testPage {
	data := pngBytes(t, w, h)
	pages := make([]testPage, count)
	for i := range pages {
		pages[i] = testPage{name: "page" + string(rune('1'+i)) + ".png", data: data}
	}
	return pages
}

func testOptions(fsys afero.Fs) archive.Options {
	return archive.Options{Fs: fsys, SupportsRar: true, SortMethod: archive.SortNatural}
}

// openSample opens a MemMapFs archive holding count small pages.
func openSample(t *testing.T, count int) (*archive.Session, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writeArchive(t, fsys, "/comics/sample.cbz", numberedPages(t, count, 4, 6))
	s, err := archive.Open("/comics/sample.cbz", testOptions(fsys))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s, fsys
}
