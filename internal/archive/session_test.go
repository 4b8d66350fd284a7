package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

type testEntry struct {
	name  string
	data  []byte
	flags uint16
	mode  os.FileMode
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func writeZip(t *testing.T, fsys afero.Fs, path string, entries []testEntry) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create archive directory: %v", err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Failed to create archive %s: %v", path, err)
	}
	zw := zip.NewWriter(f)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate, Flags: e.flags}
		if e.mode != 0 {
			hdr.SetMode(e.mode)
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("Failed to add entry %s: %v", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatalf("Failed to write entry %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close archive: %v", err)
	}
}

func samplePages(t *testing.T) []testEntry {
	page := pngBytes(t, 8, 12)
	return []testEntry{
		{name: "page3.png", data: page},
		{name: "page1.png", data: page},
		{name: "page5.png", data: page},
		{name: "page2.png", data: page},
		{name: "page4.png", data: page},
	}
}

func memOptions(fsys afero.Fs) Options {
	return Options{Fs: fsys, SupportsRar: true, SortMethod: SortNatural}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected Format
	}{
		{"CBZ", "book.cbz", FormatZip},
		{"ZIP uppercase", "BOOK.ZIP", FormatZip},
		{"CBR", "book.cbr", FormatRar},
		{"RAR", "book.rar", FormatRar},
		{"CB7", "book.cb7", Format7z},
		{"7z", "/a/b/book.7z", Format7z},
		{"Text file", "book.txt", FormatUnknown},
		{"No extension", "book", FormatUnknown},
		{"Archive name inside directory", "/comics.cbz/book.pdf", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.path); got != tt.expected {
				t.Errorf("DetectFormat(%s) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestScratchDirFor(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
		wantErr  bool
	}{
		{"CBZ", "/comics/sample.cbz", "/comics/sample", false},
		{"Uppercase extension", "/comics/Sample.CBZ", "/comics/Sample", false},
		{"Only trailing extension", "/comics/my.zip.collection/vol.cbz", "/comics/my.zip.collection/vol", false},
		{"Double extension", "/comics/vol.cbz.zip", "/comics/vol.cbz", false},
		{"Unsupported", "/comics/vol.pdf", "", true},
		{"Nothing left", "/comics/.cbz", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScratchDirFor(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %s, got %s", tt.path, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ScratchDirFor(%s) failed: %v", tt.path, err)
			}
			if got != tt.expected {
				t.Errorf("ScratchDirFor(%s) = %s, want %s", tt.path, got, tt.expected)
			}
		})
	}
}

func TestOpenListsPages(t *testing.T) {
	fsys := afero.NewMemMapFs()
	entries := append(samplePages(t),
		testEntry{name: "extras/", data: nil},
		testEntry{name: "extras/bonus.png", data: pngBytes(t, 2, 2)},
	)
	writeZip(t, fsys, "/comics/sample.cbz", entries)

	s, err := Open("/comics/sample.cbz", memOptions(fsys))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if s.ScratchDir() != "/comics/sample" {
		t.Errorf("Expected scratch dir /comics/sample, got %s", s.ScratchDir())
	}
	if s.Format() != FormatZip {
		t.Errorf("Expected zip format, got %v", s.Format())
	}
	expected := []string{"page1.png", "page2.png", "page3.png", "page4.png", "page5.png"}
	if !reflect.DeepEqual(s.PageFiles(), expected) {
		t.Errorf("Expected pages %v, got %v", expected, s.PageFiles())
	}
	if s.PageCount() != 5 {
		t.Errorf("Expected 5 pages, got %d", s.PageCount())
	}
	if ok, _ := afero.Exists(fsys, "/comics/sample/extras/bonus.png"); !ok {
		t.Error("Expected nested entry to be extracted")
	}
	if !s.Exists() {
		t.Error("Expected scratch directory to exist after Open")
	}
}

func TestOpenSortMethods(t *testing.T) {
	data := pngBytes(t, 1, 1)
	entries := []testEntry{
		{name: "page10.png", data: data},
		{name: "page2.png", data: data},
		{name: "page1.png", data: data},
	}

	tests := []struct {
		name       string
		sortMethod int
		expected   []string
	}{
		{"Natural", SortNatural, []string{"page1.png", "page2.png", "page10.png"}},
		{"Simple", SortSimple, []string{"page1.png", "page10.png", "page2.png"}},
		{"Entry order", SortEntryOrder, []string{"page10.png", "page2.png", "page1.png"}},
		{"Unknown falls back to natural", 99, []string{"page1.png", "page2.png", "page10.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			writeZip(t, fsys, "/comics/order.cbz", entries)

			opts := memOptions(fsys)
			opts.SortMethod = tt.sortMethod
			s, err := Open("/comics/order.cbz", opts)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !reflect.DeepEqual(s.PageFiles(), tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, s.PageFiles())
			}
		})
	}
}

func TestOpenImagesOnly(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/comics/meta.cbz", []testEntry{
		{name: "ComicInfo.xml", data: []byte("<ComicInfo/>")},
		{name: "01.jpg", data: []byte("not really a jpeg")},
		{name: "02.PNG", data: pngBytes(t, 1, 1)},
	})

	opts := memOptions(fsys)
	s, err := Open("/comics/meta.cbz", opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.PageCount() != 3 {
		t.Errorf("Expected all 3 files without filter, got %v", s.PageFiles())
	}
	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	opts.ImagesOnly = true
	s, err = Open("/comics/meta.cbz", opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	expected := []string{"01.jpg", "02.PNG"}
	if !reflect.DeepEqual(s.PageFiles(), expected) {
		t.Errorf("Expected %v, got %v", expected, s.PageFiles())
	}
}

func TestOpenReplacesStaleDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/comics/sample.cbz", samplePages(t))
	if err := fsys.MkdirAll("/comics/sample/old", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fsys, "/comics/sample/stale.png", []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open("/comics/sample.cbz", memOptions(fsys))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for _, stale := range []string{"/comics/sample/stale.png", "/comics/sample/old"} {
		if ok, _ := afero.Exists(fsys, stale); ok {
			t.Errorf("Expected stale path %s to be removed", stale)
		}
	}
	if s.PageCount() != 5 {
		t.Errorf("Expected 5 pages, got %v", s.PageFiles())
	}
}

func TestOpenLeavesNonDirectoryScratchPath(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/comics/sample.cbz", samplePages(t))
	if err := afero.WriteFile(fsys, "/comics/sample", []byte("user data"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open("/comics/sample.cbz", memOptions(fsys))
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("Expected ErrExtractionFailed, got %v", err)
	}
	data, err := afero.ReadFile(fsys, "/comics/sample")
	if err != nil || string(data) != "user data" {
		t.Errorf("Expected existing file to be untouched, got %q, %v", data, err)
	}
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T, fsys afero.Fs)
		path        string
		supportsRar bool
		expected    error
		scratchDir  string
	}{
		{
			name:     "Missing archive",
			setup:    func(t *testing.T, fsys afero.Fs) {},
			path:     "/comics/missing.cbz",
			expected: ErrArchiveNotFound,
		},
		{
			name: "Archive path is a directory",
			setup: func(t *testing.T, fsys afero.Fs) {
				_ = fsys.MkdirAll("/comics/folder.cbz", 0o755)
			},
			path:     "/comics/folder.cbz",
			expected: ErrArchiveNotFound,
		},
		{
			name: "Unsupported extension",
			setup: func(t *testing.T, fsys afero.Fs) {
				_ = afero.WriteFile(fsys, "/comics/book.pdf", []byte("%PDF"), 0o644)
			},
			path:     "/comics/book.pdf",
			expected: ErrUnsupportedFormat,
		},
		{
			name: "RAR disabled",
			setup: func(t *testing.T, fsys afero.Fs) {
				_ = afero.WriteFile(fsys, "/comics/book.cbr", []byte("Rar!"), 0o644)
			},
			path:     "/comics/book.cbr",
			expected: ErrUnsupportedFormat,
		},
		{
			name: "Zero-byte archive",
			setup: func(t *testing.T, fsys afero.Fs) {
				_ = afero.WriteFile(fsys, "/comics/x.cbz", nil, 0o644)
			},
			path:       "/comics/x.cbz",
			expected:   ErrExtractionFailed,
			scratchDir: "/comics/x",
		},
		{
			name: "Not an archive",
			setup: func(t *testing.T, fsys afero.Fs) {
				_ = afero.WriteFile(fsys, "/comics/x.cbz", []byte("just some text, no zip here"), 0o644)
			},
			path:       "/comics/x.cbz",
			expected:   ErrExtractionFailed,
			scratchDir: "/comics/x",
		},
		{
			name: "Corrupt rar",
			setup: func(t *testing.T, fsys afero.Fs) {
				_ = afero.WriteFile(fsys, "/comics/y.rar", []byte("definitely not rar"), 0o644)
			},
			path:        "/comics/y.rar",
			supportsRar: true,
			expected:    ErrExtractionFailed,
			scratchDir:  "/comics/y",
		},
		{
			name: "Corrupt 7z",
			setup: func(t *testing.T, fsys afero.Fs) {
				_ = afero.WriteFile(fsys, "/comics/z.cb7", []byte("definitely not 7z"), 0o644)
			},
			path:       "/comics/z.cb7",
			expected:   ErrExtractionFailed,
			scratchDir: "/comics/z",
		},
		{
			name: "Path traversal entry",
			setup: func(t *testing.T, fsys afero.Fs) {
				writeZip(t, fsys, "/comics/evil.cbz", []testEntry{
					{name: "page1.png", data: []byte("ok")},
					{name: "../escaped.png", data: []byte("bad")},
				})
			},
			path:       "/comics/evil.cbz",
			expected:   ErrExtractionFailed,
			scratchDir: "/comics/evil",
		},
		{
			name: "Encrypted entry",
			setup: func(t *testing.T, fsys afero.Fs) {
				writeZip(t, fsys, "/comics/locked.cbz", []testEntry{
					{name: "page1.png", data: []byte("cipher"), flags: 0x1},
				})
			},
			path:       "/comics/locked.cbz",
			expected:   ErrExtractionFailed,
			scratchDir: "/comics/locked",
		},
		{
			name: "Symlink after valid pages",
			setup: func(t *testing.T, fsys afero.Fs) {
				writeZip(t, fsys, "/comics/linked.cbz", []testEntry{
					{name: "page1.png", data: []byte("ok")},
					{name: "page2.png", data: []byte("ok")},
					{name: "page3.png", data: []byte("/etc/passwd"), mode: os.ModeSymlink | 0o777},
				})
			},
			path:       "/comics/linked.cbz",
			expected:   ErrExtractionFailed,
			scratchDir: "/comics/linked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			tt.setup(t, fsys)

			opts := memOptions(fsys)
			opts.SupportsRar = tt.supportsRar
			s, err := Open(tt.path, opts)
			if s != nil {
				t.Errorf("Expected nil session on error, got %+v", s)
			}
			if !errors.Is(err, tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, err)
			}
			if tt.scratchDir != "" {
				if ok, _ := afero.Exists(fsys, tt.scratchDir); ok {
					t.Errorf("Expected no scratch directory at %s after failure", tt.scratchDir)
				}
			}
			if ok, _ := afero.Exists(fsys, "/comics/escaped.png"); ok {
				t.Error("Entry escaped the scratch directory")
			}
		})
	}
}

func TestOpenEntrySizeLimit(t *testing.T) {
	saved := MaxEntrySize
	MaxEntrySize = 64
	t.Cleanup(func() { MaxEntrySize = saved })

	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/comics/huge.cbz", []testEntry{
		{name: "page1.png", data: []byte("small page")},
		{name: "page2.png", data: bytes.Repeat([]byte("x"), 1000)},
	})

	s, err := Open("/comics/huge.cbz", memOptions(fsys))
	if s != nil {
		t.Errorf("Expected nil session on error, got %+v", s)
	}
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("Expected ErrExtractionFailed, got %v", err)
	}
	if ok, _ := afero.Exists(fsys, "/comics/huge"); ok {
		t.Error("Expected no scratch directory after an oversize entry")
	}
}

func TestExtractionFileLimits(t *testing.T) {
	saved := MaxEntrySize
	MaxEntrySize = 64
	t.Cleanup(func() { MaxEntrySize = saved })

	tests := []struct {
		name     string
		mode     os.FileMode
		declared int64
		size     int
		wantErr  bool
	}{
		{"Within limit, unknown size", 0o644, -1, 64, false},
		{"Within limit, declared size", 0o644, 10, 10, false},
		{"Declared over limit", 0o644, 100, 10, true},
		{"Unknown size over limit", 0o644, -1, 100, true},
		{"Short entry", 0o644, 20, 10, true},
		{"Symlink", os.ModeSymlink | 0o777, -1, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			x := newExtraction(fsys, "/scratch")
			err := x.file("page.png", tt.mode, tt.declared, bytes.NewReader(bytes.Repeat([]byte("x"), tt.size)))
			if tt.wantErr && err == nil {
				t.Fatal("Expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.mode&os.ModeSymlink != 0 {
				if ok, _ := afero.Exists(fsys, "/scratch/page.png"); ok {
					t.Error("Symlink entry must not be written")
				}
			}
		})
	}
}

func TestResort(t *testing.T) {
	data := pngBytes(t, 1, 1)
	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/comics/order.cbz", []testEntry{
		{name: "page10.png", data: data},
		{name: "page2.png", data: data},
		{name: "page1.png", data: data},
	})

	s, err := Open("/comics/order.cbz", memOptions(fsys))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	tests := []struct {
		name       string
		sortMethod int
		expectID   int
		expected   []string
	}{
		{"Entry order", SortEntryOrder, SortEntryOrder, []string{"page10.png", "page2.png", "page1.png"}},
		{"Simple", SortSimple, SortSimple, []string{"page1.png", "page10.png", "page2.png"}},
		{"Unknown falls back to natural", -1, SortNatural, []string{"page1.png", "page2.png", "page10.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.Resort(tt.sortMethod)
			if s.SortMethod() != tt.expectID {
				t.Errorf("Expected sort method %d, got %d", tt.expectID, s.SortMethod())
			}
			if !reflect.DeepEqual(s.PageFiles(), tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, s.PageFiles())
			}
			if p, ok := s.PagePath(0); !ok || p != filepath.Join("/comics/order", tt.expected[0]) {
				t.Errorf("PagePath(0) = %s, %v after resort", p, ok)
			}
		})
	}
}

func TestSiblingArchives(t *testing.T) {
	fsys := afero.NewMemMapFs()
	for _, name := range []string{"vol10.cbz", "vol2.cb7", "vol1.cbz", "vol3.cbr", "notes.txt"} {
		if err := afero.WriteFile(fsys, "/comics/"+name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := fsys.MkdirAll("/comics/vol4.cbz", 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		supportsRar bool
		expected    []string
	}{
		{"With rar", true, []string{"/comics/vol1.cbz", "/comics/vol2.cb7", "/comics/vol3.cbr", "/comics/vol10.cbz"}},
		{"Without rar", false, []string{"/comics/vol1.cbz", "/comics/vol2.cb7", "/comics/vol10.cbz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SiblingArchives(fsys, "/comics/vol2.cb7", tt.supportsRar)
			if err != nil {
				t.Fatalf("SiblingArchives failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}

	if _, err := SiblingArchives(fsys, "/missing/vol1.cbz", true); err == nil {
		t.Error("Expected error for a missing directory")
	}
}

func TestCleanup(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/comics/sample.cbz", samplePages(t))

	s, err := Open("/comics/sample.cbz", memOptions(fsys))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := s.Cleanup(); err != nil {
		t.Fatalf("First cleanup failed: %v", err)
	}
	if ok, _ := afero.Exists(fsys, "/comics/sample"); ok {
		t.Error("Expected scratch directory to be removed")
	}
	if s.Exists() {
		t.Error("Exists should report false after cleanup")
	}
	if ok, _ := afero.Exists(fsys, "/comics/sample.cbz"); !ok {
		t.Error("Cleanup must not touch the archive itself")
	}

	if err := s.Cleanup(); !errors.Is(err, ErrDirectoryNotFound) {
		t.Errorf("Expected ErrDirectoryNotFound on second cleanup, got %v", err)
	}
}

func TestReopenIsDeterministic(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/comics/sample.cbz", samplePages(t))

	first, err := Open("/comics/sample.cbz", memOptions(fsys))
	if err != nil {
		t.Fatalf("First open failed: %v", err)
	}
	pages := first.PageFiles()
	if err := first.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	second, err := Open("/comics/sample.cbz", memOptions(fsys))
	if err != nil {
		t.Fatalf("Second open failed: %v", err)
	}
	if !reflect.DeepEqual(pages, second.PageFiles()) {
		t.Errorf("Page order changed between opens: %v vs %v", pages, second.PageFiles())
	}
}

func TestOpenPage(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/comics/sample.cbz", []testEntry{
		{name: "b.txt", data: []byte("second")},
		{name: "a.txt", data: []byte("first")},
	})

	s, err := Open("/comics/sample.cbz", memOptions(fsys))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	rc, err := s.OpenPage(0)
	if err != nil {
		t.Fatalf("OpenPage failed: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || string(data) != "first" {
		t.Errorf("Expected %q, got %q (%v)", "first", data, err)
	}

	if p, ok := s.PagePath(1); !ok || p != "/comics/sample/b.txt" {
		t.Errorf("Unexpected PagePath(1) = %s, %v", p, ok)
	}
	for _, idx := range []int{-1, 2} {
		if _, err := s.OpenPage(idx); err == nil {
			t.Errorf("Expected error for OpenPage(%d)", idx)
		}
	}
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	osFs := afero.NewOsFs()
	archivePath := filepath.Join(dir, "sample.cbz")
	writeZip(t, osFs, archivePath, samplePages(t))

	opts := DefaultOptions()
	s, err := Open(archivePath, opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.PageCount() != 5 {
		t.Errorf("Expected 5 pages, got %d", s.PageCount())
	}
	if info, err := os.Stat(filepath.Join(dir, "sample")); err != nil || !info.IsDir() {
		t.Fatalf("Expected scratch directory on disk: %v", err)
	}
	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sample")); !os.IsNotExist(err) {
		t.Errorf("Expected scratch directory to be gone, got %v", err)
	}
}
