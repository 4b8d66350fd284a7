package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode"
	"github.com/spf13/afero"
)

// MaxEntrySize is the largest uncompressed entry extract will write (1GB).
// Larger entries fail the extraction instead of filling the disk.
var MaxEntrySize int64 = 1 << 30

// extraction writes archive entries below destDir and remembers the order
// in which top-level files were produced.
type extraction struct {
	fs      afero.Fs
	destDir string
	order   map[string]int
	next    int
}

func newExtraction(fsys afero.Fs, destDir string) *extraction {
	return &extraction{
		fs:      fsys,
		destDir: destDir,
		order:   make(map[string]int),
	}
}

// target resolves an entry name to a path inside destDir, refusing names
// that would escape it.
func (x *extraction) target(name string) (string, string, error) {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	clean = strings.TrimPrefix(clean, "./")
	if clean == "." || clean == "" {
		return "", "", nil
	}
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") || filepath.VolumeName(clean) != "" {
		return "", "", fmt.Errorf("invalid entry path (path traversal detected): %s", name)
	}
	return filepath.Join(x.destDir, filepath.FromSlash(clean)), clean, nil
}

func (x *extraction) dir(name string) error {
	target, _, err := x.target(name)
	if err != nil || target == "" {
		return err
	}
	if err := x.fs.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", target, err)
	}
	return nil
}

// file copies r into the entry's destination. declared is the size the
// archive claims for the entry, or -1 when unknown.
func (x *extraction) file(name string, mode os.FileMode, declared int64, r io.Reader) error {
	if mode&os.ModeSymlink != 0 {
		return fmt.Errorf("symlinks not supported in archives: %s", name)
	}
	if declared > MaxEntrySize {
		return fmt.Errorf("entry %s too large: %d bytes exceeds limit of %d bytes", name, declared, MaxEntrySize)
	}
	target, clean, err := x.target(name)
	if err != nil {
		return err
	}
	if target == "" {
		return nil
	}
	if err := x.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating parent directory for %s: %w", target, err)
	}

	out, err := x.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm()|0o600)
	if err != nil {
		return err
	}
	written, err := io.Copy(out, io.LimitReader(r, MaxEntrySize+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("extracting %s: %w", name, err)
	}
	if written > MaxEntrySize {
		return fmt.Errorf("entry %s exceeds limit of %d bytes", name, MaxEntrySize)
	}
	if declared >= 0 && written != declared {
		return fmt.Errorf("entry %s: wrote %d bytes, archive declares %d", name, written, declared)
	}

	if !strings.Contains(clean, "/") {
		if _, seen := x.order[clean]; !seen {
			x.order[clean] = x.next
			x.next++
		}
	}
	return nil
}

func extractZip(x *extraction, src io.ReaderAt, size int64) error {
	r, err := zip.NewReader(src, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return err
	}

	for _, f := range r.File {
		if f.Flags&0x1 != 0 {
			return fmt.Errorf("encrypted entries are not supported: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := x.dir(f.Name); err != nil {
				return err
			}
			continue
		}
		if err := extractZipFile(x, f); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(x *extraction, f *zip.File) error {
	if f.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("symlinks not supported in archives: %s", f.Name)
	}
	if f.UncompressedSize64 > uint64(MaxEntrySize) {
		return fmt.Errorf("entry %s too large: %d bytes exceeds limit of %d bytes", f.Name, f.UncompressedSize64, MaxEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	return x.file(f.Name, f.Mode(), int64(f.UncompressedSize64), rc)
}

func extractRar(x *extraction, src io.Reader) error {
	r, err := rardecode.NewReader(src, "")
	if err != nil {
		return err
	}

	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if header.IsDir {
			if err := x.dir(header.Name); err != nil {
				return err
			}
			continue
		}

		declared := header.UnPackedSize
		if header.UnKnownSize {
			declared = -1
		}
		if err := x.file(header.Name, header.Mode(), declared, r); err != nil {
			return err
		}
	}
}

func extract7z(x *extraction, src io.ReaderAt, size int64) error {
	r, err := sevenzip.NewReader(src, size)
	if err != nil {
		return err
	}

	for _, f := range r.File {
		info := f.FileInfo()
		if info.IsDir() {
			if err := x.dir(f.Name); err != nil {
				return err
			}
			continue
		}
		if err := extract7zFile(x, f, info.Mode()); err != nil {
			return err
		}
	}
	return nil
}

func extract7zFile(x *extraction, f *sevenzip.File, mode os.FileMode) error {
	if f.UncompressedSize > uint64(MaxEntrySize) {
		return fmt.Errorf("entry %s too large: %d bytes exceeds limit of %d bytes", f.Name, f.UncompressedSize, MaxEntrySize)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	return x.file(f.Name, mode, int64(f.UncompressedSize), rc)
}

// extractArchive dispatches on format and returns the archive position of
// every top-level file it wrote.
func extractArchive(fsys afero.Fs, archivePath string, format Format, destDir string) (map[string]int, error) {
	src, err := fsys.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return nil, err
	}

	x := newExtraction(fsys, destDir)
	switch format {
	case FormatZip:
		err = extractZip(x, src, info.Size())
	case FormatRar:
		err = extractRar(x, src)
	case Format7z:
		err = extract7z(x, src, info.Size())
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return x.order, nil
}
