// Package archive extracts comic archives into a scratch directory and
// exposes the extracted pages in a stable order.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// Options configures how a Session is opened
type Options struct {
	// Fs is the filesystem holding the archive and the scratch directory.
	// Nil means the operating system filesystem.
	Fs afero.Fs
	// SupportsRar enables .rar/.cbr archives.
	SupportsRar bool
	// ImagesOnly drops files without an image extension from the page list.
	ImagesOnly bool
	// SortMethod is one of SortNatural, SortSimple or SortEntryOrder.
	SortMethod int
}

// DefaultOptions returns options for the OS filesystem with RAR enabled and
// natural page ordering.
func DefaultOptions() Options {
	return Options{
		Fs:          afero.NewOsFs(),
		SupportsRar: true,
		SortMethod:  SortNatural,
	}
}

// Session is an archive extracted to its scratch directory. It is not safe
// for concurrent use.
type Session struct {
	fs          afero.Fs
	archivePath string
	scratchDir  string
	format      Format
	sortMethod  int
	entries     []PageEntry
	pageFiles   []string
}

// Open extracts archivePath into its scratch directory and lists the pages.
// A stale scratch directory left by an earlier run is replaced. If
// extraction fails, the partially written directory is removed before the
// error is returned.
func Open(archivePath string, opts Options) (*Session, error) {
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	absPath, err := filepath.Abs(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveNotFound, archivePath, err)
	}

	info, err := fsys.Stat(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, absPath)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrArchiveNotFound, absPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrArchiveNotFound, absPath)
	}

	format := DetectFormat(absPath)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(absPath))
	}
	if format == FormatRar && !opts.SupportsRar {
		return nil, fmt.Errorf("%w: rar support is disabled", ErrUnsupportedFormat)
	}

	scratchDir, err := ScratchDirFor(absPath)
	if err != nil {
		return nil, err
	}

	if err := prepareScratchDir(fsys, scratchDir); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, absPath, err)
	}

	order, err := extractArchive(fsys, absPath, format, scratchDir)
	if err == nil {
		var entries []PageEntry
		entries, err = listPages(fsys, scratchDir, order, opts)
		if err == nil {
			strategy := GetSortStrategy(opts.SortMethod)
			entries = strategy.Sort(entries)
			return &Session{
				fs:          fsys,
				archivePath: absPath,
				scratchDir:  scratchDir,
				format:      format,
				sortMethod:  strategy.ID(),
				entries:     entries,
				pageFiles:   entryNames(entries),
			}, nil
		}
	}

	if rmErr := fsys.RemoveAll(scratchDir); rmErr != nil {
		log.Printf("Error: Failed to remove partial extraction %s: %v", scratchDir, rmErr)
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, absPath, err)
}

// prepareScratchDir replaces a stale scratch directory with an empty one.
// Anything other than a directory at that path is left alone.
func prepareScratchDir(fsys afero.Fs, dir string) error {
	info, err := fsys.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("scratch path %s exists and is not a directory", dir)
	case err == nil:
		log.Printf("Warning: Removing stale scratch directory %s", dir)
		if err := fsys.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing stale scratch directory: %w", err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}
	return fsys.Mkdir(dir, 0o755)
}

// listPages returns the regular files directly inside dir, each with its
// position inside the archive.
func listPages(fsys afero.Fs, dir string, order map[string]int, opts Options) ([]PageEntry, error) {
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	entries := make([]PageEntry, 0, len(infos))
	for i, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		if opts.ImagesOnly && !IsImageExt(info.Name()) {
			continue
		}
		pos, ok := order[info.Name()]
		if !ok {
			pos = len(order) + i
		}
		entries = append(entries, PageEntry{Name: info.Name(), Order: pos})
	}
	return entries, nil
}

func entryNames(entries []PageEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// SortMethod returns the ID of the strategy the pages are ordered by.
func (s *Session) SortMethod() int { return s.sortMethod }

// Resort orders the pages by another sort strategy. Unknown methods fall
// back to natural order.
func (s *Session) Resort(sortMethod int) {
	strategy := GetSortStrategy(sortMethod)
	s.sortMethod = strategy.ID()
	s.entries = strategy.Sort(s.entries)
	s.pageFiles = entryNames(s.entries)
}

// ArchivePath returns the absolute path of the source archive.
func (s *Session) ArchivePath() string { return s.archivePath }

// ScratchDir returns the directory the archive was extracted into.
func (s *Session) ScratchDir() string { return s.scratchDir }

// Format returns the container format of the archive.
func (s *Session) Format() Format { return s.format }

// PageCount returns the number of pages.
func (s *Session) PageCount() int { return len(s.pageFiles) }

// PageFiles returns a copy of the ordered page file names.
func (s *Session) PageFiles() []string {
	pages := make([]string, len(s.pageFiles))
	copy(pages, s.pageFiles)
	return pages
}

// PageName returns the file name of page idx.
func (s *Session) PageName(idx int) (string, bool) {
	if idx < 0 || idx >= len(s.pageFiles) {
		return "", false
	}
	return s.pageFiles[idx], true
}

// PagePath returns the full path of page idx inside the scratch directory.
func (s *Session) PagePath(idx int) (string, bool) {
	name, ok := s.PageName(idx)
	if !ok {
		return "", false
	}
	return filepath.Join(s.scratchDir, name), true
}

// OpenPage opens the extracted file of page idx for reading.
func (s *Session) OpenPage(idx int) (io.ReadCloser, error) {
	p, ok := s.PagePath(idx)
	if !ok {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", idx, len(s.pageFiles))
	}
	return s.fs.Open(p)
}

// Exists reports whether the scratch directory is still on disk.
func (s *Session) Exists() bool {
	ok, err := afero.DirExists(s.fs, s.scratchDir)
	return err == nil && ok
}

// Cleanup removes the scratch directory and everything in it. It is not
// idempotent: a second call fails with ErrDirectoryNotFound.
func (s *Session) Cleanup() error {
	info, err := s.fs.Stat(s.scratchDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrDirectoryNotFound, s.scratchDir)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, s.scratchDir)
	}
	if err := s.fs.RemoveAll(s.scratchDir); err != nil {
		return fmt.Errorf("removing %s: %w", s.scratchDir, err)
	}
	return nil
}
