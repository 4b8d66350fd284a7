package archive

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/maruel/natural"
	"github.com/spf13/afero"
)

// SiblingArchives lists the archives in the directory of archivePath,
// archivePath included if it still exists, in natural order. RAR archives
// are skipped unless supportsRar is set.
func SiblingArchives(fsys afero.Fs, archivePath string, supportsRar bool) ([]string, error) {
	dir := filepath.Dir(archivePath)
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var archives []string
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		format := DetectFormat(info.Name())
		if format == FormatUnknown || (format == FormatRar && !supportsRar) {
			continue
		}
		archives = append(archives, filepath.Join(dir, info.Name()))
	}

	sort.SliceStable(archives, func(i, j int) bool {
		return natural.Less(archives[i], archives[j])
	})
	return archives, nil
}
