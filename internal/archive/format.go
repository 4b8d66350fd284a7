package archive

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies the container format of a comic archive
type Format int

const (
	FormatUnknown Format = iota
	FormatZip            // .cbz, .zip
	FormatRar            // .cbr, .rar
	Format7z             // .cb7, .7z
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatRar:
		return "rar"
	case Format7z:
		return "7z"
	default:
		return "unknown"
	}
}

var formatExtensions = map[string]Format{
	".cbz": FormatZip,
	".zip": FormatZip,
	".cbr": FormatRar,
	".rar": FormatRar,
	".cb7": Format7z,
	".7z":  Format7z,
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// DetectFormat returns the archive format implied by the extension of path.
func DetectFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := formatExtensions[ext]; ok {
		return f
	}
	return FormatUnknown
}

// IsArchiveExt reports whether path has one of the recognized archive extensions.
func IsArchiveExt(path string) bool {
	return DetectFormat(path) != FormatUnknown
}

// IsImageExt reports whether path looks like a page image by its extension.
func IsImageExt(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScratchDirFor derives the extraction directory for an archive by stripping
// its archive extension. Only the trailing extension is removed, so
// "vol.cbz.d/ch1.cbz" becomes "vol.cbz.d/ch1".
func ScratchDirFor(archivePath string) (string, error) {
	if !IsArchiveExt(archivePath) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(archivePath))
	}
	dir := archivePath[:len(archivePath)-len(filepath.Ext(archivePath))]
	if dir == "" || strings.HasSuffix(dir, string(filepath.Separator)) {
		return "", fmt.Errorf("%w: no name left after stripping extension: %s", ErrUnsupportedFormat, archivePath)
	}
	return dir, nil
}
