package archive

import "errors"

// Errors returned by Open and Cleanup. They are wrapped with context, so
// callers should match them with errors.Is.
var (
	ErrArchiveNotFound   = errors.New("archive not found")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrDirectoryNotFound = errors.New("scratch directory not found")
)
