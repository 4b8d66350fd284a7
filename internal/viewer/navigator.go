// Package viewer pages through an extracted archive: a bounds-checked page
// cursor, on-demand decoding and fit-to-viewport scaling.
package viewer

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"comicflux/internal/archive"
)

var (
	ErrEmptyArchive = errors.New("archive contains no pages")
	ErrDecodeFailed = errors.New("decode failed")
)

// Direction represents the direction of navigation
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Navigator is a page cursor over one archive session. It owns the session
// and is not safe for concurrent use.
type Navigator struct {
	session *archive.Session
	current int
	count   int
	cache   *lru.Cache[int, image.Image] // nil: decode on every access
}

// NewNavigator creates a Navigator that decodes the current page on every
// CurrentImage call.
func NewNavigator(session *archive.Session) (*Navigator, error) {
	return NewNavigatorWithCache(session, 0)
}

// NewNavigatorWithCache creates a Navigator that keeps up to cacheSize
// decoded pages in an LRU. A cacheSize of zero disables caching.
func NewNavigatorWithCache(session *archive.Session, cacheSize int) (*Navigator, error) {
	if session == nil || session.PageCount() == 0 {
		return nil, ErrEmptyArchive
	}

	n := &Navigator{
		session: session,
		count:   session.PageCount(),
	}
	if cacheSize > 0 {
		cache, err := lru.New[int, image.Image](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating page cache: %w", err)
		}
		n.cache = cache
	}
	return n, nil
}

// Session returns the archive session the navigator pages through.
func (n *Navigator) Session() *archive.Session { return n.session }

// Index returns the current page index.
func (n *Navigator) Index() int { return n.current }

// PageCount returns the number of pages.
func (n *Navigator) PageCount() int { return n.count }

// CurrentPageName returns the file name of the current page.
func (n *Navigator) CurrentPageName() string {
	name, _ := n.session.PageName(n.current)
	return name
}

// Advance moves the cursor one page in dir. At either end it does nothing
// and returns false, so redundant calls are safe.
func (n *Navigator) Advance(dir Direction) bool {
	switch dir {
	case Backward:
		if n.current >= 1 {
			n.current--
			return true
		}
	case Forward:
		if n.current < n.count-1 {
			n.current++
			return true
		}
	}
	return false
}

// SeekTo moves the cursor to index if it is within [0, PageCount).
func (n *Navigator) SeekTo(index int) bool {
	if index < 0 || index >= n.count {
		return false
	}
	n.current = index
	return true
}

// Resort reorders the session's pages by sortMethod and keeps the cursor on
// the page it was showing. The page cache is keyed by index, so it is
// dropped.
func (n *Navigator) Resort(sortMethod int) {
	name := n.CurrentPageName()
	n.session.Resort(sortMethod)
	if n.cache != nil {
		n.cache.Purge()
	}
	for i, page := range n.session.PageFiles() {
		if page == name {
			n.current = i
			return
		}
	}
}

// CurrentImage decodes the page under the cursor. Decode errors are
// returned wrapped in ErrDecodeFailed.
func (n *Navigator) CurrentImage() (image.Image, error) {
	return n.decodePage(n.current)
}

// ScaleToFit fits img into the available area. See the package level
// ScaleToFit.
func (n *Navigator) ScaleToFit(img image.Image, availableWidth, availableHeight int) image.Image {
	return ScaleToFit(img, availableWidth, availableHeight)
}

func (n *Navigator) decodePage(idx int) (image.Image, error) {
	if n.cache != nil {
		if img, ok := n.cache.Get(idx); ok {
			return img, nil
		}
	}

	name, _ := n.session.PageName(idx)
	rc, err := n.session.OpenPage(idx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, name, err)
	}
	defer func() { _ = rc.Close() }()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, name, err)
	}

	if n.cache != nil {
		n.cache.Add(idx, img)
	}
	return img, nil
}
