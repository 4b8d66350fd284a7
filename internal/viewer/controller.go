package viewer

import (
	"errors"
	"log"
	"path/filepath"

	"github.com/maruel/natural"
	"github.com/spf13/afero"

	"comicflux/internal/archive"
)

// ErrNoSibling is returned by OpenSibling when there is no archive further
// along in the requested direction.
var ErrNoSibling = errors.New("no further archive in directory")

// Controller owns the session and navigator of the archive being viewed.
// Opening another archive cleans up the previous one first.
type Controller struct {
	opts      archive.Options
	cacheSize int
	path      string
	session   *archive.Session
	nav       *Navigator
}

// NewController creates an idle controller. cacheSize is passed on to
// NewNavigatorWithCache for every archive opened.
func NewController(opts archive.Options, cacheSize int) *Controller {
	return &Controller{opts: opts, cacheSize: cacheSize}
}

// Open cleans up the active archive, if any, and opens archivePath. On
// failure the controller is left idle, unless the previous scratch
// directory could not be removed, in which case that archive stays open.
func (c *Controller) Open(archivePath string) error {
	if err := c.Close(); err != nil {
		if !errors.Is(err, archive.ErrDirectoryNotFound) {
			return err
		}
		log.Printf("Warning: Previous scratch directory already gone: %v", err)
	}

	if abs, err := filepath.Abs(archivePath); err == nil {
		c.path = abs
	} else {
		c.path = archivePath
	}

	session, err := archive.Open(archivePath, c.opts)
	if err != nil {
		return err
	}

	nav, err := NewNavigatorWithCache(session, c.cacheSize)
	if err != nil {
		if cleanupErr := session.Cleanup(); cleanupErr != nil {
			log.Printf("Error: Failed to clean up %s: %v", session.ScratchDir(), cleanupErr)
		}
		return err
	}

	c.session = session
	c.nav = nav
	return nil
}

// Close removes the scratch directory of the active archive. Closing an
// idle controller does nothing. If the directory is already gone the
// controller still goes idle; any other cleanup failure keeps the archive
// open so Close can be retried.
func (c *Controller) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Cleanup()
	if err != nil && !errors.Is(err, archive.ErrDirectoryNotFound) {
		log.Printf("Error: Failed to remove scratch directory %s: %v", c.session.ScratchDir(), err)
		return err
	}
	c.session = nil
	c.nav = nil
	return err
}

// OpenSibling opens the archive after (Forward) or before (Backward) the
// last one passed to Open, in natural order within its directory. It
// returns the path it tried to open.
func (c *Controller) OpenSibling(dir Direction) (string, error) {
	if c.path == "" {
		return "", ErrNoSibling
	}
	siblings, err := archive.SiblingArchives(c.fs(), c.path, c.opts.SupportsRar)
	if err != nil {
		return "", err
	}

	target := ""
	for _, s := range siblings {
		if dir == Forward && natural.Less(c.path, s) {
			target = s
			break
		}
		if dir == Backward && natural.Less(s, c.path) {
			target = s
		}
	}
	if target == "" {
		return "", ErrNoSibling
	}
	return target, c.Open(target)
}

// SetSortMethod changes the page order for the active archive and for
// archives opened later.
func (c *Controller) SetSortMethod(sortMethod int) {
	c.opts.SortMethod = sortMethod
	if c.nav != nil {
		c.nav.Resort(sortMethod)
	}
}

func (c *Controller) fs() afero.Fs {
	if c.opts.Fs == nil {
		return afero.NewOsFs()
	}
	return c.opts.Fs
}

// Path returns the archive most recently passed to Open, even if that
// open failed.
func (c *Controller) Path() string { return c.path }

// Active reports whether an archive is open.
func (c *Controller) Active() bool { return c.session != nil }

// Session returns the active session or nil.
func (c *Controller) Session() *archive.Session { return c.session }

// Navigator returns the active navigator or nil.
func (c *Controller) Navigator() *Navigator { return c.nav }
