package viewer

// Pager is the navigation primitive the scroll helpers drive.
type Pager interface {
	Advance(dir Direction) bool
}

// ScrollGuard admits a single scroll-triggered page load at a time. Wheel
// events that arrive while a load is pending are dropped instead of
// advancing again.
type ScrollGuard struct {
	busy bool
}

// TryBegin claims the guard. It returns false if a load is already pending.
func (g *ScrollGuard) TryBegin() bool {
	if g.busy {
		return false
	}
	g.busy = true
	return true
}

// Done releases the guard once the page has been displayed.
func (g *ScrollGuard) Done() {
	g.busy = false
}

// Busy reports whether a page load is pending.
func (g *ScrollGuard) Busy() bool {
	return g.busy
}

// WheelDirection maps a vertical wheel delta to a page direction: away
// from the user goes back, towards the user goes forward.
func WheelDirection(deltaY float64) (Direction, bool) {
	switch {
	case deltaY > 0:
		return Backward, true
	case deltaY < 0:
		return Forward, true
	default:
		return Forward, false
	}
}

// IsWebtoon reports whether a page drawn at imageHeight needs vertical
// scrolling in a viewport of viewportHeight.
func IsWebtoon(imageHeight, viewportHeight int) bool {
	return imageHeight > viewportHeight
}

// WebtoonScroller keeps the vertical scroll offset for long-strip pages.
// Scrolling past the bottom advances to the next page and past the top goes
// back to the previous one, which is then shown from its bottom edge.
type WebtoonScroller struct {
	pager         Pager
	guard         ScrollGuard
	offset        int
	maxOffset     int
	restoreBottom bool
}

// NewWebtoonScroller creates a scroller driving pager.
func NewWebtoonScroller(pager Pager) *WebtoonScroller {
	return &WebtoonScroller{pager: pager}
}

// Offset returns the current scroll position in pixels from the top.
func (w *WebtoonScroller) Offset() int { return w.offset }

// MaxOffset returns the largest valid scroll position for the current page.
func (w *WebtoonScroller) MaxOffset() int { return w.maxOffset }

// Pending reports whether a page change is waiting for Loaded.
func (w *WebtoonScroller) Pending() bool { return w.guard.Busy() }

// Scroll moves the view by delta pixels (positive scrolls down). It returns
// true when the page changed; the caller must render the new page and then
// call Loaded. While a page change is pending all scrolling is ignored.
func (w *WebtoonScroller) Scroll(delta int) bool {
	if w.guard.Busy() || delta == 0 {
		return false
	}

	if delta > 0 {
		if w.offset < w.maxOffset {
			w.offset = min(w.offset+delta, w.maxOffset)
			return false
		}
		return w.turn(Forward)
	}

	if w.offset > 0 {
		w.offset = max(w.offset+delta, 0)
		return false
	}
	return w.turn(Backward)
}

func (w *WebtoonScroller) turn(dir Direction) bool {
	if !w.guard.TryBegin() {
		return false
	}
	if !w.pager.Advance(dir) {
		w.guard.Done()
		return false
	}
	w.restoreBottom = dir == Backward
	w.offset = 0
	return true
}

// Loaded records the scroll range of the page now on screen and releases
// the pending page change. contentHeight and viewportHeight are in the
// same units as Scroll deltas.
func (w *WebtoonScroller) Loaded(contentHeight, viewportHeight int) {
	w.maxOffset = max(contentHeight-viewportHeight, 0)
	if w.restoreBottom {
		w.offset = w.maxOffset
		w.restoreBottom = false
	}
	w.offset = min(max(w.offset, 0), w.maxOffset)
	w.guard.Done()
}

// Reset returns to the top of the page, e.g. after a keyboard jump.
func (w *WebtoonScroller) Reset() {
	w.offset = 0
	w.restoreBottom = false
}
