package main

import (
	"errors"
	"image"
	"io/fs"
	"log"
	"math"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"comicflux/internal/archive"
	"comicflux/internal/config"
	"comicflux/internal/viewer"
)

const defaultFontSize = 16.0

type Game struct {
	controller *viewer.Controller
	config     config.Config
	configPath string

	inputHandler *InputHandler
	renderer     *Renderer

	// Wheel handling: page mode uses pageGuard, long strips use scroller
	pageGuard viewer.ScrollGuard
	scroller  *viewer.WebtoonScroller

	fullscreen bool
	savedWinW  int
	savedWinH  int

	webtoonEnabled bool
	showInfo       bool
	exiting        bool

	overlayMessage     string
	overlayMessageTime time.Time

	screenW int
	screenH int
	title   string

	// Rendered page, rebuilt when the page or viewport changes
	pageImage   *ebiten.Image
	pageIndex   int
	pageViewW   int
	pageViewH   int
	pageWebtoon bool
	pageMode    bool

	lastSnapshot *RenderStateSnapshot
	needsRedraw  bool
}

// NewGame wires the controller to input and rendering
func NewGame(controller *viewer.Controller, cfg config.Config, configPath string) *Game {
	g := &Game{
		controller:     controller,
		config:         cfg,
		configPath:     configPath,
		fullscreen:     cfg.Fullscreen,
		webtoonEnabled: true,
		pageIndex:      -1,
		needsRedraw:    true,
	}
	g.scroller = viewer.NewWebtoonScroller(g)
	g.inputHandler = NewInputHandler(g, NewKeybindingManager(cfg.Keybindings))
	g.renderer = NewRenderer(g)
	return g
}

func (g *Game) Update() error {
	if ebiten.IsWindowBeingClosed() {
		g.exiting = true
	}
	if g.exiting {
		return ebiten.Termination
	}

	if g.handleDroppedFiles() {
		g.needsRedraw = true
	}
	if g.inputHandler.HandleInput() {
		g.needsRedraw = true
	}
	if g.exiting {
		return ebiten.Termination
	}

	if title := g.titleText(); title != g.title {
		ebiten.SetWindowTitle(title)
		g.title = title
	}

	if g.ensurePage() {
		g.needsRedraw = true
	}

	snapshot := NewRenderStateSnapshot(g, g.screenW, g.screenH)
	if !snapshot.Equals(g.lastSnapshot) {
		g.needsRedraw = true
	}
	g.lastSnapshot = snapshot

	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if !g.needsRedraw {
		return
	}
	g.renderer.Draw(screen)
	g.needsRedraw = false
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.screenW, g.screenH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// Advance moves the page cursor; it is the Pager driven by the webtoon
// scroller.
func (g *Game) Advance(dir viewer.Direction) bool {
	nav := g.controller.Navigator()
	if nav == nil {
		return false
	}
	moved := nav.Advance(dir)
	if moved {
		debugLog("Advance %v -> [%d] %s", dir, nav.Index()+1, nav.CurrentPageName())
	}
	return moved
}

// ensurePage rebuilds the page image when the cursor, viewport or webtoon
// setting changed. It reports whether a rebuild happened.
func (g *Game) ensurePage() bool {
	nav := g.controller.Navigator()
	if nav == nil || g.screenW == 0 || g.screenH == 0 {
		return false
	}
	if g.pageImage != nil && nav.Index() == g.pageIndex &&
		g.screenW == g.pageViewW && g.screenH == g.pageViewH &&
		g.webtoonEnabled == g.pageMode {
		return false
	}

	g.renderPage(nav)

	// The new page is on screen, release pending scroll loads
	g.pageGuard.Done()
	if g.pageWebtoon {
		g.scroller.Loaded(g.pageImage.Bounds().Dy(), g.screenH)
	} else {
		g.scroller.Loaded(0, g.screenH)
	}
	return true
}

func (g *Game) renderPage(nav *viewer.Navigator) {
	if g.pageImage != nil {
		g.pageImage.Deallocate()
	}

	g.pageIndex = nav.Index()
	g.pageViewW, g.pageViewH = g.screenW, g.screenH
	g.pageMode = g.webtoonEnabled
	g.pageWebtoon = false

	aw, ah := viewer.AvailableArea(g.screenW, g.screenH, g.config.Margin)

	img, err := nav.CurrentImage()
	if err != nil {
		log.Printf("Error: %v", err)
		g.pageImage = CreateErrorImage(min(aw, errorImageWidth), min(ah, errorImageHeight), nav.CurrentPageName(), err.Error())
		return
	}

	var scaled image.Image
	fitW, fitH, strip := pageLayout(img.Bounds().Dx(), img.Bounds().Dy(), aw, ah, g.screenH, g.webtoonEnabled)
	g.pageWebtoon = strip
	scaled = nav.ScaleToFit(img, fitW, fitH)
	g.pageImage = ebiten.NewImageFromImage(scaled)
	debugLog("Rendered [%d] %s at %dx%d (webtoon: %v)", g.pageIndex+1, nav.CurrentPageName(),
		scaled.Bounds().Dx(), scaled.Bounds().Dy(), g.pageWebtoon)
}

// pageLayout returns the area an iw x ih page is fitted into and whether it
// is shown as a scrolling strip. A strip is only fitted to the width, and
// the decision uses the height after that fit, not the decoded height.
func pageLayout(iw, ih, aw, ah, screenH int, webtoonEnabled bool) (int, int, bool) {
	if webtoonEnabled {
		_, h := viewer.FitSize(iw, ih, aw, ih)
		if viewer.IsWebtoon(h, screenH) {
			return aw, ih, true
		}
	}
	return aw, ah, false
}

// resetPage forgets the rendered page so the next frame renders from
// scratch.
func (g *Game) resetPage() {
	if g.pageImage != nil {
		g.pageImage.Deallocate()
		g.pageImage = nil
	}
	g.pageIndex = -1
	g.pageWebtoon = false
	g.scroller.Reset()
	g.pageGuard.Done()
}

// OpenArchive replaces the archive being viewed. On failure the viewer is
// left without an archive and an overlay names the file.
func (g *Game) OpenArchive(path string) {
	err := g.controller.Open(path)
	g.archiveOpened(path, err)
}

func (g *Game) archiveOpened(path string, err error) {
	if err != nil && g.controller.Active() {
		// The previous archive could not be cleaned up and is still shown
		log.Printf("Error: %v", err)
		g.ShowOverlayMessage("Cannot close current archive")
		return
	}
	g.resetPage()
	if err != nil {
		log.Printf("Error: %v", err)
		g.ShowOverlayMessage("Failed to open " + filepath.Base(path))
		return
	}
	debugLog("Opened %s (%d pages)", path, g.GetTotalPagesCount())
	g.ShowOverlayMessage(filepath.Base(path))
}

func (g *Game) openSibling(dir viewer.Direction) {
	path, err := g.controller.OpenSibling(dir)
	if errors.Is(err, viewer.ErrNoSibling) {
		if dir == viewer.Forward {
			g.ShowOverlayMessage("Last archive")
		} else {
			g.ShowOverlayMessage("First archive")
		}
		return
	}
	if path == "" {
		log.Printf("Error: %v", err)
		g.ShowOverlayMessage("Cannot list archives")
		return
	}
	g.archiveOpened(path, err)
}

// handleDroppedFiles opens the first archive dropped on the window
func (g *Game) handleDroppedFiles() bool {
	dropped := ebiten.DroppedFiles()
	if dropped == nil {
		return false
	}
	path, ok := droppedArchivePath(dropped)
	if !ok {
		g.ShowOverlayMessage("Not a supported archive")
		return true
	}
	g.OpenArchive(path)
	return true
}

// droppedArchivePath returns the OS path of the first archive in dropped.
// Files that do not expose their path are skipped.
func droppedArchivePath(dropped fs.FS) (string, bool) {
	entries, err := fs.ReadDir(dropped, ".")
	if err != nil {
		log.Printf("Warning: Failed to read dropped files: %v", err)
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() || !archive.IsArchiveExt(entry.Name()) {
			continue
		}
		f, err := dropped.Open(entry.Name())
		if err != nil {
			continue
		}
		named, ok := f.(interface{ Name() string })
		_ = f.Close()
		if ok {
			return named.Name(), true
		}
	}
	return "", false
}

func (g *Game) titleText() string {
	if s := g.controller.Session(); s != nil {
		return windowTitle + " - " + filepath.Base(s.ArchivePath())
	}
	return windowTitle
}

func (g *Game) saveCurrentWindowSize() {
	if g.fullscreen {
		// Save the size from before fullscreen
		if g.savedWinW > 0 && g.savedWinH > 0 {
			g.config.WindowWidth = g.savedWinW
			g.config.WindowHeight = g.savedWinH
		}
	} else {
		w, h := ebiten.WindowSize()
		g.config.WindowWidth = w
		g.config.WindowHeight = h
	}
	g.config.Fullscreen = g.fullscreen
	config.SaveToPath(g.config, g.configPath)
}

// InputActions implementation

func (g *Game) Exit() {
	g.exiting = true
}

func (g *Game) ToggleInfo() {
	g.showInfo = !g.showInfo
}

func (g *Game) ToggleWebtoon() {
	g.webtoonEnabled = !g.webtoonEnabled
	g.scroller.Reset()
	if g.webtoonEnabled {
		g.ShowOverlayMessage("Webtoon mode: auto")
	} else {
		g.ShowOverlayMessage("Webtoon mode: off")
	}
}

func (g *Game) ToggleFullscreen() {
	g.fullscreen = !g.fullscreen
	if g.fullscreen {
		g.savedWinW, g.savedWinH = ebiten.WindowSize()
		ebiten.SetFullscreen(true)
	} else {
		ebiten.SetFullscreen(false)
		if g.savedWinW > 0 && g.savedWinH > 0 {
			ebiten.SetWindowSize(g.savedWinW, g.savedWinH)
		}
	}
}

func (g *Game) NavigateNext() {
	g.navigate(viewer.Forward)
}

func (g *Game) NavigatePrevious() {
	g.navigate(viewer.Backward)
}

func (g *Game) navigate(dir viewer.Direction) {
	if g.Advance(dir) {
		g.scroller.Reset()
		return
	}
	if dir == viewer.Forward {
		g.ShowOverlayMessage("Last page")
	} else {
		g.ShowOverlayMessage("First page")
	}
}

// JumpToPage moves to a one-based page number
func (g *Game) JumpToPage(page int) {
	nav := g.controller.Navigator()
	if nav == nil {
		return
	}
	if nav.SeekTo(page - 1) {
		g.scroller.Reset()
		debugLog("Jumped to [%d] %s", page, nav.CurrentPageName())
	}
}

// ScrollWheel turns pages in page mode and scrolls long strips in webtoon
// mode. Positive deltaY is the wheel moving away from the user.
func (g *Game) ScrollWheel(deltaY float64) {
	if !g.controller.Active() {
		return
	}

	if g.pageWebtoon {
		delta := int(math.Round(-deltaY * float64(g.config.ScrollStep)))
		if g.scroller.Scroll(delta) {
			debugLog("Webtoon scroll crossed a page boundary")
		}
		return
	}

	dir, ok := viewer.WheelDirection(deltaY)
	if !ok || !g.pageGuard.TryBegin() {
		return
	}
	if !g.Advance(dir) {
		g.pageGuard.Done()
		return
	}
	g.scroller.Reset()
}

func (g *Game) OpenNextArchive() {
	g.openSibling(viewer.Forward)
}

func (g *Game) OpenPreviousArchive() {
	g.openSibling(viewer.Backward)
}

// CycleSortMethod switches to the next page order. The choice is saved
// with the window size on exit.
func (g *Game) CycleSortMethod() {
	strategies := archive.GetAllSortStrategies()
	next := strategies[0]
	for i, strategy := range strategies {
		if strategy.ID() == g.config.SortMethod {
			next = strategies[(i+1)%len(strategies)]
			break
		}
	}
	g.config.SortMethod = next.ID()
	g.controller.SetSortMethod(next.ID())
	g.scroller.Reset()
	g.ShowOverlayMessage("Sort: " + next.Name())
}

func (g *Game) ShowOverlayMessage(message string) {
	g.overlayMessage = message
	g.overlayMessageTime = time.Now()
}

func (g *Game) GetCurrentIndex() int {
	if nav := g.controller.Navigator(); nav != nil {
		return nav.Index()
	}
	return 0
}

func (g *Game) GetTotalPagesCount() int {
	if nav := g.controller.Navigator(); nav != nil {
		return nav.PageCount()
	}
	return 0
}

// RenderState implementation

func (g *Game) IsFullscreen() bool               { return g.fullscreen }
func (g *Game) GetPageImage() *ebiten.Image      { return g.pageImage }
func (g *Game) IsWebtoonPage() bool              { return g.pageWebtoon }
func (g *Game) GetScrollOffset() int             { return g.scroller.Offset() }
func (g *Game) IsShowingInfo() bool              { return g.showInfo }
func (g *Game) GetOverlayMessage() string        { return g.overlayMessage }
func (g *Game) GetOverlayMessageTime() time.Time { return g.overlayMessageTime }
func (g *Game) GetFontSize() float64             { return defaultFontSize }

func (g *Game) GetCurrentPageName() string {
	if nav := g.controller.Navigator(); nav != nil {
		return nav.CurrentPageName()
	}
	return ""
}
