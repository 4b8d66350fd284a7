package main

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// Background colors for semi-transparent overlays
var (
	bgColorLight = color.RGBA{0, 0, 0, 128}
	bgColorDark  = color.RGBA{0, 0, 0, 200}
)

// Renderer handles all drawing operations
type Renderer struct {
	renderState RenderState
}

// NewRenderer creates a new Renderer. InitGraphics must have been called.
func NewRenderer(renderState RenderState) *Renderer {
	return &Renderer{renderState: renderState}
}

// Draw renders the entire screen
func (r *Renderer) Draw(screen *ebiten.Image) {
	// Clear the screen since SetScreenClearedEveryFrame(false) is enabled
	screen.Clear()

	// Without a page only the overlay is drawn, e.g. after a failed open
	if img := r.renderState.GetPageImage(); img != nil {
		if r.renderState.IsWebtoonPage() {
			r.drawWebtoonPage(screen, img)
		} else {
			r.drawPageCentered(screen, img)
		}

		if r.renderState.IsShowingInfo() {
			r.drawInfoDisplay(screen)
		}
	}

	if r.renderState.GetOverlayMessage() != "" && time.Since(r.renderState.GetOverlayMessageTime()) < overlayMessageDuration {
		r.drawOverlayMessage(screen)
	}
}

// drawPageCentered draws an already scaled page in the middle of the screen
func (r *Renderer) drawPageCentered(screen *ebiten.Image, img *ebiten.Image) {
	iw, ih := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(w/2-iw/2, h/2-ih/2)
	screen.DrawImage(img, op)
}

// drawWebtoonPage draws a long strip horizontally centered, shifted up by
// the scroll offset
func (r *Renderer) drawWebtoonPage(screen *ebiten.Image, img *ebiten.Image) {
	iw := float64(img.Bounds().Dx())
	w := float64(screen.Bounds().Dx())

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(w/2-iw/2, -float64(r.renderState.GetScrollOffset()))
	screen.DrawImage(img, op)
}

func (r *Renderer) newFace() *text.GoTextFace {
	return &text.GoTextFace{
		Source: globalFontSource,
		Size:   r.renderState.GetFontSize(),
	}
}

func (r *Renderer) drawInfoDisplay(screen *ebiten.Image) {
	if globalFontSource == nil {
		return
	}
	infoFont := r.newFace()
	infoText := r.buildPageNumberString()

	textWidth, textHeight := text.Measure(infoText, infoFont, 0)

	// Position at bottom right corner
	padding := 10.0
	textX := float64(screen.Bounds().Dx()) - textWidth - padding
	textY := float64(screen.Bounds().Dy()) - textHeight - padding

	bgPadding := 5.0
	DrawFilledRect(screen, textX-bgPadding, textY-bgPadding, textWidth+bgPadding*2, textHeight+bgPadding*2, bgColorLight)
	DrawText(screen, infoText, infoFont, textX, textY, colorWhite)
}

func (r *Renderer) drawOverlayMessage(screen *ebiten.Image) {
	if globalFontSource == nil {
		return
	}
	messageFont := r.newFace()
	message := r.renderState.GetOverlayMessage()

	textWidth, textHeight := text.Measure(message, messageFont, 0)

	// Center of screen
	padding := 20.0
	boxWidth := textWidth + padding*2
	boxHeight := textHeight + padding*2
	boxX := (float64(screen.Bounds().Dx()) - boxWidth) / 2
	boxY := (float64(screen.Bounds().Dy()) - boxHeight) / 2

	DrawFilledRect(screen, boxX, boxY, boxWidth, boxHeight, bgColorDark)
	DrawText(screen, message, messageFont, boxX+padding, boxY+padding, colorWhite)
}

func (r *Renderer) buildPageNumberString() string {
	return formatPageInfo(r.renderState.GetCurrentIndex(), r.renderState.GetTotalPagesCount(), r.renderState.GetCurrentPageName())
}

// formatPageInfo builds the info bar text from a zero-based index
func formatPageInfo(index, total int, name string) string {
	if total == 0 {
		return "0 / 0"
	}
	if name == "" {
		return fmt.Sprintf("%d / %d", index+1, total)
	}
	return fmt.Sprintf("%d / %d  %s", index+1, total, name)
}
