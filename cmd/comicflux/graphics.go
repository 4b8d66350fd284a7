package main

import (
	"bytes"
	"image/color"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	errorImageWidth  = 400
	errorImageHeight = 300
	errorFontSize    = 20.0
	borderWidth      = 3
)

var (
	errorBackground = color.RGBA{120, 30, 30, 255}
	colorWhite      = color.RGBA{255, 255, 255, 255}
)

// Font source shared by the renderer and error placeholders
var globalFontSource *text.GoTextFaceSource

// InitGraphics initializes the global font source for text rendering
func InitGraphics() error {
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return err
	}
	globalFontSource = s
	return nil
}

// DrawText draws text with specified position and color
func DrawText(screen *ebiten.Image, textString string, font *text.GoTextFace, x, y float64, textColor color.RGBA) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, textString, font, op)
}

// DrawFilledRect draws filled rectangles with float64 coordinates
func DrawFilledRect(screen *ebiten.Image, x, y, w, h float64, bgColor color.RGBA) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), bgColor, false)
}

func drawBorder(img *ebiten.Image, width, height int, c color.RGBA) {
	w, h, b := float64(width), float64(height), float64(borderWidth)
	DrawFilledRect(img, 0, 0, w, b, c)
	DrawFilledRect(img, 0, h-b, w, b, c)
	DrawFilledRect(img, 0, 0, b, h, c)
	DrawFilledRect(img, w-b, 0, b, h, c)
}

// truncateText shortens s to at most maxChars runes, marking the cut with "..."
func truncateText(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(maxChars, 0)])
	}
	return string(r[:maxChars-3]) + "..."
}

// CreateErrorImage creates a placeholder shown in place of a page that
// could not be decoded
func CreateErrorImage(width, height int, filename, errorMsg string) *ebiten.Image {
	if width <= 0 || height <= 0 {
		width, height = errorImageWidth, errorImageHeight
	}

	errorImg := ebiten.NewImage(width, height)
	errorImg.Fill(errorBackground)
	drawBorder(errorImg, width, height, colorWhite)

	// Without a font only the frame is drawn
	if globalFontSource == nil {
		return errorImg
	}

	errorFont := &text.GoTextFace{
		Source: globalFontSource,
		Size:   errorFontSize,
	}

	// Rough estimate: 10px per character
	maxChars := (width - 20) / 10
	lines := []string{
		"ERROR",
		truncateText("Page: "+filepath.Base(filename), maxChars),
		truncateText("Reason: "+errorMsg, maxChars),
	}
	for i, line := range lines {
		DrawText(errorImg, line, errorFont, 10, float64(10+30*i), colorWhite)
	}

	return errorImg
}
