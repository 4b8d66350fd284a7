package viewer

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// AvailableArea returns the viewport size minus margin on each axis, never
// less than one pixel.
func AvailableArea(viewportWidth, viewportHeight, margin int) (int, int) {
	return max(viewportWidth-margin, 1), max(viewportHeight-margin, 1)
}

// FitSize returns the size an iw x ih image is drawn at inside an aw x ah
// area. Images that already fit keep their size; larger ones shrink with
// their aspect ratio preserved until the binding dimension matches exactly.
func FitSize(iw, ih, aw, ah int) (int, int) {
	aw, ah = max(aw, 1), max(ah, 1)
	if iw <= 0 || ih <= 0 || (iw <= aw && ih <= ah) {
		return iw, ih
	}

	// Compare iw/aw against ih/ah without floating point.
	if int64(iw)*int64(ah) >= int64(ih)*int64(aw) {
		h := int(math.Round(float64(ih) * float64(aw) / float64(iw)))
		return aw, min(max(h, 1), ah)
	}
	w := int(math.Round(float64(iw) * float64(ah) / float64(ih)))
	return min(max(w, 1), aw), ah
}

// ScaleToFit returns img unchanged when it fits inside the available area
// and a bilinear-resampled copy otherwise. It never upscales.
func ScaleToFit(img image.Image, availableWidth, availableHeight int) image.Image {
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), availableWidth, availableHeight)
	if w == b.Dx() && h == b.Dy() {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
