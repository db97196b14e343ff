package tui

import (
	"image"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"

	"pointview/internal/render"
)

// pixels at or below this luminance stay dark; the renderer draws on black
const lumaThreshold = 48

// canvasCache keeps the last image scaled to the last canvas size, so
// redraws that do not change either skip the resampling.
type canvasCache struct {
	img    *render.Image
	w, h   int
	scaled *image.Gray
	ox, oy int
}

// render draws img as braille into a w×h cell canvas, with a small compass
// showing the camera rotation in the top-right corner.
func (c *canvasCache) render(img *render.Image, rotation float64, w, h int) string {
	br := newBrailleBuf(w, h)
	if img != nil && img.Decoded != nil {
		if c.img != img || c.w != w || c.h != h {
			c.img, c.w, c.h = img, w, h
			c.scaled, c.ox, c.oy = fitGray(img.Decoded, w*2, h*4)
		}
		br.plotGray(c.scaled, c.ox, c.oy, lumaThreshold)
	}
	drawCompass(br, rotation)

	lines := br.toLines()
	switch {
	case img == nil:
		lines[0] = overlay(lines[0], " render-image: waiting for first render ")
	case img.Fallback:
		lines[0] = overlay(lines[0], " render-image: placeholder ")
	}
	return canvasStyle.Render(strings.Join(lines, "\n"))
}

// fitGray scales src into a grayscale image that fits w×h micro-pixels while
// keeping the aspect ratio, and returns the offsets that center it.
func fitGray(src image.Image, w, h int) (*image.Gray, int, int) {
	sb := src.Bounds()
	if sb.Empty() || w <= 0 || h <= 0 {
		return image.NewGray(image.Rect(0, 0, 0, 0)), 0, 0
	}
	scale := math.Min(float64(w)/float64(sb.Dx()), float64(h)/float64(sb.Dy()))
	dw := max(1, int(float64(sb.Dx())*scale))
	dh := max(1, int(float64(sb.Dy())*scale))
	dst := image.NewGray(image.Rect(0, 0, dw, dh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, sb, xdraw.Src, nil)
	return dst, (w - dw) / 2, (h - dh) / 2
}

// drawCompass draws a needle pointing along the rotation angle.
func drawCompass(br *brailleBuf, rotation float64) {
	const r = 6
	if br.w < 12 || br.h < 4 {
		return
	}
	cx := br.w*2 - r - 2
	cy := r + 1
	tx := cx + int(math.Round(r*math.Cos(rotation)))
	ty := cy - int(math.Round(r*math.Sin(rotation)))
	br.drawLineMicro(cx, cy, tx, ty)
	br.setPixel(cx-1, cy)
	br.setPixel(cx+1, cy)
	br.setPixel(cx, cy-1)
	br.setPixel(cx, cy+1)
}

// overlay writes text over the start of line.
func overlay(line, text string) string {
	r := []rune(line)
	t := []rune(text)
	for i := 0; i < len(t) && i < len(r); i++ {
		r[i] = t[i]
	}
	return string(r)
}
