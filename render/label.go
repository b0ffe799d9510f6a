package render

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const labelPad = 2

// LabelSize returns the pixel size of a rendered label
func LabelSize(text string) (w, h int) {
	face := basicfont.Face7x13
	adv := font.MeasureString(face, text)
	m := face.Metrics()
	return adv.Ceil() + 2*labelPad, (m.Ascent + m.Descent).Ceil() + 2*labelPad
}

// Label renders text into a fresh RGBA texture on a translucent backing
func Label(text string, fg, bg RGB, bgAlpha uint8) *image.RGBA {
	w, h := LabelSize(text)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if bgAlpha > 0 {
		draw.Draw(img, img.Bounds(), image.NewUniform(bg.NRGBA(bgAlpha)), image.Point{}, draw.Src)
	}
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg.NRGBA(255)),
		Face: face,
		Dot:  fixed.P(labelPad, labelPad+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
	return img
}
