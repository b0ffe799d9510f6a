package render

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB stores explicit 8-bit color channels
type RGB struct {
	R, G, B uint8
}

// Predefined colors
var (
	RGBBlack = RGB{0, 0, 0}
	RGBWhite = RGB{255, 255, 255}
)

// ParseHex reads #rgb or #rrggbb
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, err
	}
	return fromColorful(c), nil
}

// ParseColor reads a hex color, returning fallback when s is empty or malformed
func ParseColor(s string, fallback RGB) RGB {
	if s == "" {
		return fallback
	}
	c, err := ParseHex(s)
	if err != nil {
		return fallback
	}
	return c
}

// FromColor converts any image color, dropping alpha
func FromColor(c color.Color) RGB {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return RGBBlack
	}
	return fromColorful(cf)
}

func fromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{r, g, b}
}

func (c RGB) toColorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Hex formats as #rrggbb
func (c RGB) Hex() string {
	return c.toColorful().Hex()
}

// NRGBA attaches an alpha channel
func (c RGB) NRGBA(a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

// Lerp mixes toward to in Lab space, t=0 returns c
func (c RGB) Lerp(to RGB, t float64) RGB {
	if t <= 0 {
		return c
	}
	if t >= 1 {
		return to
	}
	return fromColorful(c.toColorful().BlendLab(to.toColorful(), t))
}

// Shade scales lightness, factor<1 darkens
func (c RGB) Shade(factor float64) RGB {
	h, s, l := c.toColorful().Hsl()
	l *= factor
	if l > 1 {
		l = 1
	}
	if l < 0 {
		l = 0
	}
	return fromColorful(colorful.Hsl(h, s, l))
}

// Scale multiplies each channel, used for light accumulation
func (c RGB) Scale(f float64) RGB {
	return RGB{clamp(float64(c.R) * f), clamp(float64(c.G) * f), clamp(float64(c.B) * f)}
}

// Blend performs alpha blending: result = src*alpha + dst*(1-alpha)
func (dst RGB) Blend(src RGB, alpha float64) RGB {
	if alpha <= 0 {
		return dst
	}
	if alpha >= 1 {
		return src
	}
	inv := 1.0 - alpha
	return RGB{
		R: uint8(float64(src.R)*alpha + float64(dst.R)*inv),
		G: uint8(float64(src.G)*alpha + float64(dst.G)*inv),
		B: uint8(float64(src.B)*alpha + float64(dst.B)*inv),
	}
}

// Max returns per-channel maximum
func (dst RGB) Max(src RGB) RGB {
	return RGB{
		R: max(dst.R, src.R),
		G: max(dst.G, src.G),
		B: max(dst.B, src.B),
	}
}

// Add performs additive blend with clamping
func (dst RGB) Add(src RGB) RGB {
	return RGB{
		R: clamp(float64(dst.R) + float64(src.R)),
		G: clamp(float64(dst.G) + float64(src.G)),
		B: clamp(float64(dst.B) + float64(src.B)),
	}
}

// Screen brightens: 1-(1-a)(1-b)
func (dst RGB) Screen(src RGB) RGB {
	ch := func(a, b uint8) uint8 {
		return 255 - uint8((int(255-a)*int(255-b))/255)
	}
	return RGB{ch(dst.R, src.R), ch(dst.G, src.G), ch(dst.B, src.B)}
}

func clamp(v float64) uint8 {
	if v >= 255.0 {
		return 255
	}
	if v <= 0.0 {
		return 0
	}
	return uint8(v + 0.5)
}
