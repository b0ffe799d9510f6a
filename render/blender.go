package render

// BlendMode selects how a draw command composites onto what lies beneath
type BlendMode uint8

const (
	BlendAlpha BlendMode = iota
	BlendReplace
	BlendAdd
	BlendMax
	BlendScreen
)

// Apply composites src over dst at the given opacity
func (m BlendMode) Apply(dst, src RGB, alpha float64) RGB {
	if alpha <= 0 {
		return dst
	}
	switch m {
	case BlendReplace:
		return src
	case BlendAdd:
		return dst.Add(src.Scale(min(alpha, 1)))
	case BlendMax:
		return dst.Blend(dst.Max(src), alpha)
	case BlendScreen:
		return dst.Blend(dst.Screen(src), alpha)
	default:
		return dst.Blend(src, alpha)
	}
}
