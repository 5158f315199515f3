package visualizer

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Palette names accepted by NewBarRenderer.
const (
	PaletteGradient = "gradient"
	PaletteHeat     = "heat"
	PaletteRainbow  = "rainbow"
)

var (
	Red  = color.RGBA{R: 255, A: 255}
	Blue = color.RGBA{B: 255, A: 255}
)

// Palettes lists the supported palette names.
func Palettes() []string {
	return []string{PaletteGradient, PaletteHeat, PaletteRainbow}
}

// ParseColor parses a "#rrggbb" hex string.
func ParseColor(code string) (color.RGBA, error) {
	code = strings.TrimSpace(code)
	if len(code) != 7 || code[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #rrggbb", code)
	}
	var nums [3]uint8
	for i := 1; i < 7; i += 2 {
		n, err := strconv.ParseUint(code[i:i+2], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", code, err)
		}
		nums[i/2] = uint8(n)
	}
	return color.RGBA{R: nums[0], G: nums[1], B: nums[2], A: 255}, nil
}

// paletteColors returns one color per bar.
func paletteColors(palette string, from, to color.RGBA, n int) ([]color.RGBA, error) {
	colors := make([]color.RGBA, n)
	for j := range colors {
		t := float64(j) / float64(n)
		switch palette {
		case "", PaletteGradient:
			colors[j] = lerpColor(from, to, t)
		case PaletteHeat:
			colors[j] = heatColor(t)
		case PaletteRainbow:
			colors[j] = rgbFromHSV(t*0.8, 0.9, 1)
		default:
			return nil, fmt.Errorf("unknown palette %q", palette)
		}
	}
	return colors, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: 255,
	}
}

func rgbFromHSV(h, s, v float64) color.RGBA {
	h = math.Mod(h, 1)
	if h < 0 {
		h += 1
	}
	s = clamp01(s)
	v = clamp01(v)
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}

func heatColor(t float64) color.RGBA {
	t = clamp01(t)
	switch {
	case t < 0.25:
		return lerpColor(color.RGBA{R: 16, G: 25, B: 70}, color.RGBA{R: 0, G: 174, B: 255}, t/0.25)
	case t < 0.5:
		return lerpColor(color.RGBA{R: 0, G: 174, B: 255}, color.RGBA{R: 20, G: 255, B: 161}, (t-0.25)/0.25)
	case t < 0.75:
		return lerpColor(color.RGBA{R: 20, G: 255, B: 161}, color.RGBA{R: 255, G: 230, B: 92}, (t-0.5)/0.25)
	default:
		return lerpColor(color.RGBA{R: 255, G: 230, B: 92}, color.RGBA{R: 255, G: 80, B: 60}, (t-0.75)/0.25)
	}
}
