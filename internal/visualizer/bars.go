package visualizer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// RenderedFrame is one captured image. Image is nil once the pixels have
// been spooled to Path.
type RenderedFrame struct {
	Index    int // capture ordinal
	Spectral int // index of the spectral frame shown
	Image    *image.RGBA
	Path     string
}

// Release drops the pixel buffer after the frame has been written to disk.
func (f *RenderedFrame) Release() {
	if f.Path != "" {
		f.Image = nil
	}
}

// BarOptions configures a BarRenderer.
type BarOptions struct {
	Bars         int
	Width        int
	Height       int
	GlobalMax    float64 // normalization reference, fixed for the whole video
	From         color.RGBA
	To           color.RGBA
	Palette      string
	CornerRadius float64
	Gap          float64 // horizontal pixels left empty between bars
}

// DefaultBarOptions returns 100 red-to-blue bars on a 1920x1080 canvas.
func DefaultBarOptions(globalMax float64) BarOptions {
	return BarOptions{
		Bars:         100,
		Width:        1920,
		Height:       1080,
		GlobalMax:    globalMax,
		From:         Red,
		To:           Blue,
		Palette:      PaletteGradient,
		CornerRadius: 30,
		Gap:          1,
	}
}

// BarRenderer maps spectral frames to bar images. It holds no per-frame
// state, so Render may be called from several goroutines.
type BarRenderer struct {
	opts   BarOptions
	colors []color.RGBA
	slot   float64
}

// NewBarRenderer validates opts and precomputes the bar colors.
func NewBarRenderer(opts BarOptions) (*BarRenderer, error) {
	if opts.Bars < 1 {
		return nil, fmt.Errorf("bar count must be positive, got %d", opts.Bars)
	}
	if opts.Width < 1 || opts.Height < 1 {
		return nil, fmt.Errorf("invalid canvas %dx%d", opts.Width, opts.Height)
	}
	if opts.GlobalMax < 0 || math.IsNaN(opts.GlobalMax) || math.IsInf(opts.GlobalMax, 0) {
		return nil, errors.New("global max must be a finite non-negative number")
	}
	colors, err := paletteColors(opts.Palette, opts.From, opts.To, opts.Bars)
	if err != nil {
		return nil, err
	}
	return &BarRenderer{
		opts:   opts,
		colors: colors,
		slot:   float64(opts.Width) / float64(opts.Bars),
	}, nil
}

// Options returns the renderer configuration.
func (r *BarRenderer) Options() BarOptions { return r.opts }

// Color returns the fill color of bar j.
func (r *BarRenderer) Color(j int) color.RGBA { return r.colors[j] }

// Heights returns the compressed height of each bar for frame. Bar j covers
// magnitudes [floor(L*j/N), floor(L*(j+1)/N)) and takes their peak.
func (r *BarRenderer) Heights(frame *SpectralFrame) []float64 {
	n := r.opts.Bars
	h := float64(r.opts.Height)
	heights := make([]float64, n)
	if frame == nil || r.opts.GlobalMax == 0 {
		return heights
	}

	length := len(frame.Magnitudes)
	for j := range heights {
		lo := length * j / n
		hi := length * (j + 1) / n
		peak := 0.0
		for _, m := range frame.Magnitudes[lo:hi] {
			if m > peak {
				peak = m
			}
		}
		heights[j] = Compress(peak/r.opts.GlobalMax*h, h)
	}
	return heights
}

// Compress maps a normalized height n in [0, h] through n*(1-sqrt(n/h))*3.
// The curve peaks at n = 4h/9 and is held there beyond it so that louder
// never draws shorter.
func Compress(n, h float64) float64 {
	if !(h > 0) || !(n > 0) {
		return 0
	}
	knee := 4 * h / 9
	if n >= knee {
		return knee
	}
	v := n * (1 - math.Sqrt(n/h)) * 3
	return math.Min(math.Max(v, 0), h)
}

// Render draws frame as capture ordinal index.
func (r *BarRenderer) Render(frame *SpectralFrame, index int) *RenderedFrame {
	return r.Draw(r.Heights(frame), index)
}

// Draw paints bars of the given heights on a black canvas. Bars are
// centered vertically and drawn twice their height, never thinner than
// the canvas width divided by the bar count.
func (r *BarRenderer) Draw(heights []float64, index int) *RenderedFrame {
	w, h := r.opts.Width, r.opts.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	dc := gg.NewContextForRGBA(img)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	gap := r.opts.Gap
	if r.slot-gap < 1 {
		gap = 0
	}
	barW := r.slot - gap

	n := min(len(heights), r.opts.Bars)
	for j := 0; j < n; j++ {
		drawn := math.Min(math.Max(heights[j]*2, r.slot), float64(h))
		x := float64(j)*r.slot + gap/2
		y := (float64(h) - drawn) / 2
		radius := math.Min(r.opts.CornerRadius, math.Min(barW, drawn)/2)

		dc.SetColor(r.colors[j])
		if radius > 0 {
			dc.DrawRoundedRectangle(x, y, barW, drawn, radius)
		} else {
			dc.DrawRectangle(x, y, barW, drawn)
		}
		dc.Fill()
	}

	return &RenderedFrame{Index: index, Image: img}
}
