package config

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/olivier-w/barviz/internal/visualizer"
)

// Config holds every tunable of a render. Defaults come from Default, then
// BARVIZ_* environment variables, then command-line flags.
type Config struct {
	// Analysis
	RefreshPeriod  float64 // seconds between spectral frames
	WindowSpan     float64 // analysis window in refresh periods
	FrequencyRatio float64 // lowest fraction of the spectrum kept
	Engine         string  // dsp or gonum
	Workers        int

	// Rendering
	Bars         int
	Width        int
	Height       int
	FromColor    string // #rrggbb
	ToColor      string
	Palette      string
	CornerRadius float64
	Smooth       bool // spring-smooth heights between ticks

	// Capture
	TickRate float64 // live capture ticks per second
	Live     bool    // play audio aloud and follow the real playback clock
	Spool    bool    // write frames to disk as they are captured

	// Output
	OutDir   string
	LogLevel string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RefreshPeriod:  0.03,
		WindowSpan:     3,
		FrequencyRatio: 0.2,
		Engine:         visualizer.EngineDSP,
		Workers:        runtime.NumCPU(),

		Bars:         100,
		Width:        1920,
		Height:       1080,
		FromColor:    "#ff0000",
		ToColor:      "#0000ff",
		Palette:      visualizer.PaletteGradient,
		CornerRadius: 30,

		TickRate: 80,
		Spool:    true,

		OutDir:   ".",
		LogLevel: "info",
	}
}

// Load returns Default overridden by environment variables.
func Load() Config {
	d := Default()
	return Config{
		RefreshPeriod:  envFloat("BARVIZ_REFRESH_PERIOD", d.RefreshPeriod),
		WindowSpan:     envFloat("BARVIZ_WINDOW_SPAN", d.WindowSpan),
		FrequencyRatio: envFloat("BARVIZ_FREQUENCY_RATIO", d.FrequencyRatio),
		Engine:         envStr("BARVIZ_ENGINE", d.Engine),
		Workers:        envInt("BARVIZ_WORKERS", d.Workers),

		Bars:         envInt("BARVIZ_BARS", d.Bars),
		Width:        envInt("BARVIZ_WIDTH", d.Width),
		Height:       envInt("BARVIZ_HEIGHT", d.Height),
		FromColor:    envStr("BARVIZ_FROM_COLOR", d.FromColor),
		ToColor:      envStr("BARVIZ_TO_COLOR", d.ToColor),
		Palette:      envStr("BARVIZ_PALETTE", d.Palette),
		CornerRadius: envFloat("BARVIZ_CORNER_RADIUS", d.CornerRadius),
		Smooth:       envBool("BARVIZ_SMOOTH", d.Smooth),

		TickRate: envFloat("BARVIZ_TICK_RATE", d.TickRate),
		Live:     envBool("BARVIZ_LIVE", d.Live),
		Spool:    envBool("BARVIZ_SPOOL", d.Spool),

		OutDir:   envStr("BARVIZ_OUT_DIR", d.OutDir),
		LogLevel: envStr("BARVIZ_LOG_LEVEL", d.LogLevel),
	}
}

// RegisterFlags binds every field to a flag on fs, using the current values
// as defaults so flags override the environment.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.RefreshPeriod, "refresh-period", c.RefreshPeriod, "seconds between spectral frames")
	fs.Float64Var(&c.WindowSpan, "window-span", c.WindowSpan, "analysis window length in refresh periods")
	fs.Float64Var(&c.FrequencyRatio, "frequency-ratio", c.FrequencyRatio, "fraction of the spectrum shown, lowest bins first")
	fs.StringVar(&c.Engine, "engine", c.Engine, "FFT engine: dsp or gonum")
	fs.IntVar(&c.Workers, "workers", c.Workers, "parallel analysis and encoding workers")

	fs.IntVar(&c.Bars, "bars", c.Bars, "number of bars")
	fs.IntVar(&c.Width, "width", c.Width, "video width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "video height in pixels")
	fs.StringVar(&c.FromColor, "from", c.FromColor, "color of the lowest-frequency bar (#rrggbb)")
	fs.StringVar(&c.ToColor, "to", c.ToColor, "color of the highest-frequency bar (#rrggbb)")
	fs.StringVar(&c.Palette, "palette", c.Palette, "bar palette: gradient, heat or rainbow")
	fs.Float64Var(&c.CornerRadius, "corner-radius", c.CornerRadius, "bar corner radius in pixels")
	fs.BoolVar(&c.Smooth, "smooth", c.Smooth, "spring-smooth bar heights between frames")

	fs.Float64Var(&c.TickRate, "tick-rate", c.TickRate, "capture ticks per second in live mode")
	fs.BoolVar(&c.Live, "live", c.Live, "play the audio while capturing")
	fs.BoolVar(&c.Spool, "spool", c.Spool, "write frames to disk as they are captured")

	fs.StringVar(&c.OutDir, "out", c.OutDir, "output directory")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if !(c.RefreshPeriod > 0) {
		errs = append(errs, fmt.Errorf("refresh period must be positive, got %v", c.RefreshPeriod))
	}
	if !(c.WindowSpan > 0) {
		errs = append(errs, fmt.Errorf("window span must be positive, got %v", c.WindowSpan))
	}
	if !(c.FrequencyRatio > 0 && c.FrequencyRatio <= 1) {
		errs = append(errs, fmt.Errorf("frequency ratio must be in (0, 1], got %v", c.FrequencyRatio))
	}
	if _, err := visualizer.NewEngine(c.Engine); err != nil {
		errs = append(errs, err)
	}
	if c.Bars < 1 {
		errs = append(errs, fmt.Errorf("bar count must be positive, got %d", c.Bars))
	}
	if c.Width < 1 || c.Height < 1 {
		errs = append(errs, fmt.Errorf("invalid canvas %dx%d", c.Width, c.Height))
	}
	if _, err := ParseColor(c.FromColor); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseColor(c.ToColor); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(visualizer.Palettes(), c.Palette) {
		errs = append(errs, fmt.Errorf("unknown palette %q", c.Palette))
	}
	if c.CornerRadius < 0 {
		errs = append(errs, fmt.Errorf("corner radius must not be negative, got %v", c.CornerRadius))
	}
	if !(c.TickRate > 0) {
		errs = append(errs, fmt.Errorf("tick rate must be positive, got %v", c.TickRate))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseColor parses a #rrggbb color.
func ParseColor(code string) (color.RGBA, error) {
	return visualizer.ParseColor(code)
}

// TickPeriod returns the live capture tick interval.
func (c Config) TickPeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}

// BuildOptions returns the spectral analysis options.
func (c Config) BuildOptions() (visualizer.BuildOptions, error) {
	engine, err := visualizer.NewEngine(c.Engine)
	if err != nil {
		return visualizer.BuildOptions{}, err
	}
	return visualizer.BuildOptions{
		RefreshPeriod:  c.RefreshPeriod,
		WindowSpan:     c.WindowSpan,
		FrequencyRatio: c.FrequencyRatio,
		Engine:         engine,
		Workers:        c.Workers,
	}, nil
}

// BarOptions returns renderer options normalized against globalMax.
func (c Config) BarOptions(globalMax float64) (visualizer.BarOptions, error) {
	from, err := ParseColor(c.FromColor)
	if err != nil {
		return visualizer.BarOptions{}, err
	}
	to, err := ParseColor(c.ToColor)
	if err != nil {
		return visualizer.BarOptions{}, err
	}
	opts := visualizer.DefaultBarOptions(globalMax)
	opts.Bars = c.Bars
	opts.Width = c.Width
	opts.Height = c.Height
	opts.From = from
	opts.To = to
	opts.Palette = c.Palette
	opts.CornerRadius = c.CornerRadius
	return opts, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
