package config

import (
	"flag"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"BARVIZ_REFRESH_PERIOD", "BARVIZ_WINDOW_SPAN", "BARVIZ_FREQUENCY_RATIO",
	"BARVIZ_ENGINE", "BARVIZ_WORKERS", "BARVIZ_BARS", "BARVIZ_WIDTH",
	"BARVIZ_HEIGHT", "BARVIZ_FROM_COLOR", "BARVIZ_TO_COLOR", "BARVIZ_PALETTE",
	"BARVIZ_CORNER_RADIUS", "BARVIZ_SMOOTH", "BARVIZ_TICK_RATE", "BARVIZ_LIVE",
	"BARVIZ_SPOOL", "BARVIZ_OUT_DIR", "BARVIZ_LOG_LEVEL",
}

func clearEnv() {
	for _, k := range envVars {
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv()

	cfg := Load()

	if cfg.RefreshPeriod != 0.03 {
		t.Errorf("RefreshPeriod = %v, want 0.03", cfg.RefreshPeriod)
	}
	if cfg.WindowSpan != 3 {
		t.Errorf("WindowSpan = %v, want 3", cfg.WindowSpan)
	}
	if cfg.FrequencyRatio != 0.2 {
		t.Errorf("FrequencyRatio = %v, want 0.2", cfg.FrequencyRatio)
	}
	if cfg.Bars != 100 {
		t.Errorf("Bars = %d, want 100", cfg.Bars)
	}
	if cfg.Width != 1920 || cfg.Height != 1080 {
		t.Errorf("canvas = %dx%d, want 1920x1080", cfg.Width, cfg.Height)
	}
	if cfg.TickRate != 80 {
		t.Errorf("TickRate = %v, want 80", cfg.TickRate)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want NumCPU", cfg.Workers)
	}
	if cfg.FromColor != "#ff0000" || cfg.ToColor != "#0000ff" {
		t.Errorf("colors = %s -> %s, want red -> blue", cfg.FromColor, cfg.ToColor)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv()
	t.Setenv("BARVIZ_REFRESH_PERIOD", "0.05")
	t.Setenv("BARVIZ_BARS", "64")
	t.Setenv("BARVIZ_ENGINE", "gonum")
	t.Setenv("BARVIZ_LIVE", "true")
	t.Setenv("BARVIZ_OUT_DIR", "/tmp/videos")
	t.Setenv("BARVIZ_WIDTH", "not-a-number")

	cfg := Load()

	if cfg.RefreshPeriod != 0.05 {
		t.Errorf("RefreshPeriod = %v, want 0.05", cfg.RefreshPeriod)
	}
	if cfg.Bars != 64 {
		t.Errorf("Bars = %d, want 64", cfg.Bars)
	}
	if cfg.Engine != "gonum" {
		t.Errorf("Engine = %q, want gonum", cfg.Engine)
	}
	if !cfg.Live {
		t.Error("Live = false, want true")
	}
	if cfg.OutDir != "/tmp/videos" {
		t.Errorf("OutDir = %q", cfg.OutDir)
	}
	if cfg.Width != 1920 {
		t.Errorf("Width = %d, want fallback 1920 for unparsable value", cfg.Width)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	clearEnv()
	t.Setenv("BARVIZ_BARS", "64")
	cfg := Load()

	fs := flag.NewFlagSet("barviz", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse([]string{"-bars", "32", "-window-span", "2", "-palette", "heat"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Bars != 32 {
		t.Errorf("Bars = %d, want flag value 32", cfg.Bars)
	}
	if cfg.WindowSpan != 2 {
		t.Errorf("WindowSpan = %v, want 2", cfg.WindowSpan)
	}
	if cfg.Palette != "heat" {
		t.Errorf("Palette = %q, want heat", cfg.Palette)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"period", func(c *Config) { c.RefreshPeriod = 0 }, "refresh period"},
		{"span", func(c *Config) { c.WindowSpan = -1 }, "window span"},
		{"ratio", func(c *Config) { c.FrequencyRatio = 1.5 }, "frequency ratio"},
		{"engine", func(c *Config) { c.Engine = "fftw" }, "FFT engine"},
		{"bars", func(c *Config) { c.Bars = 0 }, "bar count"},
		{"canvas", func(c *Config) { c.Height = 0 }, "canvas"},
		{"color", func(c *Config) { c.FromColor = "red" }, "invalid color"},
		{"palette", func(c *Config) { c.Palette = "sepia" }, "palette"},
		{"tick", func(c *Config) { c.TickRate = 0 }, "tick rate"},
		{"level", func(c *Config) { c.LogLevel = "loud" }, "level"},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: Validate() = %v, want error containing %q", tt.name, err, tt.want)
		}
	}
}

func TestDerivedOptions(t *testing.T) {
	cfg := Default()
	cfg.Bars = 10
	cfg.FromColor = "#00ff00"

	bo, err := cfg.BuildOptions()
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	if bo.RefreshPeriod != 0.03 || bo.WindowSpan != 3 || bo.Engine == nil {
		t.Errorf("BuildOptions() = %+v", bo)
	}

	ro, err := cfg.BarOptions(5)
	if err != nil {
		t.Fatalf("BarOptions() error = %v", err)
	}
	if ro.Bars != 10 || ro.GlobalMax != 5 || ro.From.G != 255 || ro.To.B != 255 {
		t.Errorf("BarOptions() = %+v", ro)
	}

	if got := cfg.TickPeriod(); got != 12500*time.Microsecond {
		t.Errorf("TickPeriod() = %v, want 12.5ms", got)
	}
}
