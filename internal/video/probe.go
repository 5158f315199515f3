package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Probe holds what ffprobe reports about a written video.
type Probe struct {
	Width    int
	Height   int
	FPS      float64
	Frames   int
	Duration time.Duration
	HasVideo bool
	HasAudio bool
}

type ffprobeResult struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"` // e.g. "30/1" or "24000/1001"
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

var (
	ffprobeLookPath = exec.LookPath
	ffprobeOutput   = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = nil
		return cmd.Output()
	}
)

// ProbeMedia runs ffprobe on path.
func ProbeMedia(ctx context.Context, path string) (Probe, error) {
	ffprobe, err := ffprobeLookPath("ffprobe")
	if err != nil {
		return Probe{}, fmt.Errorf("ffprobe not found")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	output, err := ffprobeOutput(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	if err != nil {
		return Probe{}, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (Probe, error) {
	var result ffprobeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return Probe{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	durSec, _ := strconv.ParseFloat(result.Format.Duration, 64)
	p := Probe{Duration: time.Duration(durSec * float64(time.Second))}

	for _, s := range result.Streams {
		switch s.CodecType {
		case "audio":
			p.HasAudio = true
		case "video":
			if p.HasVideo {
				continue
			}
			p.HasVideo = true
			p.Width = s.Width
			p.Height = s.Height
			p.FPS = parseFraction(s.AvgFrameRate)
			if p.FPS <= 0 {
				p.FPS = parseFraction(s.RFrameRate)
			}
			p.Frames, _ = strconv.Atoi(s.NbFrames)
		}
	}
	return p, nil
}

// parseFraction parses "num/den" or a plain number.
func parseFraction(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
