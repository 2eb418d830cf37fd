package ffmpegio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/user/framesync/pkg/ports"
)

// Prober reads stream properties without decoding frames.
type Prober interface {
	Probe(ctx context.Context, path string) (ports.SourceProperties, error)
}

// FFprobe probes files with the ffprobe executable.
type FFprobe struct{}

// ffprobeOutput is the subset of `ffprobe -of json -show_streams` used here.
type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		NbReadFrames string `json:"nb_read_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// Probe implements Prober.
func (FFprobe) Probe(ctx context.Context, path string) (ports.SourceProperties, error) {
	out, err := runFFprobe(ctx, path, false)
	if err != nil {
		return ports.SourceProperties{}, err
	}
	return parseProbe(path, out)
}

// CountFrames decodes the first video stream and returns the exact number of frames.
func (FFprobe) CountFrames(ctx context.Context, path string) (int, error) {
	out, err := runFFprobe(ctx, path, true)
	if err != nil {
		return 0, err
	}
	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(parsed.Streams) == 0 {
		return 0, ErrNoVideoStream
	}
	n, err := strconv.Atoi(parsed.Streams[0].NbReadFrames)
	if err != nil {
		return 0, fmt.Errorf("parse nb_read_frames %q: %w", parsed.Streams[0].NbReadFrames, err)
	}
	return n, nil
}

func runFFprobe(ctx context.Context, path string, count bool) ([]byte, error) {
	ffprobe, err := FindFFprobe()
	if err != nil {
		return nil, err
	}

	args := []string{"-v", "error", "-select_streams", "v:0"}
	if count {
		args = append(args, "-count_frames")
	}
	args = append(args, "-show_streams", "-of", "json", path)

	cmd := exec.CommandContext(ctx, ffprobe, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w\n%s", path, err, stderr.String())
	}
	return out, nil
}

func parseProbe(path string, data []byte) (ports.SourceProperties, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return ports.SourceProperties{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	for _, s := range parsed.Streams {
		if s.CodecType != "" && s.CodecType != "video" {
			continue
		}
		fps, err := ParseRate(s.AvgFrameRate)
		if err != nil || fps == 0 {
			if fps, err = ParseRate(s.RFrameRate); err != nil {
				return ports.SourceProperties{}, fmt.Errorf("frame rate of %s: %w", path, err)
			}
		}
		props := ports.SourceProperties{
			Path:   path,
			FPS:    fps,
			Width:  s.Width,
			Height: s.Height,
			Codec:  s.CodecName,
		}
		if n, err := strconv.ParseFloat(s.NbFrames, 64); err == nil {
			props.FrameCount = n
		} else if d, err := strconv.ParseFloat(s.Duration, 64); err == nil {
			// Containers without a frame count: estimate like OpenCV does.
			props.FrameCount = float64(int(d*fps + 0.5))
		}
		return props, nil
	}
	return ports.SourceProperties{}, fmt.Errorf("%s: %w", path, ErrNoVideoStream)
}

// ParseRate parses an ffprobe rational such as "30000/1001" or "30".
func ParseRate(s string) (float64, error) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	if d == 0 {
		return 0, nil
	}
	return n / d, nil
}

// ChainProber tries each prober in order and returns the first success.
type ChainProber []Prober

// Probe implements Prober.
func (c ChainProber) Probe(ctx context.Context, path string) (ports.SourceProperties, error) {
	var errs []error
	for _, p := range c {
		props, err := p.Probe(ctx, path)
		if err == nil {
			return props, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return ports.SourceProperties{}, fmt.Errorf("no prober configured")
	}
	return ports.SourceProperties{}, errors.Join(errs...)
}
