package audio

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const probeTimeout = 5 * time.Second

// durationReport is the part of ffprobe's JSON output read here.
type durationReport struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// Duration returns the length of the recording at path in seconds. WAV
// headers are read directly; other formats go through ffprobe.
func Duration(ctx context.Context, path string) (float64, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if info, err := Probe(path); err == nil {
			return info.Seconds(), nil
		}
	}
	d, err := probeDuration(ctx, path)
	if err != nil {
		return 0, &DecodeError{Path: path, Err: err}
	}
	return d, nil
}

func probeDuration(ctx context.Context, path string) (float64, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, probeTimeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, err
	}
	return parseDuration(out)
}

// parseDuration reads the container duration from an ffprobe report that
// lists at least one audio stream.
func parseDuration(out []byte) (float64, error) {
	var rep durationReport
	if err := json.Unmarshal(out, &rep); err != nil {
		return 0, err
	}
	hasAudio := false
	for _, s := range rep.Streams {
		if s.CodecType == "audio" {
			hasAudio = true
			break
		}
	}
	if !hasAudio {
		return 0, errors.New("no audio stream found")
	}
	d, err := strconv.ParseFloat(rep.Format.Duration, 64)
	if err != nil {
		return 0, errors.New("ffprobe reported no duration")
	}
	return d, nil
}
