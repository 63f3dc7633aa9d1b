package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/himanishpuri/PhonoScore/pkg/utils"
)

// Resample converts inputPath to mono 16-bit PCM at rate with ffmpeg. The
// result is written to outputDir as <stem>_<rate>Hz.wav.
func Resample(ctx context.Context, inputPath, outputDir string, rate int) (string, error) {
	if rate <= 0 {
		return "", fmt.Errorf("audio: invalid sample rate %d", rate)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	outputPath := filepath.Join(outputDir, fmt.Sprintf("%s_%dHz.wav", utils.Stem(inputPath), rate))
	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1", // mono
		"-ar", fmt.Sprintf("%d", rate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &DecodeError{Path: inputPath, Err: fmt.Errorf("ffmpeg failed: %v (%s)", err, out)}
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}
