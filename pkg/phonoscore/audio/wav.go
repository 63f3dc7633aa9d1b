// Package audio decodes, resamples, cuts and exports the WAV recordings
// that accompany annotation documents.
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/PhonoScore/pkg/utils"
)

const pcmFormat = 1

// DecodeError reports a file that could not be read as PCM WAV.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("audio: decode %s: %v", e.Path, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// ExportError reports a clip that could not be written.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string { return fmt.Sprintf("audio: export %s: %v", e.Path, e.Err) }

func (e *ExportError) Unwrap() error { return e.Err }

// Info describes a WAV file without decoding its samples.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// Seconds returns the duration in seconds.
func (i Info) Seconds() float64 { return i.Duration.Seconds() }

// Probe reads the header of the WAV file at path.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, &DecodeError{Path: path, Err: fmt.Errorf("not a valid WAV file")}
	}
	// The RIFF size also counts the header chunks, so measure the data chunk.
	if err := dec.FwdToPCM(); err != nil {
		return Info{}, &DecodeError{Path: path, Err: err}
	}
	if err := dec.Err(); err != nil {
		return Info{}, &DecodeError{Path: path, Err: err}
	}
	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	frameSize := int64(info.Channels * ((info.BitDepth + 7) / 8))
	if info.SampleRate == 0 || frameSize == 0 {
		return Info{}, &DecodeError{Path: path, Err: fmt.Errorf("invalid format %d Hz, %d ch, %d bit", info.SampleRate, info.Channels, info.BitDepth)}
	}
	frames := dec.PCMLen() / frameSize
	info.Duration = time.Duration(frames) * time.Second / time.Duration(info.SampleRate)
	return info, nil
}

// Decode reads every sample of the WAV file at path.
func Decode(path string) (*audio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("not a valid WAV file")}
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if buf.SourceBitDepth == 0 {
		buf.SourceBitDepth = int(dec.BitDepth)
	}
	return buf, nil
}

// Load returns the recording at path as mono samples at rate. Files that
// are already mono at rate are decoded directly; anything else is first
// converted with ffmpeg into tempDir.
func Load(ctx context.Context, path string, rate int, tempDir string) (*audio.IntBuffer, string, error) {
	info, err := Probe(path)
	if err == nil && info.Channels == 1 && info.SampleRate == rate {
		buf, err := Decode(path)
		return buf, path, err
	}

	converted, err := Resample(ctx, path, tempDir, rate)
	if err != nil {
		return nil, "", err
	}
	buf, err := Decode(converted)
	return buf, converted, err
}

// Export writes buf to path as PCM WAV, creating parent directories.
func Export(buf *audio.IntBuffer, path string) error {
	if buf == nil || buf.Format == nil {
		return &ExportError{Path: path, Err: fmt.Errorf("buffer has no format")}
	}
	if err := utils.MakeDir(filepath.Dir(path)); err != nil {
		return &ExportError{Path: path, Err: err}
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &ExportError{Path: path, Err: err}
	}
	defer os.Remove(tmp)

	enc := wav.NewEncoder(f, buf.Format.SampleRate, depth, buf.Format.NumChannels, pcmFormat)
	if err := enc.Write(buf); err != nil {
		f.Close()
		return &ExportError{Path: path, Err: err}
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return &ExportError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	if err := utils.MoveFile(tmp, path); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	return nil
}

// Frames returns the number of frames (samples per channel) in buf.
func Frames(buf *audio.IntBuffer) int {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels == 0 {
		return 0
	}
	return len(buf.Data) / buf.Format.NumChannels
}

// Seconds returns the playing time of buf.
func Seconds(buf *audio.IntBuffer) float64 {
	if buf == nil || buf.Format == nil || buf.Format.SampleRate == 0 {
		return 0
	}
	return float64(Frames(buf)) / float64(buf.Format.SampleRate)
}
