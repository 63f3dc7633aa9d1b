package phonoscore

import (
	"context"

	goaudio "github.com/go-audio/audio"

	"github.com/himanishpuri/PhonoScore/pkg/annotation"
	"github.com/himanishpuri/PhonoScore/pkg/annotation/textgrid"
	"github.com/himanishpuri/PhonoScore/pkg/phonoscore/audio"
	"github.com/himanishpuri/PhonoScore/pkg/scoring"
)

type Storage interface {
	CreateRun(info RunInfo) (string, error)
	StoreScores(runID string, records []scoring.ScoreRecord) error
	StoreFailures(runID string, failures []Failure) error
	FinishRun(runID string, clips, failures int) error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// AnnotationIO reads and writes annotation documents.
type AnnotationIO interface {
	Read(path string) (*annotation.Document, error)
	Write(doc *annotation.Document, path string) error
}

// AudioIO loads recordings and exports clips.
type AudioIO interface {
	Load(ctx context.Context, path string, rate int, tempDir string) (*goaudio.IntBuffer, error)
	Export(buf *goaudio.IntBuffer, path string) error
}

// TextGridIO is the Praat TextGrid implementation of AnnotationIO.
type TextGridIO struct {
	// SkipEmpty drops empty-label intervals while reading.
	SkipEmpty bool
}

func (t TextGridIO) Read(path string) (*annotation.Document, error) {
	if t.SkipEmpty {
		return textgrid.Read(path, textgrid.WithoutEmptyIntervals())
	}
	return textgrid.Read(path)
}

func (TextGridIO) Write(doc *annotation.Document, path string) error {
	return textgrid.Write(doc, path)
}

// WAVIO is the default AudioIO.
type WAVIO struct{}

func (WAVIO) Load(ctx context.Context, path string, rate int, tempDir string) (*goaudio.IntBuffer, error) {
	buf, _, err := audio.Load(ctx, path, rate, tempDir)
	return buf, err
}

func (WAVIO) Export(buf *goaudio.IntBuffer, path string) error {
	return audio.Export(buf, path)
}
