// Package phonoscore prepares annotated child-speech recordings for
// transcription scoring and scores clip-level predictions.
//
// Prepare crops one long TextGrid into per-word clips and cuts the matching
// audio. Score compares predicted transcriptions of those clips against the
// clinician labels and a reference table.
package phonoscore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/PhonoScore/pkg/annotation"
	"github.com/himanishpuri/PhonoScore/pkg/boundary"
	"github.com/himanishpuri/PhonoScore/pkg/logger"
	"github.com/himanishpuri/PhonoScore/pkg/phonoscore/audio"
)

// Pipeline runs preparation and scoring with one configuration.
type Pipeline struct {
	cfg         *Config
	log         Logger
	storage     Storage
	annotations AnnotationIO
	predictions AnnotationIO
	audio       AudioIO
}

func New(opts ...Option) (*Pipeline, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Set default logger if none provided
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Annotations == nil {
		cfg.Annotations = TextGridIO{}
	}
	if cfg.Predictions == nil {
		cfg.Predictions = TextGridIO{SkipEmpty: true}
	}
	if cfg.Audio == nil {
		cfg.Audio = WAVIO{}
	}

	stor := cfg.Storage
	if stor == nil && cfg.DBPath != "" {
		var err error
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &Pipeline{
		cfg:         cfg,
		log:         cfg.Logger,
		storage:     stor,
		annotations: cfg.Annotations,
		predictions: cfg.Predictions,
		audio:       cfg.Audio,
	}, nil
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config { return *p.cfg }

// Close releases the storage backend, if any.
func (p *Pipeline) Close() error {
	if p.storage == nil {
		return nil
	}
	return p.storage.Close()
}

// Prepare crops one recording and writes its clips under the participant
// directory. A returned error is fatal for this recording only; failures of
// single clips are listed in the result.
func (p *Pipeline) Prepare(ctx context.Context, rec Recording) (*PrepareResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := p.logFor(map[string]any{"participant": rec.ParticipantID, "audio": rec.AudioID})
	log.Infof("Preparing %s", rec.TextGrid)

	doc, err := p.annotations.Read(rec.TextGrid)
	if err != nil {
		return nil, Failure{Path: rec.TextGrid, Stage: StageRead, Err: err}
	}

	clips, err := CropDocument(doc, rec.ParticipantID, rec.AudioID, p.cfg.WordTier, p.cfg.SplitTier)
	if err != nil {
		var mismatch *annotation.TierMismatchError
		if errors.As(err, &mismatch) {
			log.Errorf("Tier mismatch in %s: %d word labels vs %d crop windows, flag for manual review",
				rec.TextGrid, mismatch.Words, mismatch.Windows)
		}
		return nil, Failure{Path: rec.TextGrid, Stage: StageCrop, Err: err}
	}

	res := &PrepareResult{Recording: rec, Clips: clips}
	outDir := p.cfg.ParticipantDir(rec.ParticipantID)
	for _, c := range clips {
		name := c.ID.Name() + ".TextGrid"
		if p.cfg.WriteAbsolute {
			path := filepath.Join(outDir, DirIndividualTG, name)
			if err := p.annotations.Write(c.Absolute, path); err != nil {
				res.Failures = append(res.Failures, Failure{Path: path, Stage: StageWrite, Err: err})
			} else {
				res.TextGrids = append(res.TextGrids, path)
			}
		}
		path := filepath.Join(outDir, DirRebasedTG, name)
		if err := p.annotations.Write(c.Rebased, path); err != nil {
			res.Failures = append(res.Failures, Failure{Path: path, Stage: StageWrite, Err: err})
			continue
		}
		res.TextGrids = append(res.TextGrids, path)
	}
	log.Infof("Cropped %d clips from %s", len(clips), rec.TextGrid)

	if rec.Audio == "" {
		return res, nil
	}
	if err := p.segment(ctx, log, doc, rec, res); err != nil {
		return res, err
	}
	return res, nil
}

// segment cuts the recording's audio along the resolved boundaries.
func (p *Pipeline) segment(ctx context.Context, log Logger, doc *annotation.Document, rec Recording, res *PrepareResult) error {
	bounds, err := boundary.Resolve(p.cfg.BoundaryMode, doc,
		p.cfg.WordTier, p.cfg.SyllableTier, p.cfg.SplitTier, p.cfg.VOT)
	if err != nil {
		return Failure{Path: rec.TextGrid, Stage: StageBoundary, Err: err}
	}

	buf, err := p.audio.Load(ctx, rec.Audio, p.cfg.SampleRate, p.cfg.TempDir)
	if err != nil {
		return Failure{Path: rec.Audio, Stage: StageAudio, Err: err}
	}

	wavDir := filepath.Join(p.cfg.ParticipantDir(rec.ParticipantID), DirWavs)
	seen := make(map[string]int, len(bounds))
	for _, b := range bounds {
		seen[b.Utterance]++
		id := ClipID{ParticipantID: rec.ParticipantID, AudioID: rec.AudioID, WordLabel: b.Utterance, Occurrence: seen[b.Utterance]}
		path := filepath.Join(wavDir, id.Name()+".wav")

		clip, ok := audio.Cut(buf, b.Start, b.Stop)
		if !ok {
			res.EmptyCuts++
			log.Warnf("Skipping empty cut %s [%g, %g]", id.Name(), b.Start, b.Stop)
			continue
		}
		if err := p.audio.Export(clip, path); err != nil {
			res.Failures = append(res.Failures, Failure{Path: path, Stage: StageExport, Err: err})
			continue
		}
		res.Wavs = append(res.Wavs, path)
	}
	log.Infof("Audio segmentation complete: %d clips", len(res.Wavs))
	return nil
}

// PrepareAll runs Prepare over recs with the configured number of workers.
// Results keep the order of recs; a recording that fails has a nil result
// and an entry in the returned failures.
func (p *Pipeline) PrepareAll(ctx context.Context, recs []Recording) ([]*PrepareResult, []Failure) {
	results := make([]*PrepareResult, len(recs))
	errs := make([]error, len(recs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, rec := range recs {
		g.Go(func() error {
			res, err := p.Prepare(gctx, rec)
			results[i], errs[i] = res, err
			return nil
		})
	}
	_ = g.Wait()

	var failures []Failure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, asFailure(recs[i].TextGrid, err))
			if results[i] == nil {
				continue
			}
		}
		if results[i] != nil {
			failures = append(failures, results[i].Failures...)
		}
	}
	for _, f := range failures {
		p.log.Warnf("Failed: %v", f)
	}
	p.recordPrepareRun(recs, results, failures)
	return results, failures
}

func (p *Pipeline) recordPrepareRun(recs []Recording, results []*PrepareResult, failures []Failure) {
	if p.storage == nil {
		return
	}
	runID, err := p.storage.CreateRun(RunInfo{Kind: "prepare", ChildrenType: p.cfg.ChildrenType, BandID: p.cfg.BandID, Root: p.cfg.OutputRoot})
	if err != nil {
		p.log.Errorf("Failed to record run: %v", err)
		return
	}
	clips := 0
	for _, r := range results {
		if r != nil {
			clips += len(r.Clips)
		}
	}
	if err := p.storage.StoreFailures(runID, failures); err != nil {
		p.log.Errorf("Failed to store failures: %v", err)
	}
	if err := p.storage.FinishRun(runID, clips, len(failures)); err != nil {
		p.log.Errorf("Failed to finish run: %v", err)
	}
}

// logFor scopes the pipeline logger to fields when it supports them.
func (p *Pipeline) logFor(fields map[string]any) Logger {
	if l, ok := p.log.(*logger.Logger); ok {
		return l.WithFields(fields)
	}
	return p.log
}

func asFailure(path string, err error) Failure {
	var f Failure
	if errors.As(err, &f) {
		return f
	}
	return Failure{Path: path, Stage: StageRead, Err: err}
}
