package phonoscore

import (
	"fmt"

	"github.com/himanishpuri/PhonoScore/pkg/annotation"
	"github.com/himanishpuri/PhonoScore/pkg/scoring"
)

// ClipID identifies one cropped unit of a recording.
type ClipID struct {
	ParticipantID string
	AudioID       string
	WordLabel     string
	// Occurrence counts repeats of WordLabel within one recording, from 1.
	Occurrence int
}

// Name is the file stem used for every artifact of the clip.
func (id ClipID) Name() string {
	name := fmt.Sprintf("%s_%s_%s", id.ParticipantID, id.AudioID, id.WordLabel)
	if id.Occurrence > 1 {
		name += fmt.Sprintf("_%d", id.Occurrence)
	}
	return name
}

func (id ClipID) String() string { return id.Name() }

// Clip is one cropped document.
type Clip struct {
	ID ClipID
	// Start and End locate the crop window in the source recording.
	Start float64
	End   float64
	// Absolute keeps source timestamps; Rebased starts at zero.
	Absolute *annotation.Document
	Rebased  *annotation.Document
}

// Recording is one long annotated recording to prepare.
type Recording struct {
	TextGrid      string `yaml:"textgrid"`
	Audio         string `yaml:"audio"`
	ParticipantID string `yaml:"participant"`
	AudioID       string `yaml:"audio_id"`
}

// Failure records a document or clip that could not be processed. It never
// aborts a batch.
type Failure struct {
	Path  string
	Stage string
	Err   error
}

func (f Failure) Error() string { return fmt.Sprintf("%s [%s]: %v", f.Path, f.Stage, f.Err) }

func (f Failure) Unwrap() error { return f.Err }

// Failure stages.
const (
	StageRead     = "read"
	StageCrop     = "crop"
	StageWrite    = "write"
	StageAudio    = "audio"
	StageBoundary = "boundary"
	StageExport   = "export"
	StageScore    = "score"
)

// PrepareResult lists what Prepare wrote for one recording.
type PrepareResult struct {
	Recording Recording
	Clips     []Clip
	TextGrids []string
	Wavs      []string
	// EmptyCuts counts boundaries that left no audio after clamping.
	EmptyCuts int
	Failures  []Failure
}

// RunInfo describes a run for storage.
type RunInfo struct {
	Kind         string
	ChildrenType string
	BandID       string
	Root         string
}

// PredictionFile is one clip-level prediction to score.
type PredictionFile struct {
	Path  string
	Clip  ClipID
	Stage string
}

// ScoreResult is the outcome of a scoring run.
type ScoreResult struct {
	RunID     string
	Records   []scoring.ScoreRecord
	Inventory []scoring.InventoryEntry
	Summaries []scoring.Summary
	Skipped   []string
	Failures  []Failure
}
