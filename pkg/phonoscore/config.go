package phonoscore

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/himanishpuri/PhonoScore/pkg/annotation"
	"github.com/himanishpuri/PhonoScore/pkg/boundary"
	"github.com/himanishpuri/PhonoScore/pkg/scoring"
)

// Recognised cohort and band identifiers.
var (
	ChildrenTypes = []string{"TD", "SSD"}
	BandIDs       = []string{"Band_1", "Band_2", "Band_3", "Band_4"}
)

// Output sub-directories of a participant.
const (
	DirIndividualTG = "individual_TG"
	DirRebasedTG    = "rebase_to_zero_TG"
	DirWavs         = "individual_wavs"
	DirNewTG        = "new_TG"
)

type Config struct {
	ChildrenType string
	BandID       string
	VOT          float64

	SplitTier      string
	WordTier       string
	SyllableTier   string
	PhoneticTier   string
	PredictionTier string
	StructureTier  string

	OutputRoot    string
	PredictionDir string
	TempDir       string
	SampleRate    int
	Workers       int
	BoundaryMode  boundary.Mode
	WriteAbsolute bool

	KeepDiacritics bool
	Stages         scoring.StageTable

	DBPath  string
	Logger  Logger
	Storage Storage

	Annotations AnnotationIO
	Predictions AnnotationIO
	Audio       AudioIO
}

type Option func(*Config)

func WithChildrenType(t string) Option {
	return func(c *Config) {
		c.ChildrenType = t
	}
}

func WithBandID(id string) Option {
	return func(c *Config) {
		c.BandID = id
	}
}

func WithVOT(seconds float64) Option {
	return func(c *Config) {
		c.VOT = seconds
	}
}

func WithSplitTier(name string) Option {
	return func(c *Config) {
		c.SplitTier = name
	}
}

// WithTierNames overrides the word, syllable, phonetic, prediction and
// structure tier names. Empty arguments keep the current value.
func WithTierNames(word, syllable, phonetic, prediction, structure string) Option {
	return func(c *Config) {
		set := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		set(&c.WordTier, word)
		set(&c.SyllableTier, syllable)
		set(&c.PhoneticTier, phonetic)
		set(&c.PredictionTier, prediction)
		set(&c.StructureTier, structure)
	}
}

func WithOutputRoot(dir string) Option {
	return func(c *Config) {
		c.OutputRoot = dir
	}
}

func WithPredictionDir(name string) Option {
	return func(c *Config) {
		c.PredictionDir = name
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func WithBoundaryMode(m boundary.Mode) Option {
	return func(c *Config) {
		c.BoundaryMode = m
	}
}

// WithAbsoluteTextGrids also writes each crop before rebasing.
func WithAbsoluteTextGrids(on bool) Option {
	return func(c *Config) {
		c.WriteAbsolute = on
	}
}

func WithKeepDiacritics(keep bool) Option {
	return func(c *Config) {
		c.KeepDiacritics = keep
	}
}

func WithStages(st scoring.StageTable) Option {
	return func(c *Config) {
		c.Stages = st
	}
}

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithAnnotationIO(io AnnotationIO) Option {
	return func(c *Config) {
		c.Annotations = io
	}
}

func WithPredictionReader(io AnnotationIO) Option {
	return func(c *Config) {
		c.Predictions = io
	}
}

func WithAudioIO(io AudioIO) Option {
	return func(c *Config) {
		c.Audio = io
	}
}

func defaultConfig() *Config {
	return &Config{
		ChildrenType:   "TD",
		BandID:         "Band_3",
		VOT:            0,
		SplitTier:      annotation.RolePhonetic,
		WordTier:       annotation.RoleWord,
		SyllableTier:   annotation.RoleSyllable,
		PhoneticTier:   annotation.RolePhonetic,
		PredictionTier: "phoneme_ipa",
		StructureTier:  annotation.RoleStructure,
		OutputRoot:     ".",
		PredictionDir:  "ml_tg",
		TempDir:        "/tmp",
		SampleRate:     16000,
		Workers:        1,
		BoundaryMode:   boundary.ModeWords,
		Stages:         scoring.DefaultStages(),
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if !contains(ChildrenTypes, c.ChildrenType) {
		errs = append(errs, fmt.Errorf("children_type %q must be one of %v", c.ChildrenType, ChildrenTypes))
	}
	if !contains(BandIDs, c.BandID) {
		errs = append(errs, fmt.Errorf("band_id %q must be one of %v", c.BandID, BandIDs))
	}
	if c.VOT < 0 {
		errs = append(errs, fmt.Errorf("VOT %g must not be negative", c.VOT))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers %d must be at least 1", c.Workers))
	}
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate %d must be positive", c.SampleRate))
	}
	if !c.BoundaryMode.Valid() {
		errs = append(errs, fmt.Errorf("boundary mode %q must be %q or %q", c.BoundaryMode, boundary.ModeWords, boundary.ModeSyllables))
	}
	if c.SplitTier == "" || c.WordTier == "" {
		errs = append(errs, errors.New("split and word tier names must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("phonoscore: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// GroupDir is <output_root>/<children_type>/<band_id>.
func (c *Config) GroupDir() string {
	return filepath.Join(c.OutputRoot, c.ChildrenType, c.BandID)
}

// ParticipantDir is where the clips of one participant are written.
func (c *Config) ParticipantDir(participant string) string {
	return filepath.Join(c.GroupDir(), DirNewTG, participant)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
