// Package config loads phonoscore settings from a YAML file and PHONOSCORE_*
// environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/himanishpuri/PhonoScore/pkg/boundary"
	"github.com/himanishpuri/PhonoScore/pkg/phonoscore"
	"github.com/himanishpuri/PhonoScore/pkg/scoring"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PHONOSCORE_"

// Tiers overrides tier names. Empty fields keep the defaults.
type Tiers struct {
	Word       string `yaml:"word"`
	Syllable   string `yaml:"syllable"`
	Phonetic   string `yaml:"phonetic"`
	Prediction string `yaml:"prediction"`
	Structure  string `yaml:"structure"`
}

// File is the on-disk configuration. Unset fields keep the library defaults.
type File struct {
	ChildrenType   string             `yaml:"children_type"`
	BandID         string             `yaml:"band_id"`
	VOT            *float64           `yaml:"vot"`
	SplitTier      string             `yaml:"split_tier"`
	Tiers          Tiers              `yaml:"tiers"`
	OutputRoot     string             `yaml:"output_root"`
	PredictionDir  string             `yaml:"prediction_dir"`
	TempDir        string             `yaml:"temp_dir"`
	SampleRate     *int               `yaml:"sample_rate"`
	Workers        *int               `yaml:"workers"`
	BoundaryMode   string             `yaml:"boundary_mode"`
	WriteAbsolute  *bool              `yaml:"write_absolute"`
	KeepDiacritics *bool              `yaml:"keep_diacritics"`
	DBPath         string             `yaml:"db_path"`
	Reference      string             `yaml:"reference"`
	Stages         scoring.StageTable `yaml:"stages"`
}

// Load reads the YAML file at path and applies environment overrides. An
// empty path yields a config built from the environment alone.
func Load(path string) (*File, error) {
	f := &File{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if f, err = Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := f.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return f, nil
}

// Decode parses YAML from r. Unknown keys are rejected.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	f := &File{}
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return f, nil
}

func getEnvOrDefault(lookup func(string) (string, bool), key, defaultValue string) string {
	if value, ok := lookup(EnvPrefix + key); ok && value != "" {
		return value
	}
	return defaultValue
}

// ApplyEnv overrides fields from PHONOSCORE_* variables found by lookup.
func (f *File) ApplyEnv(lookup func(string) (string, bool)) error {
	f.ChildrenType = getEnvOrDefault(lookup, "CHILDREN_TYPE", f.ChildrenType)
	f.BandID = getEnvOrDefault(lookup, "BAND_ID", f.BandID)
	f.SplitTier = getEnvOrDefault(lookup, "SPLIT_TIER", f.SplitTier)
	f.OutputRoot = getEnvOrDefault(lookup, "OUTPUT_ROOT", f.OutputRoot)
	f.PredictionDir = getEnvOrDefault(lookup, "PREDICTION_DIR", f.PredictionDir)
	f.TempDir = getEnvOrDefault(lookup, "TEMP_DIR", f.TempDir)
	f.BoundaryMode = getEnvOrDefault(lookup, "BOUNDARY_MODE", f.BoundaryMode)
	f.DBPath = getEnvOrDefault(lookup, "DB_PATH", f.DBPath)
	f.Reference = getEnvOrDefault(lookup, "REFERENCE", f.Reference)

	if v := getEnvOrDefault(lookup, "VOT", ""); v != "" {
		vot, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sVOT: %w", EnvPrefix, err)
		}
		f.VOT = &vot
	}
	for key, dst := range map[string]**int{"SAMPLE_RATE": &f.SampleRate, "WORKERS": &f.Workers} {
		if v := getEnvOrDefault(lookup, key, ""); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = &n
		}
	}
	for key, dst := range map[string]**bool{"WRITE_ABSOLUTE": &f.WriteAbsolute, "KEEP_DIACRITICS": &f.KeepDiacritics} {
		if v := getEnvOrDefault(lookup, key, ""); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = &b
		}
	}
	return nil
}

// Options turns the set fields into pipeline options.
func (f *File) Options() []phonoscore.Option {
	var opts []phonoscore.Option
	if f.ChildrenType != "" {
		opts = append(opts, phonoscore.WithChildrenType(f.ChildrenType))
	}
	if f.BandID != "" {
		opts = append(opts, phonoscore.WithBandID(f.BandID))
	}
	if f.VOT != nil {
		opts = append(opts, phonoscore.WithVOT(*f.VOT))
	}
	if f.SplitTier != "" {
		opts = append(opts, phonoscore.WithSplitTier(f.SplitTier))
	}
	t := f.Tiers
	if t != (Tiers{}) {
		opts = append(opts, phonoscore.WithTierNames(t.Word, t.Syllable, t.Phonetic, t.Prediction, t.Structure))
	}
	if f.OutputRoot != "" {
		opts = append(opts, phonoscore.WithOutputRoot(f.OutputRoot))
	}
	if f.PredictionDir != "" {
		opts = append(opts, phonoscore.WithPredictionDir(f.PredictionDir))
	}
	if f.TempDir != "" {
		opts = append(opts, phonoscore.WithTempDir(f.TempDir))
	}
	if f.SampleRate != nil {
		opts = append(opts, phonoscore.WithSampleRate(*f.SampleRate))
	}
	if f.Workers != nil {
		opts = append(opts, phonoscore.WithWorkers(*f.Workers))
	}
	if f.BoundaryMode != "" {
		opts = append(opts, phonoscore.WithBoundaryMode(boundary.Mode(f.BoundaryMode)))
	}
	if f.WriteAbsolute != nil {
		opts = append(opts, phonoscore.WithAbsoluteTextGrids(*f.WriteAbsolute))
	}
	if f.KeepDiacritics != nil {
		opts = append(opts, phonoscore.WithKeepDiacritics(*f.KeepDiacritics))
	}
	if f.DBPath != "" {
		opts = append(opts, phonoscore.WithDBPath(f.DBPath))
	}
	if len(f.Stages) > 0 {
		opts = append(opts, phonoscore.WithStages(f.Stages))
	}
	return opts
}
