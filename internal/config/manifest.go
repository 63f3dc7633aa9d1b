package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/himanishpuri/PhonoScore/pkg/phonoscore"
)

// Manifest lists the recordings of a batch.
type Manifest struct {
	Recordings []phonoscore.Recording `yaml:"recordings"`
}

// LoadManifest reads a batch manifest. Relative paths are resolved against
// the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	defer f.Close()

	m, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range m.Recordings {
		r := &m.Recordings[i]
		r.TextGrid = resolve(base, r.TextGrid)
		r.Audio = resolve(base, r.Audio)
	}
	return m, nil
}

// DecodeManifest parses and validates a manifest from r.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	m := &Manifest{}
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	var errs []error
	for i, rec := range m.Recordings {
		if rec.TextGrid == "" {
			errs = append(errs, fmt.Errorf("recording %d: textgrid is required", i+1))
		}
		if rec.ParticipantID == "" || rec.AudioID == "" {
			errs = append(errs, fmt.Errorf("recording %d: participant and audio_id are required", i+1))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
