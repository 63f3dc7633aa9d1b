package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/himanishpuri/PhonoScore/pkg/phonoscore"
)

const sampleYAML = `
children_type: SSD
band_id: Band_4
vot: 0.02
output_root: /data/smaat
workers: 4
boundary_mode: syllables
keep_diacritics: true
tiers:
  prediction: ipa
stages:
  - name: early
    words: [ba, pie]
`

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDecode(t *testing.T) {
	f, err := Decode(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if f.ChildrenType != "SSD" || f.BandID != "Band_4" || *f.VOT != 0.02 || *f.Workers != 4 {
		t.Errorf("decoded = %+v", f)
	}
	if f.Tiers.Prediction != "ipa" || len(f.Stages) != 1 || f.Stages[0].Words[1] != "pie" {
		t.Errorf("nested fields = %+v / %+v", f.Tiers, f.Stages)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	if _, err := Decode(strings.NewReader("band: Band_1\n")); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestDecodeEmpty(t *testing.T) {
	f, err := Decode(strings.NewReader(""))
	if err != nil || f == nil {
		t.Fatalf("empty document = %+v, %v", f, err)
	}
}

func TestApplyEnv(t *testing.T) {
	f := &File{BandID: "Band_1"}
	err := f.ApplyEnv(envFrom(map[string]string{
		"PHONOSCORE_BAND_ID":         "Band_2",
		"PHONOSCORE_VOT":             "0.015",
		"PHONOSCORE_SAMPLE_RATE":     "22050",
		"PHONOSCORE_WRITE_ABSOLUTE":  "true",
		"PHONOSCORE_PREDICTION_DIR":  "",
		"PHONOSCORE_UNRELATED_THING": "x",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if f.BandID != "Band_2" || *f.VOT != 0.015 || *f.SampleRate != 22050 || !*f.WriteAbsolute {
		t.Errorf("after env = %+v", f)
	}
	if f.PredictionDir != "" {
		t.Errorf("empty variable should not override")
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := map[string]string{
		"PHONOSCORE_VOT":             "fast",
		"PHONOSCORE_WORKERS":         "many",
		"PHONOSCORE_KEEP_DIACRITICS": "perhaps",
	}
	for key, val := range tests {
		f := &File{}
		if err := f.ApplyEnv(envFrom(map[string]string{key: val})); err == nil || !strings.Contains(err.Error(), key) {
			t.Errorf("%s=%s: expected error naming the variable, got %v", key, val, err)
		}
	}
}

func TestOptionsBuildPipeline(t *testing.T) {
	f, err := Decode(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	f.OutputRoot = t.TempDir()
	p, err := phonoscore.New(f.Options()...)
	if err != nil {
		t.Fatalf("New with file options failed: %v", err)
	}
	cfg := p.Config()
	if cfg.ChildrenType != "SSD" || cfg.Workers != 4 || cfg.BoundaryMode != "syllables" || !cfg.KeepDiacritics {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.PredictionTier != "ipa" || cfg.WordTier != "word" {
		t.Errorf("tiers = %s / %s", cfg.PredictionTier, cfg.WordTier)
	}
	if st, ok := cfg.Stages.Lookup("pie"); !ok || st != "early" {
		t.Errorf("custom stages not applied: %q %v", st, ok)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phonoscore.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PHONOSCORE_WORKERS", "8")

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *f.Workers != 8 {
		t.Errorf("environment should override the file, workers = %d", *f.Workers)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	body := `recordings:
  - textgrid: tg/A006.TextGrid
    audio: /abs/A006.wav
    participant: 302_Bonnie
    audio_id: A006
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if len(m.Recordings) != 1 {
		t.Fatalf("recordings = %+v", m.Recordings)
	}
	r := m.Recordings[0]
	if r.TextGrid != filepath.Join(dir, "tg", "A006.TextGrid") || r.Audio != "/abs/A006.wav" {
		t.Errorf("paths = %s, %s", r.TextGrid, r.Audio)
	}
}

func TestDecodeManifestValidation(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("recordings:\n  - audio: x.wav\n"))
	if err == nil || !strings.Contains(err.Error(), "textgrid is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
}
