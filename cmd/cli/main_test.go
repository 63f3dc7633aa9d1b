package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/himanishpuri/PhonoScore/internal/config"
	"github.com/himanishpuri/PhonoScore/pkg/phonoscore/storage"
)

func TestPipelineFlagsOverrideConfig(t *testing.T) {
	vot, workers := 0.02, 2
	file := &config.File{BandID: "Band_1", VOT: &vot, Workers: &workers}

	tests := []struct {
		name        string
		flags       PipelineFlags
		wantBand    string
		wantVOT     float64
		wantWorkers int
	}{
		{name: "unset flags keep the file", flags: PipelineFlags{VOT: -1}, wantBand: "Band_1", wantVOT: 0.02, wantWorkers: 2},
		{name: "flags win", flags: PipelineFlags{Band: "Band_4", VOT: 0, Workers: 6}, wantBand: "Band_4", wantVOT: 0, wantWorkers: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.flags.OutputRoot = t.TempDir()
			p, err := createPipeline(file, tt.flags)
			if err != nil {
				t.Fatalf("createPipeline failed: %v", err)
			}
			defer p.Close()
			cfg := p.Config()
			if cfg.BandID != tt.wantBand || cfg.VOT != tt.wantVOT || cfg.Workers != tt.wantWorkers {
				t.Errorf("config = band %s vot %g workers %d", cfg.BandID, cfg.VOT, cfg.Workers)
			}
		})
	}
}

func TestPipelineFlagsInvalid(t *testing.T) {
	_, err := createPipeline(&config.File{}, PipelineFlags{VOT: -1, ChildrenType: "ASD"})
	if err == nil {
		t.Fatal("expected invalid children type to be rejected")
	}
}

func TestParseCommands(t *testing.T) {
	parser, err := kong.New(&CLI, kong.Name("phonoscore"))
	if err != nil {
		t.Fatalf("building parser: %v", err)
	}
	ctx, err := parser.Parse([]string{"score", "--band", "Band_2", "--out", t.TempDir()})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !strings.HasPrefix(ctx.Command(), "score") {
		t.Errorf("command = %q", ctx.Command())
	}
	if CLI.Score.Pipeline.Band != "Band_2" || CLI.Score.Pipeline.VOT != -1 {
		t.Errorf("score flags = %+v", CLI.Score.Pipeline)
	}
}

func TestRunsCommands(t *testing.T) {
	CLI.DB = filepath.Join(t.TempDir(), "runs.sqlite3")
	t.Cleanup(func() { CLI.DB = "" })

	db, err := openDB()
	if err != nil {
		t.Fatalf("openDB failed: %v", err)
	}
	id, err := db.CreateRun(storage.Run{Kind: "score", ChildrenType: "TD", BandID: "Band_3"})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.StoreFailures(id, []storage.FailureRow{{Path: "a.TextGrid", Stage: "read", Message: "boom"}}); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if err := (&RunsListCmd{}).Run(); err != nil {
		t.Errorf("list: %v", err)
	}
	if err := (&RunsShowCmd{ID: id, Max: 5}).Run(); err != nil {
		t.Errorf("show: %v", err)
	}
	if err := (&RunsDeleteCmd{ID: id}).Run(); err != nil {
		t.Errorf("delete: %v", err)
	}
	if err := (&RunsShowCmd{ID: id, Max: 5}).Run(); err == nil {
		t.Error("show after delete should fail")
	}
}
