package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/PhonoScore/internal/annotate"
	"github.com/himanishpuri/PhonoScore/internal/config"
	"github.com/himanishpuri/PhonoScore/internal/report"
	"github.com/himanishpuri/PhonoScore/pkg/logger"
	"github.com/himanishpuri/PhonoScore/pkg/phonoscore"
	"github.com/himanishpuri/PhonoScore/pkg/scoring"
	"github.com/himanishpuri/PhonoScore/pkg/utils"
)

// AnnotateCmd bootstraps a TextGrid from timestamps
type AnnotateCmd struct {
	Sheet string `arg:"" help:"UTF-16 tab-separated timestamp export" type:"existingfile"`
	Audio string `arg:"" help:"Recording the timestamps refer to" type:"existingfile"`
	Out   string `name:"out" help:"Output TextGrid (default: next to the audio)" type:"path"`
}

func (c *AnnotateCmd) Run() error {
	out := c.Out
	if out == "" {
		out = strings.TrimSuffix(c.Audio, filepath.Ext(c.Audio)) + ".TextGrid"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	doc, err := annotate.Bootstrap(ctx, c.Sheet, c.Audio, out)
	if err != nil {
		return err
	}
	words, err := doc.Tier("word")
	if err != nil {
		return err
	}

	fmt.Printf("✅ TextGrid written: %s\n", out)
	fmt.Printf("   Words:    %d\n", len(words.Labelled()))
	fmt.Printf("   Duration: %.2fs\n", doc.Duration())
	return nil
}

// PrepareCmd crops a single recording
type PrepareCmd struct {
	Pipeline PipelineFlags `embed:""`

	TextGrid    string `arg:"" help:"Annotated TextGrid of the whole recording" type:"existingfile"`
	Participant string `name:"participant" short:"p" required:"" help:"Participant ID, e.g. 302_Bonnie"`
	AudioID     string `name:"audio-id" help:"Audio ID (default: TextGrid file name)"`
	Audio       string `name:"audio" short:"a" help:"Recording to cut into word clips" type:"existingfile"`
	Absolute    bool   `name:"absolute" help:"Also write each crop before rebasing to zero"`
}

func (c *PrepareCmd) Run() error {
	file, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Absolute {
		on := true
		file.WriteAbsolute = &on
	}
	p, err := createPipeline(file, c.Pipeline)
	if err != nil {
		return err
	}
	defer p.Close()

	rec := phonoscore.Recording{
		TextGrid:      c.TextGrid,
		Audio:         c.Audio,
		ParticipantID: c.Participant,
		AudioID:       c.AudioID,
	}
	if rec.AudioID == "" {
		rec.AudioID = utils.Stem(c.TextGrid)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := p.Prepare(ctx, rec)
	if err != nil {
		return err
	}

	cfg := p.Config()
	fmt.Printf("\n✅ Prepared %s\n", rec.TextGrid)
	fmt.Printf("   Output:    %s\n", cfg.ParticipantDir(rec.ParticipantID))
	printPrepareResult(res)
	printFailures(res.Failures)
	return nil
}

// BatchCmd prepares every recording of a manifest
type BatchCmd struct {
	Pipeline PipelineFlags `embed:""`

	Manifest string `arg:"" help:"YAML manifest listing recordings" type:"existingfile"`
}

func (c *BatchCmd) Run() error {
	log := logger.GetLogger()

	manifest, err := config.LoadManifest(c.Manifest)
	if err != nil {
		return err
	}
	file, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := createPipeline(file, c.Pipeline)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, failures := p.PrepareAll(ctx, manifest.Recordings)

	var clips, audio int
	var bytes uint64
	for _, res := range results {
		if res == nil {
			continue
		}
		clips += len(res.Clips)
		audio += len(res.Wavs)
		bytes += totalSize(res.Wavs)
	}
	log.Infof("Batch finished in %s", time.Since(start).Round(time.Millisecond))

	fmt.Printf("\n✅ Batch complete: %s recording(s)\n", humanize.Comma(int64(len(manifest.Recordings))))
	fmt.Printf("   Clips:     %s\n", humanize.Comma(int64(clips)))
	fmt.Printf("   Wavs:      %s (%s)\n", humanize.Comma(int64(audio)), humanize.Bytes(bytes))
	printFailures(failures)

	if n := len(manifest.Recordings); n > 0 && failed(results) == n {
		return fmt.Errorf("all %d recordings failed", n)
	}
	return nil
}

// ScoreCmd scores prediction clips
type ScoreCmd struct {
	Pipeline PipelineFlags `embed:""`

	Root           string `arg:"" optional:"" help:"Group directory with participant folders (default: <output-root>/<children-type>/<band>)" type:"path"`
	Reference      string `name:"reference" short:"r" help:"Reference table with Word, IPA Transcription and Syllable Structure columns" type:"existingfile"`
	KeepDiacritics bool   `name:"keep-diacritics" help:"Score narrow transcriptions as written"`
	Out            string `name:"out" default:"." help:"Directory for the CSV reports" type:"path"`
}

func (c *ScoreCmd) Run() error {
	log := logger.GetLogger()

	file, err := loadConfig()
	if err != nil {
		return err
	}
	if c.KeepDiacritics {
		keep := true
		file.KeepDiacritics = &keep
	}
	p, err := createPipeline(file, c.Pipeline)
	if err != nil {
		return err
	}
	defer p.Close()

	refPath := c.Reference
	if refPath == "" {
		refPath = file.Reference
	}
	var ref *scoring.Reference
	if refPath != "" {
		if ref, err = report.ReadReference(refPath); err != nil {
			return err
		}
		log.Infof("Loaded %d reference words from %s", ref.Len(), refPath)
	} else {
		log.Warnf("No reference table given, ground-truth rates will be undefined")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := p.Score(ctx, c.Root, ref)
	if err != nil {
		return err
	}

	paths, err := report.WriteAll(c.Out, report.Tables{
		Records:   res.Records,
		Inventory: res.Inventory,
		Summaries: res.Summaries,
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n✅ Scored %s clip(s)\n", humanize.Comma(int64(len(res.Records))))
	if res.RunID != "" {
		fmt.Printf("   Run:       %s\n", res.RunID)
	}
	fmt.Printf("   Phonemes:  %d\n", len(res.Inventory))
	fmt.Printf("   Skipped:   %d\n", len(res.Skipped))
	for _, s := range res.Summaries {
		fmt.Printf("   %-10s %4d clip(s)  basic %s  cv %s\n", s.Stage, s.Clips,
			s.Mean[scoring.CmpBasic], s.Mean[scoring.CmpCV])
	}
	for _, path := range paths {
		fmt.Printf("   Wrote:     %s\n", path)
	}
	printFailures(res.Failures)
	return nil
}

func printPrepareResult(res *phonoscore.PrepareResult) {
	fmt.Printf("   Clips:     %d\n", len(res.Clips))
	fmt.Printf("   TextGrids: %d\n", len(res.TextGrids))
	if len(res.Wavs) > 0 || res.EmptyCuts > 0 {
		fmt.Printf("   Wavs:      %d (%s)\n", len(res.Wavs), humanize.Bytes(totalSize(res.Wavs)))
	}
	if res.EmptyCuts > 0 {
		fmt.Printf("   Empty:     %d boundary(ies) produced no audio\n", res.EmptyCuts)
	}
}

func printFailures(failures []phonoscore.Failure) {
	if len(failures) == 0 {
		return
	}
	const maxDisplay = 20
	fmt.Printf("\n❌ %d failure(s):\n", len(failures))
	for i, f := range failures {
		if i == maxDisplay {
			fmt.Printf("... and %d more failures\n", len(failures)-maxDisplay)
			break
		}
		fmt.Printf("%d. %s [%s]\n   %v\n", i+1, f.Path, f.Stage, f.Err)
	}
}

func totalSize(paths []string) uint64 {
	var n uint64
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			n += uint64(info.Size())
		}
	}
	return n
}

func failed(results []*phonoscore.PrepareResult) int {
	n := 0
	for _, res := range results {
		if res == nil {
			n++
		}
	}
	return n
}
