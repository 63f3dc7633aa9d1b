package phonoscore

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/PhonoScore/pkg/annotation"
	"github.com/himanishpuri/PhonoScore/pkg/phoneme"
	"github.com/himanishpuri/PhonoScore/pkg/scoring"
	"github.com/himanishpuri/PhonoScore/pkg/utils"
)

// Discover lists the prediction TextGrids under root, laid out as
// <root>/<participant>/<prediction_dir>/*.TextGrid. Files whose word is in
// no stage are returned in skipped. The result is ordered by stage, then path.
func (p *Pipeline) Discover(root string) (files []PredictionFile, skipped []string, err error) {
	participants, err := utils.ListDirs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("listing participants in %s: %w", root, err)
	}
	for _, participant := range participants {
		dir := filepath.Join(root, participant, p.cfg.PredictionDir)
		paths, err := utils.ListFiles(dir, ".TextGrid")
		if err != nil {
			p.log.Debugf("No prediction directory for %s: %v", participant, err)
			continue
		}
		for _, path := range paths {
			id, err := ParseClipName(participant, path)
			if err != nil {
				p.log.Warnf("Skipping %s: %v", path, err)
				skipped = append(skipped, path)
				continue
			}
			stage, ok := p.cfg.Stages.Lookup(id.WordLabel)
			if !ok {
				p.log.Debugf("Skipping %s: word %q is in no stage", path, id.WordLabel)
				skipped = append(skipped, path)
				continue
			}
			files = append(files, PredictionFile{Path: path, Clip: id, Stage: stage})
		}
	}

	order := make(map[string]int, len(p.cfg.Stages))
	for i, name := range p.cfg.Stages.Names() {
		order[name] = i
	}
	sort.SliceStable(files, func(i, j int) bool {
		if a, b := order[files[i].Stage], order[files[j].Stage]; a != b {
			return a < b
		}
		return files[i].Path < files[j].Path
	})
	return files, skipped, nil
}

// Score discovers and scores every prediction under root. An empty root
// means the configured <output_root>/<children_type>/<band_id>.
func (p *Pipeline) Score(ctx context.Context, root string, ref *scoring.Reference) (*ScoreResult, error) {
	if root == "" {
		root = p.cfg.GroupDir()
	}
	files, skipped, err := p.Discover(root)
	if err != nil {
		return nil, err
	}
	p.log.Infof("Scoring %d prediction files under %s (%d skipped)", len(files), root, len(skipped))

	res, err := p.ScoreFiles(ctx, files, ref)
	if err != nil {
		return nil, err
	}
	res.Skipped = skipped
	p.recordScoreRun(root, res)
	return res, nil
}

type scored struct {
	rec  scoring.ScoreRecord
	errs []error
	err  error
}

// ScoreFiles scores files in parallel and collects the records in the order
// of files.
func (p *Pipeline) ScoreFiles(ctx context.Context, files []PredictionFile, ref *scoring.Reference) (*ScoreResult, error) {
	out := make([]scored, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, errs, err := p.scoreFile(f, ref)
			out[i] = scored{rec: rec, errs: errs, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	col := scoring.NewCollector(p.cfg.Stages)
	res := &ScoreResult{}
	for i, s := range out {
		if s.err != nil {
			res.Failures = append(res.Failures, Failure{Path: files[i].Path, Stage: StageScore, Err: s.err})
			p.log.Warnf("Failed to score %s: %v", files[i].Path, s.err)
			continue
		}
		col.Add(s.rec)
		for _, e := range s.errs {
			res.Failures = append(res.Failures, Failure{Path: files[i].Path, Stage: StageScore, Err: e})
		}
	}
	res.Records = col.Records()
	res.Inventory = col.Inventory()
	res.Summaries = col.Summaries()
	p.log.Infof("Scored %d clips, %d phonemes in inventory", col.Len(), len(res.Inventory))
	return res, nil
}

func (p *Pipeline) scoreFile(f PredictionFile, ref *scoring.Reference) (scoring.ScoreRecord, []error, error) {
	doc, err := p.predictions.Read(f.Path)
	if err != nil {
		return scoring.ScoreRecord{}, nil, err
	}
	seq, err := p.Sequences(doc)
	if err != nil {
		return scoring.ScoreRecord{}, nil, err
	}
	if entry, ok := ref.Lookup(f.Clip.WordLabel); ok {
		seq.GT = entry.Phonemes
		seq.GTCV = entry.Structure
	}
	rec, errs := scoring.Score(filepath.Base(f.Path), f.Stage, seq)
	return rec, errs, nil
}

// Sequences extracts the prediction and label sequences of one clip.
// Reference sequences are left empty.
func (p *Pipeline) Sequences(doc *annotation.Document) (scoring.Sequences, error) {
	predTier, err := doc.Tier(p.cfg.PredictionTier)
	if err != nil {
		return scoring.Sequences{}, err
	}
	cvTier, err := doc.Tier(p.cfg.StructureTier)
	if err != nil {
		return scoring.Sequences{}, err
	}
	labelTier, err := doc.Tier(p.cfg.PhoneticTier)
	if err != nil {
		return scoring.Sequences{}, err
	}

	var seq scoring.Sequences
	for _, iv := range predTier.Labelled() {
		tok := phoneme.FirstAlternative(strings.TrimSpace(iv.Label))
		if !p.cfg.KeepDiacritics {
			tok = phoneme.NarrowToBroad(tok)
		}
		if tok != "" {
			seq.Prediction = append(seq.Prediction, tok)
		}
	}
	for _, iv := range cvTier.Labelled() {
		if code := strings.TrimSpace(iv.Label); code != "" {
			seq.PredictionCV = append(seq.PredictionCV, code)
		}
	}
	for _, iv := range labelTier.Labelled() {
		label := iv.Label
		if !p.cfg.KeepDiacritics {
			label = phoneme.NarrowToBroad(label)
		}
		seq.Label = append(seq.Label, phoneme.Split(label)...)
	}
	seq.LabelCV = phoneme.Structure(seq.Label)
	return seq, nil
}

func (p *Pipeline) recordScoreRun(root string, res *ScoreResult) {
	if p.storage == nil {
		return
	}
	runID, err := p.storage.CreateRun(RunInfo{Kind: "score", ChildrenType: p.cfg.ChildrenType, BandID: p.cfg.BandID, Root: root})
	if err != nil {
		p.log.Errorf("Failed to record run: %v", err)
		return
	}
	res.RunID = runID
	if err := p.storage.StoreScores(runID, res.Records); err != nil {
		p.log.Errorf("Failed to store scores: %v", err)
	}
	if err := p.storage.StoreFailures(runID, res.Failures); err != nil {
		p.log.Errorf("Failed to store failures: %v", err)
	}
	if err := p.storage.FinishRun(runID, len(res.Records), len(res.Failures)); err != nil {
		p.log.Errorf("Failed to finish run: %v", err)
	}
}
