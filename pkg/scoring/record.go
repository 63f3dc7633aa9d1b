package scoring

import (
	"fmt"
	"slices"
	"sort"
)

// Sequences are the aligned inputs of one clip.
type Sequences struct {
	Prediction   []string
	PredictionCV []string
	Label        []string
	LabelCV      []string
	GT           []string
	GTCV         []string
}

// ScoreRecord is the immutable result for one clip.
type ScoreRecord struct {
	Filename string
	Stage    string
	Sequences

	// prediction vs label
	Basic Rate
	CV    Rate
	// prediction vs reference
	GTRate   Rate
	GTCVRate Rate
	// label vs reference
	LabelGT   Rate
	LabelGTCV Rate
}

// Comparison names one of the six rates of a record.
type Comparison string

const (
	CmpBasic     Comparison = "prediction/label"
	CmpCV        Comparison = "prediction/label cv"
	CmpGT        Comparison = "prediction/gt"
	CmpGTCV      Comparison = "prediction/gt cv"
	CmpLabelGT   Comparison = "label/gt"
	CmpLabelGTCV Comparison = "label/gt cv"
)

// Comparisons lists the rates in report order.
var Comparisons = []Comparison{CmpBasic, CmpCV, CmpGT, CmpGTCV, CmpLabelGT, CmpLabelGTCV}

// RateError ties an undefined rate to the comparison that produced it.
type RateError struct {
	Comparison Comparison
	Err        error
}

func (e *RateError) Error() string { return fmt.Sprintf("%s: %v", e.Comparison, e.Err) }

func (e *RateError) Unwrap() error { return e.Err }

// Score computes the six rates of one clip. Rates that cannot be computed
// are left invalid and reported in errs; the record is always usable.
func Score(filename, stage string, seq Sequences) (rec ScoreRecord, errs []error) {
	rec = ScoreRecord{Filename: filename, Stage: stage, Sequences: seq}
	rate := func(cmp Comparison, ref, hyp []string) Rate {
		r, err := RateOf(ref, hyp)
		if err != nil {
			errs = append(errs, &RateError{Comparison: cmp, Err: err})
		}
		return r
	}
	rec.Basic = rate(CmpBasic, seq.Label, seq.Prediction)
	rec.CV = rate(CmpCV, seq.LabelCV, seq.PredictionCV)
	rec.GTRate = rate(CmpGT, seq.GT, seq.Prediction)
	rec.GTCVRate = rate(CmpGTCV, seq.GTCV, seq.PredictionCV)
	rec.LabelGT = rate(CmpLabelGT, seq.GT, seq.Label)
	rec.LabelGTCV = rate(CmpLabelGTCV, seq.GTCV, seq.LabelCV)
	return rec, errs
}

// Rate returns the rate for cmp.
func (r ScoreRecord) Rate(cmp Comparison) Rate {
	switch cmp {
	case CmpBasic:
		return r.Basic
	case CmpCV:
		return r.CV
	case CmpGT:
		return r.GTRate
	case CmpGTCV:
		return r.GTCVRate
	case CmpLabelGT:
		return r.LabelGT
	case CmpLabelGTCV:
		return r.LabelGTCV
	}
	return Rate{}
}

// InventoryEntry lists the clips whose label contains a phoneme.
type InventoryEntry struct {
	Phoneme   string
	Filenames []string
}

// Summary aggregates the records of one stage. Means skip undefined rates;
// Defined counts how many rates went into each mean.
type Summary struct {
	Stage   string
	Clips   int
	Mean    map[Comparison]Rate
	Defined map[Comparison]int
}

// Collector accumulates records in a fixed order. It is not safe for
// concurrent use: feed it from a single goroutine.
type Collector struct {
	stages    StageTable
	records   []ScoreRecord
	inventory map[string]map[string]struct{}
}

// NewCollector returns an empty collector. stages orders the summaries.
func NewCollector(stages StageTable) *Collector {
	return &Collector{stages: stages, inventory: make(map[string]map[string]struct{})}
}

// Add appends rec and records the phonemes of its label.
func (c *Collector) Add(rec ScoreRecord) {
	c.records = append(c.records, rec)
	for _, p := range rec.Label {
		files, ok := c.inventory[p]
		if !ok {
			files = make(map[string]struct{})
			c.inventory[p] = files
		}
		files[rec.Filename] = struct{}{}
	}
}

// Len returns the number of records.
func (c *Collector) Len() int { return len(c.records) }

// Records returns the records in insertion order.
func (c *Collector) Records() []ScoreRecord {
	return slices.Clone(c.records)
}

// Phonemes returns every label phoneme seen, sorted.
func (c *Collector) Phonemes() []string {
	out := make([]string, 0, len(c.inventory))
	for p := range c.inventory {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Inventory returns phoneme to filenames, both sorted.
func (c *Collector) Inventory() []InventoryEntry {
	out := make([]InventoryEntry, 0, len(c.inventory))
	for _, p := range c.Phonemes() {
		files := make([]string, 0, len(c.inventory[p]))
		for f := range c.inventory[p] {
			files = append(files, f)
		}
		sort.Strings(files)
		out = append(out, InventoryEntry{Phoneme: p, Filenames: files})
	}
	return out
}

// Summaries returns one summary per stage that has records, in stage table
// order. Stages unknown to the table come last, by name.
func (c *Collector) Summaries() []Summary {
	byStage := make(map[string]*Summary)
	sums := make(map[string]map[Comparison]float64)
	for _, rec := range c.records {
		s, ok := byStage[rec.Stage]
		if !ok {
			s = &Summary{Stage: rec.Stage, Mean: make(map[Comparison]Rate), Defined: make(map[Comparison]int)}
			byStage[rec.Stage] = s
			sums[rec.Stage] = make(map[Comparison]float64)
		}
		s.Clips++
		for _, cmp := range Comparisons {
			if r := rec.Rate(cmp); r.Valid {
				sums[rec.Stage][cmp] += r.Value
				s.Defined[cmp]++
			}
		}
	}

	out := make([]Summary, 0, len(byStage))
	for name, s := range byStage {
		for _, cmp := range Comparisons {
			if n := s.Defined[cmp]; n > 0 {
				s.Mean[cmp] = Rate{Value: sums[name][cmp] / float64(n), Valid: true}
			} else {
				s.Mean[cmp] = Rate{}
			}
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := c.stages.index(out[i].Stage), c.stages.index(out[j].Stage)
		if a != b {
			return a < b
		}
		return out[i].Stage < out[j].Stage
	})
	return out
}
