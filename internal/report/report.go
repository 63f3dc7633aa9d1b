// Package report reads the reference word table and writes the score,
// inventory and stage summary tables as UTF-8 CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/himanishpuri/PhonoScore/pkg/scoring"
	"github.com/himanishpuri/PhonoScore/pkg/utils"
)

// Default file names written by the score command.
const (
	ScoresFile    = "error_rates_by_stage.csv"
	InventoryFile = "phoneme_files.csv"
	SummaryFile   = "stage_summary.csv"
)

// ScoreHeader is the column order of the score table.
var ScoreHeader = []string{
	"Filename", "Stage",
	"Prediction", "Label", "Error_Rate_Basic",
	"Prediction_CV", "Label_CV", "Error_Rate_CV",
	"GT", "Error_Rate_GT",
	"GT_CV", "Error_Rate_GT_CV",
	"Error_Rate_Label_GT", "Error_Rate_Label_GT_CV",
}

// summaryColumns names the summary column of each comparison.
var summaryColumns = map[scoring.Comparison]string{
	scoring.CmpBasic:     "Error_Rate_Basic",
	scoring.CmpCV:        "Error_Rate_CV",
	scoring.CmpGT:        "Error_Rate_GT",
	scoring.CmpGTCV:      "Error_Rate_GT_CV",
	scoring.CmpLabelGT:   "Error_Rate_Label_GT",
	scoring.CmpLabelGTCV: "Error_Rate_Label_GT_CV",
}

func list(seq []string) string {
	if seq == nil {
		seq = []string{}
	}
	b, _ := json.Marshal(seq)
	return string(b)
}

// WriteScores writes one row per record.
func WriteScores(w io.Writer, recs []scoring.ScoreRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ScoreHeader); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.Filename, r.Stage,
			list(r.Prediction), list(r.Label), r.Basic.String(),
			list(r.PredictionCV), list(r.LabelCV), r.CV.String(),
			list(r.GT), r.GTRate.String(),
			list(r.GTCV), r.GTCVRate.String(),
			r.LabelGT.String(), r.LabelGTCV.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInventory writes one row per phoneme with its files as a JSON array.
func WriteInventory(w io.Writer, inv []scoring.InventoryEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Phoneme", "Filenames"}); err != nil {
		return err
	}
	for _, e := range inv {
		if err := cw.Write([]string{e.Phoneme, list(e.Filenames)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary writes one row per stage: clip count, then the mean and the
// number of defined values of every rate.
func WriteSummary(w io.Writer, sums []scoring.Summary) error {
	cw := csv.NewWriter(w)
	header := []string{"Stage", "Clips"}
	for _, cmp := range scoring.Comparisons {
		header = append(header, summaryColumns[cmp], summaryColumns[cmp]+"_N")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range sums {
		row := []string{s.Stage, strconv.Itoa(s.Clips)}
		for _, cmp := range scoring.Comparisons {
			row = append(row, s.Mean[cmp].String(), strconv.Itoa(s.Defined[cmp]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path through a temporary file and renames it into place
// once write succeeds.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := utils.MakeDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("report: %w", err)
	}
	return utils.MoveFile(tmp, path)
}

// Tables holds everything the score command writes.
type Tables struct {
	Records   []scoring.ScoreRecord
	Inventory []scoring.InventoryEntry
	Summaries []scoring.Summary
}

// WriteAll writes the three tables into dir and returns their paths.
func WriteAll(dir string, t Tables) ([]string, error) {
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{ScoresFile, func(w io.Writer) error { return WriteScores(w, t.Records) }},
		{InventoryFile, func(w io.Writer) error { return WriteInventory(w, t.Inventory) }},
		{SummaryFile, func(w io.Writer) error { return WriteSummary(w, t.Summaries) }},
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		if err := WriteFile(p, f.write); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
