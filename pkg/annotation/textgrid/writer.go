package textgrid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/himanishpuri/PhonoScore/pkg/annotation"
	"github.com/himanishpuri/PhonoScore/pkg/utils"
)

// Write serialises doc to path in the long TextGrid format. The file is
// written next to its destination and renamed into place.
func Write(doc *annotation.Document, path string) error {
	if err := utils.MakeDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("textgrid: write %s: %w", path, err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("textgrid: write %s: %w", path, err)
	}
	defer os.Remove(tmp)

	if err := Encode(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("textgrid: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("textgrid: write %s: %w", path, err)
	}
	return utils.MoveFile(tmp, path)
}

// Encode writes doc to w as UTF-8. Gaps between intervals are filled with
// blank intervals, Praat refuses interval tiers that do not tile their range.
func Encode(w io.Writer, doc *annotation.Document) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
	}

	tiers := doc.Tiers()
	p("File type = \"ooTextFile\"\n")
	p("Object class = \"TextGrid\"\n\n")
	p("xmin = %s \n", num(doc.XMin))
	p("xmax = %s \n", num(doc.XMax))
	if len(tiers) == 0 {
		p("tiers? <absent> \n")
		return bw.Flush()
	}
	p("tiers? <exists> \n")
	p("size = %d \n", len(tiers))
	p("item []: \n")

	for i, t := range tiers {
		ivs := fill(t.Intervals(), doc.XMin, doc.XMax)
		p("    item [%d]:\n", i+1)
		p("        class = \"IntervalTier\" \n")
		p("        name = %s \n", quote(t.Name))
		p("        xmin = %s \n", num(doc.XMin))
		p("        xmax = %s \n", num(doc.XMax))
		p("        intervals: size = %d \n", len(ivs))
		for j, iv := range ivs {
			p("        intervals [%d]:\n", j+1)
			p("            xmin = %s \n", num(iv.Start))
			p("            xmax = %s \n", num(iv.End))
			p("            text = %s \n", quote(iv.Label))
		}
	}
	return bw.Flush()
}

// num formats v with the fewest digits that parse back to the same float.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fill(ivs []annotation.Interval, xmin, xmax float64) []annotation.Interval {
	out := make([]annotation.Interval, 0, len(ivs)+2)
	cursor := xmin
	for _, iv := range ivs {
		if iv.Start > cursor+annotation.Epsilon {
			out = append(out, annotation.Interval{Start: cursor, End: iv.Start})
		}
		out = append(out, iv)
		cursor = iv.End
	}
	if xmax > cursor+annotation.Epsilon {
		out = append(out, annotation.Interval{Start: cursor, End: xmax})
	}
	return out
}
