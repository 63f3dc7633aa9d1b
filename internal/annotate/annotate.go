// Package annotate bootstraps TextGrids from the timestamp spreadsheets
// exported by the video annotation tool.
package annotate

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/himanishpuri/PhonoScore/pkg/annotation"
	"github.com/himanishpuri/PhonoScore/pkg/annotation/textgrid"
	"github.com/himanishpuri/PhonoScore/pkg/phonoscore/audio"
)

// FrameRate is the frame rate of exported timecodes.
const FrameRate = 60

// Row is one word of the spreadsheet.
type Row struct {
	Word   string
	Onset  float64
	Offset float64
}

// RowError reports an unusable spreadsheet line.
type RowError struct {
	Line   int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("annotate: line %d: %s", e.Line, e.Reason)
}

// ParseTimecode converts HH:MM:SS:FF to seconds.
func ParseTimecode(tc string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(tc), ":")
	if len(parts) != 4 {
		return 0, fmt.Errorf("timecode %q: want HH:MM:SS:FF", tc)
	}
	var n [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("timecode %q: bad field %q", tc, p)
		}
		n[i] = v
	}
	frames := ((n[0]*60+n[1])*60+n[2])*FrameRate + n[3]
	return float64(frames) / FrameRate, nil
}

// ReadRows reads the spreadsheet at path.
func ReadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	defer f.Close()
	return DecodeRows(f)
}

// DecodeRows parses tab-separated UTF-16 rows after a header line. Columns
// are word, an unused column, onset and offset; extra columns are ignored.
func DecodeRows(r io.Reader) ([]Row, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("annotate: empty spreadsheet")
		}
		return nil, fmt.Errorf("annotate: %w", err)
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("annotate: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < 4 {
			return nil, &RowError{Line: line, Reason: fmt.Sprintf("%d fields, want at least 4", len(rec))}
		}
		onset, err := ParseTimecode(rec[2])
		if err != nil {
			return nil, &RowError{Line: line, Reason: err.Error()}
		}
		offset, err := ParseTimecode(rec[3])
		if err != nil {
			return nil, &RowError{Line: line, Reason: err.Error()}
		}
		rows = append(rows, Row{Word: strings.TrimSpace(rec[0]), Onset: onset, Offset: offset})
	}
	if len(rows) == 0 {
		return nil, errors.New("annotate: spreadsheet has no rows")
	}
	return rows, nil
}

// Build lays rows out on [0, duration]. The word tier carries the labels;
// the syllable, phonetic and error tiers share its boundaries with blank
// labels, ready for transcription.
func Build(rows []Row, duration float64) (*annotation.Document, error) {
	var labelled, blank []annotation.Interval
	add := func(start, end float64, label string) {
		if end-start <= annotation.Epsilon && label == "" {
			return
		}
		labelled = append(labelled, annotation.Interval{Start: start, End: end, Label: label})
		blank = append(blank, annotation.Interval{Start: start, End: end})
	}

	prev := 0.0
	for _, r := range rows {
		add(prev, r.Onset, "")
		add(r.Onset, r.Offset, r.Word)
		prev = r.Offset
	}
	add(prev, duration, "")

	names := []string{annotation.RoleWord, annotation.RoleSyllable, annotation.RolePhonetic, annotation.RoleError}
	tiers := make([]*annotation.Tier, 0, len(names))
	for i, name := range names {
		ivs := blank
		if i == 0 {
			ivs = labelled
		}
		t, err := annotation.NewTier(name, ivs)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return annotation.NewDocument(0, duration, tiers...)
}

// Bootstrap writes a TextGrid for the recording at wavPath from the
// spreadsheet at sheetPath.
func Bootstrap(ctx context.Context, sheetPath, wavPath, outPath string) (*annotation.Document, error) {
	rows, err := ReadRows(sheetPath)
	if err != nil {
		return nil, err
	}
	duration, err := audio.Duration(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	doc, err := Build(rows, duration)
	if err != nil {
		return nil, fmt.Errorf("annotate: %s: %w", sheetPath, err)
	}
	if err := textgrid.Write(doc, outPath); err != nil {
		return nil, err
	}
	return doc, nil
}
