package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/himanishpuri/PhonoScore/pkg/phoneme"
	"github.com/himanishpuri/PhonoScore/pkg/scoring"
)

// Reference table columns.
const (
	ColWord      = "Word"
	ColIPA       = "IPA Transcription"
	ColStructure = "Syllable Structure"
)

// ReadReference loads the reference transcription table at path.
func ReadReference(path string) (*scoring.Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	defer f.Close()

	ref, err := DecodeReference(f)
	if err != nil {
		return nil, fmt.Errorf("report: %s: %w", path, err)
	}
	return ref, nil
}

// DecodeReference parses a reference table. A UTF-8 or UTF-16 byte order
// mark is honoured; without one the input is read as UTF-8.
func DecodeReference(r io.Reader) (*scoring.Reference, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty reference table")
	}
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{ColWord, ColIPA, ColStructure} {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("missing column %q", want)
		}
	}

	field := func(row []string, col string) string {
		if i := cols[col]; i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var entries []scoring.Entry
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		word := field(row, ColWord)
		if word == "" {
			continue
		}
		entries = append(entries, scoring.Entry{
			Word:      word,
			Phonemes:  phoneme.Split(field(row, ColIPA)),
			Structure: phoneme.SplitStructure(field(row, ColStructure)),
		})
	}
	return scoring.NewReference(entries...), nil
}
