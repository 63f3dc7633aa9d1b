package textgrid

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/himanishpuri/PhonoScore/pkg/annotation"
)

const sample = `File type = "ooTextFile"
Object class = "TextGrid"

xmin = 0
xmax = 2.5
tiers? <exists>
size = 2
item []:
    item [1]:
        class = "IntervalTier"
        name = "word"
        xmin = 0
        xmax = 2.5
        intervals: size = 3
        intervals [1]:
            xmin = 0
            xmax = 0.75
            text = ""
        intervals [2]:
            xmin = 0.75
            xmax = 1.6
            text = "pie/papa"
        intervals [3]:
            xmin = 1.6
            xmax = 2.5
            text = ""
    item [2]:
        class = "IntervalTier"
        name = "phonetic"
        xmin = 0
        xmax = 2.5
        intervals: size = 3
        intervals [1]:
            xmin = 0
            xmax = 0.75
            text = ""
        intervals [2]:
            xmin = 0.75
            xmax = 1.6
            text = "p,a,ˈp,a ""x"""
        intervals [3]:
            xmin = 1.6
            xmax = 2.5
            text = ""
`

const (
	overlapOld = "xmin = 1.6\n            xmax = 2.5\n            text = \"\"\n    item [2]"
	overlapNew = "xmin = 1.2\n            xmax = 2.5\n            text = \"\"\n    item [2]"
)

func TestParseLongFormat(t *testing.T) {
	doc, err := Parse("sample", strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.XMin != 0 || doc.XMax != 2.5 {
		t.Errorf("window = [%g, %g]", doc.XMin, doc.XMax)
	}
	names := doc.TierNames()
	if len(names) != 2 || names[0] != "word" || names[1] != "phonetic" {
		t.Fatalf("tiers = %v", names)
	}

	word, _ := doc.Tier("word")
	if word.Len() != 3 {
		t.Fatalf("word tier has %d intervals, want 3", word.Len())
	}
	if got := word.At(1); got.Start != 0.75 || got.End != 1.6 || got.Label != "pie/papa" {
		t.Errorf("word[1] = %+v", got)
	}

	phon, _ := doc.Tier("phonetic")
	if got := phon.At(1).Label; got != `p,a,ˈp,a "x"` {
		t.Errorf("escaped label = %q", got)
	}
}

func TestParseWithoutEmptyIntervals(t *testing.T) {
	doc, err := Parse("sample", strings.NewReader(sample), WithoutEmptyIntervals())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	word, _ := doc.Tier("word")
	if word.Len() != 1 || word.At(0).Label != "pie/papa" {
		t.Errorf("word tier = %+v", word.Intervals())
	}
}

func TestParseUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	raw, _, err := transform.Bytes(enc, []byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := Parse("utf16", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse UTF-16 failed: %v", err)
	}
	phon, _ := doc.Tier("phonetic")
	if !strings.Contains(phon.At(1).Label, "ˈp") {
		t.Errorf("IPA lost in UTF-16 decoding: %q", phon.At(1).Label)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"garbage", "this is not = = a textgrid"},
		{"wrong object", strings.Replace(sample, `"TextGrid"`, `"Sound"`, 1)},
		{"size mismatch", strings.Replace(sample, "size = 2", "size = 3", 1)},
		{"interval count mismatch", strings.Replace(sample, "intervals: size = 3", "intervals: size = 4", 1)},
		{"overlap", strings.Replace(sample, overlapOld, overlapNew, 1)},
		{"point tier", strings.Replace(sample, `class = "IntervalTier"
        name = "phonetic"`, `class = "TextTier"
        name = "phonetic"`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.name, strings.NewReader(tt.input))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
		})
	}
}

func TestParseOverlapIsMalformedTier(t *testing.T) {
	bad := strings.Replace(sample, overlapOld, overlapNew, 1)
	_, err := Parse("bad", strings.NewReader(bad))
	var mte *annotation.MalformedTierError
	if !errors.As(err, &mte) {
		t.Fatalf("expected wrapped MalformedTierError, got %v", err)
	}
	if mte.Tier != "word" {
		t.Errorf("tier = %q, want word", mte.Tier)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.TextGrid"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	doc, err := Parse("sample", strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	cropped, err := doc.Crop(0.7512345678, 1.6, annotation.Truncated)
	if err != nil {
		t.Fatal(err)
	}
	rebased := cropped.Rebase()

	path := filepath.Join(t.TempDir(), "out", "clip.TextGrid")
	if err := Write(rebased, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	back, err := Read(path)
	if err != nil {
		t.Fatalf("Read after Write failed: %v", err)
	}

	if back.XMin != rebased.XMin || back.XMax != rebased.XMax {
		t.Errorf("window changed: [%g, %g] vs [%g, %g]", back.XMin, back.XMax, rebased.XMin, rebased.XMax)
	}
	for _, name := range rebased.TierNames() {
		want, _ := rebased.Tier(name)
		got, err := back.Tier(name)
		if err != nil {
			t.Fatalf("tier %q lost: %v", name, err)
		}
		if got.Len() != want.Len() {
			t.Fatalf("tier %q: %d intervals, want %d", name, got.Len(), want.Len())
		}
		for i := 0; i < want.Len(); i++ {
			g, w := got.At(i), want.At(i)
			if math.Abs(g.Start-w.Start) > 1e-12 || math.Abs(g.End-w.End) > 1e-12 || g.Label != w.Label {
				t.Errorf("tier %q interval %d = %+v, want %+v", name, i, g, w)
			}
		}
	}
}

func TestEncodeFillsGaps(t *testing.T) {
	tier, err := annotation.NewTier("word", []annotation.Interval{{Start: 0.5, End: 1, Label: "ba"}})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := annotation.NewDocument(0, 2, tier)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	back, err := Parse("filled", &buf)
	if err != nil {
		t.Fatalf("Parse of encoded output failed: %v", err)
	}
	word, _ := back.Tier("word")
	if word.Len() != 3 {
		t.Fatalf("expected 3 intervals after filling, got %+v", word.Intervals())
	}
	if word.At(0).End != 0.5 || word.At(2).Start != 1 || word.At(2).End != 2 {
		t.Errorf("gaps filled incorrectly: %+v", word.Intervals())
	}
}
