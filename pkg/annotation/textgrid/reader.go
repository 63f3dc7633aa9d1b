// Package textgrid reads and writes Praat TextGrid files in the long text
// format.
package textgrid

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/himanishpuri/PhonoScore/pkg/annotation"
)

// ParseError wraps any failure to turn a file into a document.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("textgrid: parse %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("textgrid: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type readOptions struct {
	dropEmpty bool
}

// ReadOption tunes Read and Parse.
type ReadOption func(*readOptions)

// WithoutEmptyIntervals drops intervals with an empty label.
func WithoutEmptyIntervals() ReadOption {
	return func(o *readOptions) { o.dropEmpty = true }
}

// Read parses the TextGrid at path.
func Read(path string, opts ...ReadOption) (*annotation.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()
	return parse(path, f, opts...)
}

// Parse decodes a TextGrid from r. name is only used in error messages.
func Parse(name string, r io.Reader, opts ...ReadOption) (*annotation.Document, error) {
	return parse(name, r, opts...)
}

func parse(name string, r io.Reader, opts ...ReadOption) (*annotation.Document, error) {
	o := readOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}

	file, err := textgridParser.ParseBytes(name, text)
	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}

	doc, line, err := build(file, o)
	if err != nil {
		return nil, &ParseError{Path: name, Line: line, Err: err}
	}
	return doc, nil
}

// decodeText returns UTF-8 text. Praat writes UTF-16 with a BOM when a file
// contains characters outside Latin-1, which is common for IPA.
func decodeText(raw []byte) ([]byte, error) {
	if len(raw) >= 2 && (bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) || bytes.HasPrefix(raw, []byte{0xFE, 0xFF})) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, raw)
		if err != nil {
			return nil, fmt.Errorf("decoding utf-16: %w", err)
		}
		return out, nil
	}
	return bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), nil
}

type rawTier struct {
	name      string
	class     string
	xmin      float64
	xmax      float64
	declared  int
	intervals []annotation.Interval
	line      int
}

// build walks the flat statements and assembles tiers. It returns the line
// of the offending statement on error.
func build(file *tgFile, o readOptions) (*annotation.Document, int, error) {
	var (
		xmin, xmax   float64
		declaredSize = -1
		tiers        []*rawTier
		cur          *rawTier
		iv           *annotation.Interval
		prevKey      string
		header       = map[string]string{}
	)

	flushInterval := func() {
		if cur != nil && iv != nil {
			if !o.dropEmpty || strings.TrimSpace(iv.Label) != "" {
				cur.intervals = append(cur.intervals, *iv)
			}
		}
		iv = nil
	}

	for _, st := range file.Statements {
		line := st.Pos.Line
		key := st.key()

		switch key {
		case "File type", "Object class":
			if st.Value == nil || st.Value.String == nil {
				return nil, line, fmt.Errorf("%s has no string value", key)
			}
			header[key] = unquote(*st.Value.String)

		case "item":
			if st.Index == nil || st.Index.Number == nil {
				break
			}
			flushInterval()
			cur = &rawTier{declared: -1, line: line}
			tiers = append(tiers, cur)

		case "class":
			if cur == nil {
				return nil, line, fmt.Errorf("class outside of a tier")
			}
			s, err := stringValue(st)
			if err != nil {
				return nil, line, err
			}
			cur.class = s

		case "name":
			if cur == nil {
				return nil, line, fmt.Errorf("name outside of a tier")
			}
			s, err := stringValue(st)
			if err != nil {
				return nil, line, err
			}
			cur.name = s

		case "xmin", "xmax":
			v, err := numberValue(st)
			if err != nil {
				return nil, line, err
			}
			switch {
			case iv != nil && key == "xmin":
				iv.Start = v
			case iv != nil:
				iv.End = v
			case cur != nil && key == "xmin":
				cur.xmin = v
			case cur != nil:
				cur.xmax = v
			case key == "xmin":
				xmin = v
			default:
				xmax = v
			}

		case "tiers":
			// "tiers? <exists>"

		case "size":
			v, err := numberValue(st)
			if err != nil {
				return nil, line, err
			}
			if prevKey == "intervals" && cur != nil {
				cur.declared = int(v)
			} else if cur == nil {
				declaredSize = int(v)
			}

		case "intervals":
			if cur == nil {
				return nil, line, fmt.Errorf("intervals outside of a tier")
			}
			if st.Index == nil || st.Index.Number == nil {
				break
			}
			flushInterval()
			iv = &annotation.Interval{}

		case "text":
			if iv == nil {
				return nil, line, fmt.Errorf("text outside of an interval")
			}
			s, err := stringValue(st)
			if err != nil {
				return nil, line, err
			}
			iv.Label = s

		case "points":
			return nil, line, fmt.Errorf("point tiers are not supported")

		default:
			return nil, line, fmt.Errorf("unexpected key %q", key)
		}
		prevKey = key
	}
	flushInterval()

	if header["File type"] != "ooTextFile" {
		return nil, 0, fmt.Errorf("file type %q is not ooTextFile", header["File type"])
	}
	if header["Object class"] != "TextGrid" {
		return nil, 0, fmt.Errorf("object class %q is not TextGrid", header["Object class"])
	}
	if declaredSize >= 0 && declaredSize != len(tiers) {
		return nil, 0, fmt.Errorf("declared %d tiers, found %d", declaredSize, len(tiers))
	}

	built := make([]*annotation.Tier, 0, len(tiers))
	for _, rt := range tiers {
		if rt.class != "IntervalTier" {
			return nil, rt.line, fmt.Errorf("tier %q has unsupported class %q", rt.name, rt.class)
		}
		if !o.dropEmpty && rt.declared >= 0 && rt.declared != len(rt.intervals) {
			return nil, rt.line, fmt.Errorf("tier %q declares %d intervals, found %d", rt.name, rt.declared, len(rt.intervals))
		}
		t, err := annotation.NewTier(rt.name, rt.intervals)
		if err != nil {
			return nil, rt.line, err
		}
		built = append(built, t)
	}

	doc, err := annotation.NewDocument(xmin, xmax, built...)
	if err != nil {
		return nil, 0, err
	}
	return doc, 0, nil
}

func stringValue(st *tgStatement) (string, error) {
	if st.Value == nil || st.Value.String == nil {
		return "", fmt.Errorf("%s expects a string value", st.key())
	}
	return unquote(*st.Value.String), nil
}

func numberValue(st *tgStatement) (float64, error) {
	if st.Value == nil || st.Value.Number == nil {
		return 0, fmt.Errorf("%s expects a number", st.key())
	}
	v, err := strconv.ParseFloat(*st.Value.Number, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", st.key(), err)
	}
	return v, nil
}
