// Package boundary turns word, syllable and phonetic tiers into the cut
// points used to slice a recording into clips.
//
// Boundaries are returned in tier order and are not clamped: a VOT-padded
// start may be negative. Callers cutting audio clamp to the signal.
package boundary

import (
	"math"
	"strings"

	"github.com/himanishpuri/PhonoScore/pkg/annotation"
)

// Boundary is one audio cut.
type Boundary struct {
	Start     float64
	Stop      float64
	Utterance string
}

// Duration returns Stop - Start.
func (b Boundary) Duration() float64 { return b.Stop - b.Start }

// Mode selects the resolver.
type Mode string

const (
	// ModeWords cuts one clip per labelled phonetic interval.
	ModeWords Mode = "words"
	// ModeSyllables cuts per syllable, falling back to the whole word.
	ModeSyllables Mode = "syllables"
)

// Valid reports whether m names a known resolver.
func (m Mode) Valid() bool { return m == ModeWords || m == ModeSyllables }

// StripDisambiguation returns the part after the first slash of a label
// such as "pie/papa", or the label itself when it has no slash.
func StripDisambiguation(label string) string {
	if parts := strings.Split(label, "/"); len(parts) > 1 {
		return parts[1]
	}
	return label
}

func same(a, b float64) bool { return math.Abs(a-b) <= annotation.Epsilon }

// Syllables reconciles a word tier with a syllable tier. For every labelled
// word [ws, we) each labelled syllable is matched against these rules, first
// match wins:
//
//	full:     start == ws and end == we  -> (start-vot, end+vot), covers the word
//	leading:  start == ws and end < we   -> (start-vot, end), covers the word
//	trailing: end == we and start > ws   -> (start, end+vot)
//	interior: ws < start < we            -> (start, end)
//
// A word no syllable covers is emitted whole as (ws-vot, we+vot, word).
func Syllables(words, syllables *annotation.Tier, vot float64) []Boundary {
	var out []Boundary
	for w := range words.Entries() {
		if w.Empty() {
			continue
		}
		covered := false
		for s := range syllables.Entries() {
			if s.Empty() {
				continue
			}
			switch {
			case same(s.Start, w.Start) && same(s.End, w.End):
				covered = true
				out = append(out, Boundary{Start: s.Start - vot, Stop: s.End + vot, Utterance: s.Label})
			case same(s.Start, w.Start) && s.End < w.End:
				covered = true
				out = append(out, Boundary{Start: s.Start - vot, Stop: s.End, Utterance: s.Label})
			case same(s.End, w.End) && s.Start > w.Start:
				out = append(out, Boundary{Start: s.Start, Stop: s.End + vot, Utterance: s.Label})
			case s.Start > w.Start && s.Start < w.End:
				out = append(out, Boundary{Start: s.Start, Stop: s.End, Utterance: s.Label})
			}
		}
		if !covered {
			out = append(out, Boundary{Start: w.Start - vot, Stop: w.End + vot, Utterance: w.Label})
		}
	}
	return out
}

// Words emits one boundary per labelled phonetic interval, padded by vot on
// both edges and named after the labelled word interval at the same position,
// the same pairing used for cropping. The two tiers must carry the same
// number of labelled intervals.
func Words(phonetic, words *annotation.Tier, vot float64) ([]Boundary, error) {
	windows := phonetic.Labelled()
	labelled := words.Labelled()
	if len(windows) != len(labelled) {
		return nil, &annotation.TierMismatchError{
			WordTier:  words.Name,
			SplitTier: phonetic.Name,
			Words:     len(labelled),
			Windows:   len(windows),
		}
	}
	out := make([]Boundary, 0, len(windows))
	for i, p := range windows {
		out = append(out, Boundary{
			Start:     p.Start - vot,
			Stop:      p.End + vot,
			Utterance: StripDisambiguation(labelled[i].Label),
		})
	}
	return out, nil
}

// Resolve dispatches to the resolver selected by mode.
func Resolve(mode Mode, doc *annotation.Document, wordTier, syllableTier, phoneticTier string, vot float64) ([]Boundary, error) {
	words, err := doc.Tier(wordTier)
	if err != nil {
		return nil, err
	}
	if mode == ModeSyllables {
		syl, err := doc.Tier(syllableTier)
		if err != nil {
			return nil, err
		}
		return Syllables(words, syl, vot), nil
	}
	phon, err := doc.Tier(phoneticTier)
	if err != nil {
		return nil, err
	}
	return Words(phon, words, vot)
}
