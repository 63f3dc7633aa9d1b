// Package scoring compares predicted phoneme transcriptions against
// clinician labels and reference transcriptions.
package scoring

import (
	"fmt"
	"strconv"

	"github.com/antzucaro/matchr"
)

// DivisionUndefinedError is returned when an error rate is requested against
// an empty reference sequence.
type DivisionUndefinedError struct {
	Hypothesis int
}

func (e *DivisionUndefinedError) Error() string {
	return fmt.Sprintf("scoring: error rate undefined for empty reference (hypothesis has %d tokens)", e.Hypothesis)
}

// ErrorRate returns the token-level edit distance between reference and
// hypothesis divided by len(reference). Insertions, deletions and
// substitutions each cost 1.
func ErrorRate(reference, hypothesis []string) (float64, error) {
	if len(reference) == 0 {
		return 0, &DivisionUndefinedError{Hypothesis: len(hypothesis)}
	}
	ref, hyp := encode(reference, hypothesis)
	return float64(matchr.Levenshtein(ref, hyp)) / float64(len(reference)), nil
}

// encode maps every distinct token to one private-use rune so that a
// character edit distance over the results is a token edit distance.
func encode(a, b []string) (string, string) {
	codes := make(map[string]rune, len(a)+len(b))
	next := rune(0xE000)
	conv := func(seq []string) string {
		rs := make([]rune, len(seq))
		for i, tok := range seq {
			r, ok := codes[tok]
			if !ok {
				r = next
				codes[tok] = r
				next++
				if next == 0xF900 {
					next = 0xF0000
				}
			}
			rs[i] = r
		}
		return string(rs)
	}
	return conv(a), conv(b)
}

// Rate is an error rate that may be undefined.
type Rate struct {
	Value float64
	Valid bool
}

// RateOf wraps ErrorRate. The returned error is non-nil exactly when the
// rate is invalid.
func RateOf(reference, hypothesis []string) (Rate, error) {
	v, err := ErrorRate(reference, hypothesis)
	if err != nil {
		return Rate{}, err
	}
	return Rate{Value: v, Valid: true}, nil
}

// String returns the value or "undefined".
func (r Rate) String() string {
	if !r.Valid {
		return "undefined"
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}
