// Package phoneme normalises IPA transcriptions and classifies phonemes as
// consonant, vowel or unknown.
//
// All lookup tables are package-level and read-only.
package phoneme

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Structure codes.
const (
	Consonant = "C"
	Vowel     = "V"
	Unknown   = "U"
)

// Separator splits the phonemes of one transcribed interval.
const Separator = ","

type substitution struct {
	narrow string
	broad  string
}

// broadTable maps narrow symbols to their broad equivalents. Order matters:
// entries are applied one after another.
var broadTable = []substitution{
	{"ʈ", "t"},
	{"ʋ", "v"},
	{"ɦ", "h"},
	{"ɸ", "f"},
	{"ɣ", "ɡ"},
	{"ɭ", "l"},
	{"ʂ", "ʃ"},
	{"ǃ", "ʔ"},
	{"ǂ", "ʔ"},
	{"ʘ", "p"},
	{"ɶ", "a"},
	{"ɞ", "ɜ"},
	{"œ", "ɛ"},
	{"θ", "ɘ"},
	{"ʙ", "b"},
}

var vowels = set(
	"u", "j", "ɯ", "ʊ", "a", "ɘ", "ɐ", "i", "ʌ", "æ", "ɒ", "o", "e", "ɛ", "ɜ", "ɑ",
	"ɨ", "ɔ", "ɵ", "ə", "ɪ", "ʉ",
	"aɪ", "eɪ", "oʊ", "aʊ", "ɔɪ", "ɪə", "eə", "ai",
)

var consonants = set(
	"m", "t", "b", "f", "x", "ɱ", "ɹ", "v", "c", "w", "β", "n", "h", "r", "ʧ", "d",
	"s", "p", "q", "ɤ", "ŋ", "ʔ", "ɾ", "k", "g", "l", "ʤ", "ɡ", "ʦ", "ʃ",
)

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

// RemoveDiacritics decomposes s (NFD) and drops combining marks, modifier
// letters, modifier symbols and punctuation other than the comma separator.
func RemoveDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if r != ',' && unicode.In(r, unicode.Mn, unicode.Sk, unicode.Lm, unicode.Po) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NarrowToBroad strips diacritics and folds narrow symbols onto their broad
// counterparts. Applying it to its own output changes nothing.
func NarrowToBroad(s string) string {
	out := RemoveDiacritics(s)
	for _, sub := range broadTable {
		out = strings.ReplaceAll(out, sub.narrow, sub.broad)
	}
	return out
}

// Classify returns Vowel, Consonant or Unknown for one normalised phoneme.
func Classify(token string) string {
	if _, ok := vowels[token]; ok {
		return Vowel
	}
	if _, ok := consonants[token]; ok {
		return Consonant
	}
	return Unknown
}

// Structure classifies each phoneme of seq.
func Structure(seq []string) []string {
	out := make([]string, len(seq))
	for i, p := range seq {
		out[i] = Classify(p)
	}
	return out
}

// Split turns a comma-separated transcription into trimmed, non-empty tokens.
func Split(label string) []string {
	var out []string
	for _, part := range strings.Split(label, Separator) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FirstAlternative keeps the first of slash-separated alternatives, so a
// prediction written "ɪ/ɪə" scores as "ɪ".
func FirstAlternative(token string) string {
	if i := strings.Index(token, "/"); i >= 0 {
		return strings.TrimSpace(token[:i])
	}
	return token
}

// SplitStructure turns a code string such as "CVC" into single codes.
func SplitStructure(codes string) []string {
	var out []string
	for _, r := range codes {
		if unicode.IsSpace(r) || r == ',' {
			continue
		}
		out = append(out, string(r))
	}
	return out
}
