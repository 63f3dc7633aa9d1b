// Package annotation holds the multi-tier interval model shared by the crop,
// boundary and scoring stages.
//
// A Document is a set of named Tiers that all span the same [XMin, XMax]
// window. Each Tier is an ordered, non-overlapping run of Intervals. Values
// are treated as immutable once constructed: Crop and Rebase return new
// documents and never touch the receiver.
package annotation

import (
	"fmt"
	"iter"
	"math"
)

// Tier names used across the pipeline.
const (
	RoleWord      = "word"
	RoleSyllable  = "syllable"
	RolePhonetic  = "phonetic"
	RoleStructure = "structure"
	RoleError     = "error"
)

// Epsilon is the tolerance used when comparing timestamps read from text.
const Epsilon = 1e-9

// SliceMode selects how intervals crossing a window edge are treated.
type SliceMode int

const (
	// Truncated keeps every overlapping interval and clips it to the window.
	Truncated SliceMode = iota
	// Strict keeps only intervals fully contained in the window.
	Strict
)

// Interval is one labelled time span in seconds.
type Interval struct {
	Start float64
	End   float64
	Label string
}

// Duration returns End - Start.
func (iv Interval) Duration() float64 { return iv.End - iv.Start }

// Empty reports whether the interval carries no label.
func (iv Interval) Empty() bool { return iv.Label == "" }

// Tier is a named, ordered sequence of intervals.
type Tier struct {
	Name      string
	XMin      float64
	XMax      float64
	intervals []Interval
}

// NewTier validates intervals and returns a tier spanning them.
// It fails with *MalformedTierError when an interval has Start > End, when
// starts are not in nondecreasing order, or when two intervals overlap.
func NewTier(name string, intervals []Interval) (*Tier, error) {
	for i, iv := range intervals {
		if math.IsNaN(iv.Start) || math.IsNaN(iv.End) {
			return nil, &MalformedTierError{Tier: name, Index: i, Reason: "timestamp is NaN"}
		}
		if iv.Start > iv.End {
			return nil, &MalformedTierError{Tier: name, Index: i,
				Reason: fmt.Sprintf("start %g is after end %g", iv.Start, iv.End)}
		}
		if i == 0 {
			continue
		}
		prev := intervals[i-1]
		if iv.Start < prev.Start {
			return nil, &MalformedTierError{Tier: name, Index: i,
				Reason: fmt.Sprintf("start %g precedes previous start %g", iv.Start, prev.Start)}
		}
		if iv.Start < prev.End-Epsilon {
			return nil, &MalformedTierError{Tier: name, Index: i,
				Reason: fmt.Sprintf("start %g overlaps previous interval ending at %g", iv.Start, prev.End)}
		}
	}

	t := &Tier{Name: name, intervals: append([]Interval(nil), intervals...)}
	if len(intervals) > 0 {
		t.XMin = intervals[0].Start
		t.XMax = intervals[len(intervals)-1].End
	}
	return t, nil
}

// Len returns the number of intervals.
func (t *Tier) Len() int { return len(t.intervals) }

// At returns the i-th interval.
func (t *Tier) At(i int) Interval { return t.intervals[i] }

// Entries yields the intervals in order. The sequence can be ranged over
// any number of times.
func (t *Tier) Entries() iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		for _, iv := range t.intervals {
			if !yield(iv) {
				return
			}
		}
	}
}

// Intervals returns a copy of the tier's intervals.
func (t *Tier) Intervals() []Interval {
	return append([]Interval(nil), t.intervals...)
}

// Labelled returns the intervals whose label is not empty.
func (t *Tier) Labelled() []Interval {
	out := make([]Interval, 0, len(t.intervals))
	for _, iv := range t.intervals {
		if !iv.Empty() {
			out = append(out, iv)
		}
	}
	return out
}

// Slice returns the intervals overlapping [t0, t1).
func (t *Tier) Slice(t0, t1 float64, mode SliceMode) []Interval {
	var out []Interval
	for _, iv := range t.intervals {
		if iv.End <= t0 || iv.Start >= t1 {
			continue
		}
		switch mode {
		case Strict:
			if iv.Start < t0 || iv.End > t1 {
				continue
			}
			out = append(out, iv)
		default:
			out = append(out, Interval{
				Start: math.Max(iv.Start, t0),
				End:   math.Min(iv.End, t1),
				Label: iv.Label,
			})
		}
	}
	return out
}

// Labels returns the labels of all intervals, empty ones included.
func (t *Tier) Labels() []string {
	out := make([]string, len(t.intervals))
	for i, iv := range t.intervals {
		out[i] = iv.Label
	}
	return out
}
