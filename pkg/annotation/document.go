package annotation

import (
	"fmt"
	"math"
)

// Document is a set of tiers sharing one time window.
type Document struct {
	XMin  float64
	XMax  float64
	tiers []*Tier
	index map[string]int
}

// NewDocument binds tiers to the window [xmin, xmax]. Every tier's bounds
// are set to the document's; an interval lying outside the window or a
// repeated tier name is an error.
func NewDocument(xmin, xmax float64, tiers ...*Tier) (*Document, error) {
	if xmin > xmax {
		return nil, fmt.Errorf("annotation: document xmin %g is after xmax %g", xmin, xmax)
	}
	d := &Document{XMin: xmin, XMax: xmax, index: make(map[string]int, len(tiers))}
	for _, t := range tiers {
		if _, dup := d.index[t.Name]; dup {
			return nil, fmt.Errorf("annotation: duplicate tier %q", t.Name)
		}
		for i, iv := range t.intervals {
			if iv.Start < xmin-Epsilon || iv.End > xmax+Epsilon {
				return nil, &MalformedTierError{Tier: t.Name, Index: i,
					Reason: fmt.Sprintf("[%g, %g] lies outside document window [%g, %g]", iv.Start, iv.End, xmin, xmax)}
			}
		}
		bound := &Tier{Name: t.Name, XMin: xmin, XMax: xmax, intervals: t.intervals}
		d.index[t.Name] = len(d.tiers)
		d.tiers = append(d.tiers, bound)
	}
	return d, nil
}

// Duration returns XMax - XMin.
func (d *Document) Duration() float64 { return d.XMax - d.XMin }

// Tier returns the tier called name or ErrTierNotFound.
func (d *Document) Tier(name string) (*Tier, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTierNotFound, name)
	}
	return d.tiers[i], nil
}

// HasTier reports whether a tier called name exists.
func (d *Document) HasTier(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Tiers returns the tiers in document order.
func (d *Document) Tiers() []*Tier {
	return append([]*Tier(nil), d.tiers...)
}

// TierNames returns tier names in document order.
func (d *Document) TierNames() []string {
	out := make([]string, len(d.tiers))
	for i, t := range d.tiers {
		out[i] = t.Name
	}
	return out
}

// Crop slices every tier to [t0, t1) and returns a document whose window is
// exactly [t0, t1]. Timestamps stay absolute; see Rebase.
func (d *Document) Crop(t0, t1 float64, mode SliceMode) (*Document, error) {
	if t0 > t1 {
		return nil, fmt.Errorf("annotation: crop window [%g, %g] is inverted", t0, t1)
	}
	tiers := make([]*Tier, 0, len(d.tiers))
	for _, t := range d.tiers {
		nt, err := NewTier(t.Name, t.Slice(t0, t1, mode))
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, nt)
	}
	return NewDocument(t0, t1, tiers...)
}

// Rebase shifts every timestamp by the document's XMin so the result starts
// at zero. Values that would fall below zero through rounding are clamped.
func (d *Document) Rebase() *Document {
	shift := d.XMin
	at := func(v float64) float64 { return math.Max(0, v-shift) }

	out := &Document{XMin: 0, XMax: at(d.XMax), index: make(map[string]int, len(d.tiers))}
	for i, t := range d.tiers {
		ivs := make([]Interval, len(t.intervals))
		for j, iv := range t.intervals {
			ivs[j] = Interval{Start: at(iv.Start), End: at(iv.End), Label: iv.Label}
		}
		out.index[t.Name] = i
		out.tiers = append(out.tiers, &Tier{Name: t.Name, XMin: 0, XMax: out.XMax, intervals: ivs})
	}
	return out
}

// Bounds returns the smallest and largest timestamp found in the document,
// including the document window itself.
func (d *Document) Bounds() (lo, hi float64) {
	lo, hi = d.XMin, d.XMax
	for _, t := range d.tiers {
		for _, iv := range t.intervals {
			lo = math.Min(lo, iv.Start)
			hi = math.Max(hi, iv.End)
		}
	}
	return lo, hi
}
