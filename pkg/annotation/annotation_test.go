package annotation

import (
	"errors"
	"math"
	"testing"
)

func mustTier(t *testing.T, name string, ivs ...Interval) *Tier {
	t.Helper()
	tier, err := NewTier(name, ivs)
	if err != nil {
		t.Fatalf("NewTier(%q) failed: %v", name, err)
	}
	return tier
}

func TestNewTierValidation(t *testing.T) {
	tests := []struct {
		name      string
		intervals []Interval
		wantErr   bool
	}{
		{"empty", nil, false},
		{"contiguous", []Interval{{0, 1, "a"}, {1, 2, "b"}}, false},
		{"gap", []Interval{{0, 1, "a"}, {1.5, 2, "b"}}, false},
		{"zero length", []Interval{{0, 0, ""}, {0, 1, "a"}}, false},
		{"start after end", []Interval{{1, 0.5, "a"}}, true},
		{"unsorted", []Interval{{1, 2, "b"}, {0, 1, "a"}}, true},
		{"overlap", []Interval{{0, 1.2, "a"}, {1, 2, "b"}}, true},
		{"nan", []Interval{{math.NaN(), 1, "a"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTier("word", tt.intervals)
			if tt.wantErr {
				var mte *MalformedTierError
				if !errors.As(err, &mte) {
					t.Fatalf("expected MalformedTierError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEntriesPreservesOrderAndRestarts(t *testing.T) {
	in := []Interval{{0, 0.5, ""}, {0.5, 1, "ba"}, {1, 2, ""}}
	tier := mustTier(t, "word", in...)

	for pass := 0; pass < 2; pass++ {
		i := 0
		for iv := range tier.Entries() {
			if iv != in[i] {
				t.Errorf("pass %d entry %d = %+v, want %+v", pass, i, iv, in[i])
			}
			i++
		}
		if i != len(in) {
			t.Errorf("pass %d yielded %d entries, want %d", pass, i, len(in))
		}
	}
}

func TestEntriesEarlyStop(t *testing.T) {
	tier := mustTier(t, "word", Interval{0, 1, "a"}, Interval{1, 2, "b"})
	n := 0
	for range tier.Entries() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("expected 1 iteration, got %d", n)
	}
}

func TestSliceModes(t *testing.T) {
	tier := mustTier(t, "phonetic",
		Interval{0, 1, "a"},
		Interval{1, 2, "b"},
		Interval{2, 3, "c"},
	)

	truncated := tier.Slice(0.5, 2.5, Truncated)
	want := []Interval{{0.5, 1, "a"}, {1, 2, "b"}, {2, 2.5, "c"}}
	if len(truncated) != len(want) {
		t.Fatalf("truncated slice = %+v, want %+v", truncated, want)
	}
	for i := range want {
		if truncated[i] != want[i] {
			t.Errorf("truncated[%d] = %+v, want %+v", i, truncated[i], want[i])
		}
	}

	strict := tier.Slice(0.5, 2.5, Strict)
	if len(strict) != 1 || strict[0] != (Interval{1, 2, "b"}) {
		t.Errorf("strict slice = %+v, want only b", strict)
	}

	if got := tier.Slice(1, 2, Truncated); len(got) != 1 || got[0].Label != "b" {
		t.Errorf("exact window slice = %+v, want only b", got)
	}
}

func buildDoc(t *testing.T) *Document {
	t.Helper()
	word := mustTier(t, RoleWord,
		Interval{0, 0.4, ""}, Interval{0.4, 1.1, "ba"}, Interval{1.1, 1.5, ""}, Interval{1.5, 2.3, "eye"}, Interval{2.3, 3, ""})
	phon := mustTier(t, RolePhonetic,
		Interval{0, 0.4, ""}, Interval{0.4, 1.1, "b,a"}, Interval{1.1, 1.5, ""}, Interval{1.5, 2.3, "aɪ"}, Interval{2.3, 3, ""})
	errTier := mustTier(t, RoleError, Interval{0, 3, ""})
	doc, err := NewDocument(0, 3, word, phon, errTier)
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	return doc
}

func TestNewDocumentRejectsOutOfWindow(t *testing.T) {
	tier := mustTier(t, RoleWord, Interval{0, 4, "x"})
	_, err := NewDocument(0, 3, tier)
	var mte *MalformedTierError
	if !errors.As(err, &mte) {
		t.Fatalf("expected MalformedTierError, got %v", err)
	}
}

func TestNewDocumentRejectsDuplicateTier(t *testing.T) {
	a := mustTier(t, RoleWord)
	b := mustTier(t, RoleWord)
	if _, err := NewDocument(0, 1, a, b); err == nil {
		t.Fatal("expected duplicate tier error")
	}
}

func TestDocumentTierLookup(t *testing.T) {
	doc := buildDoc(t)
	if _, err := doc.Tier("missing"); !errors.Is(err, ErrTierNotFound) {
		t.Errorf("expected ErrTierNotFound, got %v", err)
	}
	names := doc.TierNames()
	if len(names) != 3 || names[0] != RoleWord || names[2] != RoleError {
		t.Errorf("TierNames = %v", names)
	}
}

func TestCropRebaseStartsAtZero(t *testing.T) {
	doc := buildDoc(t)

	windows := [][2]float64{{0.4, 1.1}, {1.5, 2.3}, {0.2, 2.9}}
	for _, w := range windows {
		cropped, err := doc.Crop(w[0], w[1], Truncated)
		if err != nil {
			t.Fatalf("Crop(%v) failed: %v", w, err)
		}
		if cropped.XMin != w[0] || cropped.XMax != w[1] {
			t.Errorf("cropped window = [%g, %g], want %v", cropped.XMin, cropped.XMax, w)
		}

		rebased := cropped.Rebase()
		lo, hi := rebased.Bounds()
		if lo != 0 {
			t.Errorf("window %v: rebased min = %g, want exactly 0", w, lo)
		}
		if math.Abs(hi-(w[1]-w[0])) > 1e-6 {
			t.Errorf("window %v: rebased max = %g, want %g", w, hi, w[1]-w[0])
		}
		if math.Abs(rebased.Duration()-(w[1]-w[0])) > 1e-6 {
			t.Errorf("window %v: duration = %g", w, rebased.Duration())
		}
		for _, tier := range rebased.Tiers() {
			for iv := range tier.Entries() {
				if iv.Start < 0 || iv.End < 0 {
					t.Errorf("negative timestamp in %q: %+v", tier.Name, iv)
				}
			}
		}
	}
}

func TestCropDoesNotMutateSource(t *testing.T) {
	doc := buildDoc(t)
	before, _ := doc.Tier(RoleWord)
	first := before.At(1)

	cropped, err := doc.Crop(0.5, 1.0, Truncated)
	if err != nil {
		t.Fatal(err)
	}
	_ = cropped.Rebase()

	after, _ := doc.Tier(RoleWord)
	if after.At(1) != first {
		t.Errorf("source tier mutated: %+v", after.At(1))
	}
}

func TestCropInvertedWindow(t *testing.T) {
	doc := buildDoc(t)
	if _, err := doc.Crop(2, 1, Truncated); err == nil {
		t.Fatal("expected error for inverted window")
	}
}

func TestLabelled(t *testing.T) {
	doc := buildDoc(t)
	word, _ := doc.Tier(RoleWord)
	got := word.Labelled()
	if len(got) != 2 || got[0].Label != "ba" || got[1].Label != "eye" {
		t.Errorf("Labelled = %+v", got)
	}
}
