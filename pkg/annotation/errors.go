package annotation

import (
	"errors"
	"fmt"
)

// ErrTierNotFound is returned when a document has no tier with the requested name.
var ErrTierNotFound = errors.New("annotation: tier not found")

// MalformedTierError reports an interval ordering or bounds violation.
// Index is -1 when the problem concerns the tier as a whole.
type MalformedTierError struct {
	Tier   string
	Index  int
	Reason string
}

func (e *MalformedTierError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("annotation: tier %q malformed: %s", e.Tier, e.Reason)
	}
	return fmt.Sprintf("annotation: tier %q malformed at interval %d: %s", e.Tier, e.Index, e.Reason)
}

// TierMismatchError reports that the word tier and the split tier of one
// document do not carry the same number of labelled intervals. It usually
// means at least one split-tier interval was left without a transcription.
type TierMismatchError struct {
	WordTier  string
	SplitTier string
	Words     int
	Windows   int
}

func (e *TierMismatchError) Error() string {
	return fmt.Sprintf("annotation: %d labels on tier %q but %d crop windows on tier %q",
		e.Words, e.WordTier, e.Windows, e.SplitTier)
}
