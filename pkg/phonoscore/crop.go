package phonoscore

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/himanishpuri/PhonoScore/pkg/annotation"
	"github.com/himanishpuri/PhonoScore/pkg/boundary"
	"github.com/himanishpuri/PhonoScore/pkg/utils"
)

// CropDocument splits doc into one clip per labelled interval of splitTier.
// Each clip is named after the labelled word interval at the same position,
// with any "a/b" disambiguation reduced to "b". The two tiers must carry the
// same number of labelled intervals, otherwise a *annotation.TierMismatchError
// is returned and nothing is cropped.
func CropDocument(doc *annotation.Document, participantID, audioID, wordTier, splitTier string) ([]Clip, error) {
	split, err := doc.Tier(splitTier)
	if err != nil {
		return nil, err
	}
	words, err := doc.Tier(wordTier)
	if err != nil {
		return nil, err
	}

	windows := split.Labelled()
	if len(windows) == 0 {
		return nil, &annotation.MalformedTierError{Tier: splitTier, Index: -1, Reason: "no labelled intervals to crop"}
	}
	labelled := words.Labelled()
	if len(labelled) != len(windows) {
		return nil, &annotation.TierMismatchError{
			WordTier:  wordTier,
			SplitTier: splitTier,
			Words:     len(labelled),
			Windows:   len(windows),
		}
	}

	seen := make(map[string]int, len(windows))
	clips := make([]Clip, 0, len(windows))
	for i, w := range windows {
		label := boundary.StripDisambiguation(labelled[i].Label)
		seen[label]++

		abs, err := doc.Crop(w.Start, w.End, annotation.Truncated)
		if err != nil {
			return nil, fmt.Errorf("cropping window %d [%g, %g]: %w", i, w.Start, w.End, err)
		}
		clips = append(clips, Clip{
			ID: ClipID{
				ParticipantID: participantID,
				AudioID:       audioID,
				WordLabel:     label,
				Occurrence:    seen[label],
			},
			Start:    w.Start,
			End:      w.End,
			Absolute: abs,
			Rebased:  abs.Rebase(),
		})
	}
	return clips, nil
}

// ParseClipName recovers the clip identity from a file named
// <participant>_<audio>_<word>[_<n>].<ext>. The participant prefix must be
// known since participant IDs contain underscores.
func ParseClipName(participantID, filename string) (ClipID, error) {
	stem := utils.Stem(filepath.Base(filename))
	rest, ok := strings.CutPrefix(stem, participantID+"_")
	if !ok {
		return ClipID{}, fmt.Errorf("clip name %q does not start with participant %q", stem, participantID)
	}

	parts := strings.Split(rest, "_")
	occurrence := 1
	if len(parts) >= 3 {
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil && n > 1 {
			occurrence = n
			parts = parts[:len(parts)-1]
		}
	}
	if len(parts) < 2 || parts[len(parts)-1] == "" {
		return ClipID{}, fmt.Errorf("clip name %q has no audio and word parts", stem)
	}
	return ClipID{
		ParticipantID: participantID,
		AudioID:       strings.Join(parts[:len(parts)-1], "_"),
		WordLabel:     parts[len(parts)-1],
		Occurrence:    occurrence,
	}, nil
}
