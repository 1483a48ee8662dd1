package subtitle

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"videoscribe/internal/engine"
)

// Merger turns the engine's raw segment stream into clean,
// non-overlapping cues bounded by a maximum cue duration
type Merger struct {
	maxLengthS float64
}

// NewMerger creates a Merger with the given maximum cue duration in seconds
func NewMerger(maxLengthS float64) (*Merger, error) {
	if maxLengthS <= 0 {
		return nil, fmt.Errorf("max cue length must be positive, got %.3f", maxLengthS)
	}
	return &Merger{maxLengthS: maxLengthS}, nil
}

// Merge folds the ordered raw segment stream into a new cue list.
// An empty input yields an empty cue list, not an error. Segments with
// invalid or overlapping timing are rejected as an engine error.
func (m *Merger) Merge(segments []engine.RawSegment) ([]Cue, error) {
	kept := dropEmptySegments(segments)

	// The engine normally emits temporally ordered segments; sort
	// defensively, stable on ties by original index.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].StartMS < kept[j].StartMS
	})

	if err := validateStream(kept); err != nil {
		return nil, err
	}

	maxLengthMS := int(math.Round(m.maxLengthS * 1000))

	var cues []Cue
	var texts []string
	var current Cue

	flush := func() {
		if len(texts) == 0 {
			return
		}
		current.Text = strings.Join(texts, " ")
		// Zero-duration cues are dropped rather than emitted.
		if current.EndMS > current.StartMS {
			cues = append(cues, current)
		}
		texts = nil
	}

	for i, seg := range kept {
		if len(texts) > 0 && seg.EndMS-current.StartMS <= maxLengthMS && !hardBreak(kept[i-1], seg) {
			texts = append(texts, strings.TrimSpace(seg.Text))
			current.EndMS = seg.EndMS
			continue
		}

		flush()
		// A single over-long segment still becomes its own cue; recognized
		// content is never truncated to satisfy the duration cap.
		current = Cue{StartMS: seg.StartMS, EndMS: seg.EndMS}
		texts = []string{strings.TrimSpace(seg.Text)}
	}
	flush()

	for i := range cues {
		cues[i].Index = i + 1
	}

	return cues, nil
}

// dropEmptySegments removes segments whose trimmed text is empty
func dropEmptySegments(segments []engine.RawSegment) []engine.RawSegment {
	kept := make([]engine.RawSegment, 0, len(segments))
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		kept = append(kept, seg)
	}
	return kept
}

// validateStream rejects malformed timing or overlap between adjacent
// segments in the already-sorted stream
func validateStream(segments []engine.RawSegment) error {
	for i := range segments {
		if err := segments[i].Validate(); err != nil {
			return &engine.Error{Msg: fmt.Sprintf("invalid segment %d", i), Err: err}
		}
		if i > 0 && segments[i].StartMS < segments[i-1].EndMS {
			return &engine.Error{Msg: fmt.Sprintf("segment %d overlaps previous segment", i)}
		}
	}
	return nil
}

// hardBreak reports whether the engine marked a boundary between two
// adjacent segments by changing the language or emotion tag
func hardBreak(prev, next engine.RawSegment) bool {
	return prev.Language != next.Language || prev.Emotion != next.Emotion
}
