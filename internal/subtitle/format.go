package subtitle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format identifies a supported output format
type Format string

const (
	// FormatText is the plain transcript without timing
	FormatText Format = "text"
	// FormatSRT is the SubRip subtitle format
	FormatSRT Format = "srt"
	// FormatVTT is the WebVTT subtitle format
	FormatVTT Format = "vtt"
	// FormatJSON is the structured record format
	FormatJSON Format = "json"
)

// ParseFormat converts a format name into a Format, rejecting unknown
// names so adding a format stays a localized, checked change
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatText, FormatSRT, FormatVTT, FormatJSON:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: text, srt, vtt, json)", name)
	}
}

// Extension returns the output file extension for the format
func (f Format) Extension() string {
	switch f {
	case FormatSRT:
		return ".srt"
	case FormatVTT:
		return ".vtt"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// Text joins the cue texts with single spaces, in order, with no timing
func Text(cues []Cue) string {
	parts := make([]string, 0, len(cues))
	for _, cue := range cues {
		parts = append(parts, cue.Text)
	}
	return strings.Join(parts, " ")
}

// SRT serializes the cue list as SubRip: a 1-based index line, a timing
// line with comma millisecond separator, the cue text and a blank line
func SRT(cues []Cue) string {
	var sb strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
			i+1, formatSRTTime(cue.StartMS), formatSRTTime(cue.EndMS), cue.Text)
	}
	return sb.String()
}

// VTT serializes the cue list as WebVTT: the literal WEBVTT header, then
// per cue a timing line with period millisecond separator, text and a
// blank line; no index lines
func VTT(cues []Cue) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for _, cue := range cues {
		fmt.Fprintf(&sb, "%s --> %s\n%s\n\n",
			formatVTTTime(cue.StartMS), formatVTTTime(cue.EndMS), cue.Text)
	}
	return sb.String()
}

// Record is the structured transcription record for JSON consumption
type Record struct {
	Success  bool            `json:"success"`
	Text     string          `json:"text"`
	Language string          `json:"language"`
	Duration float64         `json:"duration"`
	Segments []RecordSegment `json:"segments"`
	Error    string          `json:"error,omitempty"`
}

// RecordSegment is one timed unit of the structured record, with
// start/end in seconds to three-decimal precision
type RecordSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// NewRecord builds a successful Record from the merged cue list
func NewRecord(language string, durationS float64, cues []Cue) Record {
	segments := make([]RecordSegment, 0, len(cues))
	for _, cue := range cues {
		segments = append(segments, RecordSegment{
			Start: msToSeconds(cue.StartMS),
			End:   msToSeconds(cue.EndMS),
			Text:  cue.Text,
		})
	}
	return Record{
		Success:  true,
		Text:     Text(cues),
		Language: language,
		Duration: durationS,
		Segments: segments,
	}
}

// JSON serializes a Record with stable two-space indentation
func JSON(record Record) (string, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcription record: %w", err)
	}
	return string(data), nil
}

// formatSRTTime renders milliseconds as HH:MM:SS,mmm. Hours widen
// beyond two digits when needed.
func formatSRTTime(ms int) string {
	return formatTime(ms, ',')
}

// formatVTTTime renders milliseconds as HH:MM:SS.mmm
func formatVTTTime(ms int) string {
	return formatTime(ms, '.')
}

func formatTime(ms int, msSeparator byte) string {
	hours := ms / 3600000
	minutes := (ms % 3600000) / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, msSeparator, millis)
}

// msToSeconds converts integral milliseconds to seconds. Cue timing is
// already millisecond-integral, so three-decimal precision is exact.
func msToSeconds(ms int) float64 {
	return float64(ms) / 1000.0
}
