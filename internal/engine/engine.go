package engine

import (
	"context"
	"fmt"
	"io"

	"videoscribe/internal/device"
)

// RawSegment represents a single, raw recognized span as output by the
// recognition engine, before any merging
type RawSegment struct {
	Text     string `json:"text"`
	StartMS  int    `json:"start_ms"`
	EndMS    int    `json:"end_ms"`
	Language string `json:"language,omitempty"`
	Emotion  string `json:"emotion,omitempty"`
}

// Validate checks if the RawSegment has valid timing values
func (s *RawSegment) Validate() error {
	if s.StartMS < 0 {
		return fmt.Errorf("start_ms cannot be negative")
	}

	if s.EndMS < s.StartMS {
		return fmt.Errorf("end_ms must not precede start_ms")
	}

	return nil
}

// Result is the engine's output for one recognition call: the ordered
// segment stream and the resolved language (never "auto")
type Result struct {
	Segments []RawSegment
	Language string
}

// Recognizer is the interface to the external recognition engine.
// Implementations receive a mono 16kHz s16le PCM stream, a language
// hint and the compute device inference must run on, and yield
// recognized spans with millisecond timestamps.
type Recognizer interface {
	Recognize(ctx context.Context, audio io.Reader, languageHint string, dev device.Device, batchSize int, segmentLimitS float64) (Result, error)
}

// Error wraps a model or inference failure so callers can distinguish
// engine faults from input or device problems
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recognition engine: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("recognition engine: %s", e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}
