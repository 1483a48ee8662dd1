package subtitle

import (
	"fmt"
	"strings"
)

// Cue represents a single merged subtitle unit with millisecond timing
type Cue struct {
	Index   int    `json:"index"`
	StartMS int    `json:"start_ms"`
	EndMS   int    `json:"end_ms"`
	Text    string `json:"text"`
}

// Validate checks if the Cue has valid values
func (c *Cue) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	if c.StartMS < 0 {
		return fmt.Errorf("start_ms cannot be negative")
	}

	if c.EndMS <= c.StartMS {
		return fmt.Errorf("end_ms must be greater than start_ms")
	}

	return nil
}

// DurationMS returns the cue duration in milliseconds
func (c *Cue) DurationMS() int {
	return c.EndMS - c.StartMS
}
