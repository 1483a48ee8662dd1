package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCue_Validate(t *testing.T) {
	t.Run("should accept a well-formed cue", func(t *testing.T) {
		cue := Cue{Index: 1, StartMS: 0, EndMS: 2000, Text: "Hello."}

		assert.NoError(t, cue.Validate())
	})

	t.Run("should reject empty text", func(t *testing.T) {
		cue := Cue{Index: 1, StartMS: 0, EndMS: 2000, Text: "   "}

		assert.Error(t, cue.Validate())
	})

	t.Run("should reject zero duration", func(t *testing.T) {
		cue := Cue{Index: 1, StartMS: 1000, EndMS: 1000, Text: "Hello."}

		assert.Error(t, cue.Validate())
	})

	t.Run("should reject negative start", func(t *testing.T) {
		cue := Cue{Index: 1, StartMS: -5, EndMS: 2000, Text: "Hello."}

		assert.Error(t, cue.Validate())
	})
}

func TestCue_DurationMS(t *testing.T) {
	cue := Cue{StartMS: 500, EndMS: 2250, Text: "Hello."}

	assert.Equal(t, 1750, cue.DurationMS())
}
