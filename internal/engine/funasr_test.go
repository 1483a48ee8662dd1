//go:build !windows

package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"videoscribe/internal/device"
)

// writeStub creates a fake helper interpreter that ignores its script
// argument, drains stdin and behaves per the given shell body
func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "python_stub.sh")
	script := "#!/bin/sh\ncat > /dev/null\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestFunASRRecognizer_Recognize(t *testing.T) {
	t.Run("should parse helper output into raw segments", func(t *testing.T) {
		// Arrange
		stub := writeStub(t, `echo '{"language":"en","segments":[`+
			`{"text":"Hello.","start":0,"end":2.0,"language":"en","emotion":"neutral"},`+
			`{"text":"World.","start":2.0,"end":4.0005,"language":"en","emotion":""}]}'`)
		recognizer := NewFunASRRecognizer(zap.NewNop(), stub, "iic/SenseVoiceSmall", "fsmn-vad")

		// Act
		result, err := recognizer.Recognize(context.Background(), strings.NewReader("pcm"), "auto", device.CPU, 8, 30)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "en", result.Language)
		require.Len(t, result.Segments, 2)
		assert.Equal(t, RawSegment{Text: "Hello.", StartMS: 0, EndMS: 2000, Language: "en", Emotion: "neutral"}, result.Segments[0])
		// 4.0005s rounds half away from zero to 4001ms
		assert.Equal(t, 4001, result.Segments[1].EndMS)
	})

	t.Run("should pass the selected device to the helper", func(t *testing.T) {
		// Arrange: the stub only answers when the device flag arrives
		stub := writeStub(t, `case "$*" in`+"\n"+
			`*"--device cuda"*) echo '{"language":"en","segments":[]}' ;;`+"\n"+
			`*) echo "no device argument" >&2; exit 1 ;;`+"\n"+
			`esac`)
		recognizer := NewFunASRRecognizer(zap.NewNop(), stub, "iic/SenseVoiceSmall", "fsmn-vad")

		// Act
		result, err := recognizer.Recognize(context.Background(), strings.NewReader("pcm"), "auto", device.CUDA, 8, 30)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "en", result.Language)
	})

	t.Run("should stage a distinct helper script per invocation", func(t *testing.T) {
		recognizer := NewFunASRRecognizer(zap.NewNop(), "python3", "iic/SenseVoiceSmall", "fsmn-vad")

		first, err := recognizer.writeHelperScript()
		require.NoError(t, err)
		defer os.Remove(first)
		second, err := recognizer.writeHelperScript()
		require.NoError(t, err)
		defer os.Remove(second)

		assert.NotEqual(t, first, second)
		data, err := os.ReadFile(second)
		require.NoError(t, err)
		assert.Contains(t, string(data), "AutoModel")
	})

	t.Run("should wrap helper failure in engine error with stderr", func(t *testing.T) {
		stub := writeStub(t, `echo "model load failed" >&2; exit 3`)
		recognizer := NewFunASRRecognizer(zap.NewNop(), stub, "iic/SenseVoiceSmall", "fsmn-vad")

		_, err := recognizer.Recognize(context.Background(), strings.NewReader("pcm"), "auto", device.CPU, 8, 30)

		require.Error(t, err)
		var engineErr *Error
		require.True(t, errors.As(err, &engineErr))
		assert.Contains(t, engineErr.Error(), "model load failed")
	})

	t.Run("should wrap malformed helper output in engine error", func(t *testing.T) {
		stub := writeStub(t, `echo "not json"`)
		recognizer := NewFunASRRecognizer(zap.NewNop(), stub, "iic/SenseVoiceSmall", "fsmn-vad")

		_, err := recognizer.Recognize(context.Background(), strings.NewReader("pcm"), "auto", device.CPU, 8, 30)

		require.Error(t, err)
		var engineErr *Error
		assert.True(t, errors.As(err, &engineErr))
	})

	t.Run("should surface context cancellation instead of engine error", func(t *testing.T) {
		// Arrange
		stub := writeStub(t, `sleep 10`)
		recognizer := NewFunASRRecognizer(zap.NewNop(), stub, "iic/SenseVoiceSmall", "fsmn-vad")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Act
		_, err := recognizer.Recognize(ctx, strings.NewReader("pcm"), "auto", device.CPU, 8, 30)

		// Assert
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		var engineErr *Error
		assert.False(t, errors.As(err, &engineErr))
	})
}
