package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfiguration(t *testing.T) {
	t.Run("should provide default settings", func(t *testing.T) {
		// Act
		cfg := NewConfiguration()

		// Assert
		assert.Equal(t, "iic/SenseVoiceSmall", cfg.GetModelName())
		assert.Equal(t, "fsmn-vad", cfg.GetVADModelName())
		assert.Equal(t, "auto", cfg.GetDevicePreference())
		assert.Equal(t, 0, cfg.GetBatchSize())
		assert.Equal(t, 30.0, cfg.GetMaxSegmentLengthSec())
		assert.Equal(t, "text", cfg.GetOutputFormat())
		assert.Equal(t, "ffmpeg", cfg.GetFFmpegPath())
		assert.Equal(t, "ffprobe", cfg.GetFFprobePath())
		assert.Equal(t, "yt-dlp", cfg.GetYtDlpPath())
		assert.Equal(t, "python3", cfg.GetPythonPath())
	})

	t.Run("should leave optional paths empty by default", func(t *testing.T) {
		cfg := NewConfiguration()

		assert.Empty(t, cfg.GetHistoryPath())
		assert.Empty(t, cfg.GetLogFilePath())
	})
}

func TestNewConfigurationFromFile(t *testing.T) {
	t.Run("should load settings from yaml file", func(t *testing.T) {
		// Arrange
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")
		configContent := `asr:
  model: "iic/paraformer-zh"
  device: "cuda"
  batch_size: 32
subtitle:
  max_length_s: 12.5
output:
  format: "srt"
`
		err := os.WriteFile(configFile, []byte(configContent), 0644)
		require.NoError(t, err)

		// Act
		cfg, err := NewConfigurationFromFile(configFile)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "iic/paraformer-zh", cfg.GetModelName())
		assert.Equal(t, "cuda", cfg.GetDevicePreference())
		assert.Equal(t, 32, cfg.GetBatchSize())
		assert.Equal(t, 12.5, cfg.GetMaxSegmentLengthSec())
		assert.Equal(t, "srt", cfg.GetOutputFormat())
		// Untouched keys keep their defaults
		assert.Equal(t, "fsmn-vad", cfg.GetVADModelName())
	})

	t.Run("should return error for missing file", func(t *testing.T) {
		cfg, err := NewConfigurationFromFile("/nonexistent/config.yaml")

		assert.Error(t, err)
		assert.Nil(t, cfg)
	})
}

func TestNewConfigurationFromEnv(t *testing.T) {
	t.Run("should read mapped environment variables", func(t *testing.T) {
		// Arrange
		t.Setenv("VIDEOSCRIBE_ASR_DEVICE", "mps")
		t.Setenv("VIDEOSCRIBE_FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")

		// Act
		cfg, err := NewConfigurationFromEnv()

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "mps", cfg.GetDevicePreference())
		assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.GetFFmpegPath())
	})

	t.Run("should fall back to defaults when environment is empty", func(t *testing.T) {
		cfg, err := NewConfigurationFromEnv()

		require.NoError(t, err)
		assert.Equal(t, "auto", cfg.GetDevicePreference())
	})
}
