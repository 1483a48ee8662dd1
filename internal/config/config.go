package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Configuration provides type-safe access to application settings
type Configuration struct {
	viper *viper.Viper
}

// setDefaults applies the default settings shared by all constructors
func setDefaults(v *viper.Viper) {
	v.SetDefault("asr.model", "iic/SenseVoiceSmall")
	v.SetDefault("asr.vad_model", "fsmn-vad")
	v.SetDefault("asr.device", "auto")
	v.SetDefault("asr.batch_size", 0)
	v.SetDefault("asr.python_path", "python3")
	v.SetDefault("subtitle.max_length_s", 30.0)
	v.SetDefault("output.format", "text")
	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("media.ffprobe_path", "ffprobe")
	v.SetDefault("download.yt_dlp_path", "yt-dlp")
	v.SetDefault("history.path", "")
	v.SetDefault("log.file_path", "")
}

// NewConfiguration creates a new Configuration instance with default settings
func NewConfiguration() *Configuration {
	v := viper.New()
	setDefaults(v)
	return &Configuration{viper: v}
}

// NewConfigurationFromFile creates a Configuration instance from a config file
func NewConfigurationFromFile(configFile string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return &Configuration{viper: v}, nil
}

// NewConfigurationFromEnv creates a Configuration instance that reads from environment variables
func NewConfigurationFromEnv() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	// Set up environment variable mapping
	v.SetEnvPrefix("VIDEOSCRIBE")
	v.AutomaticEnv()

	// Map specific environment variables
	v.BindEnv("asr.model", "VIDEOSCRIBE_ASR_MODEL")
	v.BindEnv("asr.device", "VIDEOSCRIBE_ASR_DEVICE")
	v.BindEnv("asr.batch_size", "VIDEOSCRIBE_ASR_BATCH_SIZE")
	v.BindEnv("asr.python_path", "VIDEOSCRIBE_PYTHON_PATH")
	v.BindEnv("media.ffmpeg_path", "VIDEOSCRIBE_FFMPEG_PATH")
	v.BindEnv("media.ffprobe_path", "VIDEOSCRIBE_FFPROBE_PATH")
	v.BindEnv("download.yt_dlp_path", "VIDEOSCRIBE_YT_DLP_PATH")
	v.BindEnv("history.path", "VIDEOSCRIBE_HISTORY_PATH")
	v.BindEnv("log.file_path", "VIDEOSCRIBE_LOG_FILE_PATH")

	return &Configuration{viper: v}, nil
}

// GetModelName returns the configured ASR model name
func (c *Configuration) GetModelName() string {
	return c.viper.GetString("asr.model")
}

// GetVADModelName returns the configured voice activity detection model name
func (c *Configuration) GetVADModelName() string {
	return c.viper.GetString("asr.vad_model")
}

// GetDevicePreference returns the configured execution device preference
func (c *Configuration) GetDevicePreference() string {
	return c.viper.GetString("asr.device")
}

// GetBatchSize returns the configured batch size override. Zero means
// the batch size is chosen from the device and duration.
func (c *Configuration) GetBatchSize() int {
	return c.viper.GetInt("asr.batch_size")
}

// GetPythonPath returns the python interpreter used for the recognition helper
func (c *Configuration) GetPythonPath() string {
	return c.viper.GetString("asr.python_path")
}

// GetMaxSegmentLengthSec returns the maximum merged cue duration in seconds
func (c *Configuration) GetMaxSegmentLengthSec() float64 {
	return c.viper.GetFloat64("subtitle.max_length_s")
}

// GetOutputFormat returns the configured default output format
func (c *Configuration) GetOutputFormat() string {
	return c.viper.GetString("output.format")
}

// GetFFmpegPath returns the configured ffmpeg binary path
func (c *Configuration) GetFFmpegPath() string {
	return c.viper.GetString("media.ffmpeg_path")
}

// GetFFprobePath returns the configured ffprobe binary path
func (c *Configuration) GetFFprobePath() string {
	return c.viper.GetString("media.ffprobe_path")
}

// GetYtDlpPath returns the configured yt-dlp binary path
func (c *Configuration) GetYtDlpPath() string {
	return c.viper.GetString("download.yt_dlp_path")
}

// GetHistoryPath returns the path of the transcription history database.
// An empty value disables history recording.
func (c *Configuration) GetHistoryPath() string {
	return c.viper.GetString("history.path")
}

// GetLogFilePath returns the optional log file path.
// An empty value keeps logging on stderr only.
func (c *Configuration) GetLogFilePath() string {
	return c.viper.GetString("log.file_path")
}
