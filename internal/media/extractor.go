package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Error wraps a decode or probe failure on the source media
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("media: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("media: %s", e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// supportedExtensions lists the container and audio formats accepted as
// transcription sources
var supportedExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mkv": true, ".mov": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
	".wav": true, ".mp3": true, ".flac": true, ".m4a": true, ".aac": true,
}

// SupportedExtensions returns the accepted source file extensions in
// no particular order
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	return exts
}

// Extractor decodes media sources into mono 16kHz PCM using ffmpeg
type Extractor struct {
	logger      *zap.Logger
	ffmpegPath  string
	ffprobePath string
}

// NewExtractor creates a new media extractor
func NewExtractor(logger *zap.Logger, ffmpegPath, ffprobePath string) *Extractor {
	return &Extractor{
		logger:      logger,
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// ValidateSource checks that the path exists and has a supported extension
func (e *Extractor) ValidateSource(path string) error {
	if _, err := os.Stat(path); err != nil {
		return &Error{Msg: fmt.Sprintf("source file not found: %s", path), Err: err}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return &Error{Msg: fmt.Sprintf("unsupported media format %q", ext)}
	}
	return nil
}

// ProbeDuration returns the media duration in seconds using ffprobe
func (e *Extractor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	output, err := exec.CommandContext(ctx, e.ffprobePath, args...).Output()
	if err != nil {
		return 0, &Error{Msg: fmt.Sprintf("failed to probe %s", path), Err: err}
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, &Error{Msg: "ffprobe returned no duration", Err: err}
	}

	e.logger.Debug("probed media duration",
		zap.String("path", path),
		zap.Float64("duration_s", duration))

	return duration, nil
}

// ExtractAudio validates the source, probes its duration and starts an
// ffmpeg process decoding it to a mono 16kHz s16le PCM stream. The
// caller owns the returned stream and must Close it.
func (e *Extractor) ExtractAudio(ctx context.Context, path string) (*AudioStream, float64, error) {
	if err := e.ValidateSource(path); err != nil {
		return nil, 0, err
	}

	duration, err := e.ProbeDuration(ctx, path)
	if err != nil {
		return nil, 0, err
	}

	e.logger.Info("starting ffmpeg process for audio extraction",
		zap.String("path", path))

	args := []string{
		"-i", path,
		"-vn",          // Discard the video stream
		"-ar", "16000", // Sample rate: 16kHz (required by the recognition engine)
		"-ac", "1", // Mono channel
		"-f", "s16le", // Output format: 16-bit little-endian PCM
		"-", // Write to stdout
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, 0, &Error{Msg: "failed to create stdout pipe", Err: err}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, 0, &Error{Msg: "failed to create stderr pipe", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, 0, &Error{Msg: "failed to start ffmpeg", Err: err}
	}

	e.logger.Info("ffmpeg process started successfully",
		zap.Int("pid", cmd.Process.Pid))

	stream := &AudioStream{
		logger: e.logger,
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
	}
	go stream.handleStderr()

	return stream, duration, nil
}

// AudioStream exposes the decoded PCM output of a running ffmpeg process
type AudioStream struct {
	logger *zap.Logger
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// Read implements io.Reader, reading converted PCM data from ffmpeg stdout
func (s *AudioStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Close shuts down the ffmpeg process and cleans up resources. The
// pipes are closed before waiting so that an ffmpeg still writing
// unread output dies on EPIPE instead of blocking Wait forever.
func (s *AudioStream) Close() error {
	if s.cmd == nil {
		return nil
	}

	if s.stdout != nil {
		s.stdout.Close()
	}
	if s.stderr != nil {
		s.stderr.Close()
	}

	err := s.cmd.Wait()
	s.cmd = nil
	if err != nil {
		if isExpectedProcessTermination(err) {
			s.logger.Debug("ffmpeg terminated during cleanup", zap.Error(err))
			return nil
		}
		s.logger.Warn("ffmpeg process ended with error", zap.Error(err))
		return &Error{Msg: "ffmpeg process error", Err: err}
	}

	s.logger.Debug("ffmpeg process ended successfully")
	return nil
}

// isExpectedProcessTermination checks if the error is an expected
// termination scenario while tearing the stream down early
func isExpectedProcessTermination(err error) bool {
	errStr := err.Error()
	return errStr == "signal: broken pipe" ||
		errStr == "signal: killed" ||
		errStr == "exit status 1"
}

// handleStderr captures and logs ffmpeg stderr output for debugging
func (s *AudioStream) handleStderr() {
	stderr := s.stderr
	if stderr == nil {
		return
	}

	buf := make([]byte, 1024)
	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			output := string(buf[:n])
			if containsFFmpegError(output) {
				s.logger.Warn("ffmpeg stderr", zap.String("output", output))
			} else {
				s.logger.Debug("ffmpeg stderr", zap.String("output", output))
			}
		}
		if err != nil {
			return
		}
	}
}

// containsFFmpegError checks if stderr output contains actual errors vs info
func containsFFmpegError(output string) bool {
	errorIndicators := []string{
		"Error opening",
		"Invalid data",
		"No such file",
		"Permission denied",
	}

	for _, indicator := range errorIndicators {
		if strings.Contains(output, indicator) {
			return true
		}
	}
	return false
}
