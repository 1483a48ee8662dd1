package download

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// VideoInfo describes a remote video before downloading
type VideoInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Uploader string  `json:"uploader"`
	WebURL   string  `json:"webpage_url"`
}

// Downloader fetches remote video/audio sources through yt-dlp
type Downloader struct {
	logger    *zap.Logger
	ytDlpPath string
}

// NewDownloader creates a new yt-dlp backed downloader
func NewDownloader(logger *zap.Logger, ytDlpPath string) *Downloader {
	return &Downloader{logger: logger, ytDlpPath: ytDlpPath}
}

// IsRemoteSource reports whether the source looks like a downloadable URL
func IsRemoteSource(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// CheckAvailable verifies that the yt-dlp binary can be executed
func (d *Downloader) CheckAvailable(ctx context.Context) error {
	output, err := exec.CommandContext(ctx, d.ytDlpPath, "--version").Output()
	if err != nil {
		return fmt.Errorf("yt-dlp not available at %s: %w", d.ytDlpPath, err)
	}

	d.logger.Debug("yt-dlp available",
		zap.String("version", strings.TrimSpace(string(output))))
	return nil
}

// GetInfo fetches video metadata without downloading
func (d *Downloader) GetInfo(ctx context.Context, videoURL string) (*VideoInfo, error) {
	args := []string{
		"--no-download",
		"--dump-json",
		"--no-warnings",
		videoURL,
	}

	output, err := exec.CommandContext(ctx, d.ytDlpPath, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video info for %s: %w", videoURL, err)
	}

	var info VideoInfo
	if err := json.Unmarshal(bytes.TrimSpace(output), &info); err != nil {
		return nil, fmt.Errorf("failed to parse video info: %w", err)
	}

	d.logger.Info("fetched video info",
		zap.String("title", info.Title),
		zap.Float64("duration_s", info.Duration))

	return &info, nil
}

// DownloadAudio downloads only the audio track of the given URL into
// outputDir as a wav file and returns the downloaded file path
func (d *Downloader) DownloadAudio(ctx context.Context, videoURL, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	template := filepath.Join(outputDir, "%(id)s.%(ext)s")
	args := []string{
		"-f", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "wav",
		"--no-warnings",
		"-o", template,
		"--print", "after_move:filepath",
		videoURL,
	}

	d.logger.Info("downloading audio", zap.String("url", videoURL))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.ytDlpPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp download failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		return "", fmt.Errorf("yt-dlp reported no output file for %s", videoURL)
	}

	d.logger.Info("audio downloaded", zap.String("path", path))
	return path, nil
}
