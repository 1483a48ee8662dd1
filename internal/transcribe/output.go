package transcribe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"videoscribe/internal/subtitle"
)

// DefaultOutputPath derives the transcript file path from the source
// media path, e.g. "talk.mp4" with SRT output becomes
// "talk_transcription.srt"
func DefaultOutputPath(source string, format subtitle.Format) string {
	dir := filepath.Dir(source)
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_transcription"+format.Extension())
}

// WriteOutput writes the rendered transcript to path as UTF-8 with a
// single trailing newline
func WriteOutput(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript to %s: %w", path, err)
	}
	return nil
}
