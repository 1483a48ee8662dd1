package engine

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"videoscribe/internal/device"
)

//go:embed assets/sense_voice.py
var helperScript []byte

// FunASRRecognizer runs recognition through a python FunASR helper
// process, streaming PCM on stdin and reading JSON from stdout
type FunASRRecognizer struct {
	logger       *zap.Logger
	pythonPath   string
	modelName    string
	vadModelName string
}

// NewFunASRRecognizer creates a recognizer backed by the FunASR helper
func NewFunASRRecognizer(logger *zap.Logger, pythonPath, modelName, vadModelName string) *FunASRRecognizer {
	return &FunASRRecognizer{
		logger:       logger,
		pythonPath:   pythonPath,
		modelName:    modelName,
		vadModelName: vadModelName,
	}
}

// helperOutput is the JSON document printed by the helper script
type helperOutput struct {
	Language string `json:"language"`
	Segments []struct {
		Text     string  `json:"text"`
		Start    float64 `json:"start"`
		End      float64 `json:"end"`
		Language string  `json:"language"`
		Emotion  string  `json:"emotion"`
	} `json:"segments"`
}

// Recognize invokes the FunASR helper on the given PCM stream and
// returns the ordered segment stream with timestamps in milliseconds.
// Inference runs on the given device, never on an engine default.
func (r *FunASRRecognizer) Recognize(ctx context.Context, audio io.Reader, languageHint string, dev device.Device, batchSize int, segmentLimitS float64) (Result, error) {
	scriptPath, err := r.writeHelperScript()
	if err != nil {
		return Result{}, &Error{Msg: "failed to stage helper script", Err: err}
	}
	defer os.Remove(scriptPath)

	args := []string{
		scriptPath,
		"--model", r.modelName,
		"--vad-model", r.vadModelName,
		"--language", languageHint,
		"--device", string(dev),
		"--batch-size", strconv.Itoa(batchSize),
		"--segment-limit", strconv.FormatFloat(segmentLimitS, 'f', -1, 64),
	}

	cmd := exec.CommandContext(ctx, r.pythonPath, args...)
	cmd.Stdin = audio

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("invoking recognition engine",
		zap.String("model", r.modelName),
		zap.String("device", string(dev)),
		zap.String("language_hint", languageHint),
		zap.Int("batch_size", batchSize),
		zap.Float64("segment_limit_s", segmentLimitS))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			// Surface cancellation directly so the orchestrator can
			// classify it instead of treating it as an engine fault.
			return Result{}, ctx.Err()
		}
		return Result{}, &Error{
			Msg: fmt.Sprintf("inference failed: %s", strings.TrimSpace(stderr.String())),
			Err: err,
		}
	}

	var parsed helperOutput
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		return Result{}, &Error{Msg: "failed to parse helper output", Err: err}
	}

	result := Result{Language: parsed.Language}
	for _, s := range parsed.Segments {
		result.Segments = append(result.Segments, RawSegment{
			Text:     s.Text,
			StartMS:  secondsToMS(s.Start),
			EndMS:    secondsToMS(s.End),
			Language: s.Language,
			Emotion:  s.Emotion,
		})
	}

	r.logger.Info("recognition completed",
		zap.Int("segments", len(result.Segments)),
		zap.String("language", result.Language))

	return result, nil
}

// writeHelperScript stages the embedded helper script into a temp
// file. Each invocation gets its own path so concurrent runs cannot
// remove each other's script.
func (r *FunASRRecognizer) writeHelperScript() (string, error) {
	f, err := os.CreateTemp("", "videoscribe_sense_voice_*.py")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(helperScript); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// secondsToMS converts engine timestamps to integral milliseconds,
// rounding half away from zero to avoid systematic drift
func secondsToMS(seconds float64) int {
	return int(math.Round(seconds * 1000))
}
