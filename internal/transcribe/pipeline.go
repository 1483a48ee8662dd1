package transcribe

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"videoscribe/internal/config"
	"videoscribe/internal/device"
	"videoscribe/internal/engine"
	"videoscribe/internal/language"
	"videoscribe/internal/media"
	"videoscribe/internal/plan"
	"videoscribe/internal/subtitle"
)

// State identifies the stage a transcription run has reached
type State string

const (
	StateIdle           State = "idle"
	StateDeviceSelected State = "device_selected"
	StatePlanComputed   State = "plan_computed"
	StateEngineInvoked  State = "engine_invoked"
	StateMerged         State = "merged"
	StateFormatted      State = "formatted"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
)

// DeviceSelector resolves a device preference to a concrete compute device
type DeviceSelector interface {
	Select(preference string) (device.Device, error)
}

// AudioExtractor produces a mono 16kHz PCM stream from a media file
// along with the media duration in seconds
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, path string) (io.ReadCloser, float64, error)
}

// Request describes a single transcription run
type Request struct {
	Source     string
	Language   string
	Device     string
	Format     subtitle.Format
	MaxLengthS float64
	BatchSize  int
}

// Result is the outcome of a transcription run. A failed run carries
// no text and no segments, only the classified error.
type Result struct {
	RunID     string
	Success   bool
	Text      string
	Language  string
	DurationS float64
	Device    device.Device
	Segments  []subtitle.Cue
	Formatted string
	Err       *Error
}

// Record converts the result into the serializable transcript record
func (r *Result) Record() subtitle.Record {
	if !r.Success {
		rec := subtitle.Record{Success: false, Language: r.Language}
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		return rec
	}
	return subtitle.NewRecord(r.Language, r.DurationS, r.Segments)
}

// Pipeline orchestrates a transcription run through its stages in
// order. A Pipeline runs one request at a time.
type Pipeline struct {
	logger     *zap.Logger
	selector   DeviceSelector
	planner    *plan.Planner
	extractor  AudioExtractor
	recognizer engine.Recognizer

	defaultMaxLengthS    float64
	defaultDevicePref    string
	defaultBatchOverride int

	mu           sync.Mutex
	state        State
	onTransition func(from, to State)
}

// NewPipeline creates a pipeline with all production components wired
// from the configuration
func NewPipeline(cfg *config.Configuration, zapLogger *zap.Logger) *Pipeline {
	selector := device.NewSelector(device.NewSystemProbe(zapLogger))
	extractor := media.NewExtractor(zapLogger, cfg.GetFFmpegPath(), cfg.GetFFprobePath())
	recognizer := engine.NewFunASRRecognizer(zapLogger, cfg.GetPythonPath(), cfg.GetModelName(), cfg.GetVADModelName())

	return NewPipelineWithComponents(zapLogger, selector, &ffmpegExtractor{inner: extractor}, recognizer, cfg)
}

// NewPipelineWithComponents creates a pipeline from explicit components
func NewPipelineWithComponents(zapLogger *zap.Logger, selector DeviceSelector, extractor AudioExtractor, recognizer engine.Recognizer, cfg *config.Configuration) *Pipeline {
	return &Pipeline{
		logger:               zapLogger,
		selector:             selector,
		planner:              plan.NewPlanner(zapLogger),
		extractor:            extractor,
		recognizer:           recognizer,
		defaultMaxLengthS:    cfg.GetMaxSegmentLengthSec(),
		defaultDevicePref:    cfg.GetDevicePreference(),
		defaultBatchOverride: cfg.GetBatchSize(),
		state:                StateIdle,
	}
}

// State returns the stage the most recent run has reached
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetTransitionHook registers a callback invoked on every state change
func (p *Pipeline) SetTransitionHook(fn func(from, to State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onTransition = fn
}

func (p *Pipeline) setState(log *zap.Logger, to State) {
	p.mu.Lock()
	from := p.state
	p.state = to
	hook := p.onTransition
	p.mu.Unlock()

	log.Debug("pipeline state transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	if hook != nil {
		hook(from, to)
	}
}

// Transcribe runs the full pipeline for a single request. Failures
// are classified and returned both in the result and as the error.
// There are no retries and no partial results.
func (p *Pipeline) Transcribe(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.New().String()
	log := p.logger.With(zap.String("run_id", runID), zap.String("source", req.Source))
	started := time.Now()

	p.mu.Lock()
	p.state = StateIdle
	p.mu.Unlock()

	result := &Result{RunID: runID}

	// Input validation happens before any device or media work so
	// that a bad request never touches the system.
	if req.Source == "" {
		return p.fail(log, result, newError(KindInvalidInput, "source path is required"))
	}

	lang, err := language.NormalizeHint(req.Language)
	if err != nil {
		return p.fail(log, result, &Error{Kind: KindInvalidInput, Msg: "invalid language hint", Err: err})
	}
	result.Language = lang

	maxLengthS := req.MaxLengthS
	if maxLengthS == 0 {
		maxLengthS = p.defaultMaxLengthS
	}
	if maxLengthS <= 0 {
		return p.fail(log, result, newError(KindInvalidInput, "maximum segment length must be positive"))
	}
	batchOverride := req.BatchSize
	if batchOverride == 0 {
		batchOverride = p.defaultBatchOverride
	}
	if batchOverride < 0 {
		return p.fail(log, result, newError(KindInvalidInput, "batch size must not be negative"))
	}

	format := req.Format
	if format == "" {
		format = subtitle.FormatText
	}

	devicePref := req.Device
	if devicePref == "" {
		devicePref = p.defaultDevicePref
	}

	dev, err := p.selector.Select(devicePref)
	if err != nil {
		return p.fail(log, result, classify(err, "device selection failed", KindDeviceUnavailable))
	}
	result.Device = dev
	log.Info("compute device selected", zap.String("device", string(dev)))
	p.setState(log, StateDeviceSelected)

	audio, durationS, err := p.extractor.ExtractAudio(ctx, req.Source)
	if err != nil {
		return p.fail(log, result, classify(err, "audio extraction failed", KindMediaError))
	}
	defer audio.Close()
	result.DurationS = durationS

	workload, err := p.planner.Plan(durationS, dev, plan.Overrides{
		BatchSize:     batchOverride,
		SegmentLimitS: req.MaxLengthS,
	})
	if err != nil {
		return p.fail(log, result, classify(err, "workload planning failed", KindInvalidInput))
	}
	p.setState(log, StatePlanComputed)

	p.setState(log, StateEngineInvoked)
	engineResult, err := p.recognizer.Recognize(ctx, audio, lang, workload.Device, workload.BatchSize, workload.SegmentLimitS)
	if err != nil {
		return p.fail(log, result, classify(err, "speech recognition failed", KindEngineError))
	}
	if engineResult.Language != "" {
		result.Language = engineResult.Language
	}

	merger, err := subtitle.NewMerger(maxLengthS)
	if err != nil {
		return p.fail(log, result, &Error{Kind: KindInvalidInput, Msg: "invalid merge configuration", Err: err})
	}
	cues, err := merger.Merge(engineResult.Segments)
	if err != nil {
		return p.fail(log, result, classify(err, "segment merging failed", KindEngineError))
	}
	result.Segments = cues
	p.setState(log, StateMerged)

	result.Text = subtitle.Text(cues)
	result.Success = true
	formatted, err := renderTranscript(format, cues, result.Record())
	if err != nil {
		result.Success = false
		return p.fail(log, result, &Error{Kind: KindEngineError, Msg: "transcript formatting failed", Err: err})
	}
	result.Formatted = formatted
	p.setState(log, StateFormatted)

	p.setState(log, StateSucceeded)
	log.Info("transcription completed",
		zap.String("device", string(dev)),
		zap.String("language", result.Language),
		zap.Float64("duration_s", durationS),
		zap.Int("segments", len(cues)),
		zap.Duration("elapsed", time.Since(started)))
	return result, nil
}

func (p *Pipeline) fail(log *zap.Logger, result *Result, perr *Error) (*Result, error) {
	result.Success = false
	result.Text = ""
	result.Segments = nil
	result.Err = perr
	p.setState(log, StateFailed)
	log.Error("transcription failed",
		zap.String("kind", string(perr.Kind)),
		zap.Error(perr))
	return result, perr
}

func renderTranscript(format subtitle.Format, cues []subtitle.Cue, record subtitle.Record) (string, error) {
	switch format {
	case subtitle.FormatSRT:
		return subtitle.SRT(cues), nil
	case subtitle.FormatVTT:
		return subtitle.VTT(cues), nil
	case subtitle.FormatJSON:
		return subtitle.JSON(record)
	default:
		return subtitle.Text(cues), nil
	}
}

// ffmpegExtractor adapts the media extractor to the AudioExtractor
// interface
type ffmpegExtractor struct {
	inner *media.Extractor
}

func (f *ffmpegExtractor) ExtractAudio(ctx context.Context, path string) (io.ReadCloser, float64, error) {
	stream, durationS, err := f.inner.ExtractAudio(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	return stream, durationS, nil
}
