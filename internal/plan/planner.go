package plan

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"videoscribe/internal/device"
)

// ErrInvalidDuration indicates zero-length or corrupt media input
var ErrInvalidDuration = errors.New("audio duration must be positive")

// Workload holds the parameters for one recognition engine invocation
type Workload struct {
	Device        device.Device
	BatchSize     int
	SegmentLimitS float64
}

// Overrides carries explicit user-supplied values. Zero means unset;
// set values always take precedence over heuristics.
type Overrides struct {
	BatchSize     int
	SegmentLimitS float64
}

// Batch size and per-call segment limit heuristics. Accelerated devices
// tolerate larger batches; CPU keeps both small to bound memory and
// wall-clock risk on long inputs.
const (
	batchAccelerated     = 16
	batchAcceleratedLong = 32
	batchCPU             = 8
	batchCPULong         = 4

	longAudioThresholdS    = 600
	cpuLongAudioThresholdS = 1800

	segmentLimitAcceleratedS = 30
	segmentLimitCPUS         = 15
)

// Planner derives a Workload from audio duration and the selected device
type Planner struct {
	logger *zap.Logger
}

// NewPlanner creates a new workload planner
func NewPlanner(logger *zap.Logger) *Planner {
	return &Planner{logger: logger}
}

// Plan computes the workload for one engine invocation. It is a pure
// function of (duration, device, overrides).
func (p *Planner) Plan(durationS float64, dev device.Device, overrides Overrides) (Workload, error) {
	if durationS <= 0 {
		return Workload{}, fmt.Errorf("invalid media duration %.3fs: %w", durationS, ErrInvalidDuration)
	}

	workload := Workload{Device: dev}

	if dev.Accelerated() {
		workload.BatchSize = batchAccelerated
		if durationS >= longAudioThresholdS {
			workload.BatchSize = batchAcceleratedLong
		}
		workload.SegmentLimitS = segmentLimitAcceleratedS
	} else {
		workload.BatchSize = batchCPU
		if durationS >= cpuLongAudioThresholdS {
			workload.BatchSize = batchCPULong
		}
		workload.SegmentLimitS = segmentLimitCPUS
		if durationS < workload.SegmentLimitS {
			workload.SegmentLimitS = durationS
		}
	}

	if overrides.BatchSize > 0 {
		workload.BatchSize = overrides.BatchSize
	}
	if overrides.SegmentLimitS > 0 {
		workload.SegmentLimitS = overrides.SegmentLimitS
	}

	p.logger.Debug("workload planned",
		zap.String("device", string(workload.Device)),
		zap.Int("batch_size", workload.BatchSize),
		zap.Float64("segment_limit_s", workload.SegmentLimitS),
		zap.Float64("duration_s", durationS))

	return workload, nil
}
