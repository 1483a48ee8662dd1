package device

import "fmt"

// Device identifies an execution backend for recognition inference
type Device string

const (
	// CUDA is the NVIDIA GPU backend
	CUDA Device = "cuda"
	// MPS is the Apple Metal Performance Shaders backend
	MPS Device = "mps"
	// XPU is the generic accelerator backend
	XPU Device = "xpu"
	// CPU is the fallback backend, always available
	CPU Device = "cpu"
)

// Auto requests automatic device selection in probe priority order
const Auto = "auto"

// probePriority is the fixed order used for automatic selection
var probePriority = []Device{CUDA, MPS, XPU, CPU}

// Parse converts a device name into a Device. It rejects unknown names
// so adding a backend stays a localized, checked change.
func Parse(name string) (Device, error) {
	switch Device(name) {
	case CUDA, MPS, XPU, CPU:
		return Device(name), nil
	default:
		return "", fmt.Errorf("unknown device %q (valid: cuda, mps, xpu, cpu)", name)
	}
}

// Accelerated reports whether the device is a hardware-accelerated backend
func (d Device) Accelerated() bool {
	return d != CPU
}

// UnavailableError indicates an explicitly requested device is absent.
// Callers can detect it to decide whether to fall back.
type UnavailableError struct {
	Device Device
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("device %s requested but not available", e.Device)
}

// Probe reports the set of available execution devices.
// Implementations must be read-only hardware queries.
type Probe interface {
	AvailableDevices() map[Device]bool
}

// Selector picks an execution device from a preference and probe results
type Selector struct {
	probe Probe
}

// NewSelector creates a Selector backed by the given hardware probe
func NewSelector(probe Probe) *Selector {
	return &Selector{probe: probe}
}

// Select resolves a device preference to exactly one concrete device.
// "auto" probes in priority order (cuda, mps, xpu, cpu) and returns the
// first available. An explicit preference is validated against the probe
// and fails with UnavailableError rather than silently substituting.
func (s *Selector) Select(preference string) (Device, error) {
	available := s.probe.AvailableDevices()

	if preference == "" || preference == Auto {
		for _, d := range probePriority {
			if available[d] {
				return d, nil
			}
		}
		// CPU is always reported available; reaching here means the
		// probe returned an empty set.
		return CPU, nil
	}

	requested, err := Parse(preference)
	if err != nil {
		return "", err
	}

	if !available[requested] {
		return "", &UnavailableError{Device: requested}
	}
	return requested, nil
}
