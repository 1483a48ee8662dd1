package device

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// SystemProbe detects available execution devices on the local machine
type SystemProbe struct {
	logger *zap.Logger
}

// NewSystemProbe creates a new system hardware probe
func NewSystemProbe(logger *zap.Logger) *SystemProbe {
	return &SystemProbe{logger: logger}
}

// AvailableDevices returns the set of devices usable for inference.
// CPU is always included.
func (p *SystemProbe) AvailableDevices() map[Device]bool {
	available := map[Device]bool{CPU: true}

	if p.detectCUDA() {
		available[CUDA] = true
	}
	if p.detectMPS() {
		available[MPS] = true
	}
	if p.detectXPU() {
		available[XPU] = true
	}

	p.logger.Debug("hardware probe completed",
		zap.Bool("cuda", available[CUDA]),
		zap.Bool("mps", available[MPS]),
		zap.Bool("xpu", available[XPU]))

	return available
}

// detectCUDA checks for NVIDIA GPU availability using nvidia-smi with
// fallbacks to CUDA environment variables and toolkit installation paths
func (p *SystemProbe) detectCUDA() bool {
	if found, ok := p.detectWithNvidiaSMI(); ok {
		return found
	}
	if found, ok := p.detectWithCUDAEnv(); ok {
		return found
	}
	return p.detectWithCUDAToolkit()
}

// detectWithNvidiaSMI attempts GPU detection via the nvidia-smi command.
// The second return value is false when nvidia-smi gave no answer.
func (p *SystemProbe) detectWithNvidiaSMI() (bool, bool) {
	cmd := exec.Command("nvidia-smi", "--list-gpus")
	output, err := cmd.Output()
	if err != nil {
		p.logger.Debug("nvidia-smi detection failed", zap.Error(err))
		return false, false
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) == 0 || (len(lines) == 1 && lines[0] == "") {
		return false, true
	}
	return true, true
}

// detectWithCUDAEnv checks CUDA environment variables.
// The second return value is false when no CUDA variables are set.
func (p *SystemProbe) detectWithCUDAEnv() (bool, bool) {
	visibleDevices, hasVisible := os.LookupEnv("CUDA_VISIBLE_DEVICES")
	if hasVisible {
		// "-1" explicitly hides all devices
		return visibleDevices != "" && visibleDevices != "-1", true
	}

	if os.Getenv("CUDA_PATH") != "" || os.Getenv("CUDA_VERSION") != "" {
		return true, true
	}
	return false, false
}

// detectWithCUDAToolkit checks common CUDA toolkit installation paths
func (p *SystemProbe) detectWithCUDAToolkit() bool {
	cudaPaths := []string{
		"/usr/local/cuda",
		"/opt/cuda",
		"/usr/cuda",
	}

	for _, path := range cudaPaths {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// detectMPS checks for Apple Metal availability (Apple Silicon macOS)
func (p *SystemProbe) detectMPS() bool {
	return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64"
}

// detectXPU checks for a generic oneAPI-style accelerator
func (p *SystemProbe) detectXPU() bool {
	if os.Getenv("ONEAPI_DEVICE_SELECTOR") != "" {
		return true
	}
	if _, err := os.Stat("/opt/intel/oneapi"); err == nil {
		return true
	}
	return false
}
