package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProbe returns a fixed device set for selector tests
type fakeProbe struct {
	devices map[Device]bool
}

func (f *fakeProbe) AvailableDevices() map[Device]bool {
	return f.devices
}

func TestParse(t *testing.T) {
	t.Run("should accept every known device", func(t *testing.T) {
		for _, name := range []string{"cuda", "mps", "xpu", "cpu"} {
			d, err := Parse(name)
			assert.NoError(t, err)
			assert.Equal(t, Device(name), d)
		}
	})

	t.Run("should reject unknown device names", func(t *testing.T) {
		_, err := Parse("tpu")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown device")
	})

	t.Run("should not treat auto as a concrete device", func(t *testing.T) {
		_, err := Parse("auto")
		assert.Error(t, err)
	})
}

func TestDevice_Accelerated(t *testing.T) {
	assert.True(t, CUDA.Accelerated())
	assert.True(t, MPS.Accelerated())
	assert.True(t, XPU.Accelerated())
	assert.False(t, CPU.Accelerated())
}

func TestSelector_Select(t *testing.T) {
	t.Run("should pick cuda first in auto mode", func(t *testing.T) {
		// Arrange
		probe := &fakeProbe{devices: map[Device]bool{CUDA: true, MPS: true, CPU: true}}
		selector := NewSelector(probe)

		// Act
		selected, err := selector.Select(Auto)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, CUDA, selected)
	})

	t.Run("should fall through probe priority order", func(t *testing.T) {
		probe := &fakeProbe{devices: map[Device]bool{MPS: true, CPU: true}}
		selector := NewSelector(probe)

		selected, err := selector.Select(Auto)

		require.NoError(t, err)
		assert.Equal(t, MPS, selected)
	})

	t.Run("should fall back to cpu when no accelerator is available", func(t *testing.T) {
		probe := &fakeProbe{devices: map[Device]bool{CPU: true}}
		selector := NewSelector(probe)

		selected, err := selector.Select(Auto)

		require.NoError(t, err)
		assert.Equal(t, CPU, selected)
	})

	t.Run("should treat empty preference as auto", func(t *testing.T) {
		probe := &fakeProbe{devices: map[Device]bool{CPU: true}}
		selector := NewSelector(probe)

		selected, err := selector.Select("")

		require.NoError(t, err)
		assert.Equal(t, CPU, selected)
	})

	t.Run("should honor an available explicit request", func(t *testing.T) {
		probe := &fakeProbe{devices: map[Device]bool{CUDA: true, CPU: true}}
		selector := NewSelector(probe)

		selected, err := selector.Select("cuda")

		require.NoError(t, err)
		assert.Equal(t, CUDA, selected)
	})

	t.Run("should fail with UnavailableError instead of substituting", func(t *testing.T) {
		// Arrange
		probe := &fakeProbe{devices: map[Device]bool{CPU: true}}
		selector := NewSelector(probe)

		// Act
		_, err := selector.Select("cuda")

		// Assert
		require.Error(t, err)
		var unavailable *UnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.Equal(t, CUDA, unavailable.Device)
	})

	t.Run("should reject unknown explicit device names", func(t *testing.T) {
		probe := &fakeProbe{devices: map[Device]bool{CPU: true}}
		selector := NewSelector(probe)

		_, err := selector.Select("npu")

		assert.Error(t, err)
	})

	t.Run("should be idempotent across repeated calls", func(t *testing.T) {
		probe := &fakeProbe{devices: map[Device]bool{MPS: true, CPU: true}}
		selector := NewSelector(probe)

		first, err1 := selector.Select(Auto)
		second, err2 := selector.Select(Auto)

		assert.NoError(t, err1)
		assert.NoError(t, err2)
		assert.Equal(t, first, second)
	})
}

func TestSystemProbe_AvailableDevices(t *testing.T) {
	t.Run("should always report cpu as available", func(t *testing.T) {
		probe := NewSystemProbe(zap.NewNop())

		available := probe.AvailableDevices()

		assert.True(t, available[CPU])
	})

	t.Run("should respect CUDA_VISIBLE_DEVICES=-1", func(t *testing.T) {
		t.Setenv("CUDA_VISIBLE_DEVICES", "-1")
		probe := NewSystemProbe(zap.NewNop())

		found, answered := probe.detectWithCUDAEnv()

		assert.True(t, answered)
		assert.False(t, found)
	})

	t.Run("should detect CUDA from visible devices list", func(t *testing.T) {
		t.Setenv("CUDA_VISIBLE_DEVICES", "0,1")
		probe := NewSystemProbe(zap.NewNop())

		found, answered := probe.detectWithCUDAEnv()

		assert.True(t, answered)
		assert.True(t, found)
	})
}
