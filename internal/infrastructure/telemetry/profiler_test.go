package telemetry

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.False(t, p.IsEnabled())

	// Disabled profiler stops cleanly, repeatedly.
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_EnabledRequiresAddressAndName(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{
		Enabled:         true,
		ApplicationName: "inventory",
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server address")

	_, err = NewProfiler(ProfilerConfig{
		Enabled:       true,
		ServerAddress: "http://pyroscope:4040",
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application name")
}

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles()

	assert.Contains(t, profiles, pyroscope.ProfileCPU)
	assert.Contains(t, profiles, pyroscope.ProfileGoroutines)
	assert.NotContains(t, profiles, pyroscope.ProfileMutexCount, "mutex profiling is opt-in")
	assert.NotContains(t, profiles, pyroscope.ProfileBlockCount, "block profiling is opt-in")
}

func TestHostTags(t *testing.T) {
	t.Setenv("HOSTNAME", "inv-host-1")
	t.Setenv("POD_NAME", "inventory-api-0")

	tags := hostTags()
	assert.Equal(t, "inv-host-1", tags["hostname"])
	assert.Equal(t, "inventory-api-0", tags["pod"])
}

func TestHostTags_Empty(t *testing.T) {
	t.Setenv("HOSTNAME", "")
	t.Setenv("POD_NAME", "")

	assert.Empty(t, hostTags())
}

func TestPyroscopeZapLogger(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := pyroscopeZap{zap.New(core).Named("pyroscope").Sugar()}

	log.Infof("uploaded %d profiles", 3)
	log.Debugf("tick")
	log.Errorf("upload failed: %s", "timeout")

	entries := observed.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "uploaded 3 profiles", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "pyroscope", entries[2].LoggerName)
}
