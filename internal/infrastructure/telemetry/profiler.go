package telemetry

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig drives continuous profiling via Pyroscope.
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string // e.g. "http://pyroscope:4040"
	ApplicationName   string
	BasicAuthUser     string // Grafana Cloud credentials
	BasicAuthPassword string

	// Profiles selects which profile types to collect. Nil or empty means
	// DefaultProfiles.
	Profiles []pyroscope.ProfileType

	MutexProfileFraction int // 0 means 5
	BlockProfileRate     int // 0 means 5
	DisableGCRuns        bool
}

// DefaultProfiles covers CPU, heap and goroutine profiling. Mutex and block
// profiles are opt-in since they need runtime sampling enabled.
func DefaultProfiles() []pyroscope.ProfileType {
	return []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocObjects,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseObjects,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
	}
}

// Profiler owns a running Pyroscope session. The zero-config (disabled)
// profiler is a no-op whose Stop always succeeds.
type Profiler struct {
	session *pyroscope.Profiler
	log     *zap.Logger

	mu      sync.Mutex
	stopped bool
}

// NewProfiler validates the config and starts profiling when enabled.
func NewProfiler(cfg ProfilerConfig, log *zap.Logger) (*Profiler, error) {
	if !cfg.Enabled {
		log.Info("Continuous profiling disabled")
		return &Profiler{log: log}, nil
	}
	if cfg.ServerAddress == "" {
		return nil, errors.New("profiler server address is required when profiling is enabled")
	}
	if cfg.ApplicationName == "" {
		return nil, errors.New("profiler application name is required when profiling is enabled")
	}

	profiles := cfg.Profiles
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	tuneRuntimeSampling(profiles, cfg, log)

	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            pyroscopeZap{log.Named("pyroscope").Sugar()},
		Tags:              hostTags(),
		ProfileTypes:      profiles,
		DisableGCRuns:     cfg.DisableGCRuns,
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}

	log.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Int("profile_types", len(profiles)),
	)
	return &Profiler{session: session, log: log}, nil
}

// tuneRuntimeSampling turns on the runtime sampling that mutex and block
// profiles depend on. Sampling stays untouched when those profiles are off.
func tuneRuntimeSampling(profiles []pyroscope.ProfileType, cfg ProfilerConfig, log *zap.Logger) {
	want := func(types ...pyroscope.ProfileType) bool {
		for _, p := range profiles {
			for _, t := range types {
				if p == t {
					return true
				}
			}
		}
		return false
	}

	if want(pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration) {
		fraction := cfg.MutexProfileFraction
		if fraction <= 0 {
			fraction = 5
		}
		runtime.SetMutexProfileFraction(fraction)
		log.Debug("Mutex profiling enabled", zap.Int("fraction", fraction))
	}
	if want(pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration) {
		rate := cfg.BlockProfileRate
		if rate <= 0 {
			rate = 5
		}
		runtime.SetBlockProfileRate(rate)
		log.Debug("Block profiling enabled", zap.Int("rate", rate))
	}
}

// hostTags labels profiles with the host and pod so flame graphs can be
// sliced per instance.
func hostTags() map[string]string {
	tags := map[string]string{}
	for env, tag := range map[string]string{"HOSTNAME": "hostname", "POD_NAME": "pod"} {
		if v := os.Getenv(env); v != "" {
			tags[tag] = v
		}
	}
	return tags
}

// IsEnabled reports whether a Pyroscope session is running.
func (p *Profiler) IsEnabled() bool { return p.session != nil }

// Stop flushes pending profiles and ends the session. Idempotent. Pyroscope's
// Stop carries its own timeouts, so no context is taken here.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.session == nil {
		p.stopped = true
		return nil
	}
	p.stopped = true

	if err := p.session.Stop(); err != nil {
		p.log.Error("Profiler stop", zap.Error(err))
		return fmt.Errorf("stop pyroscope: %w", err)
	}
	p.log.Info("Pyroscope profiler stopped")
	return nil
}

// pyroscopeZap satisfies pyroscope.Logger on top of zap.
type pyroscopeZap struct {
	s *zap.SugaredLogger
}

func (l pyroscopeZap) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l pyroscopeZap) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeZap) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
