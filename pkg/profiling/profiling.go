package profiling

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/authmodule/authmodule-api/config"
	"github.com/authmodule/authmodule-api/pkg/logger"
	"github.com/authmodule/authmodule-api/pkg/tracing"
	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

const (
	defaultUploadInterval = 15 * time.Second

	// sampling rates applied only while mutex or block profiles are collected
	mutexProfileFraction = 5
	blockProfileRate     = 5
)

// sampleTypes lists the accepted O11Y_PROFILING_SAMPLE_TYPES names in upload order
var sampleTypes = []struct {
	name  string
	types []pyroscope.ProfileType
}{
	{"cpu", []pyroscope.ProfileType{pyroscope.ProfileCPU}},
	{"alloc_space", []pyroscope.ProfileType{pyroscope.ProfileAllocSpace}},
	{"alloc_objects", []pyroscope.ProfileType{pyroscope.ProfileAllocObjects}},
	{"goroutines", []pyroscope.ProfileType{pyroscope.ProfileGoroutines}},
	{"mutex", []pyroscope.ProfileType{pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration}},
	{"block", []pyroscope.ProfileType{pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration}},
}

func allProfileTypes() []pyroscope.ProfileType {
	var all []pyroscope.ProfileType
	for _, st := range sampleTypes {
		all = append(all, st.types...)
	}
	return all
}

// InitProfiler starts pushing profiles to Pyroscope and returns its stop func.
// Profiles carry the same identity tags as traces.
func InitProfiler(cfg config.ProfilingConfig, id tracing.Identity) (func(), error) {
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return func() {}, nil
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("profiling endpoint is required when profiling is enabled")
	}

	uploadRate := defaultUploadInterval
	if cfg.UploadIntervalSeconds > 0 {
		uploadRate = time.Duration(cfg.UploadIntervalSeconds) * time.Second
	}

	profileTypes, err := parseProfileTypes(cfg.SampleTypes)
	if err != nil {
		return nil, err
	}

	appName := applicationName(cfg.AppName, id)
	restoreRates := enableContentionSampling(profileTypes)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		Tags:            identityTags(id),
		ServerAddress:   endpoint,
		UploadRate:      uploadRate,
		ProfileTypes:    profileTypes,
		Logger:          logger.With(zap.String("component", "pyroscope")).Sugar(),
	})
	if err != nil {
		restoreRates()
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}

	logger.Info("Continuous profiling initialized",
		zap.String("application_name", appName),
		zap.String("endpoint", endpoint),
		zap.Int("profile_types", len(profileTypes)),
		zap.Duration("upload_rate", uploadRate),
	)

	return func() {
		if stopErr := profiler.Stop(); stopErr != nil {
			logger.Error("Failed to stop profiler", zap.Error(stopErr))
		}
		restoreRates()
	}, nil
}

// parseProfileTypes turns a comma separated list of sample names into profile
// types. Empty input selects every type. All unknown names are reported at once.
func parseProfileTypes(value string) ([]pyroscope.ProfileType, error) {
	if strings.TrimSpace(value) == "" {
		return allProfileTypes(), nil
	}

	requested := make(map[string]bool)
	var unknown []string
	for _, raw := range strings.Split(value, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if !knownSampleType(name) {
			unknown = append(unknown, fmt.Sprintf("%q", name))
			continue
		}
		requested[name] = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unsupported O11Y_PROFILING_SAMPLE_TYPES value: %s", strings.Join(unknown, ", "))
	}
	if len(requested) == 0 {
		return allProfileTypes(), nil
	}

	var types []pyroscope.ProfileType
	for _, st := range sampleTypes {
		if requested[st.name] {
			types = append(types, st.types...)
		}
	}
	return types, nil
}

func knownSampleType(name string) bool {
	for _, st := range sampleTypes {
		if st.name == name {
			return true
		}
	}
	return false
}

// enableContentionSampling turns on the runtime sampling that mutex and block
// profiles need and returns a func restoring the previous rates.
func enableContentionSampling(types []pyroscope.ProfileType) func() {
	var mutex, block bool
	for _, t := range types {
		switch t {
		case pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration:
			mutex = true
		case pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration:
			block = true
		}
	}

	prevMutex := -1
	if mutex {
		prevMutex = runtime.SetMutexProfileFraction(mutexProfileFraction)
	}
	if block {
		runtime.SetBlockProfileRate(blockProfileRate)
	}

	return func() {
		if prevMutex >= 0 {
			runtime.SetMutexProfileFraction(prevMutex)
		}
		if block {
			runtime.SetBlockProfileRate(0)
		}
	}
}

func applicationName(base string, id tracing.Identity) string {
	if base = strings.TrimSpace(base); base != "" {
		return base
	}
	if id.ServiceName != "" {
		return id.ServiceName
	}
	return "authmodule-api"
}

// identityTags mirrors the trace resource attributes; empty values are skipped
func identityTags(id tracing.Identity) map[string]string {
	tags := make(map[string]string, 5)
	for key, value := range map[string]string{
		"service_name":    id.ServiceName,
		"namespace":       id.Namespace,
		"environment":     id.Environment,
		"service_version": id.Version,
		"instance":        id.InstanceID,
	} {
		if value != "" {
			tags[key] = value
		}
	}
	return tags
}
