package utils

import (
	"github.com/Leitan123/SmartScholarsPAF/utils/dotenv"
	"github.com/Leitan123/SmartScholarsPAF/utils/flag"
	Logger "github.com/Leitan123/SmartScholarsPAF/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"
)

// IsProduction is true under FEEDSYNC_ENV=prod or with --dev=false.
func IsProduction() bool {
	return dotenv.IsProdEnv() || !flag.IsDevelopment
}

func ddEnv() string {
	if IsProduction() {
		return "production"
	}
	return "development"
}

// StartTracer starts the datadog tracer the http client reports spans to.
func StartTracer() {
	tracer.Start(
		tracer.WithService(flag.ServiceName),
		tracer.WithEnv(ddEnv()),
	)
	Logger.Log.Debug("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}

// StartProfiler is only worth it for long running binaries.
func StartProfiler() {
	if err := profiler.Start(
		profiler.WithService(flag.ServiceName),
		profiler.WithEnv(ddEnv()),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
		),
	); err != nil {
		Logger.Log.WithError(err).Error("fail to start profiler")
	}
}

// Stop profiler, OK to be closed multiple times
func CloseProfiler() {
	profiler.Stop()
}
