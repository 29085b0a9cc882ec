package log

import (
	"os"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/utils/dotenv"
	"github.com/Leitan123/SmartScholarsPAF/utils/flag"
	ddhook "github.com/bin3377/logrus-datadog-hook"
	"github.com/sirupsen/logrus"
)

const (
	datadogUSHost    = "http-intake.logs.datadoghq.com"
	syncFrequencySec = 30
	syncRetry        = 3
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// Tests don't go through main, so the logger has to be usable right after
// package initialization.
func init() {
	InitLogger()
}

func InitLogger() {
	logger = logrus.New()

	apiKey := os.Getenv("DATADOG_API_KEY")
	if dotenv.IsProdEnv() && apiKey != "" {
		hook := ddhook.NewHook(
			datadogUSHost,
			apiKey,
			syncFrequencySec*time.Second,
			syncRetry,
			logrus.InfoLevel,
			&logrus.JSONFormatter{},
			ddhook.Options{},
		)
		logger.Hooks.Add(hook)
	}

	// Also send log to stderr, without json formatter for better readability
	logger.SetOutput(os.Stderr)
	if flag.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	Log = logger.WithFields(
		logrus.Fields{"service": flag.ServiceName, "is_development": flag.IsDevelopment && !dotenv.IsProdEnv()},
	)
}
