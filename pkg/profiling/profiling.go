package profiling

import (
	"log/slog"
	"os"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// InitProfiling starts the Pyroscope profiler when enabled via environment.
// Returns a shutdown function that should be called on application exit.
func InitProfiling() (func(), error) {
	if enabled := getEnv("PYROSCOPE_PROFILING_ENABLED", "false"); !isTrue(enabled) {
		slog.Debug("Pyroscope profiling is disabled")
		return func() {}, nil
	}

	serverAddress := getEnv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	applicationName := getEnv("PYROSCOPE_APPLICATION_NAME", "buswatch")

	config := pyroscope.Config{
		ApplicationName: applicationName,
		ServerAddress:   serverAddress,
		Logger:          pyroscope.StandardLogger,
		Tags: map[string]string{
			"service": "buswatch",
		},
	}

	basicAuthUser := getEnv("PYROSCOPE_BASIC_AUTH_USER", "")
	basicAuthPassword := getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")
	if basicAuthUser != "" && basicAuthPassword != "" {
		config.BasicAuthUser = basicAuthUser
		config.BasicAuthPassword = basicAuthPassword
	}

	profiler, err := pyroscope.Start(config)
	if err != nil {
		slog.Warn("Failed to start Pyroscope profiler", "error", err)
		return func() {}, nil
	}

	slog.Debug("Pyroscope profiling started", "server", serverAddress, "application", applicationName)

	return func() {
		if err := profiler.Stop(); err != nil {
			slog.Error("Error stopping Pyroscope profiler", "error", err)
		}
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func isTrue(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
