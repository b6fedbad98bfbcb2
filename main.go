package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"buswatch/pkg/bustimes"
	"buswatch/pkg/logging"
	"buswatch/pkg/lookup"
	"buswatch/pkg/metrics"
	"buswatch/pkg/otel"
	"buswatch/pkg/pipeline"
	"buswatch/pkg/profiling"
	"buswatch/pkg/server"
	"buswatch/pkg/tfl"
	"buswatch/pkg/tracing"
)

func main() {
	// Command line flags
	var (
		listenAddr  = flag.String("listen", getEnv("BUSWATCH_LISTEN", ":8080"), "HTTP listen address")
		tflAppKey   = flag.String("tfl-app-key", getEnv("TFL_APP_KEY", ""), "TfL API application key (required)")
		tflURL      = flag.String("tfl-url", getEnv("BUSWATCH_TFL_URL", ""), "TfL API base URL override")
		bustimesURL = flag.String("bustimes-url", getEnv("BUSWATCH_BUSTIMES_URL", ""), "bustimes.org base URL override")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Live bus route summaries\n\n")
		fmt.Fprintf(os.Stderr, "Fetches live arrival predictions from the TfL API, reduces them to one\n")
		fmt.Fprintf(os.Stderr, "record per physical vehicle, enriches each with its fleet code from the\n")
		fmt.Fprintf(os.Stderr, "bustimes.org registry, and serves the summaries over HTTP.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  TFL_APP_KEY            - TfL API application key (required)\n")
		fmt.Fprintf(os.Stderr, "  BUSWATCH_LISTEN        - HTTP listen address (default: :8080)\n")
		fmt.Fprintf(os.Stderr, "  BUSWATCH_TFL_URL       - TfL API base URL override\n")
		fmt.Fprintf(os.Stderr, "  BUSWATCH_BUSTIMES_URL  - bustimes.org base URL override\n")
		fmt.Fprintf(os.Stderr, "  LOG_LEVEL              - debug, info, warn, error (default: info)\n")
	}

	flag.Parse()

	logging.InitLogging()

	if *tflAppKey == "" {
		fmt.Fprintf(os.Stderr, "Error: TfL app key is required. Use --tfl-app-key or set TFL_APP_KEY.\n\n")
		flag.Usage()
		os.Exit(1)
	}

	// Initialize tracing
	shutdownTracing, err := tracing.InitTracing()
	if err != nil {
		slog.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing()

	// Initialize metrics
	shutdownMetrics, err := metrics.InitMetrics()
	if err != nil {
		slog.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer shutdownMetrics()

	// Initialize profiling
	shutdownProfiling, err := profiling.InitProfiling()
	if err != nil {
		slog.Error("Failed to initialize profiling", "error", err)
		os.Exit(1)
	}
	defer shutdownProfiling()

	arrivals := tfl.NewClient(*tflAppKey)
	if *tflURL != "" {
		arrivals.SetBaseURL(*tflURL)
	}

	registry := bustimes.NewClient()
	if *bustimesURL != "" {
		registry.SetBaseURL(*bustimesURL)
	}

	routes, err := pipeline.New(pipeline.Config{
		Arrivals: arrivals,
		Registry: registry,
	})
	if err != nil {
		slog.Error("Failed to create pipeline", "error", err)
		os.Exit(1)
	}

	srv := server.New(routes, lookup.NewService(registry), server.ProcessInfo{
		StartedAt: time.Now(),
		Version:   otel.Version,
	})

	slog.Info("Starting buswatch", "listen", *listenAddr)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Listen(*listenAddr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down gracefully", "signal", sig.String())
		if err := srv.Shutdown(5 * time.Second); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
	case err := <-errChan:
		if err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("buswatch shutdown complete")
}

// getEnv returns the value of an environment variable or a default value if not set
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
