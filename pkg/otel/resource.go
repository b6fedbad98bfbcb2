package otel

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ServiceName is the name of this service
const ServiceName = "buswatch"

// Version is set at build time via -ldflags
// e.g., go build -ldflags="-X buswatch/pkg/otel.Version=1.2.3"
var Version = "dev"

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getServiceInstanceID returns a unique identifier for this service instance.
// Priority: OTEL_SERVICE_INSTANCE_ID env var > hostname > process ID fallback
func getServiceInstanceID() string {
	if id := os.Getenv("OTEL_SERVICE_INSTANCE_ID"); id != "" {
		return id
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	return fmt.Sprintf("%s-%d", ServiceName, os.Getpid())
}

// NewResource creates the shared resource used by both the tracing and
// metrics providers.
func NewResource() (*resource.Resource, error) {
	return resource.New(context.Background(),
		// Honour OTEL_SERVICE_NAME / OTEL_RESOURCE_ATTRIBUTES overrides
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithProcess(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(Version),
			semconv.ServiceNamespace(getEnvOrDefault("OTEL_SERVICE_NAMESPACE", ServiceName)),
			semconv.ServiceInstanceID(getServiceInstanceID()),
			semconv.DeploymentEnvironment(getEnvOrDefault("OTEL_DEPLOYMENT_ENVIRONMENT", "production")),

			semconv.ProcessRuntimeName("go"),
			semconv.ProcessRuntimeVersion(runtime.Version()),
			semconv.ProcessPID(os.Getpid()),
		),
	)
}
