package telemetry

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// HTTPClientConfig holds configuration for an instrumented HTTP client
type HTTPClientConfig struct {
	ServiceName string        // Name of the external service (e.g., "s3")
	Timeout     time.Duration // Request timeout
}

// NewInstrumentedHTTPClient creates an HTTP client whose requests are traced
// to OpenTelemetry. Used as the transport for SDK clients that accept a
// custom HTTP client.
func NewInstrumentedHTTPClient(cfg HTTPClientConfig) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: otelhttp.NewTransport(
			http.DefaultTransport,
			otelhttp.WithSpanOptions(
				trace.WithSpanKind(trace.SpanKindClient),
			),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return cfg.ServiceName + " " + r.Method
			}),
		),
	}
}
