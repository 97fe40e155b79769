package observability

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient returns a client for upstream APIs. Requests carry trace
// context and are named after the peer.
func NewHTTPClient(peer string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return peer + " " + r.Method + " " + r.URL.Path
			}),
		),
	}
}
