// Package httpclient is an OTEL-instrumented HTTP client for JSON backends.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ClientOptions holds configuration for the instrumented HTTP client.
type ClientOptions struct {
	client         *http.Client
	meterProvider  metric.MeterProvider
	providerName   string
	roundTripper   http.RoundTripper
	requestTimeout *time.Duration
	headers        map[string]string
	baseURL        string
	bearerToken    string
	traceBodies    bool
	tracer         trace.Tracer
}

// ClientOption configures ClientOptions.
type ClientOption func(*ClientOptions)

// NewClientOptions applies opts over zero options.
func NewClientOptions(opts ...ClientOption) *ClientOptions {
	options := &ClientOptions{}
	for _, o := range opts {
		o(options)
	}
	return options
}

// WithHTTPClient uses c instead of a freshly built client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *ClientOptions) {
		o.client = c
	}
}

// WithMeterProvider sets the OTEL meter provider.
func WithMeterProvider(mp metric.MeterProvider) ClientOption {
	return func(o *ClientOptions) {
		o.meterProvider = mp
	}
}

// WithProviderName labels metrics and spans.
func WithProviderName(name string) ClientOption {
	return func(o *ClientOptions) {
		o.providerName = name
	}
}

// WithRoundTripper sets a custom transport. It is still wrapped by otelhttp.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(o *ClientOptions) {
		o.roundTripper = rt
	}
}

// WithRequestTimeout bounds each request.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) {
		o.requestTimeout = &timeout
	}
}

// WithHeaders sets default headers for all requests.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *ClientOptions) {
		o.headers = headers
	}
}

// WithBaseURL resolves relative request paths against url.
func WithBaseURL(url string) ClientOption {
	return func(o *ClientOptions) {
		o.baseURL = url
	}
}

// WithBearerToken sends "Authorization: Bearer <token>" on every request.
// An empty token is ignored.
func WithBearerToken(token string) ClientOption {
	return func(o *ClientOptions) {
		o.bearerToken = token
	}
}

// WithTracing sets the tracer and optionally records bodies as span events.
func WithTracing(tracer trace.Tracer, bodies bool) ClientOption {
	return func(o *ClientOptions) {
		o.tracer = tracer
		o.traceBodies = bodies
	}
}

// RequestOptions holds per-request configuration.
type RequestOptions struct {
	statusHandler StatusHandler
	labels        []*Label
}

// RequestOption configures a single request.
type RequestOption func(*RequestOptions)

// NewRequestOptions applies opts. The default status handler is StatusError.
func NewRequestOptions(opts ...RequestOption) *RequestOptions {
	options := &RequestOptions{statusHandler: StatusError}
	for _, o := range opts {
		o(options)
	}
	if options.labels == nil {
		options.labels = make([]*Label, 0)
	}
	return options
}

// StatusHandler turns a response status and body into an error, or nil if
// the response is acceptable.
type StatusHandler func(statusCode int, body []byte) error

// WithStatusHandler overrides how non-2xx responses are reported. Passing nil
// accepts every status.
func WithStatusHandler(handler StatusHandler) RequestOption {
	return func(o *RequestOptions) {
		o.statusHandler = handler
	}
}

// Label is a key-value pair attached to request metrics.
type Label struct {
	Key   string
	Value string
}

// NewLabel creates a new label.
func NewLabel(key, value string) *Label {
	return &Label{Key: key, Value: value}
}

// WithLabels sets labels for the request.
func WithLabels(labels ...*Label) RequestOption {
	return func(o *RequestOptions) {
		o.labels = labels
	}
}
