package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialKeepAlive         = 10 * time.Second
	defaultRequestTimeout        = 10 * time.Second
	defaultMaxConnsPerHost       = 8
	defaultIdleConnTimeout       = 2 * time.Minute
	defaultExpectContinueTimeout = 100 * time.Millisecond

	metricRequestCounter  = "http_client_requests_total"
	metricRequestDuration = "http_client_request_duration_ms"
)

// Client builds and executes requests.
type Client interface {
	// NewRequest creates a request with default options.
	NewRequest(opts ...RequestOption) Request
}

// InstrumentedClient wraps http.Client with OTEL tracing and metrics.
type InstrumentedClient struct {
	client          *http.Client
	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	providerName    string
	tracer          trace.Tracer
	baseURL         string
	defaultHeaders  map[string]string
	traceBodies     bool
}

// NewInstrumentedClient creates an instrumented client.
func NewInstrumentedClient(opts ...ClientOption) (*InstrumentedClient, error) {
	options := NewClientOptions(opts...)

	httpClient := options.client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	if options.roundTripper != nil {
		httpClient.Transport = options.roundTripper
	} else if httpClient.Transport == nil {
		httpClient.Transport = &http.Transport{
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost:       defaultMaxConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		}
	}

	if options.requestTimeout != nil {
		httpClient.Timeout = *options.requestTimeout
	}

	httpClient.Transport = otelhttp.NewTransport(
		httpClient.Transport,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	providerName := options.providerName
	if providerName == "" {
		providerName = "default"
	}

	meterProvider := options.meterProvider
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}

	meter := meterProvider.Meter(
		"instrumented_http_client",
		metric.WithInstrumentationAttributes(attribute.String("provider", providerName)),
	)

	requestCounter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	tracer := options.tracer
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer("instrumented_http_client")
	}

	headers := copyHeaders(options.headers)
	if options.bearerToken != "" {
		headers["Authorization"] = "Bearer " + options.bearerToken
	}
	if _, ok := headers["Accept"]; !ok {
		headers["Accept"] = "application/json"
	}

	return &InstrumentedClient{
		client:          httpClient,
		requestCounter:  requestCounter,
		requestDuration: requestDuration,
		providerName:    providerName,
		tracer:          tracer,
		baseURL:         options.baseURL,
		defaultHeaders:  headers,
		traceBodies:     options.traceBodies,
	}, nil
}

// NewRequest creates a request builder.
func (c *InstrumentedClient) NewRequest(opts ...RequestOption) Request {
	reqOpts := NewRequestOptions(opts...)

	return &requestBuilder{
		client:          c.client,
		requestCounter:  c.requestCounter,
		requestDuration: c.requestDuration,
		providerName:    c.providerName,
		tracer:          c.tracer,
		baseURL:         c.baseURL,
		headers:         copyHeaders(c.defaultHeaders),
		statusHandler:   reqOpts.statusHandler,
		labels:          reqOpts.labels,
		traceBodies:     c.traceBodies,
	}
}

// BaseURL returns the configured base URL.
func (c *InstrumentedClient) BaseURL() string { return c.baseURL }

func copyHeaders(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
