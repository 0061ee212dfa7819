package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

// maxErrorBody caps how much of an error body ends up in messages.
const maxErrorBody = 200

// Request builds and executes one HTTP call.
type Request interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string) (*Response, error)
	Put(ctx context.Context, path string) (*Response, error)

	SetBody(body any) Request
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
}

// Response is a fully read HTTP response.
type Response struct {
	*http.Response
	body []byte
}

// Body returns the response body.
func (r *Response) Body() []byte {
	return r.body
}

// String returns the response body as a string.
func (r *Response) String() string {
	return string(r.body)
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type requestBuilder struct {
	client          *http.Client
	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	providerName    string
	tracer          trace.Tracer
	baseURL         string
	headers         map[string]string
	query           url.Values
	body            any
	statusHandler   StatusHandler
	labels          []*Label
	traceBodies     bool
}

func (r *requestBuilder) Get(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, path)
}

func (r *requestBuilder) Post(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, path)
}

func (r *requestBuilder) Put(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodPut, path)
}

// SetBody sets the request body. Values other than []byte, string and
// io.Reader are JSON encoded.
func (r *requestBuilder) SetBody(body any) Request {
	r.body = body
	return r
}

func (r *requestBuilder) SetHeader(key, value string) Request {
	r.headers[key] = value
	return r
}

func (r *requestBuilder) SetQueryParam(key, value string) Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, value)
	return r
}

// ResolveURL joins base and path and appends query.
func ResolveURL(base, path string, query url.Values) string {
	full := path
	if base != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		full = strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + query.Encode()
	}
	return full
}

func (r *requestBuilder) execute(ctx context.Context, method, path string) (*Response, error) {
	fullURL := ResolveURL(r.baseURL, path, r.query)

	ctx, span := r.tracer.Start(ctx, "http.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", fullURL),
			attribute.String("provider", r.providerName),
		),
	)
	defer span.End()

	bodyReader, err := r.encodeBody(span)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create request")
		return nil, apperror.Internal(apperror.CodeAPIRequestFailed,
			fmt.Sprintf("%s %s", method, fullURL), err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	took := time.Since(start)
	if err != nil {
		r.recordError(ctx, span, err, took)
		return nil, apperror.External(apperror.CodeAPIRequestFailed,
			fmt.Sprintf("%s %s", method, path), err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		r.recordError(ctx, span, err, took)
		return nil, apperror.External(apperror.CodeAPIRequestFailed,
			fmt.Sprintf("read %s response", path), err)
	}

	if r.traceBodies {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", truncate(string(body), 4096)),
		))
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	response := &Response{Response: resp, body: body}

	if r.statusHandler != nil {
		if statusErr := r.statusHandler(resp.StatusCode, body); statusErr != nil {
			r.recordMetrics(ctx, false, took)
			span.SetStatus(codes.Error, statusErr.Error())
			return response, statusErr
		}
	}

	r.recordMetrics(ctx, response.IsSuccess(), took)
	span.SetStatus(codes.Ok, resp.Status)

	return response, nil
}

func (r *requestBuilder) encodeBody(span trace.Span) (io.Reader, error) {
	switch b := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	}

	data, err := json.Marshal(r.body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal body")
		return nil, apperror.Internal(apperror.CodeAPIRequestFailed, "encode request body", err)
	}
	if _, ok := r.headers["Content-Type"]; !ok {
		r.headers["Content-Type"] = "application/json"
	}
	if r.traceBodies {
		span.AddEvent("request.body", trace.WithAttributes(
			attribute.String("http.request_body", truncate(string(data), 4096)),
		))
	}
	return bytes.NewReader(data), nil
}

func (r *requestBuilder) recordError(ctx context.Context, span trace.Span, err error, took time.Duration) {
	span.RecordError(err)

	var netErr net.Error
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}

	span.SetStatus(codes.Error, err.Error())
	r.recordMetrics(ctx, false, took)
}

func (r *requestBuilder) recordMetrics(ctx context.Context, success bool, took time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("provider", r.providerName),
		attribute.Bool("success", success),
	}
	for _, label := range r.labels {
		attrs = append(attrs, attribute.String(label.Key, label.Value))
	}

	r.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	r.requestDuration.Record(ctx, float64(took.Microseconds())/1000, metric.WithAttributes(attrs...))
}

// StatusError is the default StatusHandler: any non-2xx status becomes an
// app error carrying the server's message when it sent one.
func StatusError(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	return apperror.FromStatus(statusCode, ServerMessage(statusCode, body))
}

// ServerMessage extracts a readable message from an error body. JSON bodies
// with an "error" or "message" field use that field; other bodies are
// trimmed; empty bodies fall back to the status text.
func ServerMessage(statusCode int, body []byte) string {
	status := fmt.Sprintf("HTTP %d %s", statusCode, http.StatusText(statusCode))

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return status
	}

	var payload struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch e := payload.Error.(type) {
		case string:
			if e != "" {
				return status + ": " + e
			}
		case map[string]any:
			if m, ok := e["message"].(string); ok && m != "" {
				return status + ": " + m
			}
		}
		if payload.Message != "" {
			return status + ": " + payload.Message
		}
		if strings.HasPrefix(trimmed, "{") {
			return status
		}
	}

	return status + ": " + truncate(trimmed, maxErrorBody)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
