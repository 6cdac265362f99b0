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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// maxBodySize caps how much of a response is read.
const maxBodySize = 1 << 20

// Request builds and executes a single HTTP call.
type Request interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string) (*Response, error)

	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetBody(body any) Request
	SetResult(result any) Request
}

// RequestOption configures a single request.
type RequestOption func(*request)

// Label is a metric attribute attached to one request.
type Label struct {
	Key   string
	Value string
}

// NewLabel creates a label.
func NewLabel(key, value string) Label {
	return Label{Key: key, Value: value}
}

// WithLabels attaches labels to the request's metrics.
func WithLabels(labels ...Label) RequestOption {
	return func(r *request) { r.labels = append(r.labels, labels...) }
}

// StatusError is returned for responses with a status code of 400 or above.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	body       []byte
	result     any
}

// Body returns the raw response body.
func (r *Response) Body() []byte { return r.body }

// Result returns the decoded value set with SetResult, or nil.
func (r *Response) Result() any { return r.result }

type request struct {
	client  *InstrumentedClient
	headers http.Header
	query   url.Values
	body    any
	result  any
	labels  []Label
}

func (r *request) Get(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, path)
}

func (r *request) Post(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, path)
}

func (r *request) SetHeader(key, value string) Request {
	r.headers.Set(key, value)
	return r
}

func (r *request) SetQueryParam(key, value string) Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, value)
	return r
}

// SetBody sets the request body. Values other than []byte, string and
// io.Reader are JSON encoded.
func (r *request) SetBody(body any) Request {
	r.body = body
	return r
}

// SetResult decodes a successful JSON response into result.
func (r *request) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *request) resolve(path string) (string, error) {
	target := path
	if base := r.client.baseURL; base != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if len(r.query) > 0 {
		q := u.Query()
		for k, vs := range r.query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (r *request) bodyReader() (io.Reader, error) {
	switch b := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		if r.headers.Get("Content-Type") == "" {
			r.headers.Set("Content-Type", "application/json")
		}
		return bytes.NewReader(encoded), nil
	}
}

func (r *request) execute(ctx context.Context, method, path string) (*Response, error) {
	c := r.client
	ctx, span := c.tracer.Start(ctx, "http.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("provider", c.providerName),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := r.do(ctx, span, method, path)
	r.record(ctx, start, err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}

	span.SetStatus(codes.Ok, "")
	return resp, nil
}

func (r *request) do(ctx context.Context, span trace.Span, method, path string) (*Response, error) {
	target, err := r.resolve(path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	span.SetAttributes(attribute.String("http.url", target))

	body, err := r.bodyReader()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = r.headers.Clone()

	httpResp, err := r.client.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			span.SetAttributes(attribute.Bool("request.timeout", true))
		}
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))
	if r.client.traceBodies {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", string(raw)),
		))
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, body: raw}
	if httpResp.StatusCode >= http.StatusBadRequest {
		return resp, &StatusError{StatusCode: httpResp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if r.result != nil {
		if err := json.Unmarshal(raw, r.result); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
		resp.result = r.result
	}

	return resp, nil
}

func (r *request) record(ctx context.Context, start time.Time, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("provider", r.client.providerName),
		attribute.Bool("success", success),
	}
	for _, l := range r.labels {
		attrs = append(attrs, attribute.String(l.Key, l.Value))
	}
	set := metric.WithAttributes(attrs...)
	r.client.requests.Add(ctx, 1, set)
	r.client.latency.Record(ctx, float64(time.Since(start).Milliseconds()), set)
}
