package apm

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{"zipkin", ZipkinProvider, false},
		{" OTLP-GRPC ", OTLPGRPCProvider, false},
		{"otlp-http", OTLPHTTPProvider, false},
		{"stdout", ConsoleProvider, false},
		{"", EmptyProvider, false},
		{"honeycomb", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProvider(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseProvider(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestNewTraceProvider_Console(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewTraceProvider(context.Background(),
		WithProvider(ConsoleProvider),
		WithServiceName("web3-connect-test"),
		WithWriter(&buf),
	)
	if err != nil {
		t.Fatalf("NewTraceProvider() error = %v", err)
	}

	ctx, span := otel.Tracer("test").Start(context.Background(), "connection.activate")
	if TraceID(ctx) == "" {
		t.Error("TraceID() should be set inside a span")
	}
	span.End()

	if err := tp.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !strings.Contains(buf.String(), "connection.activate") {
		t.Errorf("exported spans missing span name:\n%s", buf.String())
	}
}

func TestNewTraceProvider_ZipkinNeedsEndpoint(t *testing.T) {
	if _, err := NewTraceProvider(context.Background(), WithProvider(ZipkinProvider)); err == nil {
		t.Error("expected error without endpoint")
	}
}

func TestTraceID_NoSpan(t *testing.T) {
	if id := TraceID(context.Background()); id != "" {
		t.Errorf("TraceID() = %q, want empty", id)
	}
}
