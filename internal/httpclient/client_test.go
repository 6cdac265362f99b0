package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type echo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Query  string `json:"query"`
	Accept string `json:"accept"`
	Body   string `json:"body"`
}

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		if r.URL.Path == "/text" {
			w.Write([]byte("plain"))
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"method":"` + r.Method + `","path":"` + r.URL.Path + `","query":"` + r.URL.RawQuery +
			`","accept":"` + r.Header.Get("Accept") + `","body":` + quote(string(body)) + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func quote(s string) string {
	out := `"`
	for _, r := range s {
		if r == '"' {
			out += `\"`
			continue
		}
		out += string(r)
	}
	return out + `"`
}

func newClient(t *testing.T, opts ...ClientOption) *InstrumentedClient {
	t.Helper()
	c, err := NewInstrumentedClient(opts...)
	if err != nil {
		t.Fatalf("NewInstrumentedClient() error = %v", err)
	}
	return c
}

func TestRequest_GetDecodesResult(t *testing.T) {
	srv := newEchoServer(t)
	c := newClient(t, WithBaseURL(srv.URL), WithProviderName("echo"))

	var got echo
	resp, err := c.NewRequest(WithLabels(NewLabel("endpoint", "echo"))).
		SetQueryParam("tier", "fast lane").
		SetResult(&got).
		Get(context.Background(), "/quotes")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.Result() == nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("response = %+v", resp)
	}
	if got.Method != http.MethodGet || got.Path != "/quotes" || got.Query != "tier=fast+lane" {
		t.Errorf("echo = %+v", got)
	}
	if got.Accept != "application/json" {
		t.Errorf("Accept = %q, want default json", got.Accept)
	}
}

func TestRequest_PostEncodesJSON(t *testing.T) {
	srv := newEchoServer(t)
	c := newClient(t)

	var got echo
	_, err := c.NewRequest().
		SetBody(map[string]int{"id": 1}).
		SetResult(&got).
		Post(context.Background(), srv.URL+"/rpc")
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if got.Method != http.MethodPost || got.Body != `{"id":1}` {
		t.Errorf("echo = %+v", got)
	}
}

func TestRequest_Errors(t *testing.T) {
	srv := newEchoServer(t)
	c := newClient(t, WithBaseURL(srv.URL), WithRequestTimeout(time.Second))

	t.Run("status", func(t *testing.T) {
		resp, err := c.NewRequest().Get(context.Background(), "/fail")
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway || statusErr.Body != "boom" {
			t.Fatalf("error = %v, want StatusError 502", err)
		}
		if resp == nil || string(resp.Body()) == "" {
			t.Error("response body should be kept on status errors")
		}
	})

	t.Run("decode", func(t *testing.T) {
		var got echo
		resp, err := c.NewRequest().SetResult(&got).Get(context.Background(), "/text")
		if err == nil {
			t.Fatal("expected decode error")
		}
		if resp.Result() != nil {
			t.Error("Result() should be nil when decoding fails")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := c.NewRequest().Get(ctx, "/quotes"); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}
