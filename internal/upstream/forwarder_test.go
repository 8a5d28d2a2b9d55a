package upstream_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/relaylabs/switchboard/internal/model"
	"github.com/relaylabs/switchboard/internal/upstream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestForwarderReturnsUpstreamBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/process" {
			t.Errorf("path = %q, want /process", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		w.Write(append([]byte("echo:"), body...))
	}))
	defer ts.Close()

	f := upstream.NewForwarder(ts.Client(), ts.URL, testLogger())
	handler := f.Handler()

	key, resp := handler(model.Job{Key: "k1", Payload: []byte("ping")})
	if key != "k1" {
		t.Errorf("key = %q, want %q", key, "k1")
	}
	if string(resp) != "echo:ping" {
		t.Errorf("response = %q, want %q", resp, "echo:ping")
	}
}

func TestForwarderClientErrorIsPermanent(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer ts.Close()

	f := upstream.NewForwarder(ts.Client(), ts.URL, testLogger())
	key, resp := f.Handler()(model.Job{Key: "k1", Payload: []byte("ping")})

	if key != "k1" {
		t.Errorf("key = %q, want %q", key, "k1")
	}
	if calls != 1 {
		t.Errorf("upstream called %d times, want 1 (4xx must not be retried)", calls)
	}

	var errBody map[string]string
	if err := json.Unmarshal(resp, &errBody); err != nil {
		t.Fatalf("response is not an error payload: %v", err)
	}
	if errBody["error"] == "" {
		t.Error("error payload missing error message")
	}
}

func TestEchoHandler(t *testing.T) {
	key, resp := upstream.Echo()(model.Job{Key: "k9", Payload: []byte("hello")})
	if key != "k9" {
		t.Errorf("key = %q, want %q", key, "k9")
	}
	if string(resp) != "hello" {
		t.Errorf("response = %q, want %q", resp, "hello")
	}
}
