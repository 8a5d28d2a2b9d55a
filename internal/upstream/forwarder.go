// Package upstream builds dispatch handlers that proxy request payloads to
// HTTP backends. One handler is created per configured upstream, so each
// worker loop owns exactly one backend.
package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff"

	"github.com/relaylabs/switchboard/internal/dispatch"
	"github.com/relaylabs/switchboard/internal/model"
)

// maxRetries bounds the exponential backoff retry loop per request.
const maxRetries = 3

// Forwarder proxies payloads to a single upstream backend.
type Forwarder struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewForwarder creates a forwarder for the upstream at baseURL. A nil client
// falls back to http.DefaultClient.
func NewForwarder(client *http.Client, baseURL string, logger *slog.Logger) *Forwarder {
	if client == nil {
		client = http.DefaultClient
	}
	return &Forwarder{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Handler returns the dispatch handler for this upstream. Transport failures
// are reported as a JSON error payload rather than surfaced, since the worker
// contract requires a (key, response) pair for every request.
func (f *Forwarder) Handler() dispatch.Handler[string, model.Job, []byte] {
	return func(job model.Job) (string, []byte) {
		body, err := f.process(job.Payload)
		if err != nil {
			f.logger.Warn("upstream request failed",
				"upstream", f.baseURL,
				"key", job.Key,
				"error", err,
			)
			body, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		return job.Key, body
	}
}

// process POSTs the payload to the upstream's /process endpoint, retrying
// transport errors and 5xx responses with exponential backoff. 4xx responses
// are permanent and not retried.
func (f *Forwarder) process(payload []byte) ([]byte, error) {
	var body []byte

	op := func() error {
		resp, err := f.client.Post(f.baseURL+"/process", "application/json", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("upstream status %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("upstream status %d", resp.StatusCode))
		}

		body = b
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}

// Echo returns a handler that answers every request with its own payload.
// Used when no upstreams are configured.
func Echo() dispatch.Handler[string, model.Job, []byte] {
	return func(job model.Job) (string, []byte) {
		return job.Key, job.Payload
	}
}
