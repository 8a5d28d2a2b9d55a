package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/relaylabs/switchboard/internal/model"
)

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeRecord(t *testing.T, resp *http.Response) *model.RequestRecord {
	t.Helper()
	defer resp.Body.Close()
	rec := &model.RequestRecord{}
	if err := json.NewDecoder(resp.Body).Decode(rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return rec
}

func TestSubmitRequestHappyPath(t *testing.T) {
	srv := newTestServer(t, echoHandlers(2), time.Second)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/requests", `{"key":"k1","payload":{"op":"echo"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	rec := decodeRecord(t, resp)
	if rec.Key != "k1" {
		t.Errorf("Key = %q, want k1", rec.Key)
	}
	if rec.Status != model.StatusCompleted {
		t.Errorf("Status = %q, want completed", rec.Status)
	}
	if string(rec.Response) != `{"op":"echo"}` {
		t.Errorf("Response = %q, want echoed payload", rec.Response)
	}
}

func TestSubmitRequestDefaultsKey(t *testing.T) {
	srv := newTestServer(t, echoHandlers(1), time.Second)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/requests", `{"payload":"ping"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	rec := decodeRecord(t, resp)
	if len(rec.Key) != 26 {
		t.Errorf("Key = %q, want generated ULID", rec.Key)
	}
}

func TestSubmitRequestValidation(t *testing.T) {
	srv := newTestServer(t, echoHandlers(1), time.Second)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/requests", `not json`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid JSON: status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/v1/requests", `{"key":"k1"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing payload: status = %d, want 400", resp.StatusCode)
	}
}

func TestSubmitRequestTimeout(t *testing.T) {
	srv := newTestServer(t, slowHandlers(1, time.Second), 50*time.Millisecond)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/requests", `{"key":"k1","payload":"ping"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", resp.StatusCode)
	}

	var errBody map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody["error"] != "request timed out" {
		t.Errorf("error = %q, want %q", errBody["error"], "request timed out")
	}
}

func TestGetAndListRequests(t *testing.T) {
	srv := newTestServer(t, echoHandlers(1), time.Second)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/requests", `{"key":"k1","payload":"ping"}`)
	rec := decodeRecord(t, resp)

	getResp, err := http.Get(ts.URL + "/v1/requests/" + rec.ID)
	if err != nil {
		t.Fatalf("GET request: %v", err)
	}
	got := decodeRecord(t, getResp)
	if got.ID != rec.ID {
		t.Errorf("ID = %q, want %q", got.ID, rec.ID)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}

	missingResp, err := http.Get(ts.URL + "/v1/requests/missing")
	if err != nil {
		t.Fatalf("GET missing: %v", err)
	}
	missingResp.Body.Close()
	if missingResp.StatusCode != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", missingResp.StatusCode)
	}

	listResp, err := http.Get(ts.URL + "/v1/requests")
	if err != nil {
		t.Fatalf("GET list: %v", err)
	}
	defer listResp.Body.Close()

	var list listRequestsResponse
	if err := json.NewDecoder(listResp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 {
		t.Errorf("Total = %d, want 1", list.Total)
	}
	if len(list.Requests) != 1 {
		t.Errorf("len(Requests) = %d, want 1", len(list.Requests))
	}
}

func TestGetStats(t *testing.T) {
	srv := newTestServer(t, echoHandlers(1), time.Second)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/requests", `{"key":"k1","payload":"ping"}`)
	resp.Body.Close()

	statsResp, err := http.Get(ts.URL + "/v1/stats")
	if err != nil {
		t.Fatalf("GET /v1/stats: %v", err)
	}
	defer statsResp.Body.Close()

	var stats statsResponse
	if err := json.NewDecoder(statsResp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("Total = %d, want 1", stats.Total)
	}
	if stats.ByStatus[model.StatusCompleted] != 1 {
		t.Errorf("completed = %d, want 1", stats.ByStatus[model.StatusCompleted])
	}
	if stats.Pending != 0 {
		t.Errorf("Pending = %d, want 0", stats.Pending)
	}
}
