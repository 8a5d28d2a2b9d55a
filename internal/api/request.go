package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/relaylabs/switchboard/internal/dispatch"
	"github.com/relaylabs/switchboard/internal/model"
	"github.com/relaylabs/switchboard/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodySize      = 1 << 20 // 1 MB
)

// submitRequest is the JSON body for POST /v1/requests.
type submitRequest struct {
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
}

// listRequestsResponse wraps the paginated list response.
type listRequestsResponse struct {
	Requests []*model.RequestRecord `json:"requests"`
	Total    int                    `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// handleSubmitRequest dispatches the payload and blocks until the response
// arrives or the dispatch timeout fires (504).
func (s *Server) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if len(req.Payload) == 0 {
		s.writeError(w, http.StatusBadRequest, "payload is required")
		return
	}

	key := req.Key
	if key == "" {
		key = model.NewID()
	}

	rec, err := s.relay.Submit(r.Context(), key, req.Payload)
	if errors.Is(err, dispatch.ErrTimeout) {
		s.writeError(w, http.StatusGatewayTimeout, "request timed out")
		return
	}
	if err != nil {
		s.logger.Error("submit request", "key", key, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to submit request")
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.store.GetRequest(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		s.logger.Error("get request", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get request")
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	records, total, err := s.store.ListRequests(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list requests", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	if records == nil {
		records = []*model.RequestRecord{}
	}

	s.writeJSON(w, http.StatusOK, listRequestsResponse{
		Requests: records,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
