package store

import (
	"context"
	"errors"

	"github.com/relaylabs/switchboard/internal/model"
)

// ErrNotFound is returned when a request record is not found.
var ErrNotFound = errors.New("request not found")

// ErrInvalidTransition is returned when a record status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// RequestStats holds aggregate journal statistics.
type RequestStats struct {
	Total         int            `json:"total"`
	CountByStatus map[string]int `json:"count_by_status"`
	AvgDurationMS float64        `json:"avg_duration_ms"`
}

// Store defines the persistence operations for the request journal.
type Store interface {
	CreateRequest(ctx context.Context, rec *model.RequestRecord) error
	GetRequest(ctx context.Context, id string) (*model.RequestRecord, error)
	ListRequests(ctx context.Context, limit, offset int) ([]*model.RequestRecord, int, error)
	FinishRequest(ctx context.Context, rec *model.RequestRecord) error
	GetRequestStats(ctx context.Context) (*RequestStats, error)
	Close() error
}
