// Package relay ties the dispatch balancer to the request journal: every
// submission is persisted pending, dispatched to the worker pool, and
// persisted again with its outcome.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/relaylabs/switchboard/internal/dispatch"
	"github.com/relaylabs/switchboard/internal/model"
	"github.com/relaylabs/switchboard/internal/store"
)

// Relay orchestrates the synchronous submit flow.
type Relay struct {
	store    store.Store
	balancer *dispatch.Balancer[string, model.Job, []byte]
	logger   *slog.Logger
}

// New creates a relay over the given journal and balancer.
func New(s store.Store, b *dispatch.Balancer[string, model.Job, []byte], logger *slog.Logger) *Relay {
	return &Relay{
		store:    s,
		balancer: b,
		logger:   logger,
	}
}

// Submit journals the request, dispatches it, and blocks until the response
// arrives or the balancer timeout fires. On success the returned record is
// completed and carries the response. On timeout the record is returned with
// status timeout alongside dispatch.ErrTimeout.
func (r *Relay) Submit(ctx context.Context, key string, payload []byte) (*model.RequestRecord, error) {
	rec := &model.RequestRecord{
		ID:        model.NewID(),
		Key:       key,
		Status:    model.StatusPending,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.CreateRequest(ctx, rec); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := r.balancer.SubmitRequest(ctx, key, model.Job{Key: key, Payload: payload})
	dur := int(time.Since(start).Milliseconds())
	finished := time.Now().UTC()

	rec.DurationMS = &dur
	rec.FinishedAt = &finished

	if err != nil {
		if errors.Is(err, dispatch.ErrTimeout) {
			rec.Status = model.StatusTimeout
			r.persistOutcome(rec)
			return rec, err
		}
		return nil, err
	}

	rec.Status = model.StatusCompleted
	rec.Response = resp
	r.persistOutcome(rec)
	return rec, nil
}

// Pending returns the number of keys awaiting completion.
func (r *Relay) Pending() int {
	return r.balancer.Pending()
}

// QueueDepth returns the number of requests waiting for a worker.
func (r *Relay) QueueDepth() int {
	return r.balancer.QueueLen()
}

// persistOutcome writes the terminal state of a record. It uses a fresh
// context because the caller's context may already be past its deadline on
// the timeout path, and a journal write failure must not lose the response.
func (r *Relay) persistOutcome(rec *model.RequestRecord) {
	if err := r.store.FinishRequest(context.Background(), rec); err != nil {
		r.logger.Error("persist request outcome",
			"id", rec.ID,
			"key", rec.Key,
			"status", rec.Status,
			"error", err,
		)
	}
}
