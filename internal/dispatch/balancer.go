package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/relaylabs/switchboard/internal/registry"
)

// ErrTimeout is returned by SubmitRequest when no completion arrives within
// the balancer's configured timeout.
var ErrTimeout = errors.New("request timed out")

// Handler turns a dequeued request into a (key, response) pair. The key must
// match the one the caller registered, or the response is dropped.
type Handler[K comparable, Req, Resp any] func(Req) (K, Resp)

// Balancer composes a registry, a shared queue, and a fixed set of handlers
// into a synchronous submit call. One perpetual worker loop runs per handler
// for the life of the balancer; there is no shutdown.
type Balancer[K comparable, Req, Resp any] struct {
	registry *registry.Registry[K, Resp]
	queue    *Queue[Req]
	timeout  time.Duration
	logger   *slog.Logger

	// cancels holds one handle per worker for a future close/shutdown hook.
	// Nothing calls them today.
	cancels []context.CancelFunc
}

// New launches one worker loop per handler and returns once all loops have
// been started. It does not wait for any request processing.
func New[K comparable, Req, Resp any](handlers []Handler[K, Req, Resp], timeout time.Duration, logger *slog.Logger) *Balancer[K, Req, Resp] {
	b := &Balancer[K, Req, Resp]{
		registry: registry.New[K, Resp](),
		queue:    NewQueue[Req](),
		timeout:  timeout,
		logger:   logger,
	}

	for i, h := range handlers {
		ctx, cancel := context.WithCancel(context.Background())
		b.cancels = append(b.cancels, cancel)
		go b.worker(ctx, i, h)
	}

	return b
}

// SubmitRequest registers key, enqueues req, and blocks until the matching
// completion arrives, the balancer timeout expires (ErrTimeout), or the
// caller's own context ends (ctx.Err()). The registry entry is not reclaimed
// on timeout: a late completion for the key fulfills an orphaned cell and is
// effectively dropped, unless the key has been re-registered in the meantime.
func (b *Balancer[K, Req, Resp]) SubmitRequest(ctx context.Context, key K, req Req) (Resp, error) {
	cell := b.registry.Register(key)
	b.queue.Enqueue(req)
	queueDepth.Set(float64(b.queue.Len()))

	waitCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	resp, err := cell.Wait(waitCtx)
	waitDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		var zero Resp
		// Distinguish our deadline from the caller's context ending first.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			requestsTotal.WithLabelValues(outcomeTimeout).Inc()
			return zero, ErrTimeout
		}
		return zero, err
	}

	requestsTotal.WithLabelValues(outcomeCompleted).Inc()
	return resp, nil
}

// Pending returns the number of registered keys still awaiting a response.
func (b *Balancer[K, Req, Resp]) Pending() int {
	return b.registry.Pending()
}

// QueueLen returns the number of requests waiting to be dequeued.
func (b *Balancer[K, Req, Resp]) QueueLen() int {
	return b.queue.Len()
}

// worker is the perpetual consume loop for one handler: dequeue, invoke,
// complete, repeat. It exits only when its context is cancelled or its
// handler panics. A panic stops this loop alone; the other workers keep
// running, and the request being processed is lost.
func (b *Balancer[K, Req, Resp]) worker(ctx context.Context, id int, h Handler[K, Req, Resp]) {
	for {
		req, err := b.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		queueDepth.Set(float64(b.queue.Len()))

		key, resp, ok := b.invoke(id, h, req)
		if !ok {
			return
		}

		if !b.registry.Complete(key, resp) {
			unmatchedCompletions.Inc()
			b.logger.Debug("dropped completion with no pending registration",
				"worker", id,
				"key", key,
			)
		}
	}
}

// invoke runs the handler, converting a panic into ok=false so the worker
// loop can terminate after the failure has been logged and counted.
func (b *Balancer[K, Req, Resp]) invoke(id int, h Handler[K, Req, Resp], req Req) (key K, resp Resp, ok bool) {
	workersBusy.Inc()
	defer workersBusy.Dec()
	defer func() {
		if r := recover(); r != nil {
			handlerPanics.Inc()
			b.logger.Error("handler panicked, worker loop stopped",
				"worker", id,
				"panic", r,
			)
		}
	}()

	key, resp = h(req)
	return key, resp, true
}
