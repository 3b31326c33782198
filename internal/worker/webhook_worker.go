package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ErrWorkerStopped is returned by Enqueue when the worker is not running.
var ErrWorkerStopped = errors.New("webhook worker not running")

// ErrQueueFull is returned by Enqueue when the queue has no room left.
var ErrQueueFull = errors.New("webhook queue full")

// Delivery is one JSON document to POST to the webhook.
type Delivery struct {
	Event string
	Body  any
}

// WebhookConfig configures a WebhookWorker.
type WebhookConfig struct {
	URL             string
	Timeout         time.Duration
	QueueSize       int
	MaxRetries      uint64
	InitialInterval time.Duration
}

// WebhookWorker posts deliveries to a webhook from a single goroutine, retrying
// failed requests with exponential backoff.
type WebhookWorker struct {
	cfg    WebhookConfig
	client *http.Client
	logger *zap.Logger

	mu      sync.Mutex
	queue   chan Delivery
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWebhookWorker builds a stopped worker.
func NewWebhookWorker(cfg WebhookConfig, logger *zap.Logger) *WebhookWorker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookWorker{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Start launches the delivery goroutine. Starting a running worker does nothing.
func (w *WebhookWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.queue = make(chan Delivery, w.cfg.QueueSize)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.run(ctx, w.queue, w.done)
	w.logger.Info("webhook worker started")
}

// Stop stops accepting deliveries and waits for queued ones to be attempted.
// Deliveries still queued when ctx expires are abandoned.
func (w *WebhookWorker) Stop(ctx context.Context) {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.queue)
	done, cancel := w.done, w.cancel
	w.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("webhook worker stop timed out; abandoning queued deliveries")
	}
	cancel()
	<-done
	w.logger.Info("webhook worker stopped")
}

// Enqueue queues d without blocking.
func (w *WebhookWorker) Enqueue(d Delivery) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return ErrWorkerStopped
	}
	select {
	case w.queue <- d:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *WebhookWorker) run(ctx context.Context, queue <-chan Delivery, done chan<- struct{}) {
	defer close(done)
	for d := range queue {
		if err := w.deliver(ctx, d); err != nil {
			w.logger.Warn("webhook delivery failed", zap.String("event", d.Event), zap.Error(err))
		}
	}
}

func (w *WebhookWorker) deliver(ctx context.Context, d Delivery) error {
	body, err := json.Marshal(d.Body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.Event, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.cfg.InitialInterval

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Modmail-Event", d.Event)

		resp, err := w.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("webhook returned %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("webhook returned %d", resp.StatusCode))
		}
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, w.cfg.MaxRetries), ctx))
}
