// Package callback delivers fire-and-forget event notifications to the
// HTTP endpoints client applications registered. Delivery is best
// effort: failures are logged and never retried, and a full queue
// drops the event rather than block the caller.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/matekasse/matekasse-backend/internal/config"
	"github.com/matekasse/matekasse-backend/internal/domain"
)

// callbackRepo lists the registered delivery targets.
type callbackRepo interface {
	ListCallbacks(ctx context.Context) ([]*domain.Callback, error)
}

// Notifier fans events out to registered callbacks with a bounded
// worker pool.
type Notifier struct {
	log        *slog.Logger
	callbacks  callbackRepo
	httpClient *http.Client

	queue chan domain.Event
	wg    sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

// NewNotifier creates a notifier and starts its workers.
func NewNotifier(logger *slog.Logger, callbacks callbackRepo, cfg config.CallbackConfig) *Notifier {
	n := &Notifier{
		log:        logger.With("adapter", "callback"),
		callbacks:  callbacks,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		queue:      make(chan domain.Event, cfg.QueueSize),
		closed:     make(chan struct{}),
	}

	n.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go n.worker()
	}

	return n
}

// Emit queues an event for delivery. It never blocks: when the queue
// is full or the notifier is closed the event is dropped and logged.
func (n *Notifier) Emit(ctx context.Context, ev domain.Event) {
	select {
	case <-n.closed:
		n.log.WarnContext(ctx, "notifier closed, event dropped", slog.String("type", string(ev.Type)))
		return
	default:
	}

	select {
	case n.queue <- ev:
	default:
		n.log.WarnContext(ctx, "callback queue full, event dropped", slog.String("type", string(ev.Type)))
	}
}

// Close stops accepting events and waits for the workers to drain the
// queue. The queue channel itself is never closed so a racing Emit
// cannot panic.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		close(n.closed)
	})
	n.wg.Wait()
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for {
		select {
		case ev := <-n.queue:
			n.deliver(ev)
		case <-n.closed:
			for {
				select {
				case ev := <-n.queue:
					n.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) deliver(ev domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	targets, err := n.callbacks.ListCallbacks(ctx)
	if err != nil {
		n.log.ErrorContext(ctx, "list callbacks failed",
			slog.String("type", string(ev.Type)),
			slog.String("error", err.Error()))
		return
	}

	body, err := json.Marshal(map[string]any{
		"event":   string(ev.Type),
		"payload": ev.Payload,
	})
	if err != nil {
		n.log.ErrorContext(ctx, "encode event failed", slog.String("type", string(ev.Type)))
		return
	}

	for _, target := range targets {
		if err := n.post(ctx, target, body); err != nil {
			n.log.WarnContext(ctx, "callback delivery failed",
				slog.String("type", string(ev.Type)),
				slog.String("uri", target.URI),
				slog.String("error", err.Error()))
		}
	}
}

func (n *Notifier) post(ctx context.Context, target *domain.Callback, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URI, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if target.Username != nil && target.Password != nil {
		req.SetBasicAuth(*target.Username, *target.Password)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
