// Package notify implements asynchronous webhook fan-out for domain events.
// Events are routed by category to configured endpoints, delivered at least
// once with retries, and recorded in a failure log when delivery is exhausted.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/pkg/circuitbreaker"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
	"github.com/gielinor-events/bingo-hub/pkg/retry"
)

// Sender delivers a single payload to a single endpoint. The discord package
// provides the production implementation.
type Sender interface {
	// Send renders and posts one event. Errors wrapped retry.Retryable are
	// retried by the dispatcher, retry.Permanent errors are not.
	Send(ctx context.Context, endpoint string, event shared.Event) error

	// SendText posts a plain-text message. Used by Test.
	SendText(ctx context.Context, endpoint, content string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher routes events to webhook endpoints. Each endpoint gets its own
// queue and worker goroutine, so delivery order per endpoint matches publish
// order and one slow endpoint cannot delay the others.
type Dispatcher struct {
	sender  Sender
	routes  map[shared.Category][]string
	queues  map[string]chan shared.Event
	retrier *retry.Retrier
	timeout time.Duration
	log     *logger.Logger

	failures *FailureLog
	stats    deliveryStats

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	// breakers is keyed by endpoint; only that endpoint's worker touches it.
	breakers map[string]*circuitbreaker.CircuitBreaker
}

// DispatcherConfig contains configuration for the Dispatcher.
type DispatcherConfig struct {
	// Sender performs the actual HTTP delivery.
	Sender Sender

	// Routes maps each category to its webhook endpoints. Categories without
	// an entry discard their events.
	Routes map[shared.Category][]string

	// QueueSize is the per-endpoint buffer. Publish drops to the failure log
	// rather than block when a queue is full.
	QueueSize int

	// DeliveryTimeout bounds a single delivery attempt.
	DeliveryTimeout time.Duration

	// FailureLogSize caps the failure log; oldest records are evicted.
	FailureLogSize int

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig(sender Sender, routes map[shared.Category][]string) DispatcherConfig {
	return DispatcherConfig{
		Sender:          sender,
		Routes:          routes,
		QueueSize:       256,
		DeliveryTimeout: 10 * time.Second,
		FailureLogSize:  1000,
	}
}

// NewDispatcher creates a dispatcher and starts one worker per endpoint.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.DeliveryTimeout <= 0 {
		config.DeliveryTimeout = 10 * time.Second
	}

	log := config.Logger.With(logger.Component("notify"))
	d := &Dispatcher{
		sender:   config.Sender,
		routes:   config.Routes,
		queues:   make(map[string]chan shared.Event),
		breakers: make(map[string]*circuitbreaker.CircuitBreaker),
		retrier:  retry.WebhookRetrier(),
		timeout:  config.DeliveryTimeout,
		log:      log,
		failures: NewFailureLog(config.FailureLogSize),
	}

	for _, endpoints := range config.Routes {
		for _, endpoint := range endpoints {
			if _, ok := d.queues[endpoint]; ok {
				continue
			}
			ch := make(chan shared.Event, config.QueueSize)
			d.queues[endpoint] = ch
			d.breakers[endpoint] = circuitbreaker.WebhookBreaker(func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()))
			})

			d.wg.Add(1)
			go d.worker(endpoint, ch)
		}
	}

	return d
}

// ─────────────────────────────────────────────────────────────────────────────
// Publishing
// ─────────────────────────────────────────────────────────────────────────────

// Publish enqueues the event for every endpoint of its category. A nil return
// means accepted for delivery, not delivered. Publish never blocks on the
// network; a full queue is recorded as a failure instead.
func (d *Dispatcher) Publish(event shared.Event) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return shared.ErrDispatcherClosed
	}
	d.mu.Unlock()

	endpoints := d.routes[event.Category()]
	if len(endpoints) == 0 {
		d.log.Debug("no endpoints for category",
			logger.Category(string(event.Category())),
			logger.String("event_type", string(event.EventType())))
		return nil
	}

	for _, endpoint := range endpoints {
		select {
		case d.queues[endpoint] <- event:
			d.stats.enqueued(1)
		default:
			d.stats.failed(1)
			d.failures.Add(FailureRecord{
				Event:    event,
				Endpoint: endpoint,
				Err:      shared.WrapError("notify", "Enqueue", shared.ErrExternalService, "queue full", nil),
				FailedAt: time.Now().UTC(),
			})
			d.log.Warn("queue full, event dropped",
				logger.String("event_type", string(event.EventType())))
		}
	}
	return nil
}

// Test delivers a one-shot plain-text message to every endpoint of the
// category, synchronously. Used by the webhook test operation so operators
// can verify their configuration.
func (d *Dispatcher) Test(ctx context.Context, category shared.Category, content string) error {
	endpoints := d.routes[category]
	if len(endpoints) == 0 {
		return shared.ErrWebhookNotConfigured
	}

	var errs []error
	for _, endpoint := range endpoints {
		attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := d.sender.SendText(attemptCtx, endpoint, content)
		cancel()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Delivery
// ─────────────────────────────────────────────────────────────────────────────

func (d *Dispatcher) worker(endpoint string, ch <-chan shared.Event) {
	defer d.wg.Done()
	for event := range ch {
		d.deliver(endpoint, event)
	}
}

func (d *Dispatcher) deliver(endpoint string, event shared.Event) {
	breaker := d.breakers[endpoint]

	err := breaker.Execute(context.Background(), func(ctx context.Context) error {
		return d.retrier.Do(ctx, func(ctx context.Context) error {
			attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()
			return d.sender.Send(attemptCtx, endpoint, event)
		})
	})
	if err != nil {
		d.stats.failed(1)
		d.failures.Add(FailureRecord{
			Event:    event,
			Endpoint: endpoint,
			Err:      err,
			FailedAt: time.Now().UTC(),
		})
		d.log.Warn("webhook delivery failed",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err))
		return
	}

	d.stats.delivered(1)
	d.log.Debug("event delivered",
		logger.String("event_type", string(event.EventType())),
		logger.Category(string(event.Category())))
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// Close stops accepting events, drains all queues, and waits for in-flight
// deliveries to finish.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	for _, ch := range d.queues {
		close(ch)
	}
	d.wg.Wait()
	d.log.Info("dispatcher stopped")
	return nil
}

// Failures returns the terminal failure log.
func (d *Dispatcher) Failures() *FailureLog {
	return d.failures
}

// Stats returns a snapshot of delivery counters.
func (d *Dispatcher) Stats() DeliveryStats {
	return d.stats.snapshot()
}

// ══════════════════════════════════════════════════════════════════════════════
// FAILURE LOG
// ══════════════════════════════════════════════════════════════════════════════

// FailureRecord is one event that could not be delivered after all retries.
type FailureRecord struct {
	Event    shared.Event
	Endpoint string
	Err      error
	FailedAt time.Time
}

// FailureLog is a bounded in-memory record of terminal delivery failures.
// Oldest records are evicted when the log is full.
type FailureLog struct {
	mu      sync.RWMutex
	records []FailureRecord
	maxSize int
}

// NewFailureLog creates a failure log with the given capacity.
func NewFailureLog(maxSize int) *FailureLog {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &FailureLog{maxSize: maxSize}
}

// Add appends a record, evicting the oldest when at capacity.
func (l *FailureLog) Add(record FailureRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.records) >= l.maxSize {
		l.records = l.records[1:]
	}
	l.records = append(l.records, record)
}

// Records returns a copy of all records, oldest first.
func (l *FailureLog) Records() []FailureRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]FailureRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Size returns the current record count.
func (l *FailureLog) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Clear removes all records.
func (l *FailureLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELIVERY STATS
// ══════════════════════════════════════════════════════════════════════════════

// DeliveryStats is a point-in-time snapshot of dispatcher counters.
type DeliveryStats struct {
	Enqueued  int64
	Delivered int64
	Failed    int64
}

type deliveryStats struct {
	mu    sync.Mutex
	stats DeliveryStats
}

func (s *deliveryStats) enqueued(n int64) {
	s.mu.Lock()
	s.stats.Enqueued += n
	s.mu.Unlock()
}

func (s *deliveryStats) delivered(n int64) {
	s.mu.Lock()
	s.stats.Delivered += n
	s.mu.Unlock()
}

func (s *deliveryStats) failed(n int64) {
	s.mu.Lock()
	s.stats.Failed += n
	s.mu.Unlock()
}

func (s *deliveryStats) snapshot() DeliveryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
