package notify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ariefcatur/go-storefront-orders/internal/metrics"
)

var (
	ErrQueueFull = errors.New("notification queue full")
	ErrClosed    = errors.New("notification dispatcher closed")
)

// Sender delivers one message. Implementations should honour ctx.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// DeliveryError is reported on the error channel once a message is given up on.
type DeliveryError struct {
	Message  Message
	Attempts int
	Err      error
}

func (e DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s to %s after %d attempt(s): %v", e.Message.Template, e.Message.To, e.Attempts, e.Err)
}

func (e DeliveryError) Unwrap() error { return e.Err }

type Options struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// SendTimeout bounds a single attempt.
	SendTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 500 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 30 * time.Second
	}
	return o
}

// Dispatcher hands messages to a fixed pool of workers through a bounded
// queue. Each message is retried with exponential backoff; messages that
// still fail are reported on Errors.
type Dispatcher struct {
	sender Sender
	opts   Options
	queue  chan Message
	errs   chan DeliveryError

	mu         sync.RWMutex
	closed     bool
	errsClosed bool
	wg         sync.WaitGroup
}

func NewDispatcher(sender Sender, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		sender: sender,
		opts:   opts,
		queue:  make(chan Message, opts.QueueSize),
		errs:   make(chan DeliveryError, opts.QueueSize),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for m := range d.queue {
				_ = d.Send(ctx, m)
			}
		}()
	}
}

// Enqueue never blocks. It fails with ErrQueueFull when the queue is at capacity.
func (d *Dispatcher) Enqueue(m Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- m:
		return nil
	default:
		metrics.Notification(string(m.Template), "dropped")
		return ErrQueueFull
	}
}

// Errors yields one DeliveryError per abandoned message. It is closed by Close.
func (d *Dispatcher) Errors() <-chan DeliveryError { return d.errs }

// Close stops intake and waits for queued messages to be processed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.mu.Lock()
	d.errsClosed = true
	close(d.errs)
	d.mu.Unlock()
}

// Send delivers m synchronously with the retry policy. A final failure is
// also reported on Errors.
func (d *Dispatcher) Send(ctx context.Context, m Message) error {
	var err error
	attempt := 1
	for ; ; attempt++ {
		err = d.attempt(ctx, m)
		if err == nil {
			metrics.Notification(string(m.Template), "sent")
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) || attempt >= d.opts.MaxAttempts {
			break
		}
		metrics.Notification(string(m.Template), "retried")
		log.Debug().Err(err).Str("to", m.To).Str("template", string(m.Template)).
			Int("attempt", attempt).Msg("notify_retry")
		if !sleep(ctx, d.backoff(attempt)) {
			err = ctx.Err()
			break
		}
	}

	metrics.Notification(string(m.Template), "failed")
	de := DeliveryError{Message: m, Attempts: attempt, Err: err}
	d.report(de)
	return de
}

func (d *Dispatcher) report(de DeliveryError) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.errsClosed {
		select {
		case d.errs <- de:
			return
		default:
		}
	}
	log.Error().Err(de.Err).Str("to", de.Message.To).Str("template", string(de.Message.Template)).Msg("notify_failed")
}

func (d *Dispatcher) attempt(ctx context.Context, m Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()
	return d.sender.Send(ctx, m)
}

// backoff returns the delay after the given failed attempt (1-based):
// BaseDelay doubled per attempt, capped at MaxDelay, with 0.5x-1.5x jitter.
func (d *Dispatcher) backoff(attempt int) time.Duration {
	delay := float64(d.opts.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(d.opts.MaxDelay) {
		delay = float64(d.opts.MaxDelay)
	}
	return time.Duration(delay * (0.5 + rand.Float64()))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
