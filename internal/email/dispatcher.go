package email

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrDispatcherClosed is returned when enqueueing after Close.
var ErrDispatcherClosed = errors.New("email dispatcher closed")

// ErrQueueFull is returned when the outbound queue has no room.
var ErrQueueFull = errors.New("email queue full")

// Dispatcher delivers messages in the background so request handlers never
// wait on SMTP. Delivery is best-effort; failures are logged.
type Dispatcher struct {
	sender  Sender
	queue   chan Message
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines draining a queue of the given size.
func NewDispatcher(sender Sender, workers, queueSize int, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		sender:  sender,
		queue:   make(chan Message, queueSize),
		timeout: timeout,
		logger:  logger.With().Str("component", "email-dispatcher").Logger(),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Send enqueues msg without blocking.
func (d *Dispatcher) Send(_ context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		d.logger.Warn().Str("to", msg.To).Msg("email queue full, message dropped")
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to be delivered.
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
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sender.Send(ctx, msg); err != nil {
			d.logger.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("email delivery failed")
		}
		cancel()
	}
}
