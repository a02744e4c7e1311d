package pipe

import (
	"log/slog"
	"sync"

	"github.com/CrimsonAS/enaml/metrics"
)

type envelope struct {
	message string
	ctx     Context
}

// inbox is the ordered delivery buffer behind the asynchronous transports.
// Messages wait in pending until a callback is installed and a drain runs.
// Only one drain runs at a time; callbacks are invoked without holding the
// lock, so a handler may replace or clear the callback of its own pipe.
type inbox struct {
	transport string
	name      string
	log       *slog.Logger

	mu       sync.Mutex
	pending  []envelope
	callback Handler
	draining bool
	closed   bool
}

func newInbox(transport, name string, log *slog.Logger) *inbox {
	return &inbox{transport: transport, name: name, log: log}
}

func (b *inbox) push(message string, ctx Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.pending = append(b.pending, envelope{message, ctx})
	metrics.MessagesBuffered.WithLabelValues(b.transport).Inc()
	return nil
}

// setCallback installs fn and reports whether buffered messages are now
// deliverable.
func (b *inbox) setCallback(fn Handler) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callback = fn
	return fn != nil && len(b.pending) > 0 && !b.closed
}

func (b *inbox) ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.callback != nil && len(b.pending) > 0 && !b.closed
}

func (b *inbox) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// drain delivers pending messages in order until the buffer is empty or no
// callback is installed. It returns the number delivered.
func (b *inbox) drain() int {
	b.mu.Lock()
	if b.draining {
		b.mu.Unlock()
		return 0
	}
	b.draining = true

	n := 0
	for len(b.pending) > 0 && b.callback != nil && !b.closed {
		env := b.pending[0]
		b.pending[0] = envelope{}
		b.pending = b.pending[1:]
		fn := b.callback
		b.mu.Unlock()

		metrics.MessagesBuffered.WithLabelValues(b.transport).Dec()
		b.deliver(fn, env)
		n++

		b.mu.Lock()
	}
	b.draining = false
	b.mu.Unlock()
	return n
}

func (b *inbox) deliver(fn Handler, env envelope) {
	metrics.MessagesDelivered.WithLabelValues(b.transport).Inc()
	if _, err := fn(env.message, env.ctx); err != nil {
		b.log.Warn("message handler failed",
			slog.String("pipe", b.name),
			slog.String("message", env.message),
			slog.Any("error", err))
	}
}

// close discards pending messages and rejects later pushes. It returns the
// number of messages discarded.
func (b *inbox) close() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0
	}
	b.closed = true
	n := len(b.pending)
	b.pending = nil
	b.callback = nil
	if n > 0 {
		metrics.MessagesBuffered.WithLabelValues(b.transport).Sub(float64(n))
		metrics.MessagesDropped.WithLabelValues(b.transport, "closed").Add(float64(n))
		b.log.Warn("pipe closed with pending messages",
			slog.String("pipe", b.name),
			slog.Int("dropped", n))
	}
	return n
}
