package pipe

import (
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/metrics"
)

// Mock is a synchronous pipe: Put invokes the callback directly and returns
// its result. It is meant for tests and single-threaded setups where the
// shell and the client share one loop.
type Mock struct {
	id  string
	log *slog.Logger

	mu       sync.Mutex
	callback Handler
}

func NewMock(opts ...Option) *Mock {
	o := buildOptions(opts)
	return &Mock{id: ulid.Make().String(), log: o.log}
}

func (m *Mock) ID() string {
	return m.id
}

func (m *Mock) String() string {
	return "mock:" + m.id
}

func (m *Mock) Put(message string, ctx Context) (interface{}, error) {
	metrics.MessagesSent.WithLabelValues("mock", message).Inc()

	m.mu.Lock()
	fn := m.callback
	m.mu.Unlock()

	if fn == nil {
		metrics.MessagesDropped.WithLabelValues("mock", "no_receiver").Inc()
		m.log.Warn("message dropped, no callback installed",
			slog.String("pipe", m.id),
			slog.String("message", message))
		return nil, enamlerrors.New(enamlerrors.ErrCodeNoReceiver, "no callback installed").
			WithContext("pipe", m.id).
			WithContext("message", message)
	}

	metrics.MessagesDelivered.WithLabelValues("mock").Inc()
	return fn(message, ctx)
}

func (m *Mock) SetCallback(fn Handler) {
	m.mu.Lock()
	m.callback = fn
	m.mu.Unlock()
}

// MockFactory allocates Mock pipe pairs.
func MockFactory(opts ...Option) Factory {
	return FactoryFunc(func() (Pipe, Pipe, error) {
		return NewMock(opts...), NewMock(opts...), nil
	})
}
