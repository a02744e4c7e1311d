// Package pipe implements the ordered message channels that connect a shell
// widget to its client proxy.
//
// A Pipe is one-directional: the writer calls Put and the reader installs a
// single callback with SetCallback. Every widget owns two pipes, one in each
// direction; the Builder crosses them so the shell's send pipe is the
// client's receive pipe and vice versa.
//
// Several transports are provided. Mock delivers synchronously and is used by
// tests. Queue delivers asynchronously within a process. Mux multiplexes any
// number of pipes over a single stream, and NATSFactory maps pipes to NATS
// subjects. All of them deliver the messages of one pipe in the order they
// were put; there is no ordering between different pipes.
package pipe

import (
	"log/slog"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/logging"
)

// Handler receives a message and its context. The returned value is handed
// back to the caller of Put on synchronous transports.
type Handler func(message string, ctx Context) (interface{}, error)

// Pipe is a one-directional, ordered message channel.
type Pipe interface {
	// Put delivers message to the callback installed on this pipe.
	// Synchronous transports return the callback's result; asynchronous
	// transports return nil once the message is queued.
	Put(message string, ctx Context) (interface{}, error)

	// SetCallback installs the single inbound handler, replacing any prior
	// one. A nil handler unregisters.
	SetCallback(fn Handler)
}

// Identified is implemented by pipes that can be named across a process
// boundary.
type Identified interface {
	Pipe
	ID() string
}

// Factory allocates the two pipes of a widget.
type Factory interface {
	NewPair() (send Pipe, recv Pipe, err error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func() (Pipe, Pipe, error)

func (f FactoryFunc) NewPair() (Pipe, Pipe, error) {
	return f()
}

var (
	// ErrNoReceiver is returned when a transport cannot find a callback for
	// a message and does not buffer it.
	ErrNoReceiver = &enamlerrors.Error{Code: enamlerrors.ErrCodeNoReceiver}

	// ErrClosed is returned by Put on a closed pipe.
	ErrClosed = &enamlerrors.Error{Code: enamlerrors.ErrCodePipeClosed}
)

type notImplemented struct{}

func (notImplemented) String() string {
	return "NotImplemented"
}

func (notImplemented) MarshalJSON() ([]byte, error) {
	return []byte(`{"_enaml_":"not_implemented"}`), nil
}

// NotImplemented is returned by a receiver that has no handler for a
// message. It is an acknowledgment, not an error: the message had no effect.
var NotImplemented interface{} = notImplemented{}

// IsNotImplemented reports whether v is the NotImplemented sentinel.
func IsNotImplemented(v interface{}) bool {
	_, ok := v.(notImplemented)
	return ok
}

type options struct {
	log *slog.Logger
}

// Option configures a transport.
type Option func(*options)

// WithLogger sets the logger used for delivery warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logging.OrDiscard(o.log)
	return o
}
