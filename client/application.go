package client

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/logging"
	"github.com/CrimsonAS/enaml/pipe"
)

const tracerName = "github.com/CrimsonAS/enaml/client"

// Shell is the part of a shell widget the Application needs.
type Shell interface {
	ID() string
}

// Registration is the pipe pair allocated to a shell widget, named from
// the shell's side.
type Registration struct {
	Send pipe.Pipe
	Recv pipe.Pipe
}

type options struct {
	factory pipe.Factory
	log     *slog.Logger
	tracer  trace.Tracer
}

// Option configures an Application.
type Option func(*options)

// WithPipeFactory sets the transport for new pipe pairs. The default is
// pipe.MockFactory.
func WithPipeFactory(f pipe.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithTracerProvider sets the provider for build spans. The default is the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = tp.Tracer(tracerName)
	}
}

// Application is the client session: it allocates pipes for shell widgets,
// owns the Builder, and indexes live widgets by identifier.
type Application struct {
	toolkit *Toolkit
	factory pipe.Factory
	log     *slog.Logger
	tracer  trace.Tracer

	mu         sync.Mutex
	registered map[string]Registration
	widgets    map[string]Widget
	builder    *Builder
	closed     bool
}

func NewApplication(toolkit *Toolkit, opts ...Option) *Application {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.factory == nil {
		o.factory = pipe.MockFactory(pipe.WithLogger(o.log))
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	return &Application{
		toolkit:    toolkit,
		factory:    o.factory,
		log:        logging.OrDiscard(o.log),
		tracer:     o.tracer,
		registered: make(map[string]Registration),
		widgets:    make(map[string]Widget),
	}
}

func (a *Application) Toolkit() *Toolkit {
	return a.toolkit
}

func errAppClosed() error {
	return enamlerrors.New(enamlerrors.ErrCodePipeClosed, "application closed")
}

// Register allocates a fresh pipe pair for shell. Each shell widget is
// registered once.
func (a *Application) Register(shell Shell) (send, recv pipe.Pipe, err error) {
	id := shell.ID()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, nil, errAppClosed()
	}
	if _, exists := a.registered[id]; exists {
		return nil, nil, enamlerrors.New(enamlerrors.ErrCodeDuplicate, "shell widget already registered").
			WithContext("shell", id)
	}

	send, recv, err = a.factory.NewPair()
	if err != nil {
		return nil, nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeInternal, "pipe allocation failed").
			WithContext("shell", id)
	}
	a.registered[id] = Registration{Send: send, Recv: recv}
	a.log.Debug("shell registered", slog.String("shell", id))
	return send, recv, nil
}

// Registration returns the pipes allocated to a shell widget.
func (a *Application) Registration(id string) (Registration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.registered[id]
	return r, ok
}

// Builder returns the application's Builder, creating it on first use.
func (a *Application) Builder() *Builder {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.builder == nil {
		a.builder = &Builder{app: a}
	}
	return a.builder
}

// Widget returns a live widget by identifier.
func (a *Application) Widget(id string) (Widget, bool) {
	w := a.lookup(id)
	return w, w != nil
}

// Len returns the number of live widgets.
func (a *Application) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.widgets)
}

func (a *Application) lookup(id string) Widget {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.widgets[id]
}

func (a *Application) index(w Widget) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.widgets[w.Component().id] = w
}

func (a *Application) forget(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.widgets, id)
}

func (a *Application) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Close destroys the client tree and forgets every registration. Later
// calls to Register and Build fail.
func (a *Application) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	b := a.builder
	a.registered = make(map[string]Registration)
	a.mu.Unlock()

	if b != nil {
		return b.Teardown()
	}
	return nil
}
