package client

import (
	"errors"
	"log/slog"
	"sync"

	uuid "github.com/satori/go.uuid"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/logging"
	"github.com/CrimsonAS/enaml/metrics"
	"github.com/CrimsonAS/enaml/native"
	"github.com/CrimsonAS/enaml/pipe"
)

// Creatable allocates the native object under the native parent, which is
// nil for the root.
type Creatable interface {
	Create(parent native.Object) error
}

// Initializable applies the attribute snapshot taken at build time.
// Absent attributes take their documented defaults.
type Initializable interface {
	Initialize(attrs pipe.Context) error
}

// Bindable connects native signals once the widget is configured.
type Bindable interface {
	Bind() error
}

// MessageHandler handles a message from the shell. A message with no
// handler returns pipe.NotImplemented and no error.
type MessageHandler interface {
	Receive(message string, ctx pipe.Context) (interface{}, error)
}

// Destroyable releases the widget, its children and its native object.
// Destroying twice is a no-op.
type Destroyable interface {
	Destroy() error
}

// Widget is a proxy widget. Implementations embed Base and return it from
// Component.
type Widget interface {
	Creatable
	Initializable
	Bindable
	MessageHandler
	Destroyable

	Component() *Base
}

// ChildObserver is implemented by widgets that react to children being
// added or removed after their own construction.
type ChildObserver interface {
	ChildAdded(child Widget)
	ChildRemoved(child Widget)
}

// Base carries the state shared by every proxy widget. The zero value is
// not usable; call Init from the widget's constructor.
type Base struct {
	self       Widget
	id         string
	widgetType string
	app        *Application
	send       pipe.Pipe
	recv       pipe.Pipe
	parentID   string
	log        *slog.Logger

	mu       sync.Mutex
	state    State
	handle   native.Object
	children []Widget
	handlers map[string]func(pipe.Context) (interface{}, error)
}

// Init ties b to the widget that embeds it. It must be called before any
// other method, and only once.
func (b *Base) Init(self Widget) {
	u, _ := uuid.NewV4()
	b.self = self
	b.id = u.String()
	b.log = logging.Discard()
}

func (b *Base) Component() *Base {
	return b
}

func (b *Base) ID() string {
	return b.id
}

// Type returns the widget type name from the tree description.
func (b *Base) Type() string {
	return b.widgetType
}

func (b *Base) App() *Application {
	return b.app
}

func (b *Base) Logger() *slog.Logger {
	return b.log
}

func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Handle returns the native object, or nil before Create. After Destroy it
// is the destroyed object, whose operations fail.
func (b *Base) Handle() native.Object {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle
}

// Parent returns the parent widget if it is still alive.
func (b *Base) Parent() Widget {
	if b.parentID == "" || b.app == nil {
		return nil
	}
	return b.app.lookup(b.parentID)
}

// Children returns the child widgets in build order.
func (b *Base) Children() []Widget {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Widget(nil), b.children...)
}

func (b *Base) attach(app *Application, widgetType string, send, recv pipe.Pipe, parent Widget) {
	b.app = app
	b.widgetType = widgetType
	b.send = send
	b.recv = recv
	b.log = app.log.With(slog.String("widget", widgetType), slog.String("id", b.id))
	if parent != nil {
		b.parentID = parent.Component().id
	}
}

// CreateHandle creates the native object of class under parent and makes b
// its owner. Toolkit Create methods call it exactly once.
func (b *Base) CreateHandle(class string, parent native.Object) (native.Object, error) {
	if b.app == nil {
		return nil, enamlerrors.New(enamlerrors.ErrCodeInvalidState, "widget is not attached to an application")
	}
	if s := b.State(); s != Uncreated {
		return nil, errState(b.id, s, Uncreated)
	}

	obj, err := b.app.toolkit.Backend().Create(class, parent)
	if err != nil {
		return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeNativeCreate, "native create failed").
			WithContext("widget", b.widgetType).
			WithContext("class", class)
	}
	if err := obj.Claim(b.id); err != nil {
		obj.Destroy()
		return nil, err
	}

	b.mu.Lock()
	b.handle = obj
	b.state = Created
	b.mu.Unlock()
	return obj, nil
}

func (b *Base) advance(from, to State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != from {
		return errState(b.id, b.state, from)
	}
	b.state = to
	return nil
}

// Initialize is the default, which applies nothing.
func (b *Base) Initialize(attrs pipe.Context) error {
	return nil
}

// Bind is the default, which connects nothing.
func (b *Base) Bind() error {
	return nil
}

// Send puts a message on the widget's outbound pipe. Native events call it
// once per event.
func (b *Base) Send(message string, ctx pipe.Context) error {
	switch s := b.State(); s {
	case Bound, Live:
	default:
		return errState(b.id, s, Live)
	}
	if ctx == nil {
		ctx = pipe.Context{}
	}
	_, err := b.send.Put(message, ctx)
	return err
}

// Receive dispatches message through the installed handlers.
func (b *Base) Receive(message string, ctx pipe.Context) (interface{}, error) {
	b.mu.Lock()
	state := b.state
	fn := b.handlers[message]
	b.mu.Unlock()

	if state != Live {
		return nil, errState(b.id, state, Live)
	}
	if fn == nil {
		metrics.MessagesUnhandled.WithLabelValues(b.widgetType, message).Inc()
		b.log.Debug("unhandled message", slog.String("message", message))
		return pipe.NotImplemented, nil
	}
	if ctx == nil {
		ctx = pipe.Context{}
	}
	return fn(ctx)
}

// deliver is installed as the recv pipe callback.
func (b *Base) deliver(message string, ctx pipe.Context) (interface{}, error) {
	return b.self.Receive(message, ctx)
}

func (b *Base) addChild(child Widget) {
	b.mu.Lock()
	b.children = append(b.children, child)
	b.mu.Unlock()

	if obs, ok := b.self.(ChildObserver); ok {
		obs.ChildAdded(child)
	}
}

func (b *Base) removeChild(child Widget) {
	b.mu.Lock()
	found := false
	for i, c := range b.children {
		if c == child {
			b.children = append(b.children[:i:i], b.children[i+1:]...)
			found = true
			break
		}
	}
	state := b.state
	b.mu.Unlock()

	if !found || state == Destroyed {
		return
	}
	if obs, ok := b.self.(ChildObserver); ok {
		obs.ChildRemoved(child)
	}
}

// Destroy tears the widget down: children last-first, then inbound
// delivery, then the native object, which is detached from its native
// parent before it is destroyed. The widget leaves its parent and the
// application index. Calling Destroy again does nothing.
func (b *Base) Destroy() error {
	b.mu.Lock()
	if b.state == Destroyed {
		b.mu.Unlock()
		return nil
	}
	wasLive := b.state == Live
	b.state = Destroyed
	children := b.children
	b.children = nil
	b.mu.Unlock()

	var errs []error
	for i := len(children) - 1; i >= 0; i-- {
		if err := children[i].Destroy(); err != nil {
			errs = append(errs, err)
		}
	}

	if b.recv != nil {
		b.recv.SetCallback(nil)
	}

	b.mu.Lock()
	h := b.handle
	b.handlers = nil
	b.mu.Unlock()

	if h != nil {
		if err := h.SetParent(nil); err != nil {
			errs = append(errs, err)
		}
		if err := h.Destroy(); err != nil {
			errs = append(errs, err)
		}
	}

	if parent := b.Parent(); parent != nil {
		parent.Component().removeChild(b.self)
	}
	if b.app != nil {
		b.app.forget(b.id)
		if wasLive {
			metrics.WidgetsLive.WithLabelValues(b.app.toolkit.Name()).Dec()
		}
	}
	b.log.Debug("widget destroyed")

	if len(errs) > 0 {
		return enamlerrors.Wrap(errors.Join(errs...), enamlerrors.ErrCodeNativeCall, "destroy failed").
			WithContext("widget", b.widgetType)
	}
	return nil
}
