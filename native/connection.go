package native

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	uuid "github.com/satori/go.uuid"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/internal/frame"
	"github.com/CrimsonAS/enaml/internal/loop"
	"github.com/CrimsonAS/enaml/metrics"
)

// Version is the frontend protocol version.
const Version = 1

// Connection is a Backend whose objects live in a native frontend process.
//
// Commands are written as frames of the form `<length> <json>\n`:
//
//	CREATE   {identifier, class, parent}
//	SET      {identifier, property, value}
//	INVOKE   {identifier, method, parameters}
//	REPARENT {identifier, parent}
//	DESTROY  {identifier}
//
// The frontend reports back with EMIT {identifier, signal, parameters},
// PROPERTY {identifier, property, value} and ERROR {identifier, message}.
// Inbound frames are applied only during Process, so slots run on the
// goroutine that calls Process, Run or RunLockable.
type Connection struct {
	stream  *frame.Stream
	log     *slog.Logger
	onError func(identifier, message string)
	running atomic.Bool

	mu      sync.Mutex
	objects map[string]*RemoteObject
}

// NewConnection creates a connection from an open stream. Nothing is sent
// until the first object is created or the connection is processed.
func NewConnection(data io.ReadWriteCloser, opts ...Option) *Connection {
	return NewConnectionSplit(data, data, opts...)
}

// NewConnectionSplit is equivalent to NewConnection, except that it uses
// separate streams for reading and writing. This is useful for pipes to a
// child process or for stdin and stdout.
func NewConnectionSplit(in io.ReadCloser, out io.WriteCloser, opts ...Option) *Connection {
	o := buildOptions(opts)
	hello := struct {
		Command string `json:"command"`
		Version int    `json:"version"`
	}{"VERSION", Version}

	return &Connection{
		stream:  frame.NewStream(in, out, hello),
		log:     o.log,
		onError: o.onError,
		objects: make(map[string]*RemoteObject),
	}
}

type inboundMessage struct {
	Command    string        `json:"command"`
	Version    int           `json:"version"`
	Identifier string        `json:"identifier"`
	Signal     string        `json:"signal"`
	Parameters []interface{} `json:"parameters"`
	Property   string        `json:"property"`
	Value      interface{}   `json:"value"`
	Message    string        `json:"message"`
}

func (c *Connection) fatal(err error) {
	if c.stream.Fail(err) {
		c.log.Error("native connection failed", slog.Any("error", err))
	}
}

func (c *Connection) warn(msg string, args ...any) {
	c.log.Warn(msg, args...)
}

func (c *Connection) send(cmd Command) error {
	if err := c.stream.Send(cmd); err != nil {
		return enamlerrors.Wrap(err, enamlerrors.ErrCodeNativeCall, "send failed").
			WithContext("command", cmd.Command).
			WithContext("object", cmd.Identifier)
	}
	metrics.NativeCommands.WithLabelValues(cmd.Command).Inc()
	return nil
}

// Started reports whether the connection has started reading and writing.
func (c *Connection) Started() bool {
	return c.stream.Started()
}

// Err returns the error that ended the connection, or nil.
func (c *Connection) Err() error {
	if err := c.stream.Err(); err != nil {
		if enamlerrors.GetCode(err) == enamlerrors.ErrCodeProtocol {
			return err
		}
		return enamlerrors.Wrap(err, enamlerrors.ErrCodeProtocol, "stream failed")
	}
	return nil
}

func (c *Connection) Create(class string, parent Object) (Object, error) {
	var p *RemoteObject
	if parent != nil {
		var ok bool
		if p, ok = parent.(*RemoteObject); !ok || p.conn != c {
			return nil, enamlerrors.Newf(enamlerrors.ErrCodeNativeCreate, "parent %T belongs to another backend", parent)
		} else if p.Destroyed() {
			return nil, errDestroyed(p.id, "create child")
		}
	}

	u, _ := uuid.NewV4()
	obj := &RemoteObject{
		conn:   c,
		id:     u.String(),
		class:  class,
		parent: p,
		props:  make(map[string]interface{}),
		slots:  make(map[string][]Slot),
	}

	cmd := Command{Command: "CREATE", Identifier: obj.id, Class: class}
	if p != nil {
		cmd.Parent = p.id
	}
	if err := c.send(cmd); err != nil {
		return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeNativeCreate, "create failed").
			WithContext("class", class)
	}

	c.mu.Lock()
	c.objects[obj.id] = obj
	c.mu.Unlock()
	return obj, nil
}

// Object returns a live object by its identifier.
func (c *Connection) Object(id string) *RemoteObject {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.objects[id]
}

// Running reports whether Run or RunLockable is processing the connection.
// Creating objects starts the stream but does not process it.
func (c *Connection) Running() bool {
	return c.running.Load()
}

func errRunning() error {
	return enamlerrors.New(enamlerrors.ErrCodeInvalidState, "connection is already running")
}

// Run processes frontend messages until the connection is closed. Be aware
// that slots may run at any time while Run is active; see RunLockable.
// Only one Run or RunLockable may be active at a time.
//
// Run is equivalent to a loop of Process and ProcessSignal.
func (c *Connection) Run() error {
	if !c.running.CompareAndSwap(false, true) {
		return errRunning()
	}
	defer c.running.Store(false)

	c.stream.Start()
	return loop.Run(c)
}

// RunLockable executes Run in a separate goroutine and returns a
// sync.Locker for mutually exclusive execution with Process. If the
// connection is already running, the locker is nil and the channel yields
// the error.
func (c *Connection) RunLockable() (sync.Locker, <-chan error) {
	if !c.running.CompareAndSwap(false, true) {
		errs := make(chan error, 1)
		errs <- errRunning()
		close(errs)
		return nil, errs
	}

	c.stream.Start()
	lock, inner := loop.RunLockable(c)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer c.running.Store(false)
		for err := range inner {
			errs <- err
		}
	}()
	return lock, errs
}

func (c *Connection) ProcessSignal() <-chan struct{} {
	c.stream.Start()
	return c.stream.Signal()
}

// Process handles any pending frontend messages, but does not block to
// wait for new ones. ProcessSignal signals when there are messages.
//
// Process returns nil when no messages are pending. All errors are fatal
// for the connection.
func (c *Connection) Process() error {
	c.stream.Start()

	for {
		data, ok := c.stream.Next()
		if !ok {
			return c.Err()
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.fatal(enamlerrors.Wrap(err, enamlerrors.ErrCodeProtocol, "process invalid message"))
			continue
		}

		if msg.Command == "VERSION" {
			if msg.Version != Version {
				c.fatal(enamlerrors.Newf(enamlerrors.ErrCodeProtocol, "unsupported frontend version %d", msg.Version))
			}
			continue
		}

		obj := c.Object(msg.Identifier)

		switch msg.Command {
		case "EMIT":
			if obj == nil {
				c.warn("signal from unknown object", slog.String("object", msg.Identifier), slog.String("signal", msg.Signal))
				break
			}
			obj.emit(msg.Signal, msg.Parameters)

		case "PROPERTY":
			if obj == nil {
				c.warn("property of unknown object", slog.String("object", msg.Identifier), slog.String("property", msg.Property))
				break
			}
			obj.update(msg.Property, msg.Value)

		case "ERROR":
			c.warn("frontend error", slog.String("object", msg.Identifier), slog.String("message", msg.Message))
			if c.onError != nil {
				c.onError(msg.Identifier, msg.Message)
			}

		default:
			c.fatal(enamlerrors.Newf(enamlerrors.ErrCodeProtocol, "unknown command %q", msg.Command))
		}
	}
}

// Close ends the connection. Objects still alive are left to the frontend.
func (c *Connection) Close() error {
	return c.stream.Close()
}

// RemoteObject is a native object owned by a frontend process.
type RemoteObject struct {
	conn  *Connection
	id    string
	class string

	mu        sync.Mutex
	owner     string
	parent    *RemoteObject
	props     map[string]interface{}
	slots     map[string][]Slot
	destroyed bool
}

func (o *RemoteObject) ID() string {
	return o.id
}

func (o *RemoteObject) Class() string {
	return o.class
}

func (o *RemoteObject) Parent() Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.parent == nil {
		return nil
	}
	return o.parent
}

func (o *RemoteObject) SetParent(parent Object) error {
	var p *RemoteObject
	if parent != nil {
		var ok bool
		if p, ok = parent.(*RemoteObject); !ok || p.conn != o.conn {
			return enamlerrors.Newf(enamlerrors.ErrCodeNativeCall, "parent %T belongs to another backend", parent)
		}
	}
	if o.Destroyed() {
		return errDestroyed(o.id, "reparent")
	}

	cmd := Command{Command: "REPARENT", Identifier: o.id}
	if p != nil {
		cmd.Parent = p.id
	}
	if err := o.conn.send(cmd); err != nil {
		return err
	}

	o.mu.Lock()
	o.parent = p
	o.mu.Unlock()
	return nil
}

func (o *RemoteObject) Set(property string, value interface{}) error {
	if o.Destroyed() {
		return errDestroyed(o.id, "set "+property)
	}
	if err := o.conn.send(Command{Command: "SET", Identifier: o.id, Property: property, Value: value}); err != nil {
		return err
	}
	o.update(property, value)
	return nil
}

func (o *RemoteObject) Property(property string) (interface{}, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.props[property]
	return v, ok
}

func (o *RemoteObject) Invoke(method string, args ...interface{}) error {
	if o.Destroyed() {
		return errDestroyed(o.id, "invoke "+method)
	}
	return o.conn.send(Command{Command: "INVOKE", Identifier: o.id, Method: method, Parameters: args})
}

func (o *RemoteObject) Connect(signal string, fn Slot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.slots != nil {
		o.slots[signal] = append(o.slots[signal], fn)
	}
}

func (o *RemoteObject) Disconnect(signal string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.slots, signal)
}

func (o *RemoteObject) Claim(owner string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.owner != "" && o.owner != owner {
		return errOwned(o.id, o.owner)
	}
	o.owner = owner
	return nil
}

// Destroy tells the frontend to destroy the object and forgets it locally.
// Signals arriving afterwards are ignored.
func (o *RemoteObject) Destroy() error {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return nil
	}
	o.destroyed = true
	o.slots = nil
	o.mu.Unlock()

	o.conn.mu.Lock()
	delete(o.conn.objects, o.id)
	o.conn.mu.Unlock()

	return o.conn.send(Command{Command: "DESTROY", Identifier: o.id})
}

func (o *RemoteObject) Destroyed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyed
}

func (o *RemoteObject) emit(signal string, args []interface{}) {
	o.mu.Lock()
	slots := copySlots(o.slots[signal])
	o.mu.Unlock()

	for _, fn := range slots {
		fn(args...)
	}
}

func (o *RemoteObject) update(property string, value interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.props[property] = value
}
