// Package shell is the toolkit independent side of a widget tree. Shell
// nodes hold the declared attributes, talk to their client proxies over a
// pipe pair, and keep their attributes in sync with what the proxies
// report back.
package shell

import (
	"log/slog"
	"strings"
	"sync"

	uuid "github.com/satori/go.uuid"

	"github.com/CrimsonAS/enaml/client"
	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/logging"
	"github.com/CrimsonAS/enaml/pipe"
)

// Registrar allocates the pipe pair of a shell node. *client.Application
// is one.
type Registrar interface {
	Register(shell client.Shell) (send, recv pipe.Pipe, err error)
}

// Handler answers one inbound message for a node.
type Handler func(n *Node, ctx pipe.Context) (interface{}, error)

// Observer is told about an event the proxy reported.
type Observer func(n *Node, ctx pipe.Context)

// Node is one shell widget.
type Node struct {
	id     string
	widget string

	mu        sync.Mutex
	log       *slog.Logger
	attrs     pipe.Context
	parent    *Node
	children  []*Node
	send      pipe.Pipe
	recv      pipe.Pipe
	handlers  map[string]Handler
	observers map[string][]Observer
}

// New returns a detached node. attrs is copied.
func New(widget string, attrs pipe.Context, children ...*Node) *Node {
	if attrs == nil {
		attrs = pipe.Context{}
	}
	u, _ := uuid.NewV4()
	n := &Node{
		id:        u.String(),
		widget:    widget,
		log:       logging.Discard(),
		attrs:     attrs.Clone(),
		handlers:  make(map[string]Handler),
		observers: make(map[string][]Observer),
	}
	for _, c := range children {
		if c != nil {
			c.parent = n
			n.children = append(n.children, c)
		}
	}
	return n
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Widget() string {
	return n.widget
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*Node(nil), n.children...)
}

// Get returns the current value of an attribute.
func (n *Node) Get(name string) (interface{}, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.attrs[name]
	return v, ok
}

// Attrs returns a copy of the attributes.
func (n *Node) Attrs() pipe.Context {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.attrs.Clone()
}

// Attached reports whether the node has its pipes.
func (n *Node) Attached() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.send != nil
}

// Append adds child as the last child. The tree shape is frozen once the
// node is attached.
func (n *Node) Append(child *Node) error {
	if child == nil || child == n {
		return enamlerrors.New(enamlerrors.ErrCodeInvalidInput, "invalid child")
	}
	if child.parent != nil {
		return enamlerrors.New(enamlerrors.ErrCodeInvalidInput, "child already has a parent").
			WithContext("child", child.id)
	}
	if n.Attached() || child.Attached() {
		return enamlerrors.New(enamlerrors.ErrCodeInvalidState, "tree is attached").
			WithContext("node", n.id)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// Handle installs fn for message, replacing any previous handler.
func (n *Node) Handle(message string, fn Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[message] = fn
}

// Observe adds fn to the observers of event. <attr>_changed messages are
// observable after the attribute is updated.
func (n *Node) Observe(event string, fn Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers[event] = append(n.observers[event], fn)
}

// Set updates an attribute and, once attached, sends set_<name> with the
// new value to the proxy.
func (n *Node) Set(name string, v interface{}) error {
	n.mu.Lock()
	n.attrs[name] = v
	send := n.send
	n.mu.Unlock()

	if send == nil {
		return nil
	}
	_, err := n.put(send, "set_"+name, pipe.Context{"value": v})
	return err
}

// Send sends an action message to the proxy and returns its result, which
// is nil for asynchronous transports.
func (n *Node) Send(message string, ctx pipe.Context) (interface{}, error) {
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()

	if send == nil {
		return nil, enamlerrors.New(enamlerrors.ErrCodeInvalidState, "node is not attached").
			WithContext("node", n.id)
	}
	if ctx == nil {
		ctx = pipe.Context{}
	}
	return n.put(send, message, ctx)
}

func (n *Node) put(send pipe.Pipe, message string, ctx pipe.Context) (interface{}, error) {
	res, err := send.Put(message, ctx)
	if err != nil {
		return nil, err
	}
	if pipe.IsNotImplemented(res) {
		n.log.Debug("message not implemented by proxy", slog.String("message", message))
	}
	return res, nil
}

// Receive handles a message from the proxy.
func (n *Node) Receive(message string, ctx pipe.Context) (interface{}, error) {
	if ctx == nil {
		ctx = pipe.Context{}
	}

	n.mu.Lock()
	fn := n.handlers[message]
	observers := append([]Observer(nil), n.observers[message]...)
	n.mu.Unlock()

	if fn != nil {
		return fn(n, ctx)
	}

	if attr := strings.TrimSuffix(message, "_changed"); attr != message && attr != "" {
		if ctx.Has("value") {
			n.mu.Lock()
			n.attrs[attr] = ctx.Value("value")
			n.mu.Unlock()
		}
		for _, obs := range observers {
			obs(n, ctx)
		}
		return nil, nil
	}

	if len(observers) == 0 {
		n.log.Debug("unhandled message", slog.String("message", message))
		return pipe.NotImplemented, nil
	}
	for _, obs := range observers {
		obs(n, ctx)
	}
	return nil, nil
}
