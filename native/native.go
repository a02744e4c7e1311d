// Package native is the boundary between client proxy widgets and the
// native toolkit objects they drive.
//
// A Backend creates Objects. Proxies only set properties, invoke methods,
// connect to signals and destroy; they never reach into the toolkit
// directly. Memory is an in-process backend that records every command and
// lets tests emit signals. Connection drives a native frontend process
// (a QML or Wx host) over a framed JSON stream.
package native

import (
	"encoding/json"
	"log/slog"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/logging"
)

// Slot receives the arguments of a native signal.
type Slot func(args ...interface{})

// Object is a handle to one native toolkit object.
type Object interface {
	ID() string
	Class() string

	// Parent returns the native parent, or nil.
	Parent() Object
	// SetParent moves the object under parent. A nil parent detaches it.
	SetParent(parent Object) error

	Set(property string, value interface{}) error
	// Property returns the last known value of a property.
	Property(property string) (interface{}, bool)
	Invoke(method string, args ...interface{}) error

	// Connect adds fn to the slots of signal. Slots run in connection
	// order.
	Connect(signal string, fn Slot)
	// Disconnect removes every slot of signal.
	Disconnect(signal string)

	// Claim records owner as the single wrapper of this object. Claiming an
	// object that already has a different owner fails.
	Claim(owner string) error

	Destroy() error
	Destroyed() bool
}

// Backend creates native objects.
type Backend interface {
	Create(class string, parent Object) (Object, error)
}

// Command is one instruction sent to a native toolkit. Memory records them
// and Connection writes them to its frontend.
type Command struct {
	Command    string
	Identifier string
	Class      string
	Parent     string
	Property   string
	Value      interface{}
	Method     string
	Parameters []interface{}
}

func (c Command) MarshalJSON() ([]byte, error) {
	msg := map[string]interface{}{"command": c.Command}
	if c.Identifier != "" {
		msg["identifier"] = c.Identifier
	}
	switch c.Command {
	case "CREATE":
		msg["class"] = c.Class
		if c.Parent != "" {
			msg["parent"] = c.Parent
		}
	case "REPARENT":
		if c.Parent != "" {
			msg["parent"] = c.Parent
		} else {
			msg["parent"] = nil
		}
	case "SET":
		msg["property"] = c.Property
		msg["value"] = c.Value
	case "INVOKE":
		msg["method"] = c.Method
		params := c.Parameters
		if params == nil {
			params = []interface{}{}
		}
		msg["parameters"] = params
	}
	return json.Marshal(msg)
}

type options struct {
	log     *slog.Logger
	onError func(identifier, message string)
}

// Option configures a backend.
type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithErrorHandler sets a function called for each ERROR reported by a
// native frontend.
func WithErrorHandler(fn func(identifier, message string)) Option {
	return func(o *options) {
		o.onError = fn
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

func errDestroyed(id, op string) error {
	return enamlerrors.New(enamlerrors.ErrCodeNativeCall, "object destroyed").
		WithContext("object", id).
		WithContext("operation", op)
}

func errOwned(id, owner string) error {
	return enamlerrors.New(enamlerrors.ErrCodeDuplicate, "native object already owned").
		WithContext("object", id).
		WithContext("owner", owner)
}

func copySlots(slots []Slot) []Slot {
	return append([]Slot(nil), slots...)
}
