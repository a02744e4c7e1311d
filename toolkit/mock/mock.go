// Package mock is a toolkit with a single generic widget used for every
// widget type. It drives any native.Backend and is mostly used with
// native.Memory to exercise the client core without a real GUI.
package mock

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/CrimsonAS/enaml/client"
	"github.com/CrimsonAS/enaml/native"
	"github.com/CrimsonAS/enaml/pipe"
)

const Name = "mock"

// New returns a toolkit whose fallback builds a Widget for any type name.
func New(backend native.Backend) *client.Toolkit {
	tk := client.NewToolkit(Name, backend)
	tk.SetFallback(NewWidget)
	return tk
}

// Widget mirrors each attribute of its description into a native property
// of the same name and accepts set_<attr> for every attribute it was
// initialized with.
//
// Native signals are forwarded generically: "event" with arguments
// (name, context) sends name, and "changed" with (attr, value) records
// the value and sends <attr>_changed.
type Widget struct {
	client.Base

	mu     sync.Mutex
	values map[string]interface{}
}

func NewWidget() client.Widget {
	w := &Widget{values: make(map[string]interface{})}
	w.Init(w)
	return w
}

func (w *Widget) Create(parent native.Object) error {
	_, err := w.CreateHandle(w.Type(), parent)
	return err
}

func (w *Widget) Initialize(attrs pipe.Context) error {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := w.store(name, attrs[name], true); err != nil {
			return err
		}
		name := name
		w.On("set_"+name, func(ctx pipe.Context) (interface{}, error) {
			return nil, w.store(name, ctx.Value("value"), true)
		})
	}
	return nil
}

func (w *Widget) Bind() error {
	h := w.Handle()
	h.Connect("event", func(args ...interface{}) {
		if len(args) == 0 {
			return
		}
		name, ok := args[0].(string)
		if !ok {
			return
		}
		ctx := pipe.Context{}
		if len(args) > 1 {
			if m, ok := args[1].(map[string]interface{}); ok {
				ctx = pipe.Context(m)
			} else if m, ok := args[1].(pipe.Context); ok {
				ctx = m
			}
		}
		w.forward(name, ctx)
	})
	h.Connect("changed", func(args ...interface{}) {
		if len(args) != 2 {
			return
		}
		attr := fmt.Sprint(args[0])
		w.store(attr, args[1], false)
		w.forward(attr+"_changed", pipe.Context{"value": args[1]})
	})
	return nil
}

func (w *Widget) forward(message string, ctx pipe.Context) {
	if err := w.Send(message, ctx); err != nil {
		w.Logger().Warn("event not delivered", slog.String("message", message), slog.Any("error", err))
	}
}

func (w *Widget) store(name string, v interface{}, apply bool) error {
	w.mu.Lock()
	w.values[name] = v
	w.mu.Unlock()
	if !apply {
		return nil
	}
	return w.Handle().Set(name, v)
}

// Value returns the last value of an attribute.
func (w *Widget) Value(name string) (interface{}, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.values[name]
	return v, ok
}
