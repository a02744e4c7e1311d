package client

import (
	"github.com/CrimsonAS/enaml/pipe"
)

// Handler handles one inbound message for a widget of type W.
type Handler[W any] func(w W, ctx pipe.Context) (interface{}, error)

// Table maps message names to handlers. Tables are built once per widget
// type, usually in a package-level var.
type Table[W any] map[string]Handler[W]

// Handle installs the handlers of t on b, bound to w. Handlers installed
// later replace earlier ones with the same name, so a type installs its
// embedded types' tables first and its own last.
func Handle[W any](b *Base, w W, t Table[W]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers == nil {
		b.handlers = make(map[string]func(pipe.Context) (interface{}, error), len(t))
	}
	for name, fn := range t {
		fn := fn
		b.handlers[name] = func(ctx pipe.Context) (interface{}, error) {
			return fn(w, ctx)
		}
	}
}

// On installs a single handler on b.
func (b *Base) On(message string, fn func(ctx pipe.Context) (interface{}, error)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers == nil {
		b.handlers = make(map[string]func(pipe.Context) (interface{}, error))
	}
	b.handlers[message] = fn
}

// Handles reports whether b has a handler for message.
func (b *Base) Handles(message string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.handlers[message]
	return ok
}
