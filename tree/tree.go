// Package tree defines the serialized widget tree handed from the shell to
// the client Builder.
package tree

import (
	"encoding/json"
	"fmt"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/pipe"
)

// Description is one node of a widget tree. SendPipe and RecvPipe are named
// from the shell's point of view: the shell writes to SendPipe and reads
// from RecvPipe.
type Description struct {
	Widget   string
	Attrs    pipe.Context
	Children []*Description
	SendPipe pipe.Pipe
	RecvPipe pipe.Pipe
}

type frame struct {
	desc   *Description
	parent *Description
}

// Walk visits every node exactly once in pre-order, children in document
// order, using an explicit stack. Returning an error from fn stops the walk.
func (d *Description) Walk(fn func(node, parent *Description) error) error {
	stack := []frame{{d, nil}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fn(top.desc, top.parent); err != nil {
			return err
		}
		for i := len(top.desc.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{top.desc.Children[i], top.desc})
		}
	}
	return nil
}

// Count returns the number of nodes in the tree.
func (d *Description) Count() int {
	n := 0
	_ = d.Walk(func(*Description, *Description) error {
		n++
		return nil
	})
	return n
}

// Validate checks that every node names a widget and carries both pipes,
// and that no node appears twice.
func (d *Description) Validate() error {
	if d == nil {
		return enamlerrors.New(enamlerrors.ErrCodeInvalidInput, "nil description")
	}

	seen := make(map[*Description]struct{})
	return d.Walk(func(node, parent *Description) error {
		path := "root"
		if parent != nil {
			path = parent.Widget + "/" + node.widgetName()
		}
		if _, dup := seen[node]; dup {
			return enamlerrors.New(enamlerrors.ErrCodeInvalidInput, "node appears twice in tree").
				WithContext("node", path)
		}
		seen[node] = struct{}{}

		switch {
		case node.Widget == "":
			return enamlerrors.New(enamlerrors.ErrCodeInvalidInput, "missing widget type").
				WithContext("node", path)
		case node.SendPipe == nil || node.RecvPipe == nil:
			return enamlerrors.New(enamlerrors.ErrCodeInvalidInput, "missing pipe").
				WithContext("node", path)
		case node.SendPipe == node.RecvPipe:
			return enamlerrors.New(enamlerrors.ErrCodeInvalidInput, "send and receive pipes are the same").
				WithContext("node", path)
		}
		for i, c := range node.Children {
			if c == nil {
				return enamlerrors.New(enamlerrors.ErrCodeInvalidInput, "nil child").
					WithContext("node", path).
					WithContext("index", i)
			}
		}
		return nil
	})
}

func (d *Description) widgetName() string {
	if d == nil || d.Widget == "" {
		return "?"
	}
	return d.Widget
}

type wire struct {
	Widget   string       `json:"widget"`
	Attrs    pipe.Context `json:"attrs"`
	Children []*wire      `json:"children"`
	SendPipe string       `json:"send_pipe"`
	RecvPipe string       `json:"recv_pipe"`
}

func pipeID(p pipe.Pipe) (string, error) {
	if id, ok := p.(pipe.Identified); ok {
		return id.ID(), nil
	}
	return "", enamlerrors.Newf(enamlerrors.ErrCodeInvalidInput, "pipe %T has no identifier", p)
}

// MarshalJSON encodes the tree with pipes replaced by their identifiers.
// Every pipe must implement pipe.Identified.
func (d *Description) MarshalJSON() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	nodes := make(map[*Description]*wire)
	var root *wire
	err := d.Walk(func(node, parent *Description) error {
		send, err := pipeID(node.SendPipe)
		if err != nil {
			return err
		}
		recv, err := pipeID(node.RecvPipe)
		if err != nil {
			return err
		}

		w := &wire{
			Widget:   node.Widget,
			Attrs:    node.Attrs,
			Children: make([]*wire, 0, len(node.Children)),
			SendPipe: send,
			RecvPipe: recv,
		}
		if w.Attrs == nil {
			w.Attrs = pipe.Context{}
		}
		nodes[node] = w
		if parent == nil {
			root = w
		} else {
			nodes[parent].Children = append(nodes[parent].Children, w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(root)
}

// Resolver maps a pipe identifier back to a pipe.
type Resolver func(id string) (pipe.Pipe, error)

// ResolveWith adapts a lookup that cannot fail, such as Mux.Pipe or
// NATSFactory.Pipe. Empty identifiers are rejected.
func ResolveWith(lookup func(id string) pipe.Pipe) Resolver {
	return func(id string) (pipe.Pipe, error) {
		if id == "" {
			return nil, enamlerrors.New(enamlerrors.ErrCodeInvalidInput, "empty pipe identifier")
		}
		return lookup(id), nil
	}
}

// Decode parses a tree encoded by MarshalJSON, resolving pipe identifiers
// with resolve.
func Decode(data []byte, resolve Resolver) (*Description, error) {
	var root wire
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeInvalidInput, "invalid tree description")
	}

	type pending struct {
		w *wire
		d *Description
	}

	out := &Description{}
	stack := []pending{{&root, out}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		send, err := resolve(top.w.SendPipe)
		if err != nil {
			return nil, fmt.Errorf("resolving send pipe %q: %w", top.w.SendPipe, err)
		}
		recv, err := resolve(top.w.RecvPipe)
		if err != nil {
			return nil, fmt.Errorf("resolving recv pipe %q: %w", top.w.RecvPipe, err)
		}

		top.d.Widget = top.w.Widget
		top.d.Attrs = top.w.Attrs
		if top.d.Attrs == nil {
			top.d.Attrs = pipe.Context{}
		}
		top.d.SendPipe = send
		top.d.RecvPipe = recv
		top.d.Children = make([]*Description, len(top.w.Children))
		for i, c := range top.w.Children {
			if c == nil {
				return nil, enamlerrors.New(enamlerrors.ErrCodeInvalidInput, "null child").
					WithContext("widget", top.w.Widget)
			}
			top.d.Children[i] = &Description{}
			stack = append(stack, pending{c, top.d.Children[i]})
		}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
