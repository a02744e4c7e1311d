package shell

import (
	"context"
	"log/slog"

	"github.com/CrimsonAS/enaml/client"
	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/tree"
)

type Option func(*Node)

// WithLogger sets the logger of every node in the tree.
func WithLogger(l *slog.Logger) Option {
	return func(n *Node) {
		if l != nil {
			n.log = l.With(slog.String("widget", n.widget), slog.String("node", n.id))
		}
	}
}

// Attach registers every node of the tree rooted at n, parents first,
// and starts receiving on each node's recv pipe. Nodes registered before a
// failure stay attached.
func (n *Node) Attach(r Registrar, opts ...Option) error {
	if n.Attached() {
		return enamlerrors.New(enamlerrors.ErrCodeInvalidState, "node already attached").
			WithContext("node", n.id)
	}

	stack := []*Node{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, opt := range opts {
			opt(top)
		}
		send, recv, err := r.Register(top)
		if err != nil {
			return err
		}

		top.mu.Lock()
		top.send, top.recv = send, recv
		children := top.children
		top.mu.Unlock()

		recv.SetCallback(top.Receive)

		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}

// Detach stops receiving on every node of the tree. The pipes are kept.
func (n *Node) Detach() {
	stack := []*Node{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		top.mu.Lock()
		recv := top.recv
		children := top.children
		top.mu.Unlock()

		if recv != nil {
			recv.SetCallback(nil)
		}
		stack = append(stack, children...)
	}
}

// Description snapshots the attached tree rooted at n.
func (n *Node) Description() (*tree.Description, error) {
	type item struct {
		node *Node
		into *tree.Description
	}

	root := &tree.Description{}
	stack := []item{{n, root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := top.node
		node.mu.Lock()
		if node.send == nil {
			node.mu.Unlock()
			return nil, enamlerrors.New(enamlerrors.ErrCodeInvalidState, "node is not attached").
				WithContext("node", node.id)
		}
		d := top.into
		d.Widget = node.widget
		d.Attrs = node.attrs.Clone()
		d.SendPipe = node.send
		d.RecvPipe = node.recv
		children := node.children
		node.mu.Unlock()

		d.Children = make([]*tree.Description, len(children))
		for i, c := range children {
			d.Children[i] = &tree.Description{}
			stack = append(stack, item{c, d.Children[i]})
		}
	}
	return root, nil
}

// Show attaches the tree to app and builds its client side.
func Show(ctx context.Context, app *client.Application, root *Node, opts ...Option) (client.Widget, error) {
	if !root.Attached() {
		if err := root.Attach(app, opts...); err != nil {
			return nil, err
		}
	}
	d, err := root.Description()
	if err != nil {
		return nil, err
	}
	return app.Builder().Build(ctx, d)
}
