package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrimsonAS/enaml/client"
	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/native"
	"github.com/CrimsonAS/enaml/pipe"
	"github.com/CrimsonAS/enaml/toolkit/mock"
)

func newApp() (*native.Memory, *client.Application) {
	m := native.NewMemory()
	return m, client.NewApplication(mock.New(m))
}

func sample() *Node {
	return New("Window", pipe.Context{"title": "main"},
		New("Container", nil,
			New("PushButton", pipe.Context{"text": "ok"}),
			New("PushButton", pipe.Context{"text": "cancel"}),
		),
		New("Label", pipe.Context{"text": "status"}),
	)
}

func TestNewCopiesAttrs(t *testing.T) {
	attrs := pipe.Context{"text": "a"}
	n := New("Label", attrs)
	attrs["text"] = "b"

	v, _ := n.Get("text")
	assert.Equal(t, "a", v)
	assert.NotEmpty(t, n.ID())
	assert.NotEqual(t, n.ID(), New("Label", nil).ID())
}

func TestAppend(t *testing.T) {
	root := New("Window", nil)
	child := New("Label", nil)
	require.NoError(t, root.Append(child))
	assert.Same(t, root, child.Parent())

	err := New("Window", nil).Append(child)
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidInput))
	err = root.Append(root)
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidInput))

	_, app := newApp()
	require.NoError(t, root.Attach(app))
	err = root.Append(New("Label", nil))
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidState))
}

func TestAttachPreOrder(t *testing.T) {
	var order []string
	reg := registrarFunc(func(s client.Shell) (pipe.Pipe, pipe.Pipe, error) {
		order = append(order, s.(*Node).Widget())
		return pipe.NewMock(), pipe.NewMock(), nil
	})

	root := sample()
	require.NoError(t, root.Attach(reg))
	assert.Equal(t, []string{"Window", "Container", "PushButton", "PushButton", "Label"}, order)

	err := root.Attach(reg)
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidState))
}

type registrarFunc func(client.Shell) (pipe.Pipe, pipe.Pipe, error)

func (f registrarFunc) Register(s client.Shell) (pipe.Pipe, pipe.Pipe, error) {
	return f(s)
}

func TestDescriptionRequiresAttach(t *testing.T) {
	_, err := sample().Description()
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidState))
}

func TestShowMirrorsTree(t *testing.T) {
	m, app := newApp()
	root := sample()

	w, err := Show(context.Background(), app, root)
	require.NoError(t, err)
	assert.Equal(t, 5, app.Len())
	assert.Len(t, m.Live(), 5)

	type pair struct {
		n *Node
		w client.Widget
	}
	stack := []pair{{root, w}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		assert.Equal(t, top.n.Widget(), top.w.Component().Type())
		nc, wc := top.n.Children(), top.w.Component().Children()
		require.Len(t, wc, len(nc))
		for i := range nc {
			stack = append(stack, pair{nc[i], wc[i]})
		}
	}

	d, err := root.Description()
	require.NoError(t, err)
	assert.Equal(t, 5, d.Count())
}

func TestSetReachesProxy(t *testing.T) {
	m, app := newApp()
	label := New("Label", pipe.Context{"text": "before"})
	w, err := Show(context.Background(), app, label)
	require.NoError(t, err)

	require.NoError(t, label.Set("text", "after"))
	v, _ := w.(*mock.Widget).Value("text")
	assert.Equal(t, "after", v)
	v, _ = m.Object(w.Component().Handle().ID()).Property("text")
	assert.Equal(t, "after", v)

	res, err := label.Send("refresh", nil)
	require.NoError(t, err)
	assert.True(t, pipe.IsNotImplemented(res))
}

func TestSetBeforeAttach(t *testing.T) {
	n := New("Label", nil)
	require.NoError(t, n.Set("text", "x"))
	v, ok := n.Get("text")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, err := n.Send("refresh", nil)
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidState))
}

func TestInboundMessages(t *testing.T) {
	m, app := newApp()
	button := New("PushButton", pipe.Context{"text": "ok"})
	w, err := Show(context.Background(), app, button)
	require.NoError(t, err)
	obj := m.Object(w.Component().Handle().ID())

	var clicks int
	button.Observe("clicked", func(n *Node, ctx pipe.Context) { clicks++ })
	var changed []interface{}
	button.Observe("text_changed", func(n *Node, ctx pipe.Context) {
		changed = append(changed, ctx["value"])
	})

	obj.Emit("event", "clicked", nil)
	obj.Emit("event", "clicked", nil)
	assert.Equal(t, 2, clicks)

	obj.Emit("changed", "text", "typed")
	v, _ := button.Get("text")
	assert.Equal(t, "typed", v)
	assert.Equal(t, []interface{}{"typed"}, changed)

	res, err := button.Receive("mystery", nil)
	require.NoError(t, err)
	assert.True(t, pipe.IsNotImplemented(res))

	button.Handle("mystery", func(n *Node, ctx pipe.Context) (interface{}, error) {
		return 42, nil
	})
	res, err = button.Receive("mystery", nil)
	require.NoError(t, err)
	assert.Equal(t, 42, res)
}

func TestDetach(t *testing.T) {
	m, app := newApp()
	button := New("PushButton", nil)
	w, err := Show(context.Background(), app, button)
	require.NoError(t, err)

	var clicks int
	button.Observe("clicked", func(*Node, pipe.Context) { clicks++ })
	button.Detach()

	// Mock pipes report the undelivered event back to the proxy.
	m.Object(w.Component().Handle().ID()).Emit("event", "clicked", nil)
	assert.Zero(t, clicks)
}

func TestShowFailureLeavesNothingLive(t *testing.T) {
	m, app := newApp()
	m.FailCreate("Label", enamlerrors.New(enamlerrors.ErrCodeNativeCreate, "no display"))

	_, err := Show(context.Background(), app, sample())
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeNativeCreate))
	assert.Zero(t, app.Len())
	assert.Empty(t, m.Live())
}
