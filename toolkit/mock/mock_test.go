package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrimsonAS/enaml/client"
	"github.com/CrimsonAS/enaml/native"
	"github.com/CrimsonAS/enaml/pipe"
	"github.com/CrimsonAS/enaml/tree"
)

func build(t *testing.T, d *tree.Description) (*native.Memory, *Widget) {
	t.Helper()
	m := native.NewMemory()
	app := client.NewApplication(New(m))
	w, err := app.Builder().Build(context.Background(), d)
	require.NoError(t, err)
	return m, w.(*Widget)
}

func node(widget string, attrs pipe.Context) *tree.Description {
	return &tree.Description{
		Widget:   widget,
		Attrs:    attrs,
		SendPipe: pipe.NewMock(),
		RecvPipe: pipe.NewMock(),
	}
}

func TestAnyType(t *testing.T) {
	tk := New(native.NewMemory())
	for _, name := range []string{"Window", "Anything", "PushButton"} {
		w, err := tk.New(name)
		require.NoError(t, err)
		assert.IsType(t, &Widget{}, w)
	}
}

func TestInitializeAndSet(t *testing.T) {
	d := node("Label", pipe.Context{"text": "hi", "size": 3})
	m, w := build(t, d)

	obj := m.Object(w.Handle().ID())
	assert.Equal(t, "Label", obj.Class())
	v, _ := obj.Property("text")
	assert.Equal(t, "hi", v)

	_, err := d.SendPipe.Put("set_text", pipe.Context{"value": "bye"})
	require.NoError(t, err)
	v, _ = w.Value("text")
	assert.Equal(t, "bye", v)
	v, _ = obj.Property("text")
	assert.Equal(t, "bye", v)

	res, err := d.SendPipe.Put("set_color", pipe.Context{"value": "red"})
	require.NoError(t, err)
	assert.True(t, pipe.IsNotImplemented(res), "only initialized attributes have setters")
}

func TestForwardsSignals(t *testing.T) {
	d := node("Button", pipe.Context{"text": "ok"})
	type msg struct {
		name string
		ctx  pipe.Context
	}
	var got []msg
	d.RecvPipe.SetCallback(func(message string, ctx pipe.Context) (interface{}, error) {
		got = append(got, msg{message, ctx})
		return nil, nil
	})
	m, w := build(t, d)
	obj := m.Object(w.Handle().ID())

	obj.Emit("event", "clicked", map[string]interface{}{"checked": false})
	obj.Emit("changed", "text", "typed")
	obj.Emit("event")

	require.Len(t, got, 2)
	assert.Equal(t, "clicked", got[0].name)
	assert.Equal(t, false, got[0].ctx["checked"])
	assert.Equal(t, "text_changed", got[1].name)
	assert.Equal(t, "typed", got[1].ctx["value"])

	v, _ := w.Value("text")
	assert.Equal(t, "typed", v)
}
