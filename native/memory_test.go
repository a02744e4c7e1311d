package native

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
)

func TestMemoryCreateAndHistory(t *testing.T) {
	m := NewMemory()
	win, err := m.Create("QMainWindow", nil)
	require.NoError(t, err)
	btn, err := m.Create("QPushButton", win)
	require.NoError(t, err)

	require.NoError(t, btn.Set("text", "OK"))
	require.NoError(t, btn.Invoke("setFocus"))

	v, ok := btn.Property("text")
	assert.True(t, ok)
	assert.Equal(t, "OK", v)
	assert.Same(t, win, btn.Parent())
	assert.Nil(t, win.Parent())

	h := m.History()
	require.Len(t, h, 4)
	assert.Equal(t, Command{Command: "CREATE", Identifier: win.ID(), Class: "QMainWindow"}, h[0])
	assert.Equal(t, win.ID(), h[1].Parent)
	assert.Equal(t, "SET", h[2].Command)
	assert.Equal(t, "setFocus", h[3].Method)

	assert.Len(t, m.Commands(btn.ID()), 3)
	assert.Len(t, m.Live(), 2)
}

func TestMemoryFailCreate(t *testing.T) {
	m := NewMemory()
	m.FailCreate("QDialog", errors.New("no display"))

	_, err := m.Create("QDialog", nil)
	require.Error(t, err)
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeNativeCreate))

	m.FailCreate("QDialog", nil)
	_, err = m.Create("QDialog", nil)
	assert.NoError(t, err)
}

func TestMemoryReparentAndCycles(t *testing.T) {
	m := NewMemory()
	a, _ := m.Create("A", nil)
	b, _ := m.Create("B", a)
	c, _ := m.Create("C", b)

	err := a.SetParent(c)
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeNativeCall))

	require.NoError(t, c.SetParent(a))
	assert.Equal(t, []*MemoryObject{b.(*MemoryObject), c.(*MemoryObject)}, a.(*MemoryObject).Children())
	assert.Empty(t, b.(*MemoryObject).Children())

	require.NoError(t, c.SetParent(nil))
	assert.Nil(t, c.Parent())
	assert.Equal(t, "", m.History()[len(m.History())-1].Parent)
}

func TestMemoryDestroy(t *testing.T) {
	m := NewMemory()
	win, _ := m.Create("W", nil)
	child, _ := m.Create("C", win)

	fired := 0
	child.Connect("clicked", func(...interface{}) { fired++ })

	require.NoError(t, win.Destroy())
	assert.True(t, win.Destroyed())
	assert.True(t, child.Destroyed(), "native children go with their parent")
	assert.Empty(t, m.Live())

	child.(*MemoryObject).Emit("clicked")
	assert.Zero(t, fired)

	assert.True(t, enamlerrors.IsCode(child.Set("text", "x"), enamlerrors.ErrCodeNativeCall))
	assert.Error(t, child.Invoke("show"))
	require.NoError(t, win.Destroy())

	assert.NotPanics(t, func() { child.Connect("clicked", func(...interface{}) { fired++ }) })
	child.(*MemoryObject).Emit("clicked")
	assert.Zero(t, fired)

	destroys := 0
	for _, cmd := range m.History() {
		if cmd.Command == "DESTROY" {
			destroys++
		}
	}
	assert.Equal(t, 1, destroys)
}

func TestMemoryClaim(t *testing.T) {
	m := NewMemory()
	obj, _ := m.Create("W", nil)

	require.NoError(t, obj.Claim("widget-1"))
	require.NoError(t, obj.Claim("widget-1"))
	err := obj.Claim("widget-2")
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeDuplicate))
	assert.Equal(t, "widget-1", obj.(*MemoryObject).Owner())
}

func TestMemoryEmitOrder(t *testing.T) {
	m := NewMemory()
	obj, _ := m.Create("Slider", nil)

	var got []interface{}
	obj.Connect("valueChanged", func(args ...interface{}) { got = append(got, args[0]) })
	obj.Connect("valueChanged", func(args ...interface{}) { got = append(got, "second") })

	mo := obj.(*MemoryObject)
	mo.Update("value", 3)
	mo.Emit("valueChanged", 3)
	assert.Equal(t, []interface{}{3, "second"}, got)

	v, _ := obj.Property("value")
	assert.Equal(t, 3, v)

	obj.Disconnect("valueChanged")
	mo.Emit("valueChanged", 4)
	assert.Len(t, got, 2)
}

func TestCommandJSON(t *testing.T) {
	data, err := Command{Command: "SET", Identifier: "x", Property: "enabled", Value: false}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"SET","identifier":"x","property":"enabled","value":false}`, string(data))

	data, err = Command{Command: "CREATE", Identifier: "x", Class: "QFrame"}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"CREATE","identifier":"x","class":"QFrame"}`, string(data))

	data, err = Command{Command: "INVOKE", Identifier: "x", Method: "show"}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"INVOKE","identifier":"x","method":"show","parameters":[]}`, string(data))

	data, err = Command{Command: "REPARENT", Identifier: "x"}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"REPARENT","identifier":"x","parent":null}`, string(data))
}
