// Package wx binds client proxy widgets to wxWidgets classes. Wx objects
// are driven by method calls (SetLabel, SetRange, Enable) rather than
// properties, and report events named after the wx event types.
package wx

import (
	"github.com/CrimsonAS/enaml/client"
	"github.com/CrimsonAS/enaml/native"
	"github.com/CrimsonAS/enaml/pipe"
)

const Name = "wx"

// New returns the Wx toolkit on backend.
func New(backend native.Backend) *client.Toolkit {
	tk := client.NewToolkit(Name, backend)
	tk.MustRegister("Component", NewControl).
		MustRegister("Window", NewWindow).
		MustRegister("PushButton", NewPushButton).
		MustRegister("Slider", NewSlider).
		MustRegister("FloatSlider", NewFloatSlider).
		MustRegister("Menu", NewMenu).
		MustRegister("MenuBar", NewMenuBar)
	return tk
}

// Control is a plain wxWindow.
type Control struct {
	client.Base

	class string
}

var controlHandlers = client.Table[*Control]{
	"set_enabled": func(c *Control, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Bool("value")
		if err != nil {
			return nil, err
		}
		return nil, c.Handle().Invoke("Enable", v)
	},
	"set_visible": func(c *Control, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Bool("value")
		if err != nil {
			return nil, err
		}
		return nil, c.Handle().Invoke("Show", v)
	},
}

func NewControl() client.Widget {
	c := &Control{}
	c.setup(c, "wxWindow")
	return c
}

func (c *Control) setup(self client.Widget, class string) {
	c.class = class
	c.Init(self)
	client.Handle(&c.Base, c, controlHandlers)
}

func (c *Control) Create(parent native.Object) error {
	_, err := c.CreateHandle(c.class, parent)
	return err
}

// Initialize enables the window unless enabled is false, and shows or
// hides it when visible is given.
func (c *Control) Initialize(attrs pipe.Context) error {
	enabled, err := attrs.BoolOr("enabled", true)
	if err != nil {
		return err
	}
	if err := c.Handle().Invoke("Enable", enabled); err != nil {
		return err
	}
	if !attrs.Has("visible") {
		return nil
	}
	visible, err := attrs.Bool("visible")
	if err != nil {
		return err
	}
	return c.Handle().Invoke("Show", visible)
}

func (c *Control) notify(message string, ctx pipe.Context) {
	if err := c.Send(message, ctx); err != nil {
		c.Logger().Warn("event not delivered", "message", message, "error", err)
	}
}

// Window is a wxFrame.
type Window struct {
	Control
}

var windowHandlers = client.Table[*Window]{
	"set_title": func(w *Window, ctx pipe.Context) (interface{}, error) {
		title, err := ctx.StringOr("value", "")
		if err != nil {
			return nil, err
		}
		return nil, w.Handle().Invoke("SetTitle", title)
	},
}

func NewWindow() client.Widget {
	w := &Window{}
	w.setup(w, "wxFrame")
	client.Handle(&w.Base, w, windowHandlers)
	return w
}

func (w *Window) Initialize(attrs pipe.Context) error {
	if err := w.Control.Initialize(attrs); err != nil {
		return err
	}
	title, err := attrs.StringOr("title", "")
	if err != nil {
		return err
	}
	return w.Handle().Invoke("SetTitle", title)
}

// PushButton is a wxButton.
type PushButton struct {
	Control
}

var pushButtonHandlers = client.Table[*PushButton]{
	"set_text": func(b *PushButton, ctx pipe.Context) (interface{}, error) {
		text, err := ctx.StringOr("value", "")
		if err != nil {
			return nil, err
		}
		return nil, b.Handle().Invoke("SetLabel", text)
	},
}

func NewPushButton() client.Widget {
	b := &PushButton{}
	b.setup(b, "wxButton")
	client.Handle(&b.Base, b, pushButtonHandlers)
	return b
}

func (b *PushButton) Initialize(attrs pipe.Context) error {
	if err := b.Control.Initialize(attrs); err != nil {
		return err
	}
	text, err := attrs.StringOr("text", "")
	if err != nil {
		return err
	}
	return b.Handle().Invoke("SetLabel", text)
}

var buttonEvents = map[string]string{
	"EVT_BUTTON":    "clicked",
	"EVT_LEFT_DOWN": "pressed",
	"EVT_LEFT_UP":   "released",
}

func (b *PushButton) Bind() error {
	h := b.Handle()
	for event, message := range buttonEvents {
		message := message
		h.Connect(event, func(...interface{}) {
			b.notify(message, pipe.Context{})
		})
	}
	return nil
}
