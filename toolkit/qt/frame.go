package qt

import (
	"github.com/CrimsonAS/enaml/client"
	"github.com/CrimsonAS/enaml/native"
	"github.com/CrimsonAS/enaml/pipe"
)

// Frame is the base Qt widget, a QFrame. Every other Qt widget embeds
// it and inherits its attributes.
type Frame struct {
	client.Base

	class string
}

var frameHandlers = client.Table[*Frame]{
	"set_enabled": func(c *Frame, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Bool("value")
		if err != nil {
			return nil, err
		}
		return nil, c.setEnabled(v)
	},
	"set_visible": func(c *Frame, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Bool("value")
		if err != nil {
			return nil, err
		}
		return nil, c.setVisible(v)
	},
	"set_bg_color": func(c *Frame, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.StringOr("value", "")
		if err != nil {
			return nil, err
		}
		return nil, c.setBgColor(v)
	},
	"set_fg_color": func(c *Frame, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.StringOr("value", "")
		if err != nil {
			return nil, err
		}
		return nil, c.setFgColor(v)
	},
	"set_font": func(c *Frame, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.StringOr("value", "")
		if err != nil {
			return nil, err
		}
		return nil, c.setFont(v)
	},
}

func NewFrame() client.Widget {
	c := &Frame{}
	c.setup(c, "QFrame")
	return c
}

// setup initializes the embedded Base for self and installs the component
// handlers. Embedding types install their own tables after calling it.
func (c *Frame) setup(self client.Widget, class string) {
	c.class = class
	c.Init(self)
	client.Handle(&c.Base, c, frameHandlers)
}

func (c *Frame) Create(parent native.Object) error {
	_, err := c.CreateHandle(c.class, parent)
	return err
}

// Initialize applies colors and font when given, and enabled, which
// defaults to true.
func (c *Frame) Initialize(attrs pipe.Context) error {
	for _, attr := range []struct {
		name string
		set  func(string) error
	}{
		{"bg_color", c.setBgColor},
		{"fg_color", c.setFgColor},
		{"font", c.setFont},
	} {
		v, err := attrs.StringOr(attr.name, "")
		if err != nil {
			return err
		}
		if v != "" {
			if err := attr.set(v); err != nil {
				return err
			}
		}
	}

	enabled, err := attrs.BoolOr("enabled", true)
	if err != nil {
		return err
	}
	if err := c.setEnabled(enabled); err != nil {
		return err
	}

	if attrs.Has("visible") {
		visible, err := attrs.Bool("visible")
		if err != nil {
			return err
		}
		return c.setVisible(visible)
	}
	return nil
}

func (c *Frame) setEnabled(v bool) error {
	return c.Handle().Set("enabled", v)
}

func (c *Frame) setVisible(v bool) error {
	return c.Handle().Set("visible", v)
}

// An empty color restores the palette default.
func (c *Frame) setBgColor(color string) error {
	h := c.Handle()
	if err := h.Set("autoFillBackground", color != ""); err != nil {
		return err
	}
	return h.Set("backgroundColor", nullable(color))
}

func (c *Frame) setFgColor(color string) error {
	return c.Handle().Set("foregroundColor", nullable(color))
}

func (c *Frame) setFont(font string) error {
	return c.Handle().Set("font", nullable(font))
}

// notify sends one event message to the shell.
func (c *Frame) notify(message string, ctx pipe.Context) {
	if err := c.Send(message, ctx); err != nil {
		c.Logger().Warn("event not delivered", "message", message, "error", err)
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
