package qt

import (
	"sync"

	"github.com/CrimsonAS/enaml/client"
	"github.com/CrimsonAS/enaml/native"
	"github.com/CrimsonAS/enaml/pipe"
	"github.com/CrimsonAS/enaml/toolkit"
)

type Window struct {
	Frame
}

var windowHandlers = client.Table[*Window]{
	"set_title": func(w *Window, ctx pipe.Context) (interface{}, error) {
		title, err := ctx.StringOr("value", "")
		if err != nil {
			return nil, err
		}
		return nil, w.Handle().Set("windowTitle", title)
	},
	"show": func(w *Window, ctx pipe.Context) (interface{}, error) {
		return nil, w.Handle().Invoke("show")
	},
	"hide": func(w *Window, ctx pipe.Context) (interface{}, error) {
		return nil, w.Handle().Invoke("hide")
	},
}

func NewWindow() client.Widget {
	w := &Window{}
	w.setup(w, "QWidget")
	return w
}

func (w *Window) setup(self client.Widget, class string) {
	w.Frame.setup(self, class)
	client.Handle(&w.Base, w, windowHandlers)
}

func (w *Window) Initialize(attrs pipe.Context) error {
	if err := w.Frame.Initialize(attrs); err != nil {
		return err
	}
	if !attrs.Has("title") {
		return nil
	}
	title, err := attrs.String("title")
	if err != nil {
		return err
	}
	return w.Handle().Set("windowTitle", title)
}

// qtModality holds the Qt::WindowModality values.
var qtModality = map[toolkit.Modality]int{
	toolkit.ApplicationModal: 2,
	toolkit.WindowModal:      1,
	toolkit.NonModal:         0,
}

// Dialog is a QDialog. It is shown as soon as it is created and reports
// opened and closed.
type Dialog struct {
	Window

	mu       sync.Mutex
	modality toolkit.Modality
}

var dialogHandlers = client.Table[*Dialog]{
	"set_modality": func(d *Dialog, ctx pipe.Context) (interface{}, error) {
		if ctx.Value("value") == nil {
			return nil, nil
		}
		var m toolkit.Modality
		if err := ctx.Text("value", &m); err != nil {
			return nil, err
		}
		return nil, d.setModality(m)
	},
}

func NewDialog() client.Widget {
	d := &Dialog{}
	d.Window.setup(d, "QDialog")
	client.Handle(&d.Base, d, dialogHandlers)
	return d
}

func (d *Dialog) Create(parent native.Object) error {
	if err := d.Window.Create(parent); err != nil {
		return err
	}
	return d.Handle().Invoke("show")
}

func (d *Dialog) Initialize(attrs pipe.Context) error {
	if err := d.Window.Initialize(attrs); err != nil {
		return err
	}
	m := toolkit.DefaultModality
	if attrs.Value("modality") != nil {
		if err := attrs.Text("modality", &m); err != nil {
			return err
		}
	}
	return d.setModality(m)
}

func (d *Dialog) Bind() error {
	h := d.Handle()
	h.Connect("opened", func(...interface{}) {
		d.notify("opened", pipe.Context{})
	})
	h.Connect("closed", func(...interface{}) {
		d.notify("closed", pipe.Context{})
	})
	return nil
}

func (d *Dialog) setModality(m toolkit.Modality) error {
	v, ok := qtModality[m]
	if !ok {
		_, err := toolkit.ParseModality(string(m))
		return err
	}
	if err := d.Handle().Set("windowModality", v); err != nil {
		return err
	}
	d.mu.Lock()
	d.modality = m
	d.mu.Unlock()
	return nil
}

// Modality returns the modality last applied to the native dialog.
func (d *Dialog) Modality() toolkit.Modality {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modality
}
