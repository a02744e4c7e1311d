package qt

import (
	"github.com/CrimsonAS/enaml/client"
	"github.com/CrimsonAS/enaml/pipe"
)

type PushButton struct {
	Frame
}

var pushButtonHandlers = client.Table[*PushButton]{
	"set_text": func(b *PushButton, ctx pipe.Context) (interface{}, error) {
		text, err := ctx.StringOr("value", "")
		if err != nil {
			return nil, err
		}
		return nil, b.Handle().Set("text", text)
	},
}

func NewPushButton() client.Widget {
	b := &PushButton{}
	b.setup(b, "QPushButton")
	client.Handle(&b.Base, b, pushButtonHandlers)
	return b
}

func (b *PushButton) Initialize(attrs pipe.Context) error {
	if err := b.Frame.Initialize(attrs); err != nil {
		return err
	}
	text, err := attrs.StringOr("text", "")
	if err != nil {
		return err
	}
	return b.Handle().Set("text", text)
}

// Bind forwards each native click, press and release as one message.
func (b *PushButton) Bind() error {
	h := b.Handle()
	for _, signal := range []string{"clicked", "pressed", "released"} {
		signal := signal
		h.Connect(signal, func(...interface{}) {
			b.notify(signal, pipe.Context{})
		})
	}
	return nil
}
