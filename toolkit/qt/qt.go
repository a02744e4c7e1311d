// Package qt binds client proxy widgets to Qt classes. The native objects
// live in a QML frontend driven through native.Connection (see the
// qmlscene package), or in native.Memory for tests.
package qt

import (
	"github.com/CrimsonAS/enaml/client"
	"github.com/CrimsonAS/enaml/native"
)

const Name = "qt"

// New returns the Qt toolkit on backend.
func New(backend native.Backend) *client.Toolkit {
	tk := client.NewToolkit(Name, backend)
	tk.MustRegister("Component", NewFrame).
		MustRegister("Window", NewWindow).
		MustRegister("Dialog", NewDialog).
		MustRegister("Container", NewContainer).
		MustRegister("SplitItem", NewSplitItem).
		MustRegister("PushButton", NewPushButton)
	return tk
}
