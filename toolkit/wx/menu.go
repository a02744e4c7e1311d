package wx

import (
	"sync"

	"github.com/CrimsonAS/enaml/client"
	"github.com/CrimsonAS/enaml/native"
	"github.com/CrimsonAS/enaml/pipe"
)

// Menu is a wxMenu. Its title, enabled and visible state live on the
// proxy, and a MenuBar parent mirrors them into the native bar.
type Menu struct {
	client.Base

	mu         sync.Mutex
	title      string
	enabled    bool
	visible    bool
	barEnabled bool
	bar        *MenuBar
}

var menuHandlers = client.Table[*Menu]{
	"set_title": func(m *Menu, ctx pipe.Context) (interface{}, error) {
		title, err := ctx.StringOr("value", "")
		if err != nil {
			return nil, err
		}
		return nil, m.update(func() { m.title = title })
	},
	"set_enabled": func(m *Menu, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Bool("value")
		if err != nil {
			return nil, err
		}
		return nil, m.update(func() { m.enabled = v })
	},
	"set_visible": func(m *Menu, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Bool("value")
		if err != nil {
			return nil, err
		}
		return nil, m.update(func() { m.visible = v })
	},
}

func NewMenu() client.Widget {
	m := &Menu{enabled: true, visible: true, barEnabled: true}
	m.Init(m)
	client.Handle(&m.Base, m, menuHandlers)
	return m
}

func (m *Menu) Create(parent native.Object) error {
	_, err := m.CreateHandle("wxMenu", parent)
	return err
}

func (m *Menu) Initialize(attrs pipe.Context) error {
	title, err := attrs.StringOr("title", "")
	if err != nil {
		return err
	}
	enabled, err := attrs.BoolOr("enabled", true)
	if err != nil {
		return err
	}
	visible, err := attrs.BoolOr("visible", true)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.title, m.enabled, m.visible = title, enabled, visible
	m.mu.Unlock()
	return m.Handle().Invoke("SetTitle", title)
}

// update changes the menu state and tells the bar.
func (m *Menu) update(change func()) error {
	m.mu.Lock()
	oldTitle := m.title
	change()
	title, bar := m.title, m.bar
	m.mu.Unlock()

	if title != oldTitle {
		if err := m.Handle().Invoke("SetTitle", title); err != nil {
			return err
		}
	}
	if bar != nil {
		return bar.menuChanged(m)
	}
	return nil
}

func (m *Menu) setBar(bar *MenuBar, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bar = bar
	m.barEnabled = enabled
}

func (m *Menu) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

// Enabled reports whether the menu is usable: enabled itself and not on a
// disabled bar.
func (m *Menu) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled && m.barEnabled
}

func (m *Menu) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// MenuBar is a wxMenuBar. It keeps its menus in child order and the
// visible ones in the native bar, inserting and removing native menus as
// their visibility changes. Wx cannot disable a whole bar, so disabling
// it disables each menu.
type MenuBar struct {
	client.Base

	mu      sync.Mutex
	enabled bool
	menus   []*Menu
	visible []*Menu
}

var menuBarHandlers = client.Table[*MenuBar]{
	"set_enabled": func(b *MenuBar, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Bool("value")
		if err != nil {
			return nil, err
		}
		return nil, b.SetEnabled(v)
	},
	// A wx menu bar cannot be hidden.
	"set_visible": func(b *MenuBar, ctx pipe.Context) (interface{}, error) {
		return nil, nil
	},
}

func NewMenuBar() client.Widget {
	b := &MenuBar{enabled: true}
	b.Init(b)
	client.Handle(&b.Base, b, menuBarHandlers)
	return b
}

func (b *MenuBar) Create(parent native.Object) error {
	_, err := b.CreateHandle("wxMenuBar", parent)
	return err
}

func (b *MenuBar) Initialize(attrs pipe.Context) error {
	enabled, err := attrs.BoolOr("enabled", true)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.enabled = enabled
	b.mu.Unlock()
	return nil
}

func (b *MenuBar) ChildAdded(child client.Widget) {
	if m, ok := child.(*Menu); ok {
		if err := b.addMenu(m); err != nil {
			b.Logger().Warn("menu not added", "error", err)
		}
	}
}

func (b *MenuBar) ChildRemoved(child client.Widget) {
	if m, ok := child.(*Menu); ok {
		if err := b.removeMenu(m); err != nil {
			b.Logger().Warn("menu not removed", "error", err)
		}
	}
}

func indexOf(menus []*Menu, m *Menu) int {
	for i, x := range menus {
		if x == m {
			return i
		}
	}
	return -1
}

func (b *MenuBar) addMenu(m *Menu) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if indexOf(b.menus, m) >= 0 {
		return nil
	}
	b.menus = append(b.menus, m)
	m.setBar(b, b.enabled)
	if !m.Visible() {
		return nil
	}
	b.visible = append(b.visible, m)
	index := len(b.visible) - 1
	h := b.Handle()
	if err := h.Invoke("Append", m.Handle().ID(), m.Title()); err != nil {
		return err
	}
	return h.Invoke("EnableTop", index, m.Enabled())
}

func (b *MenuBar) removeMenu(m *Menu) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := indexOf(b.menus, m)
	if i < 0 {
		return nil
	}
	b.menus = append(b.menus[:i:i], b.menus[i+1:]...)
	m.setBar(nil, true)
	if j := indexOf(b.visible, m); j >= 0 {
		b.visible = append(b.visible[:j:j], b.visible[j+1:]...)
		return b.Handle().Invoke("Remove", j)
	}
	return nil
}

// menuChanged brings the native bar in line with m.
func (b *MenuBar) menuChanged(m *Menu) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if indexOf(b.menus, m) < 0 {
		return nil
	}
	h := b.Handle()
	visible := m.Visible()
	index := indexOf(b.visible, m)

	switch {
	case visible && index < 0:
		index = b.visibleIndex(m)
		b.visible = append(b.visible, nil)
		copy(b.visible[index+1:], b.visible[index:])
		b.visible[index] = m
		if err := h.Invoke("Insert", index, m.Handle().ID(), m.Title()); err != nil {
			return err
		}
		return h.Invoke("EnableTop", index, m.Enabled())

	case !visible && index >= 0:
		b.visible = append(b.visible[:index:index], b.visible[index+1:]...)
		return h.Invoke("Remove", index)

	case !visible:
		return nil
	}

	if err := h.Invoke("SetMenuLabel", index, m.Title()); err != nil {
		return err
	}
	return h.Invoke("EnableTop", index, m.Enabled())
}

// visibleIndex is where m goes among the visible menus: after every
// visible menu that precedes it in child order.
func (b *MenuBar) visibleIndex(m *Menu) int {
	index := 0
	for _, x := range b.menus {
		if x == m {
			break
		}
		if indexOf(b.visible, x) >= 0 {
			index++
		}
	}
	return index
}

// SetEnabled enables or disables every menu of the bar.
func (b *MenuBar) SetEnabled(enabled bool) error {
	b.mu.Lock()
	if b.enabled == enabled {
		b.mu.Unlock()
		return nil
	}
	b.enabled = enabled
	menus := append([]*Menu(nil), b.menus...)
	b.mu.Unlock()

	for _, m := range menus {
		m.setBar(b, enabled)
		if err := b.menuChanged(m); err != nil {
			return err
		}
	}
	return nil
}

func (b *MenuBar) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// Menus returns the menus in child order.
func (b *MenuBar) Menus() []*Menu {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Menu(nil), b.menus...)
}

// VisibleMenus returns the menus shown in the native bar, in bar order.
func (b *MenuBar) VisibleMenus() []*Menu {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Menu(nil), b.visible...)
}
