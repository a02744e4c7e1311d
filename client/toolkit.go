package client

import (
	"sort"
	"sync"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/native"
)

// Constructor returns a new, uncreated widget.
type Constructor func() Widget

// Toolkit maps widget type names to constructors and supplies the native
// backend their objects are created with.
type Toolkit struct {
	name    string
	backend native.Backend

	mu       sync.RWMutex
	widgets  map[string]Constructor
	fallback Constructor
}

func NewToolkit(name string, backend native.Backend) *Toolkit {
	return &Toolkit{
		name:    name,
		backend: backend,
		widgets: make(map[string]Constructor),
	}
}

func (t *Toolkit) Name() string {
	return t.name
}

func (t *Toolkit) Backend() native.Backend {
	return t.backend
}

// Register adds a widget type. Registering a name twice fails.
func (t *Toolkit) Register(widgetType string, c Constructor) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if widgetType == "" || c == nil {
		return enamlerrors.New(enamlerrors.ErrCodeInvalidInput, "widget type and constructor are required")
	}
	if _, exists := t.widgets[widgetType]; exists {
		return enamlerrors.Newf(enamlerrors.ErrCodeDuplicate, "widget type %q is already registered", widgetType).
			WithContext("toolkit", t.name)
	}
	t.widgets[widgetType] = c
	return nil
}

// MustRegister is Register for package initialization; it panics on error.
func (t *Toolkit) MustRegister(widgetType string, c Constructor) *Toolkit {
	if err := t.Register(widgetType, c); err != nil {
		panic(err)
	}
	return t
}

// SetFallback sets the constructor used for unregistered types. The mock
// toolkit uses one generic widget for everything.
func (t *Toolkit) SetFallback(c Constructor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fallback = c
}

// New constructs a widget of the named type.
func (t *Toolkit) New(widgetType string) (Widget, error) {
	t.mu.RLock()
	c, ok := t.widgets[widgetType]
	if !ok {
		c = t.fallback
	}
	t.mu.RUnlock()

	if c == nil {
		return nil, enamlerrors.Newf(enamlerrors.ErrCodeUnknownWidget, "unknown widget type %q", widgetType).
			WithContext("toolkit", t.name)
	}
	w := c()
	if w == nil || w.Component().self == nil {
		return nil, enamlerrors.Newf(enamlerrors.ErrCodeInternal, "constructor for %q returned an uninitialized widget", widgetType)
	}
	return w, nil
}

// Types returns the registered widget type names, sorted.
func (t *Toolkit) Types() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.widgets))
	for name := range t.widgets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
