package native

import (
	"sync"

	uuid "github.com/satori/go.uuid"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/metrics"
)

// Memory is an in-process Backend. Objects keep their properties and
// children in memory, every command is recorded in History, and Emit
// simulates native signals.
type Memory struct {
	mu         sync.Mutex
	objects    map[string]*MemoryObject
	order      []*MemoryObject
	history    []Command
	failCreate map[string]error
}

func NewMemory() *Memory {
	return &Memory{
		objects:    make(map[string]*MemoryObject),
		failCreate: make(map[string]error),
	}
}

// FailCreate makes Create fail for class with err. A nil err clears it.
func (m *Memory) FailCreate(class string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failCreate, class)
	} else {
		m.failCreate[class] = err
	}
}

func (m *Memory) record(cmd Command) {
	m.history = append(m.history, cmd)
	metrics.NativeCommands.WithLabelValues(cmd.Command).Inc()
}

func (m *Memory) Create(class string, parent Object) (Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failCreate[class]; err != nil {
		return nil, enamlerrors.Wrap(err, enamlerrors.ErrCodeNativeCreate, "create failed").
			WithContext("class", class)
	}

	var p *MemoryObject
	if parent != nil {
		var ok bool
		if p, ok = parent.(*MemoryObject); !ok || p.backend != m {
			return nil, enamlerrors.Newf(enamlerrors.ErrCodeNativeCreate, "parent %T belongs to another backend", parent)
		} else if p.destroyed {
			return nil, errDestroyed(p.id, "create child")
		}
	}

	u, _ := uuid.NewV4()
	obj := &MemoryObject{
		backend: m,
		id:      u.String(),
		class:   class,
		props:   make(map[string]interface{}),
		slots:   make(map[string][]Slot),
	}
	m.objects[obj.id] = obj
	m.order = append(m.order, obj)

	cmd := Command{Command: "CREATE", Identifier: obj.id, Class: class}
	if p != nil {
		obj.parent = p
		p.children = append(p.children, obj)
		cmd.Parent = p.id
	}
	m.record(cmd)
	return obj, nil
}

// Object returns the object with identifier id, destroyed or not.
func (m *Memory) Object(id string) *MemoryObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[id]
}

// Live returns the objects not yet destroyed, in creation order.
func (m *Memory) Live() []*MemoryObject {
	m.mu.Lock()
	defer m.mu.Unlock()

	var live []*MemoryObject
	for _, obj := range m.order {
		if !obj.destroyed {
			live = append(live, obj)
		}
	}
	return live
}

// History returns a copy of every recorded command.
func (m *Memory) History() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Command(nil), m.history...)
}

// Commands returns the recorded commands addressed to one object.
func (m *Memory) Commands(id string) []Command {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Command
	for _, cmd := range m.history {
		if cmd.Identifier == id {
			out = append(out, cmd)
		}
	}
	return out
}

// MemoryObject is a native object of the Memory backend.
type MemoryObject struct {
	backend *Memory

	id        string
	class     string
	owner     string
	parent    *MemoryObject
	children  []*MemoryObject
	props     map[string]interface{}
	slots     map[string][]Slot
	destroyed bool
}

func (o *MemoryObject) ID() string {
	return o.id
}

func (o *MemoryObject) Class() string {
	return o.class
}

func (o *MemoryObject) Parent() Object {
	o.backend.mu.Lock()
	defer o.backend.mu.Unlock()
	if o.parent == nil {
		return nil
	}
	return o.parent
}

// Children returns the native children in insertion order.
func (o *MemoryObject) Children() []*MemoryObject {
	o.backend.mu.Lock()
	defer o.backend.mu.Unlock()
	return append([]*MemoryObject(nil), o.children...)
}

func (o *MemoryObject) detach() {
	if o.parent == nil {
		return
	}
	siblings := o.parent.children
	for i, c := range siblings {
		if c == o {
			o.parent.children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	o.parent = nil
}

func (o *MemoryObject) SetParent(parent Object) error {
	m := o.backend
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.destroyed {
		return errDestroyed(o.id, "reparent")
	}

	var p *MemoryObject
	if parent != nil {
		var ok bool
		if p, ok = parent.(*MemoryObject); !ok || p.backend != m {
			return enamlerrors.Newf(enamlerrors.ErrCodeNativeCall, "parent %T belongs to another backend", parent)
		} else if p.destroyed {
			return errDestroyed(p.id, "reparent")
		}
		for a := p; a != nil; a = a.parent {
			if a == o {
				return enamlerrors.New(enamlerrors.ErrCodeNativeCall, "reparent would create a cycle").
					WithContext("object", o.id)
			}
		}
	}

	o.detach()
	cmd := Command{Command: "REPARENT", Identifier: o.id}
	if p != nil {
		o.parent = p
		p.children = append(p.children, o)
		cmd.Parent = p.id
	}
	m.record(cmd)
	return nil
}

func (o *MemoryObject) Set(property string, value interface{}) error {
	m := o.backend
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.destroyed {
		return errDestroyed(o.id, "set "+property)
	}
	o.props[property] = value
	m.record(Command{Command: "SET", Identifier: o.id, Property: property, Value: value})
	return nil
}

func (o *MemoryObject) Property(property string) (interface{}, bool) {
	o.backend.mu.Lock()
	defer o.backend.mu.Unlock()
	v, ok := o.props[property]
	return v, ok
}

func (o *MemoryObject) Invoke(method string, args ...interface{}) error {
	m := o.backend
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.destroyed {
		return errDestroyed(o.id, "invoke "+method)
	}
	m.record(Command{Command: "INVOKE", Identifier: o.id, Method: method, Parameters: args})
	return nil
}

func (o *MemoryObject) Connect(signal string, fn Slot) {
	o.backend.mu.Lock()
	defer o.backend.mu.Unlock()
	if o.slots != nil {
		o.slots[signal] = append(o.slots[signal], fn)
	}
}

func (o *MemoryObject) Disconnect(signal string) {
	o.backend.mu.Lock()
	defer o.backend.mu.Unlock()
	delete(o.slots, signal)
}

func (o *MemoryObject) Claim(owner string) error {
	o.backend.mu.Lock()
	defer o.backend.mu.Unlock()

	if o.owner != "" && o.owner != owner {
		return errOwned(o.id, o.owner)
	}
	o.owner = owner
	return nil
}

// Owner returns the identifier that claimed the object.
func (o *MemoryObject) Owner() string {
	o.backend.mu.Lock()
	defer o.backend.mu.Unlock()
	return o.owner
}

// Destroy destroys the object. Native children that were not detached
// first are destroyed with it. Destroying twice is a no-op.
func (o *MemoryObject) Destroy() error {
	m := o.backend
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.destroyed {
		return nil
	}
	o.detach()

	stack := []*MemoryObject{o}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		top.destroyed = true
		top.slots = nil
		stack = append(stack, top.children...)
		top.children = nil
	}
	m.record(Command{Command: "DESTROY", Identifier: o.id})
	return nil
}

func (o *MemoryObject) Destroyed() bool {
	o.backend.mu.Lock()
	defer o.backend.mu.Unlock()
	return o.destroyed
}

// Emit simulates the native toolkit firing signal. Slots run on the calling
// goroutine. Destroyed objects emit nothing.
func (o *MemoryObject) Emit(signal string, args ...interface{}) {
	o.backend.mu.Lock()
	slots := copySlots(o.slots[signal])
	o.backend.mu.Unlock()

	for _, fn := range slots {
		fn(args...)
	}
}

// Update changes a property as the user would, without recording a
// command.
func (o *MemoryObject) Update(property string, value interface{}) {
	o.backend.mu.Lock()
	defer o.backend.mu.Unlock()
	o.props[property] = value
}
