package qt

import (
	"sync"

	"github.com/CrimsonAS/enaml/client"
	enamlerrors "github.com/CrimsonAS/enaml/errors"
	"github.com/CrimsonAS/enaml/pipe"
)

// Container is a QFrame that lays out its children.
type Container struct {
	Frame
}

func NewContainer() client.Widget {
	c := &Container{}
	c.setup(c, "QContainer")
	return c
}

// SplitItem is one pane of a splitter. Its split widget is its last
// Container child, re-evaluated whenever a Container child is added or
// removed.
type SplitItem struct {
	Frame

	mu            sync.Mutex
	split         *Container
	preferredSize []int
}

var splitItemHandlers = client.Table[*SplitItem]{
	"set_preferred_size": func(s *SplitItem, ctx pipe.Context) (interface{}, error) {
		return nil, s.setPreferredSize(ctx.Value("value"))
	},
}

func NewSplitItem() client.Widget {
	s := &SplitItem{}
	s.setup(s, "QSplitItem")
	client.Handle(&s.Base, s, splitItemHandlers)
	return s
}

func (s *SplitItem) Initialize(attrs pipe.Context) error {
	if err := s.Frame.Initialize(attrs); err != nil {
		return err
	}
	return s.setPreferredSize(attrs.Value("preferred_size"))
}

func (s *SplitItem) ChildAdded(child client.Widget) {
	if _, ok := child.(*Container); ok {
		s.updateSplitWidget()
	}
}

func (s *SplitItem) ChildRemoved(child client.Widget) {
	if _, ok := child.(*Container); ok {
		s.updateSplitWidget()
	}
}

func (s *SplitItem) updateSplitWidget() {
	var split *Container
	for _, c := range s.Children() {
		if c, ok := c.(*Container); ok {
			split = c
		}
	}

	var id interface{}
	if split != nil {
		id = split.Handle().ID()
	}

	s.mu.Lock()
	s.split = split
	s.mu.Unlock()

	if err := s.Handle().Set("splitWidget", id); err != nil {
		s.Logger().Warn("split widget not applied", "error", err)
	}
}

// SplitWidget returns the Container shown by the item, or nil.
func (s *SplitItem) SplitWidget() *Container {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.split
}

// setPreferredSize takes a [width, height] pair. A nil size leaves the
// splitter to decide.
func (s *SplitItem) setPreferredSize(v interface{}) error {
	if v == nil {
		return nil
	}
	pair, ok := v.([]interface{})
	if !ok {
		if ints, isInts := v.([]int); isInts {
			pair = []interface{}{}
			for _, i := range ints {
				pair = append(pair, i)
			}
		}
	}
	if len(pair) != 2 {
		return enamlerrors.Newf(enamlerrors.ErrCodeInvalidAttribute, "preferred_size must be a [width, height] pair, got %v", v).
			WithContext("key", "preferred_size")
	}
	dims := pipe.Context{"width": pair[0], "height": pair[1]}
	w, err := dims.Int("width")
	if err != nil {
		return err
	}
	h, err := dims.Int("height")
	if err != nil {
		return err
	}

	size := []int{w, h}
	if err := s.Handle().Set("preferredSize", size); err != nil {
		return err
	}
	s.mu.Lock()
	s.preferredSize = size
	s.mu.Unlock()
	return nil
}

// PreferredSize returns the last applied size, or nil.
func (s *SplitItem) PreferredSize() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.preferredSize...)
}
