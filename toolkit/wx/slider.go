package wx

import (
	"sync"

	"github.com/CrimsonAS/enaml/client"
	"github.com/CrimsonAS/enaml/pipe"
	"github.com/CrimsonAS/enaml/toolkit"
)

// Slider defaults, used for absent attributes.
const (
	DefaultMinimum      = 0
	DefaultMaximum      = 100
	DefaultPageStep     = 10
	DefaultSingleStep   = 1
	DefaultTickInterval = 10
)

// Slider is an integer wxSlider. It sends value_changed once per
// EVT_SLIDER.
type Slider struct {
	Control

	mu       sync.Mutex
	value    int
	min, max int
}

var sliderHandlers = client.Table[*Slider]{
	"set_value": func(s *Slider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Int("value")
		if err != nil {
			return nil, err
		}
		return nil, s.setValue(v)
	},
	"set_minimum": func(s *Slider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Int("value")
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		max := s.max
		s.mu.Unlock()
		return nil, s.setRange(v, max)
	},
	"set_maximum": func(s *Slider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Int("value")
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		min := s.min
		s.mu.Unlock()
		return nil, s.setRange(min, v)
	},
	"set_tick_interval": func(s *Slider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Int("value")
		if err != nil {
			return nil, err
		}
		return nil, s.Handle().Invoke("SetTickFreq", v)
	},
	"set_orientation": func(s *Slider, ctx pipe.Context) (interface{}, error) {
		var o toolkit.Orientation
		if err := ctx.Text("value", &o); err != nil {
			return nil, err
		}
		return nil, s.Handle().Invoke("SetOrientation", o.String())
	},
	"set_tick_position": func(s *Slider, ctx pipe.Context) (interface{}, error) {
		var p toolkit.TickPosition
		if err := ctx.Text("value", &p); err != nil {
			return nil, err
		}
		return nil, s.Handle().Invoke("SetTickPosition", p.String())
	},
	"set_page_step": func(s *Slider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Int("value")
		if err != nil {
			return nil, err
		}
		return nil, s.Handle().Invoke("SetPageSize", v)
	},
	"set_single_step": func(s *Slider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Int("value")
		if err != nil {
			return nil, err
		}
		return nil, s.Handle().Invoke("SetLineSize", v)
	},
	"set_tracking": func(s *Slider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Bool("value")
		if err != nil {
			return nil, err
		}
		return nil, s.Handle().Invoke("SetTracking", v)
	},
}

func NewSlider() client.Widget {
	s := &Slider{}
	s.setup(s, "wxProperSlider")
	return s
}

func (s *Slider) setup(self client.Widget, class string) {
	s.Control.setup(self, class)
	client.Handle(&s.Base, s, sliderHandlers)
}

// Initialize applies the range before the value, and the tick position
// before the tick interval, which wx ignores otherwise.
func (s *Slider) Initialize(attrs pipe.Context) error {
	if err := s.Control.Initialize(attrs); err != nil {
		return err
	}

	min, err := attrs.IntOr("minimum", DefaultMinimum)
	if err != nil {
		return err
	}
	max, err := attrs.IntOr("maximum", DefaultMaximum)
	if err != nil {
		return err
	}
	if err := s.setRange(min, max); err != nil {
		return err
	}
	value, err := attrs.IntOr("value", min)
	if err != nil {
		return err
	}
	if err := s.setValue(value); err != nil {
		return err
	}

	if err := s.initLayout(attrs); err != nil {
		return err
	}
	interval, err := attrs.IntOr("tick_interval", DefaultTickInterval)
	if err != nil {
		return err
	}
	if err := s.Handle().Invoke("SetTickFreq", interval); err != nil {
		return err
	}
	return s.initTracking(attrs)
}

// initLayout applies orientation, steps and tick position.
func (s *Slider) initLayout(attrs pipe.Context) error {
	h := s.Handle()

	orientation := toolkit.Horizontal
	if attrs.Has("orientation") {
		if err := attrs.Text("orientation", &orientation); err != nil {
			return err
		}
	}
	if err := h.Invoke("SetOrientation", orientation.String()); err != nil {
		return err
	}

	page, err := attrs.IntOr("page_step", DefaultPageStep)
	if err != nil {
		return err
	}
	if err := h.Invoke("SetPageSize", page); err != nil {
		return err
	}
	single, err := attrs.IntOr("single_step", DefaultSingleStep)
	if err != nil {
		return err
	}
	if err := h.Invoke("SetLineSize", single); err != nil {
		return err
	}

	ticks := toolkit.TicksBottom
	if attrs.Has("tick_position") {
		if err := attrs.Text("tick_position", &ticks); err != nil {
			return err
		}
	}
	return h.Invoke("SetTickPosition", ticks.String())
}

func (s *Slider) initTracking(attrs pipe.Context) error {
	tracking, err := attrs.BoolOr("tracking", true)
	if err != nil {
		return err
	}
	return s.Handle().Invoke("SetTracking", tracking)
}

func (s *Slider) Bind() error {
	s.Handle().Connect("EVT_SLIDER", func(args ...interface{}) {
		v, ok := s.eventValue(args)
		if !ok {
			return
		}
		s.mu.Lock()
		s.value = v
		s.mu.Unlock()
		s.notify("value_changed", pipe.Context{"value": v})
	})
	return nil
}

// eventValue reads the native position carried by an EVT_SLIDER.
func (s *Slider) eventValue(args []interface{}) (int, bool) {
	if len(args) == 0 {
		s.Logger().Warn("EVT_SLIDER without a position")
		return 0, false
	}
	v, err := pipe.Context{"value": args[0]}.Int("value")
	if err != nil {
		s.Logger().Warn("EVT_SLIDER with a bad position", "error", err)
		return 0, false
	}
	return v, true
}

func (s *Slider) setRange(min, max int) error {
	if err := s.Handle().Invoke("SetRange", min, max); err != nil {
		return err
	}
	s.mu.Lock()
	s.min, s.max = min, max
	s.mu.Unlock()
	return nil
}

func (s *Slider) setValue(v int) error {
	if err := s.Handle().Invoke("SetValue", v); err != nil {
		return err
	}
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
	return nil
}

// Value returns the current native position.
func (s *Slider) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// DefaultFloatTickInterval is the tick interval of a float slider with no
// explicit one.
const DefaultFloatTickInterval = 0.1

// FloatSlider is a Slider whose values are floats mapped onto Precision
// integer steps.
type FloatSlider struct {
	Slider

	fmu   sync.Mutex
	r     toolkit.FloatRange
	fval  float64
	ticks float64
}

var floatSliderHandlers = client.Table[*FloatSlider]{
	"set_value": func(s *FloatSlider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Float("value")
		if err != nil {
			return nil, err
		}
		return nil, s.setFloatValue(v)
	},
	"set_minimum": func(s *FloatSlider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Float("value")
		if err != nil {
			return nil, err
		}
		return nil, s.updateRange(func(r *toolkit.FloatRange) { r.Minimum = v })
	},
	"set_maximum": func(s *FloatSlider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Float("value")
		if err != nil {
			return nil, err
		}
		return nil, s.updateRange(func(r *toolkit.FloatRange) { r.Maximum = v })
	},
	"set_precision": func(s *FloatSlider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Int("value")
		if err != nil {
			return nil, err
		}
		return nil, s.updateRange(func(r *toolkit.FloatRange) { r.Precision = v })
	},
	"set_tick_interval": func(s *FloatSlider, ctx pipe.Context) (interface{}, error) {
		v, err := ctx.Float("value")
		if err != nil {
			return nil, err
		}
		return nil, s.setTickInterval(v)
	},
}

func NewFloatSlider() client.Widget {
	s := &FloatSlider{r: toolkit.DefaultFloatRange}
	s.Slider.setup(s, "wxProperSlider")
	client.Handle(&s.Base, s, floatSliderHandlers)
	return s
}

// Initialize applies precision, minimum and maximum first, since the
// value and the tick interval are converted with them.
func (s *FloatSlider) Initialize(attrs pipe.Context) error {
	if err := s.Control.Initialize(attrs); err != nil {
		return err
	}

	r := toolkit.DefaultFloatRange
	var err error
	if r.Precision, err = attrs.IntOr("precision", r.Precision); err != nil {
		return err
	}
	if r.Minimum, err = attrs.FloatOr("minimum", r.Minimum); err != nil {
		return err
	}
	if r.Maximum, err = attrs.FloatOr("maximum", r.Maximum); err != nil {
		return err
	}
	if err := s.applyRange(r); err != nil {
		return err
	}

	value, err := attrs.FloatOr("value", r.Minimum)
	if err != nil {
		return err
	}
	if err := s.setFloatValue(value); err != nil {
		return err
	}

	if err := s.initLayout(attrs); err != nil {
		return err
	}
	interval, err := attrs.FloatOr("tick_interval", DefaultFloatTickInterval)
	if err != nil {
		return err
	}
	if err := s.setTickInterval(interval); err != nil {
		return err
	}
	return s.initTracking(attrs)
}

// Bind sends exactly one value_changed with the float value per
// EVT_SLIDER.
func (s *FloatSlider) Bind() error {
	s.Handle().Connect("EVT_SLIDER", func(args ...interface{}) {
		i, ok := s.eventValue(args)
		if !ok {
			return
		}
		s.fmu.Lock()
		v := s.r.FromNative(i)
		s.fval = v
		s.fmu.Unlock()
		s.notify("value_changed", pipe.Context{"value": v})
	})
	return nil
}

func (s *FloatSlider) applyRange(r toolkit.FloatRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.setRange(0, r.Precision); err != nil {
		return err
	}
	s.fmu.Lock()
	s.r = r
	s.fmu.Unlock()
	return nil
}

// updateRange changes one bound of the range and re-applies the value
// and tick interval on the new steps.
func (s *FloatSlider) updateRange(change func(*toolkit.FloatRange)) error {
	s.fmu.Lock()
	r := s.r
	value, ticks := s.fval, s.ticks
	s.fmu.Unlock()

	change(&r)
	if err := s.applyRange(r); err != nil {
		return err
	}
	if err := s.setFloatValue(value); err != nil {
		return err
	}
	return s.setTickInterval(ticks)
}

func (s *FloatSlider) setFloatValue(v float64) error {
	s.fmu.Lock()
	i := s.r.ToNative(v)
	s.fmu.Unlock()

	if err := s.setValue(i); err != nil {
		return err
	}
	s.fmu.Lock()
	s.fval = v
	s.fmu.Unlock()
	return nil
}

// The tick interval is a float distance, converted to steps from the
// minimum.
func (s *FloatSlider) setTickInterval(interval float64) error {
	s.fmu.Lock()
	i := s.r.ToNative(interval + s.r.Minimum)
	s.fmu.Unlock()

	if err := s.Handle().Invoke("SetTickFreq", i); err != nil {
		return err
	}
	s.fmu.Lock()
	s.ticks = interval
	s.fmu.Unlock()
	return nil
}

// Range returns the float range in use.
func (s *FloatSlider) Range() toolkit.FloatRange {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	return s.r
}

// FloatValue returns the last value set or reported.
func (s *FloatSlider) FloatValue() float64 {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	return s.fval
}
