// Package toolkit holds the enumerations and value adapters shared by the
// toolkit bindings.
package toolkit

import (
	enamlerrors "github.com/CrimsonAS/enaml/errors"
)

func invalidEnum(kind, value string) error {
	return enamlerrors.Newf(enamlerrors.ErrCodeInvalidEnum, "invalid %s %q", kind, value).
		WithContext("value", value)
}

// Modality is the modality of a dialog.
type Modality string

const (
	ApplicationModal Modality = "application_modal"
	WindowModal      Modality = "window_modal"
	NonModal         Modality = "non_modal"
)

// DefaultModality applies when no modality is given.
const DefaultModality = NonModal

// ParseModality fails with INVALID_ENUM for anything but the three
// modality names.
func ParseModality(s string) (Modality, error) {
	switch m := Modality(s); m {
	case ApplicationModal, WindowModal, NonModal:
		return m, nil
	}
	return "", invalidEnum("modality", s)
}

func (m Modality) String() string {
	return string(m)
}

func (m *Modality) UnmarshalText(b []byte) error {
	v, err := ParseModality(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Orientation is the orientation of a slider or splitter.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

func ParseOrientation(s string) (Orientation, error) {
	switch o := Orientation(s); o {
	case Horizontal, Vertical:
		return o, nil
	}
	return "", invalidEnum("orientation", s)
}

func (o Orientation) String() string {
	return string(o)
}

func (o *Orientation) UnmarshalText(b []byte) error {
	v, err := ParseOrientation(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// TickPosition places the ticks of a slider.
type TickPosition string

const (
	NoTicks     TickPosition = "no_ticks"
	TicksLeft   TickPosition = "left"
	TicksRight  TickPosition = "right"
	TicksTop    TickPosition = "top"
	TicksBottom TickPosition = "bottom"
	TicksBoth   TickPosition = "both"
)

func ParseTickPosition(s string) (TickPosition, error) {
	switch p := TickPosition(s); p {
	case NoTicks, TicksLeft, TicksRight, TicksTop, TicksBottom, TicksBoth:
		return p, nil
	}
	return "", invalidEnum("tick position", s)
}

func (p TickPosition) String() string {
	return string(p)
}

func (p *TickPosition) UnmarshalText(b []byte) error {
	v, err := ParseTickPosition(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
