package toolkit

import (
	"math"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
)

// FloatRange maps float values onto the integer steps of a native control
// with Precision steps between Minimum and Maximum.
type FloatRange struct {
	Minimum   float64
	Maximum   float64
	Precision int
}

// DefaultFloatRange is the range of a float slider with no explicit
// configuration.
var DefaultFloatRange = FloatRange{Minimum: 0, Maximum: 1, Precision: 100}

func (r FloatRange) Validate() error {
	switch {
	case r.Precision < 1:
		return enamlerrors.Newf(enamlerrors.ErrCodeInvalidAttribute, "precision must be positive, got %d", r.Precision)
	case math.IsNaN(r.Minimum) || math.IsNaN(r.Maximum):
		return enamlerrors.New(enamlerrors.ErrCodeInvalidAttribute, "range bounds must be numbers")
	}
	return nil
}

// ToNative converts x to its integer step. An empty range maps everything
// to step 0.
func (r FloatRange) ToNative(x float64) int {
	span := r.Maximum - r.Minimum
	if span == 0 {
		return 0
	}
	u := (x - r.Minimum) / span
	return int(math.Round(u * float64(r.Precision)))
}

// FromNative converts an integer step back to a float.
func (r FloatRange) FromNative(i int) float64 {
	if r.Precision == 0 {
		return r.Minimum
	}
	u := float64(i) / float64(r.Precision)
	return u*r.Maximum + (1-u)*r.Minimum
}

// Tolerance is the largest difference between x and
// FromNative(ToNative(x)) for x in the range.
func (r FloatRange) Tolerance() float64 {
	if r.Precision == 0 {
		return math.Abs(r.Maximum - r.Minimum)
	}
	return math.Abs(r.Maximum-r.Minimum) / float64(2*r.Precision)
}
