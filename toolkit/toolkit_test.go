package toolkit

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
)

func TestParseModality(t *testing.T) {
	for _, s := range []string{"application_modal", "window_modal", "non_modal"} {
		m, err := ParseModality(s)
		require.NoError(t, err)
		assert.Equal(t, s, m.String())
	}

	_, err := ParseModality("sometimes_modal")
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidEnum))
	_, err = ParseModality("")
	assert.Error(t, err)

	var m Modality
	require.NoError(t, m.UnmarshalText([]byte("window_modal")))
	assert.Equal(t, WindowModal, m)
	assert.Error(t, m.UnmarshalText([]byte("Window_Modal")))
	assert.Equal(t, WindowModal, m, "failed parse leaves the value alone")
}

func TestParseOrientationAndTicks(t *testing.T) {
	o, err := ParseOrientation("vertical")
	require.NoError(t, err)
	assert.Equal(t, Vertical, o)
	_, err = ParseOrientation("diagonal")
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidEnum))

	p, err := ParseTickPosition("both")
	require.NoError(t, err)
	assert.Equal(t, TicksBoth, p)
	_, err = ParseTickPosition("middle")
	assert.Error(t, err)
}

func TestFloatRangeEndpoints(t *testing.T) {
	r := FloatRange{Minimum: -2, Maximum: 3, Precision: 50}
	assert.Equal(t, 0, r.ToNative(-2))
	assert.Equal(t, 50, r.ToNative(3))
	assert.Equal(t, 25, r.ToNative(0.5))
	assert.Equal(t, -2.0, r.FromNative(0))
	assert.Equal(t, 3.0, r.FromNative(50))
}

func TestFloatRangeRoundTripBound(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ranges := []FloatRange{
		DefaultFloatRange,
		{Minimum: -10, Maximum: 10, Precision: 7},
		{Minimum: 0.001, Maximum: 0.002, Precision: 1000},
		{Minimum: -1e6, Maximum: 1e6, Precision: 3},
		{Minimum: 5, Maximum: -5, Precision: 11},
	}

	for _, r := range ranges {
		require.NoError(t, r.Validate())
		bound := r.Tolerance() * (1 + 1e-9)
		lo, hi := math.Min(r.Minimum, r.Maximum), math.Max(r.Minimum, r.Maximum)
		for i := 0; i < 2000; i++ {
			v := lo + rng.Float64()*(hi-lo)
			got := r.FromNative(r.ToNative(v))
			assert.LessOrEqual(t, math.Abs(got-v), bound, "range %+v value %v", r, v)
		}
	}
}

func TestFloatRangeDegenerate(t *testing.T) {
	r := FloatRange{Minimum: 1, Maximum: 1, Precision: 10}
	assert.Equal(t, 0, r.ToNative(1))
	assert.Equal(t, 1.0, r.FromNative(0))

	assert.Error(t, FloatRange{Maximum: 1}.Validate())
	assert.Equal(t, 0.0, FloatRange{Maximum: 1}.FromNative(5))
}
