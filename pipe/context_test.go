package pipe

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
)

type upper string

func (u *upper) UnmarshalText(b []byte) error {
	if string(b) == "" {
		return enamlerrors.New(enamlerrors.ErrCodeInvalidEnum, "empty")
	}
	*u = upper(strings.ToUpper(string(b)))
	return nil
}

func TestContextAccessors(t *testing.T) {
	var ctx Context
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "hi", "enabled": false, "value": 2.5, "count": 3,
		"names": ["a", "b"], "mixed": ["a", 1]
	}`), &ctx))

	s, err := ctx.String("title")
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	b, err := ctx.Bool("enabled")
	require.NoError(t, err)
	assert.False(t, b)

	f, err := ctx.Float("value")
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	n, err := ctx.Int("count")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = ctx.Int("value")
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidAttribute))

	names, err := ctx.Strings("names")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	_, err = ctx.Strings("mixed")
	assert.Error(t, err)

	_, err = ctx.String("missing")
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidAttribute))

	_, err = ctx.Bool("title")
	assert.Error(t, err)

	assert.Equal(t, 2.5, ctx.Value("value"))
	assert.Equal(t, []interface{}{"a", "b"}, ctx.Value("names"))
	assert.Nil(t, ctx.Value("missing"))
	assert.Nil(t, Context(nil).Value("value"))
}

func TestContextNativeNumbers(t *testing.T) {
	ctx := Context{"i": 7, "u": uint8(3), "f": float32(1.5), "n": json.Number("12")}

	i, err := ctx.Int("i")
	require.NoError(t, err)
	assert.Equal(t, 7, i)

	u, err := ctx.Float("u")
	require.NoError(t, err)
	assert.Equal(t, 3.0, u)

	f, err := ctx.Float("f")
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	n, err := ctx.Int("n")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestContextDefaults(t *testing.T) {
	ctx := Context{"enabled": "yes"}

	s, err := ctx.StringOr("title", "untitled")
	require.NoError(t, err)
	assert.Equal(t, "untitled", s)

	n, err := ctx.IntOr("count", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	f, err := ctx.FloatOr("value", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	_, err = ctx.BoolOr("enabled", true)
	assert.Error(t, err, "present values of the wrong type are still rejected")
}

func TestContextText(t *testing.T) {
	var u upper
	require.NoError(t, Context{"value": "modal"}.Text("value", &u))
	assert.Equal(t, upper("MODAL"), u)

	err := Context{"value": ""}.Text("value", &u)
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidEnum))
}

func TestContextCloneIsDeep(t *testing.T) {
	orig := Context{
		"list":   []interface{}{"a", map[string]interface{}{"k": 1}},
		"nested": map[string]interface{}{"x": []interface{}{1, 2}},
		"names":  []string{"a"},
	}
	c := orig.Clone()

	c["list"].([]interface{})[1].(map[string]interface{})["k"] = 2
	c["nested"].(map[string]interface{})["x"].([]interface{})[0] = 9
	c["names"].([]string)[0] = "z"
	c["extra"] = true

	assert.Equal(t, 1, orig["list"].([]interface{})[1].(map[string]interface{})["k"])
	assert.Equal(t, 1, orig["nested"].(map[string]interface{})["x"].([]interface{})[0])
	assert.Equal(t, "a", orig["names"].([]string)[0])
	assert.False(t, orig.Has("extra"))

	assert.NotNil(t, Context(nil).Clone())
}
