package pipe

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
)

// Context carries the JSON-like values of a message.
type Context map[string]interface{}

// Value returns the entry at key, or nil when it is absent.
func (c Context) Value(key string) interface{} {
	return c[key]
}

// Has reports whether key is present.
func (c Context) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Clone returns a deep copy of c. Nested maps and slices are copied so that
// the clone shares no mutable state with c.
func (c Context) Clone() Context {
	if c == nil {
		return Context{}
	}
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Context:
		return t.Clone()
	case map[string]interface{}:
		return map[string]interface{}(Context(t).Clone())
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func missing(key string) error {
	return enamlerrors.New(enamlerrors.ErrCodeInvalidAttribute, "missing key").WithContext("key", key)
}

func wrongType(key, want string, v interface{}) error {
	return enamlerrors.New(enamlerrors.ErrCodeInvalidAttribute, fmt.Sprintf("expected %s, provided %T", want, v)).
		WithContext("key", key)
}

// String returns the string at key.
func (c Context) String(key string) (string, error) {
	v, ok := c[key]
	if !ok {
		return "", missing(key)
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", wrongType(key, "string", v)
}

// Bool returns the bool at key.
func (c Context) Bool(key string) (bool, error) {
	v, ok := c[key]
	if !ok {
		return false, missing(key)
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, wrongType(key, "bool", v)
}

// Float returns the number at key, converting any numeric representation.
func (c Context) Float(key string) (float64, error) {
	v, ok := c[key]
	if !ok {
		return 0, missing(key)
	}
	if f, ok := toFloat(v); ok {
		return f, nil
	}
	return 0, wrongType(key, "number", v)
}

// Int returns the integer at key. Floating point values are accepted when
// they are integral, as JSON decoding produces float64 for every number.
func (c Context) Int(key string) (int, error) {
	v, ok := c[key]
	if !ok {
		return 0, missing(key)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, wrongType(key, "integer", v)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, wrongType(key, "integer", v)
	}
	return int(f), nil
}

// Strings returns the string list at key.
func (c Context) Strings(key string) ([]string, error) {
	v, ok := c[key]
	if !ok {
		return nil, missing(key)
	}
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...), nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, wrongType(key, "list of strings", v)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return nil, nil
	}
	return nil, wrongType(key, "list of strings", v)
}

// Text unmarshals the string at key into target. Enumerations implement
// encoding.TextUnmarshaler so that invalid values fail here.
func (c Context) Text(key string, target encoding.TextUnmarshaler) error {
	s, err := c.String(key)
	if err != nil {
		return err
	}
	return target.UnmarshalText([]byte(s))
}

// StringOr, BoolOr, FloatOr and IntOr return def when key is absent and an
// error only when a present value has the wrong type.

func (c Context) StringOr(key, def string) (string, error) {
	if !c.Has(key) {
		return def, nil
	}
	return c.String(key)
}

func (c Context) BoolOr(key string, def bool) (bool, error) {
	if !c.Has(key) {
		return def, nil
	}
	return c.Bool(key)
}

func (c Context) FloatOr(key string, def float64) (float64, error) {
	if !c.Has(key) {
		return def, nil
	}
	return c.Float(key)
}

func (c Context) IntOr(key string, def int) (int, error) {
	if !c.Has(key) {
		return def, nil
	}
	return c.Int(key)
}

func toFloat(v interface{}) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
