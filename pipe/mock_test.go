package pipe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
)

func TestMockReturnsCallbackResult(t *testing.T) {
	p := NewMock()
	p.SetCallback(func(message string, ctx Context) (interface{}, error) {
		return message + ":" + ctx["value"].(string), nil
	})

	res, err := p.Put("set_text", Context{"value": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "set_text:hello", res)
}

func TestMockPreservesOrder(t *testing.T) {
	p := NewMock()
	var got []int
	p.SetCallback(func(message string, ctx Context) (interface{}, error) {
		n, err := ctx.Int("n")
		got = append(got, n)
		return nil, err
	})

	for i := 0; i < 100; i++ {
		_, err := p.Put("tick", Context{"n": i})
		require.NoError(t, err)
	}
	require.Len(t, got, 100)
	for i, n := range got {
		assert.Equal(t, i, n)
	}
}

func TestMockWithoutCallback(t *testing.T) {
	p := NewMock()
	_, err := p.Put("set_text", Context{"value": "lost"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoReceiver))
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeNoReceiver))
}

func TestMockReplaceAndClearCallback(t *testing.T) {
	p := NewMock()
	var first, second int
	p.SetCallback(func(string, Context) (interface{}, error) { first++; return nil, nil })
	_, _ = p.Put("a", nil)
	p.SetCallback(func(string, Context) (interface{}, error) { second++; return nil, nil })
	_, _ = p.Put("b", nil)

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	p.SetCallback(nil)
	_, err := p.Put("c", nil)
	assert.ErrorIs(t, err, ErrNoReceiver)
}

func TestMockFactoryDistinctPipes(t *testing.T) {
	f := MockFactory()
	s1, r1, err := f.NewPair()
	require.NoError(t, err)
	s2, r2, err := f.NewPair()
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, p := range []Pipe{s1, r1, s2, r2} {
		ids[p.(Identified).ID()] = true
	}
	assert.Len(t, ids, 4)

	var hits []string
	r1.SetCallback(func(m string, _ Context) (interface{}, error) { hits = append(hits, "r1:"+m); return nil, nil })
	r2.SetCallback(func(m string, _ Context) (interface{}, error) { hits = append(hits, "r2:"+m); return nil, nil })
	_, _ = r1.Put("x", nil)
	_, _ = r2.Put("y", nil)
	assert.Equal(t, []string{"r1:x", "r2:y"}, hits)
}

func TestNotImplemented(t *testing.T) {
	assert.True(t, IsNotImplemented(NotImplemented))
	assert.False(t, IsNotImplemented(nil))
	assert.False(t, IsNotImplemented("NotImplemented"))
}
