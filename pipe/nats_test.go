package pipe

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
)

func TestReplyEncoding(t *testing.T) {
	res, err := decodeReply(encodeReply(map[string]interface{}{"ok": true}, nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"ok": true}, res)

	res, err = decodeReply(encodeReply(NotImplemented, nil))
	require.NoError(t, err)
	assert.True(t, IsNotImplemented(res))

	_, err = decodeReply(encodeReply(nil, enamlerrors.New(enamlerrors.ErrCodeInvalidEnum, "bad modality")))
	require.Error(t, err)
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInvalidEnum))

	_, err = decodeReply(encodeReply(nil, errors.New("plain")))
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeInternal))

	_, err = decodeReply([]byte("{"))
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeProtocol))
}

// TestNATSPipe needs a running server; set ENAML_TEST_NATS_URL to enable it.
func TestNATSPipe(t *testing.T) {
	url := os.Getenv("ENAML_TEST_NATS_URL")
	if url == "" {
		t.Skip("ENAML_TEST_NATS_URL not set")
	}

	conn, err := Connect(url, "enaml-test", 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	f := NewNATSFactory(conn, "enaml.test", time.Second)
	send, _, err := f.NewPair()
	require.NoError(t, err)

	_, err = send.Put("orphan", nil)
	assert.ErrorIs(t, err, ErrNoReceiver)

	peer := f.Pipe(send.(Identified).ID())
	var got []string
	peer.SetCallback(func(message string, ctx Context) (interface{}, error) {
		got = append(got, message)
		if message == "unknown" {
			return NotImplemented, nil
		}
		return ctx["value"], nil
	})
	defer peer.SetCallback(nil)

	for _, m := range []string{"a", "b", "c"} {
		res, err := send.Put(m, Context{"value": m})
		require.NoError(t, err)
		assert.Equal(t, m, res)
	}
	res, err := send.Put("unknown", nil)
	require.NoError(t, err)
	assert.True(t, IsNotImplemented(res))
	assert.Equal(t, []string{"a", "b", "c", "unknown"}, got)
}
