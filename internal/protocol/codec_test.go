package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestDecodeMsgpackEnvelope(t *testing.T) {
	frame, err := msgpack.Marshal(map[string]any{
		"type": "chat",
		"data": map[string]any{"message": "hello"},
	})
	require.NoError(t, err)

	msg, err := Decode(true, frame)
	require.NoError(t, err)
	assert.Equal(t, "chat", msg.Type)

	var d ChatData
	require.NoError(t, msg.Bind(&d))
	assert.Equal(t, "hello", d.Message)
}

func TestDecodeJSONEnvelope(t *testing.T) {
	msg, err := Decode(false, []byte(`{"type":"auth","data":{"user":"alice","pass":"secret"}}`))
	require.NoError(t, err)
	assert.Equal(t, "auth", msg.Type)

	var d AuthData
	require.NoError(t, msg.Bind(&d))
	assert.Equal(t, "alice", d.User)
	assert.Equal(t, "secret", d.Pass)
}

func TestDecodeRejectsMissingType(t *testing.T) {
	_, err := Decode(false, []byte(`{"data":{"x":1}}`))
	assert.ErrorIs(t, err, ErrMissingType)

	frame, _ := msgpack.Marshal(map[string]any{"data": map[string]any{}})
	_, err = Decode(true, frame)
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestDecodeRejectsPrototypePollution(t *testing.T) {
	for _, key := range []string{"__proto__", "constructor"} {
		_, err := Decode(false, []byte(`{"type":"input","data":{"`+key+`":{"polluted":true}}}`))
		assert.ErrorIs(t, err, ErrPollutedData, "json key %s", key)

		frame, mErr := msgpack.Marshal(map[string]any{
			"type": "input",
			"data": map[string]any{key: true},
		})
		require.NoError(t, mErr)
		_, err = Decode(true, frame)
		assert.ErrorIs(t, err, ErrPollutedData, "msgpack key %s", key)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(false, []byte(`{not json`))
	assert.Error(t, err)
	_, err = Decode(true, []byte{0xc1, 0xff, 0x00})
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame, err := Encode("authResult", AuthResult{Success: true, Token: "abc123"})
	require.NoError(t, err)

	msg, err := Decode(true, frame)
	require.NoError(t, err)
	assert.Equal(t, "authResult", msg.Type)

	var out AuthResult
	require.NoError(t, msg.Bind(&out))
	assert.True(t, out.Success)
	assert.Equal(t, "abc123", out.Token)
}

func TestBindEmptyData(t *testing.T) {
	msg, err := Decode(false, []byte(`{"type":"useAbility"}`))
	require.NoError(t, err)
	var d ShootData
	assert.NoError(t, msg.Bind(&d))
	assert.Zero(t, d.AimAngle)
}
