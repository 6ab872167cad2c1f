package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Every frame carries a self-describing envelope: a required string
// "type" tag and a "data" object. Outbound frames are always msgpack;
// inbound frames may be msgpack (binary) or JSON (text).

var (
	ErrMissingType  = errors.New("protocol: missing type tag")
	ErrPollutedData = errors.New("protocol: prototype pollution sentinel")
)

// Message is one decoded inbound envelope. Data stays raw until a
// handler binds it to a concrete payload struct.
type Message struct {
	Type string
	data []byte
	json bool
}

// Bind decodes the data object into v using the codec the frame
// arrived in. A message without data binds the zero value.
func (m *Message) Bind(v any) error {
	if len(m.data) == 0 {
		return nil
	}
	if m.json {
		return json.Unmarshal(m.data, v)
	}
	return msgpack.Unmarshal(m.data, v)
}

// Decode parses one inbound frame. binary selects msgpack; text frames
// parse as JSON. Envelopes whose data object carries a prototype
// pollution key are rejected outright.
func Decode(binary bool, payload []byte) (*Message, error) {
	if binary {
		return decodeMsgpack(payload)
	}
	return decodeJSON(payload)
}

func decodeMsgpack(payload []byte) (*Message, error) {
	var env struct {
		Type string             `msgpack:"type"`
		Data msgpack.RawMessage `msgpack:"data"`
	}
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("protocol: decode msgpack envelope: %w", err)
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}
	if len(env.Data) > 0 {
		var keys map[string]msgpack.RawMessage
		// Non-map data objects are fine; only maps can smuggle keys.
		if err := msgpack.Unmarshal(env.Data, &keys); err == nil {
			if polluted(keys) {
				return nil, ErrPollutedData
			}
		}
	}
	return &Message{Type: env.Type, data: env.Data}, nil
}

func decodeJSON(payload []byte) (*Message, error) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("protocol: decode json envelope: %w", err)
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}
	if len(env.Data) > 0 {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(env.Data, &keys); err == nil {
			if polluted(keys) {
				return nil, ErrPollutedData
			}
		}
	}
	return &Message{Type: env.Type, data: env.Data, json: true}, nil
}

func polluted[V any](keys map[string]V) bool {
	for k := range keys {
		if k == "__proto__" || k == "constructor" {
			return true
		}
	}
	return false
}

// Encode builds one outbound msgpack frame.
func Encode(msgType string, data any) ([]byte, error) {
	frame, err := msgpack.Marshal(struct {
		Type string `msgpack:"type"`
		Data any    `msgpack:"data"`
	}{Type: msgType, Data: data})
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", msgType, err)
	}
	return frame, nil
}
