package protocol

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownMessageType is returned when an envelope carries a type the
// protocol does not define.
var ErrUnknownMessageType = errors.New("protocol: unknown message type")

// Marshal wraps a typed message in its envelope and serializes it.
func Marshal(v interface{}) ([]byte, error) {
	var t MessageType
	switch v.(type) {
	case *Join:
		t = TypeJoin
	case *HandStart:
		t = TypeHandStart
	case *Commitment:
		t = TypeCommitment
	case *SeedReveal:
		t = TypeSeedReveal
	case *CardReveal:
		t = TypeCardReveal
	case *Verdict:
		t = TypeVerdict
	case *Error:
		t = TypeError
	default:
		return nil, ErrUnknownMessageType
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: t, Data: data})
}

// Unmarshal parses an envelope and returns the decoded typed message.
func Unmarshal(raw []byte) (MessageType, interface{}, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", nil, fmt.Errorf("protocol: decoding envelope: %w", err)
	}

	var v interface{}
	switch msg.Type {
	case TypeJoin:
		v = &Join{}
	case TypeHandStart:
		v = &HandStart{}
	case TypeCommitment:
		v = &Commitment{}
	case TypeSeedReveal:
		v = &SeedReveal{}
	case TypeCardReveal:
		v = &CardReveal{}
	case TypeVerdict:
		v = &Verdict{}
	case TypeError:
		v = &Error{}
	default:
		return msg.Type, nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}

	if err := json.Unmarshal(msg.Data, v); err != nil {
		return msg.Type, nil, fmt.Errorf("protocol: decoding %s: %w", msg.Type, err)
	}
	return msg.Type, v, nil
}

// EncodeBytes hex-encodes a byte field.
func EncodeBytes(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeBytes decodes a hex byte field.
func DecodeBytes(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("protocol: decoding hex field: %w", err)
	}
	return b, nil
}

// Decode32 decodes a hex field that must be exactly 32 bytes, the size
// of seeds, commitments and card hashes.
func Decode32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := DecodeBytes(s)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("protocol: field is %d bytes, want 32", len(b))
	}
	copy(out[:], b)
	return out, nil
}
