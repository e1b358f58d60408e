package protocol

import (
	"errors"
	"testing"
)

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  interface{}
		typ  MessageType
	}{
		{"join", &Join{HandID: 7, Seat: -1, Nickname: "op"}, TypeJoin},
		{"hand_start", &HandStart{HandID: 7, Seats: []SeatInfo{{Seat: 0, Nickname: "a"}}, InitialDeck: []string{"00ff"}, SaltLen: 16, RevealCount: 52}, TypeHandStart},
		{"commitment", &Commitment{HandID: 7, Seat: 0, Hash: "ab"}, TypeCommitment},
		{"seed_reveal", &SeedReveal{HandID: 7, Seat: 1, Seed: "cd"}, TypeSeedReveal},
		{"card_reveal", &CardReveal{HandID: 7, Position: 3, Salt: "ef", Card: 52}, TypeCardReveal},
		{"verdict", &Verdict{HandID: 7, Seat: -1, Pass: true}, TypeVerdict},
		{"error", &Error{Code: "join_failed", Message: "seat taken"}, TypeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Marshal(tt.msg)
			if err != nil {
				t.Fatal(err)
			}
			typ, v, err := Unmarshal(raw)
			if err != nil {
				t.Fatal(err)
			}
			if typ != tt.typ {
				t.Errorf("type = %q, want %q", typ, tt.typ)
			}
			// spot-check a field survived; full equality would just
			// re-test encoding/json
			switch msg := v.(type) {
			case *Join:
				if msg.Seat != tt.msg.(*Join).Seat {
					t.Error("seat lost in round trip")
				}
			case *HandStart:
				if msg.RevealCount != tt.msg.(*HandStart).RevealCount {
					t.Error("reveal count lost in round trip")
				}
			case *CardReveal:
				if msg.Card != tt.msg.(*CardReveal).Card {
					t.Error("card lost in round trip")
				}
			}
		})
	}
}

func TestMarshalUnknownType(t *testing.T) {
	t.Parallel()

	if _, err := Marshal(struct{}{}); !errors.Is(err, ErrUnknownMessageType) {
		t.Fatalf("err = %v, want ErrUnknownMessageType", err)
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	t.Parallel()

	if _, _, err := Unmarshal([]byte(`{"type":"nope","data":{}}`)); !errors.Is(err, ErrUnknownMessageType) {
		t.Fatalf("err = %v, want ErrUnknownMessageType", err)
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	t.Parallel()

	if _, _, err := Unmarshal([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed envelope")
	}
}

func TestDecode32(t *testing.T) {
	t.Parallel()

	in := make([]byte, 32)
	in[0] = 0xab
	out, err := Decode32(EncodeBytes(in))
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != 0xab {
		t.Error("decoded bytes mismatch")
	}

	if _, err := Decode32("abcd"); err == nil {
		t.Fatal("expected error for short field")
	}
	if _, err := Decode32("zz"); err == nil {
		t.Fatal("expected error for non-hex field")
	}
}
