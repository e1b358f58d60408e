package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lox/fairdeck/internal/deck"
)

func testRecord() *Record {
	salted, hashed, err := deck.NewBuilder(4, constReader{}).Build(deck.Standard()[:3])
	if err != nil {
		panic(err)
	}

	rec := &Record{
		HandID:       42,
		InitialDeck:  hashed,
		OperatorSeed: [32]byte{0x02},
		CombinedSeed: [32]byte{0xcc},
		// "shuffle" by rotating one position
		ShuffledDeck: []deck.CardHash{hashed[2], hashed[0], hashed[1]},
		Players: []Party{
			{Seat: 0, Nickname: "alice", Seed: [32]byte{0x01}},
			{Seat: 1, Nickname: "bob", Seed: [32]byte{0x03}},
		},
	}
	rec.Reveals = []Reveal{
		{Position: 0, Salt: salted[2].Salt, Card: salted[2].Card, OK: true},
		{Position: 1, Salt: salted[0].Salt, Card: salted[0].Card, OK: false},
	}
	return rec
}

type constReader struct{}

func (constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0x5a
	}
	return len(p), nil
}

func TestFileSinkWritesTranscript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink := NewFileSink(dir)

	if err := sink.WriteHand(testRecord()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "HandId_42.log"))
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	for _, want := range []string{
		"HandId: 42",
		"Initial hashed deck:",
		"Seeds by seat index:",
		"(operator)",
		"(Player: alice)",
		"(Player: bob)",
		"(combined)",
		"Shuffled hashed deck:",
		" - ok",
		" - invalid hash",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("transcript missing %q", want)
		}
	}
}

func TestFileSinkAppends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink := NewFileSink(dir)

	rec := testRecord()
	if err := sink.WriteHand(rec); err != nil {
		t.Fatal(err)
	}
	if err := sink.WriteHand(rec); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "HandId_42.log"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "HandId: 42"); got != 2 {
		t.Fatalf("transcript appears %d times, want 2", got)
	}
}

func TestFileSinkCreatesDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "log_rng")
	sink := NewFileSink(dir)

	if err := sink.WriteHand(testRecord()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "HandId_42.log")); err != nil {
		t.Fatal(err)
	}
}

func TestDiscardSink(t *testing.T) {
	t.Parallel()

	if err := Discard.WriteHand(testRecord()); err != nil {
		t.Fatal(err)
	}
}
