package audit

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lox/fairdeck/internal/deck"
)

// DefaultDir is where per-hand transcripts go unless configured
// otherwise.
const DefaultDir = "log_rng"

// FileSink appends one human-readable transcript per hand to
// <dir>/HandId_<id>.log. The layout is shared across protocol
// implementations so transcripts can be diffed between parties.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink writing under dir. An empty dir selects
// DefaultDir. The directory is created lazily on first write.
func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileSink{dir: dir}
}

// WriteHand appends the transcript for one hand.
func (s *FileSink) WriteHand(rec *Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("audit: creating log dir: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("HandId_%d.log", rec.HandID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit: opening %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	writeRecord(w, rec)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("audit: writing %s: %w", path, err)
	}
	return nil
}

func writeRecord(w *bufio.Writer, rec *Record) {
	rule := "--------------------------------------------------------------------"
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "HandId: %d\n", rec.HandID)
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "Initial hashed deck:")
	for i, h := range rec.InitialDeck {
		fmt.Fprintf(w, "%2d. %s\n", i+1, hex.EncodeToString(h[:]))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Seeds by seat index:")
	fmt.Fprintln(w, "       Seed Hex Representation                                            Seed Text Representation")
	fmt.Fprintf(w, "    -1 %s | ASCII: %s (operator)\n",
		hex.EncodeToString(rec.OperatorSeed[:]), printable(rec.OperatorSeed[:]))
	for _, p := range rec.Players {
		fmt.Fprintf(w, "    %2d %s | ASCII: %s (Player: %s)\n",
			p.Seat, hex.EncodeToString(p.Seed[:]), printable(p.Seed[:]), p.Nickname)
	}
	fmt.Fprintln(w, "    ----------------------------------------------------------------")
	fmt.Fprintf(w, "    %s (combined)\n", hex.EncodeToString(rec.CombinedSeed[:]))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Shuffled hashed deck:")
	fmt.Fprintln(w, "    Card Hash                                                           "+
		"Card Hex Representation (salt + card)                                       "+
		"Card Text Representation")

	revealAt := make(map[int]*Reveal, len(rec.Reveals))
	for i := range rec.Reveals {
		revealAt[rec.Reveals[i].Position] = &rec.Reveals[i]
	}

	for i, h := range rec.ShuffledDeck {
		fmt.Fprintf(w, "%2d. %s", initialPosition(rec.InitialDeck, h)+1, hex.EncodeToString(h[:]))
		if r, ok := revealAt[i]; ok {
			pre := deck.Preimage(r.Salt, r.Card)
			mark := "ok"
			if !r.OK {
				mark = "invalid hash"
			}
			fmt.Fprintf(w, " <- H(%s) | ASCII: %s - %s", hex.EncodeToString(pre), printable(pre), mark)
		}
		fmt.Fprintln(w)
	}
}

// initialPosition labels each shuffled entry with its pre-shuffle
// position so transcripts line up across parties.
func initialPosition(initial []deck.CardHash, h deck.CardHash) int {
	for i, c := range initial {
		if c == h {
			return i
		}
	}
	return -1
}

func printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 0x20 && c < 0x7f {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
