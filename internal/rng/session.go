package rng

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lox/fairdeck/internal/audit"
	"github.com/lox/fairdeck/internal/deck"
)

// playerSlot carries one rostered player's commitment and, once
// revealed, their seed.
type playerSlot struct {
	seat     int
	nickname string
	commit   Hash256
	seed     Seed256
}

// handState is the full per-hand state. Owned by the Session; never
// handed out by reference.
type handState struct {
	id       HandID
	selfSeat int
	phase    Phase

	initialDeck HashedDeck
	players     []playerSlot // ascending by seat
	opCommit    Hash256
	opSeed      Seed256

	selfSeed   Seed256
	selfCommit Hash256

	combinedSeed Seed256
	shuffledDeck HashedDeck
	reveals      []CardReveal
	verdict      Verdict
}

func (h *handState) player(seat int) *playerSlot {
	for i := range h.players {
		if h.players[i].seat == seat {
			return &h.players[i]
		}
	}
	return nil
}

// Session manages the hands of one local party. It may host many hands
// concurrently; all access to the store and to hand state is serialized
// on a single mutex, so a Session is safe for use from multiple
// goroutines.
type Session struct {
	mu    sync.Mutex
	hands map[HandID]*handState
	sink  audit.Sink
}

// Option configures a Session.
type Option func(*Session)

// WithAuditSink routes per-hand verification transcripts to sink. The
// sink is advisory: write failures are swallowed and never change a
// verdict.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Session) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// New creates an empty session manager.
func New(opts ...Option) *Session {
	s := &Session{
		hands: make(map[HandID]*handState),
		sink:  audit.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BeginHand opens a hand: it registers the published hashed deck and
// the player roster, generates (or imports) the local party's seed and
// returns the commitment to broadcast. selfSeat is OperatorSeat when
// the local party is the operator. seedBytes, when non-empty, replaces
// the CSPRNG draw and is truncated or zero-padded to 32 bytes.
func (s *Session) BeginHand(id HandID, selfSeat int, initialDeck HashedDeck, roster []SeatNickname, seedBytes []byte) (Hash256, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hands[id]; ok {
		return Hash256{}, fmt.Errorf("%w: %d", ErrDuplicateHand, id)
	}
	if len(initialDeck) == 0 {
		return Hash256{}, ErrEmptyDeck
	}

	players := make([]playerSlot, 0, len(roster))
	seen := make(map[int]bool, len(roster))
	for _, p := range roster {
		if p.Seat < 0 || seen[p.Seat] {
			return Hash256{}, fmt.Errorf("%w: %d", ErrInvalidSeat, p.Seat)
		}
		seen[p.Seat] = true
		players = append(players, playerSlot{seat: p.Seat, nickname: p.Nickname})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].seat < players[j].seat })

	seed, err := NewSeed(seedBytes)
	if err != nil {
		return Hash256{}, err
	}
	commit := Commit(seed)

	h := &handState{
		id:          id,
		selfSeat:    selfSeat,
		phase:       PhaseBegun,
		initialDeck: initialDeck.Clone(),
		players:     players,
		selfSeed:    seed,
		selfCommit:  commit,
	}
	if selfSeat == OperatorSeat {
		h.opCommit = commit
	} else if p := h.player(selfSeat); p != nil {
		p.commit = commit
	}

	s.hands[id] = h
	return commit, nil
}

// RecordCommitments stores the other participants' commitment hashes,
// keyed by seat (OperatorSeat for the operator). Seats outside the
// roster are silently ignored; participants may publish metadata for
// seats not in the hand. It returns the local party's own seed so the
// caller can broadcast the reveal. Subsequent invocations overwrite.
func (s *Session) RecordCommitments(id HandID, commits []SeatCommit) (Seed256, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hands[id]
	if !ok {
		return Seed256{}, fmt.Errorf("%w: %d", ErrUnknownHand, id)
	}
	if h.phase != PhaseBegun && h.phase != PhaseCommitted {
		return Seed256{}, fmt.Errorf("%w: %s", ErrWrongPhase, h.phase)
	}

	for _, c := range commits {
		if c.Seat == OperatorSeat {
			h.opCommit = c.Commit
			continue
		}
		if p := h.player(c.Seat); p != nil {
			p.commit = c.Commit
		}
	}

	h.phase = PhaseCommitted
	return h.selfSeed, nil
}

// Verify runs the reveal phase: it routes the revealed seeds to their
// slots, recombines them in the order received, recomputes the shuffle
// and checks every commitment and opened card against the published
// deck. The verdict is all-or-nothing; the first mismatch yields FAIL
// with no diagnostic breakdown.
func (s *Session) Verify(id HandID, seeds []SeatSeed, reveals []CardReveal) (Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hands[id]
	if !ok {
		return VerdictFail, fmt.Errorf("%w: %d", ErrUnknownHand, id)
	}
	if h.phase != PhaseCommitted {
		return VerdictFail, fmt.Errorf("%w: %s", ErrWrongPhase, h.phase)
	}
	for _, r := range reveals {
		if r.Position < 0 || r.Position >= len(h.initialDeck) {
			return VerdictFail, fmt.Errorf("%w: %d", ErrRevealOutOfRange, r.Position)
		}
	}

	// 1. route revealed seeds to their slots; unknown seats ignored
	for _, sr := range seeds {
		if sr.Seat == OperatorSeat {
			h.opSeed = sr.Seed
			continue
		}
		if p := h.player(sr.Seat); p != nil {
			p.seed = sr.Seed
		}
	}

	// 2. combine in the order received, including unknown-seat entries
	ordered := make([]Seed256, len(seeds))
	for i, sr := range seeds {
		ordered[i] = sr.Seed
	}
	h.combinedSeed = CombineSeeds(ordered)

	// 3. recompute the shuffle
	h.shuffledDeck = Shuffle(h.initialDeck, h.combinedSeed)

	// 4. store reveals
	h.reveals = make([]CardReveal, len(reveals))
	for i, r := range reveals {
		h.reveals[i] = CardReveal{
			Position: r.Position,
			Salt:     append([]byte(nil), r.Salt...),
			Card:     r.Card,
		}
	}

	cardOK := make([]bool, len(h.reveals))
	for i, r := range h.reveals {
		cardOK[i] = deck.Verify(h.shuffledDeck[r.Position], r.Salt, r.Card)
	}

	// the transcript is written before the verdict so a failed hand
	// can still be inspected; sink errors are advisory only
	s.writeAudit(h, cardOK)

	h.verdict = h.check(cardOK)
	h.phase = PhaseVerified
	return h.verdict, nil
}

// check runs verification steps 5-7 in order and returns the verdict.
func (h *handState) check(cardOK []bool) Verdict {
	// 5. self-tamper detection: the slot recorded for the local party
	// must match what BeginHand generated
	if h.selfSeat == OperatorSeat {
		if h.opCommit != h.selfCommit || h.opSeed != h.selfSeed {
			return VerdictFail
		}
	} else if p := h.player(h.selfSeat); p != nil {
		if p.commit != h.selfCommit || p.seed != h.selfSeed {
			return VerdictFail
		}
	}

	// 6. every revealed seed must be bound by its commitment
	if !h.opSeed.IsZero() && !VerifyCommit(h.opCommit, h.opSeed) {
		return VerdictFail
	}
	for i := range h.players {
		p := &h.players[i]
		if !p.seed.IsZero() && !VerifyCommit(p.commit, p.seed) {
			return VerdictFail
		}
	}

	// 7. every opened card must hash to the shuffled-deck entry at its
	// claimed position
	for _, ok := range cardOK {
		if !ok {
			return VerdictFail
		}
	}

	return VerdictPass
}

// Abort discards a hand without verification. It is idempotent and
// never fails.
func (s *Session) Abort(id HandID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hands, id)
}

// HandSnapshot is a read-only copy of a hand's externally visible
// state.
type HandSnapshot struct {
	ID           HandID
	Phase        Phase
	Verdict      Verdict
	CombinedSeed Seed256
	ShuffledDeck HashedDeck
}

// Hand returns a snapshot of the hand, or ErrUnknownHand.
func (s *Session) Hand(id HandID) (HandSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hands[id]
	if !ok {
		return HandSnapshot{}, fmt.Errorf("%w: %d", ErrUnknownHand, id)
	}
	return HandSnapshot{
		ID:           h.id,
		Phase:        h.phase,
		Verdict:      h.verdict,
		CombinedSeed: h.combinedSeed,
		ShuffledDeck: h.shuffledDeck.Clone(),
	}, nil
}

func (s *Session) writeAudit(h *handState, cardOK []bool) {
	rec := &audit.Record{
		HandID:       uint64(h.id),
		InitialDeck:  h.initialDeck,
		OperatorSeed: [32]byte(h.opSeed),
		CombinedSeed: [32]byte(h.combinedSeed),
		ShuffledDeck: h.shuffledDeck,
	}
	for _, p := range h.players {
		rec.Players = append(rec.Players, audit.Party{
			Seat:     p.seat,
			Nickname: p.nickname,
			Seed:     [32]byte(p.seed),
		})
	}
	for i, r := range h.reveals {
		rec.Reveals = append(rec.Reveals, audit.Reveal{
			Position: r.Position,
			Salt:     r.Salt,
			Card:     r.Card,
			OK:       cardOK[i],
		})
	}
	_ = s.sink.WriteHand(rec)
}
