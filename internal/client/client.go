// Package client implements a protocol participant: it connects to a
// relay, drives one hand of the shuffle protocol through its phases and
// reports the local verdict.
//
// The canonical seed order every participant feeds the combiner is
// operator first, then players ascending by seat. Parties that disagree
// on this order compute different shuffles and fail each other's
// verification, so it is fixed here rather than left to callers.
package client

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/fairdeck/internal/deck"
	"github.com/lox/fairdeck/internal/protocol"
	"github.com/lox/fairdeck/internal/rng"
)

// Config describes one participant's view of a hand.
type Config struct {
	// URL is the relay websocket endpoint, e.g. ws://localhost:8080/ws.
	URL string

	HandID   uint64
	Seat     int // rng.OperatorSeat for the operator
	Nickname string

	// SeedBytes, when non-empty, replaces the CSPRNG seed draw.
	// Reproducible runs only; live play must leave it empty.
	SeedBytes []byte

	// Timeout bounds the whole hand. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds a hand when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Participant drives one seat of one hand.
type Participant struct {
	cfg     Config
	logger  *log.Logger
	session *rng.Session

	// operator-only state
	roster []rng.SeatNickname
	salted []deck.SaltedCard
	hashed rng.HashedDeck
}

// New creates a player participant.
func New(cfg Config, logger *log.Logger, session *rng.Session) *Participant {
	return &Participant{
		cfg:     cfg,
		logger:  logger.WithPrefix("participant").With("seat", cfg.Seat),
		session: session,
	}
}

// NewOperator creates the operator participant. The operator owns the
// salted deck, publishes the hand_start frame and opens every card once
// all seeds are on the table.
func NewOperator(cfg Config, logger *log.Logger, session *rng.Session, roster []rng.SeatNickname, salted []deck.SaltedCard, hashed rng.HashedDeck) *Participant {
	cfg.Seat = rng.OperatorSeat
	return &Participant{
		cfg:     cfg,
		logger:  logger.WithPrefix("operator"),
		session: session,
		roster:  roster,
		salted:  salted,
		hashed:  hashed,
	}
}

// handRun tracks everything received so far for one hand.
type handRun struct {
	start   *protocol.HandStart
	commits map[int]rng.Hash256
	seeds   map[int]rng.Seed256
	reveals []rng.CardReveal

	begun     bool
	revealed  bool
	committed bool
}

// Run drives the hand to a verdict. It returns the local party's
// verdict, or an error when the hand could not be completed at all
// (transport failure, relay rejection, timeout).
func (p *Participant) Run(ctx context.Context) (rng.Verdict, error) {
	timeout := p.cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.cfg.URL, nil)
	if err != nil {
		return rng.VerdictFail, fmt.Errorf("client: dialing relay: %w", err)
	}
	defer conn.Close()

	// unblock reads when the context expires
	watchdogDone := make(chan struct{})
	defer close(watchdogDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-watchdogDone:
		}
	}()

	if err := send(conn, &protocol.Join{HandID: p.cfg.HandID, Seat: p.cfg.Seat, Nickname: p.cfg.Nickname}); err != nil {
		return rng.VerdictFail, err
	}

	run := &handRun{
		commits: make(map[int]rng.Hash256),
		seeds:   make(map[int]rng.Seed256),
	}

	if p.operator() {
		if err := p.publishHandStart(conn, run); err != nil {
			return rng.VerdictFail, err
		}
	}

	for {
		if done, verdict, err := p.advance(conn, run); done || err != nil {
			return verdict, err
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return rng.VerdictFail, fmt.Errorf("client: hand %d timed out: %w", p.cfg.HandID, ctx.Err())
			}
			return rng.VerdictFail, fmt.Errorf("client: reading frame: %w", err)
		}
		if err := p.handleFrame(conn, run, raw); err != nil {
			return rng.VerdictFail, err
		}
	}
}

func (p *Participant) operator() bool {
	return p.cfg.Seat == rng.OperatorSeat
}

// publishHandStart announces the hand and its hashed deck.
func (p *Participant) publishHandStart(conn *websocket.Conn, run *handRun) error {
	hs := &protocol.HandStart{
		HandID:      p.cfg.HandID,
		SaltLen:     len(p.salted[0].Salt),
		RevealCount: len(p.hashed),
	}
	for _, s := range p.roster {
		hs.Seats = append(hs.Seats, protocol.SeatInfo{Seat: s.Seat, Nickname: s.Nickname})
	}
	for _, h := range p.hashed {
		hs.InitialDeck = append(hs.InitialDeck, protocol.EncodeBytes(h[:]))
	}

	run.start = hs
	if err := send(conn, hs); err != nil {
		return err
	}
	return p.begin(conn, run)
}

// begin opens the local session and publishes the commitment.
func (p *Participant) begin(conn *websocket.Conn, run *handRun) error {
	var initial rng.HashedDeck
	for _, s := range run.start.InitialDeck {
		h, err := protocol.Decode32(s)
		if err != nil {
			return err
		}
		initial = append(initial, deck.CardHash(h))
	}

	roster := make([]rng.SeatNickname, 0, len(run.start.Seats))
	for _, s := range run.start.Seats {
		roster = append(roster, rng.SeatNickname{Seat: s.Seat, Nickname: s.Nickname})
	}

	commit, err := p.session.BeginHand(rng.HandID(p.cfg.HandID), p.cfg.Seat, initial, roster, p.cfg.SeedBytes)
	if err != nil {
		return fmt.Errorf("client: beginning hand: %w", err)
	}
	run.begun = true
	run.commits[p.cfg.Seat] = commit

	p.logger.Debug("hand begun", "hand_id", p.cfg.HandID, "commit", commit.Hex())
	return send(conn, &protocol.Commitment{
		HandID: p.cfg.HandID,
		Seat:   p.cfg.Seat,
		Hash:   protocol.EncodeBytes(commit[:]),
	})
}

// handleFrame folds one incoming frame into the run state.
func (p *Participant) handleFrame(conn *websocket.Conn, run *handRun, raw []byte) error {
	t, v, err := protocol.Unmarshal(raw)
	if err != nil {
		return err
	}

	switch msg := v.(type) {
	case *protocol.HandStart:
		if run.start != nil {
			return nil
		}
		run.start = msg
		return p.begin(conn, run)

	case *protocol.Commitment:
		h, err := protocol.Decode32(msg.Hash)
		if err != nil {
			return err
		}
		run.commits[msg.Seat] = rng.Hash256(h)

	case *protocol.SeedReveal:
		s, err := protocol.Decode32(msg.Seed)
		if err != nil {
			return err
		}
		run.seeds[msg.Seat] = rng.Seed256(s)

	case *protocol.CardReveal:
		salt, err := protocol.DecodeBytes(msg.Salt)
		if err != nil {
			return err
		}
		run.reveals = append(run.reveals, rng.CardReveal{
			Position: msg.Position,
			Salt:     salt,
			Card:     deck.Card(msg.Card),
		})

	case *protocol.Verdict:
		p.logger.Debug("peer verdict", "seat", msg.Seat, "pass", msg.Pass)

	case *protocol.Error:
		return fmt.Errorf("client: relay error %s: %s", msg.Code, msg.Message)

	default:
		p.logger.Debug("ignoring frame", "type", t)
	}
	return nil
}

// advance runs whatever phase transitions the accumulated state allows,
// and reports completion once the local verdict is in.
func (p *Participant) advance(conn *websocket.Conn, run *handRun) (bool, rng.Verdict, error) {
	if run.start == nil || !run.begun {
		return false, rng.VerdictFail, nil
	}

	// all commitments in -> record them and reveal the seed
	if !run.committed && len(run.commits) >= len(run.start.Seats)+1 {
		var commits []rng.SeatCommit
		for seat, h := range run.commits {
			commits = append(commits, rng.SeatCommit{Seat: seat, Commit: h})
		}
		seed, err := p.session.RecordCommitments(rng.HandID(p.cfg.HandID), commits)
		if err != nil {
			return false, rng.VerdictFail, fmt.Errorf("client: recording commitments: %w", err)
		}
		run.committed = true
		run.seeds[p.cfg.Seat] = seed

		if err := send(conn, &protocol.SeedReveal{
			HandID: p.cfg.HandID,
			Seat:   p.cfg.Seat,
			Seed:   protocol.EncodeBytes(seed[:]),
		}); err != nil {
			return false, rng.VerdictFail, err
		}
	}

	if !run.committed || len(run.seeds) < len(run.start.Seats)+1 {
		return false, rng.VerdictFail, nil
	}

	// operator opens the whole deck once every seed is on the table
	if p.operator() && !run.revealed {
		if err := p.publishReveals(conn, run); err != nil {
			return false, rng.VerdictFail, err
		}
		run.revealed = true
	}

	if len(run.reveals) < run.start.RevealCount {
		return false, rng.VerdictFail, nil
	}

	verdict, err := p.verify(conn, run)
	return err == nil, verdict, err
}

// publishReveals opens every position of the shuffled deck. The
// operator recomputes the shuffle locally to know which salted card
// landed where.
func (p *Participant) publishReveals(conn *websocket.Conn, run *handRun) error {
	combined := rng.CombineSeeds(canonicalSeeds(run))
	shuffled := rng.Shuffle(p.hashed, combined)

	byHash := make(map[deck.CardHash]deck.SaltedCard, len(p.salted))
	for i, h := range p.hashed {
		byHash[h] = p.salted[i]
	}

	for pos, h := range shuffled {
		sc, ok := byHash[h]
		if !ok {
			return fmt.Errorf("client: shuffled hash at %d not in salted deck", pos)
		}
		reveal := &protocol.CardReveal{
			HandID:   p.cfg.HandID,
			Position: pos,
			Salt:     protocol.EncodeBytes(sc.Salt),
			Card:     byte(sc.Card),
		}
		if err := send(conn, reveal); err != nil {
			return err
		}
		run.reveals = append(run.reveals, rng.CardReveal{Position: pos, Salt: sc.Salt, Card: sc.Card})
	}
	return nil
}

// verify runs the final phase and publishes the verdict.
func (p *Participant) verify(conn *websocket.Conn, run *handRun) (rng.Verdict, error) {
	verdict, err := p.session.Verify(rng.HandID(p.cfg.HandID), canonicalSeedList(run), run.reveals)
	if err != nil {
		return rng.VerdictFail, fmt.Errorf("client: verifying hand: %w", err)
	}

	p.logger.Info("hand verified", "hand_id", p.cfg.HandID, "verdict", verdict.String())
	if err := send(conn, &protocol.Verdict{
		HandID: p.cfg.HandID,
		Seat:   p.cfg.Seat,
		Pass:   verdict == rng.VerdictPass,
	}); err != nil {
		return verdict, err
	}
	return verdict, nil
}

// canonicalSeedList orders the revealed seeds operator-first, players
// ascending by seat.
func canonicalSeedList(run *handRun) []rng.SeatSeed {
	seats := make([]int, 0, len(run.seeds))
	for seat := range run.seeds {
		seats = append(seats, seat)
	}
	sort.Ints(seats)

	out := make([]rng.SeatSeed, 0, len(seats))
	for _, seat := range seats {
		out = append(out, rng.SeatSeed{Seat: seat, Seed: run.seeds[seat]})
	}
	return out
}

func canonicalSeeds(run *handRun) []rng.Seed256 {
	list := canonicalSeedList(run)
	out := make([]rng.Seed256, len(list))
	for i, s := range list {
		out[i] = s.Seed
	}
	return out
}

func send(conn *websocket.Conn, v interface{}) error {
	frame, err := protocol.Marshal(v)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("client: writing frame: %w", err)
	}
	return nil
}
