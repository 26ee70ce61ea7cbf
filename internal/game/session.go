// Package game implements the per-room game session: the player
// roster, host assignment, the round state machine, and guess scoring.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cityguessr/server/internal/location"
	"github.com/cityguessr/server/internal/protocol"
	"github.com/cityguessr/server/internal/scoring"
)

// Rules is the pacing configuration for a session's rounds.
type Rules struct {
	Rounds       int
	RoundLength  time.Duration
	StartDelay   time.Duration
	Intermission time.Duration
}

// Session is the live state machine for one room. It is mutated from
// every player's receive loop and from the round loop goroutine; all
// shared state sits behind mu, with sends enqueued under the lock so
// each connection sees frames in state-mutation order.
type Session struct {
	id        string
	logger    *slog.Logger
	rules     Rules
	locations *location.Dataset

	mu         sync.Mutex
	rng        *rand.Rand
	players    []*Player // join order; disconnected entries stay for reconnects
	running    bool
	round      *round
	lastActive time.Time
}

// round exists only while a round is open. guesses is keyed by player id.
type round struct {
	number    int
	target    location.Location
	startedAt time.Time
	guesses   map[string]*guess
	allFinal  chan struct{}
	closed    bool
}

type guess struct {
	latitude  float64
	longitude float64
	final     bool
}

func NewSession(id string, logger *slog.Logger, locations *location.Dataset, rules Rules, rng *rand.Rand) *Session {
	return &Session{
		id:         id,
		logger:     logger.With("room", id),
		rules:      rules,
		locations:  locations,
		rng:        rng,
		lastActive: time.Now(),
	}
}

// Join adds a connection to the session and returns the roster entry
// it is bound to. A userId matching a disconnected entry is a
// reconnection: the entry keeps its score and host flag and only the
// transport is replaced. A userId matching a still-open connection is
// logged and admitted as a brand-new player under a fresh id.
func (s *Session) Join(userID, username string, conn Conn) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = time.Now()

	if username == "" {
		username = fmt.Sprintf("Player %d", len(s.players)+1)
	}

	var p *Player
	if existing := s.playerLocked(userID); existing != nil {
		if existing.connected {
			s.logger.Warn("join with an already-connected id, admitting as new player",
				"user", userID, "name", username)
		} else {
			existing.attach(conn)
			p = existing
			s.logger.Info("player rejoined", "user", p.ID, "name", p.Name)
		}
	}

	if p == nil {
		id := userID
		if id == "" || s.playerLocked(id) != nil {
			id = uuid.NewString()
		}
		p = newPlayer(id, username)
		p.attach(conn)
		s.players = append(s.players, p)
		s.logger.Info("player joined", "user", p.ID, "name", p.Name)
	}

	s.ensureHostLocked()

	s.sendLocked(p, protocol.ConfirmUsername{Name: p.Name, ID: p.ID, IsHost: p.isHost})
	s.broadcastLocked(s.rosterLocked())

	if r := s.round; r != nil {
		remaining := s.rules.RoundLength - time.Since(r.startedAt)
		if remaining > 0 {
			s.sendLocked(p, protocol.GameRunning{
				VideoID:         r.target.VideoID,
				StartTime:       r.target.StartTime,
				RemainingLength: int(remaining.Seconds()),
			})
		}
	}

	return p
}

// Leave removes a connection from the session. conn identifies which
// connection is leaving: a read loop that lost its socket to a
// reconnect must not detach the replacement.
func (s *Session) Leave(p *Player, conn Conn) {
	s.mu.Lock()

	if p.conn != conn {
		s.mu.Unlock()
		return
	}
	p.detach("")
	p.conn = nil

	s.lastActive = time.Now()

	if promoted := s.ensureHostLocked(); promoted != nil {
		s.sendLocked(promoted, protocol.ConfirmUsername{
			Name: promoted.Name, ID: promoted.ID, IsHost: true,
		})
	}
	s.broadcastLocked(s.rosterLocked())

	// One fewer player to wait on; the round may now be complete.
	s.finishRoundIfAllFinalLocked()

	s.mu.Unlock()
	s.logger.Info("player left", "user", p.ID, "name", p.Name)
}

// StartGame begins a run unless one is already in flight. Only the
// host may start.
func (s *Session) StartGame(p *Player) {
	s.mu.Lock()
	if !p.isHost {
		s.mu.Unlock()
		s.logger.Debug("start request from non-host ignored", "user", p.ID)
		return
	}
	if s.running {
		s.mu.Unlock()
		s.logger.Debug("start request while game already running", "user", p.ID)
		return
	}
	s.running = true
	s.lastActive = time.Now()
	s.mu.Unlock()

	s.logger.Info("game starting", "rounds", s.rules.Rounds)
	go s.run()
}

// RecordGuess stores a player's guess for the current round. A final
// guess locks the player in and is scored immediately; further guesses
// from them this round are ignored.
func (s *Session) RecordGuess(p *Player, g protocol.Guess) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.round
	if r == nil {
		s.logger.Debug("guess outside a round ignored", "user", p.ID)
		return
	}
	if prev := r.guesses[p.ID]; prev != nil && prev.final {
		s.logger.Debug("guess after final ignored", "user", p.ID)
		return
	}

	r.guesses[p.ID] = &guess{latitude: g.Latitude, longitude: g.Longitude, final: g.IsFinal}
	s.lastActive = time.Now()

	if !g.IsFinal {
		return
	}

	distance := scoring.DistanceKm(g.Latitude, g.Longitude, r.target.Latitude, r.target.Longitude)
	points := scoring.Points(distance)
	p.score += points

	s.logger.Info("final guess scored",
		"user", p.ID, "round", r.number, "distance_km", distance, "points", points)

	s.sendLocked(p, protocol.GuessResult{
		Distance:        distance,
		TargetLatitude:  r.target.Latitude,
		TargetLongitude: r.target.Longitude,
		Points:          points,
	})
	s.broadcastLocked(protocol.BroadcastResult{
		PlayerID: p.ID,
		Name:     p.Name,
		Distance: distance,
	})

	s.finishRoundIfAllFinalLocked()
}

// HandleInbound decodes one raw frame from a player and dispatches it.
// Decode failures are logged and dropped; the connection keeps going.
func (s *Session) HandleInbound(p *Player, raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		s.logger.Warn("dropping undecodable message", "user", p.ID, "error", err)
		return
	}

	switch m := msg.(type) {
	case protocol.StartGame:
		s.StartGame(p)
	case protocol.Guess:
		s.RecordGuess(p, m)
	default:
		s.logger.Warn("unhandled message kind", "user", p.ID)
	}
}

// Idle reports whether the session has had no connected players and no
// running game for at least ttl. Used by the registry sweep.
func (s *Session) Idle(ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}
	for _, p := range s.players {
		if p.connected {
			return false
		}
	}
	return time.Since(s.lastActive) >= ttl
}

// run drives one complete game: the starting countdown, then a fixed
// number of rounds. Runs on its own goroutine; never holds the lock
// while sleeping or waiting.
func (s *Session) run() {
	s.broadcast(protocol.GameStarting{})
	time.Sleep(s.rules.StartDelay)

	for i := 1; i <= s.rules.Rounds; i++ {
		allFinal := s.beginRound(i)

		timer := time.NewTimer(s.rules.RoundLength)
		select {
		case <-allFinal:
			timer.Stop()
		case <-timer.C:
		}

		s.endRound()

		if i < s.rules.Rounds {
			time.Sleep(s.rules.Intermission)
		}
	}

	s.mu.Lock()
	s.running = false
	s.lastActive = time.Now()
	s.mu.Unlock()
	s.logger.Info("game finished")
}

// beginRound picks a target, resets the guess table, and announces the
// round. Returns the channel closed when every connected player has a
// final guess.
func (s *Session) beginRound(number int) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.locations.Pick(s.rng)
	s.round = &round{
		number:    number,
		target:    target,
		startedAt: time.Now(),
		guesses:   make(map[string]*guess),
		allFinal:  make(chan struct{}),
	}

	s.logger.Info("round started", "round", number, "video", target.VideoID)

	s.broadcastLocked(protocol.RoundStart{
		RoundNumber: number,
		RoundLength: int(s.rules.RoundLength.Seconds()),
		VideoID:     target.VideoID,
		StartTime:   target.StartTime,
	})

	return s.round.allFinal
}

// endRound reveals the target and closes out the round.
func (s *Session) endRound() {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.round
	if r == nil {
		return
	}
	s.round = nil

	s.logger.Info("round ended", "round", r.number, "guesses", len(r.guesses))

	s.broadcastLocked(protocol.RoundEnd{
		Latitude:  r.target.Latitude,
		Longitude: r.target.Longitude,
	})
}

// finishRoundIfAllFinalLocked signals the round loop when every
// connected player has locked in a final guess, so the round ends now
// instead of idling out the timer. No-op with an empty room: an
// unattended round just runs its clock.
func (s *Session) finishRoundIfAllFinalLocked() {
	r := s.round
	if r == nil || r.closed {
		return
	}

	connected := 0
	for _, p := range s.players {
		if !p.connected {
			continue
		}
		connected++
		if g := r.guesses[p.ID]; g == nil || !g.final {
			return
		}
	}
	if connected == 0 {
		return
	}

	r.closed = true
	close(r.allFinal)
}

// ensureHostLocked keeps exactly one host among the connected players:
// the earliest-joined connected player inherits the flag when the
// current host is gone. Returns the newly promoted player, or nil when
// nothing changed.
func (s *Session) ensureHostLocked() *Player {
	var host *Player
	for _, p := range s.players {
		if p.connected && p.isHost {
			host = p
			break
		}
	}

	var promoted *Player
	if host == nil {
		for _, p := range s.players {
			if p.connected {
				host = p
				promoted = p
				break
			}
		}
	}
	if host == nil {
		return nil
	}

	host.isHost = true
	for _, p := range s.players {
		if p != host {
			p.isHost = false
		}
	}
	if promoted != nil {
		s.logger.Info("host changed", "user", promoted.ID, "name", promoted.Name)
	}
	return promoted
}

func (s *Session) playerLocked(id string) *Player {
	if id == "" {
		return nil
	}
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// rosterLocked builds the UpdatePlayers snapshot in join order.
// Disconnected entries are omitted; they reappear if they reconnect.
func (s *Session) rosterLocked() protocol.UpdatePlayers {
	roster := make(protocol.UpdatePlayers, 0, len(s.players))
	for _, p := range s.players {
		if !p.connected {
			continue
		}
		roster = append(roster, protocol.PlayerSummary{
			Name:   p.Name,
			Points: p.score,
			ID:     p.ID,
			IsHost: p.isHost,
		})
	}
	return roster
}

// sendLocked enqueues one frame for one player. A full outbox means
// the client is not reading; it gets dropped, and its read loop will
// run the leave path once the closed socket surfaces there.
func (s *Session) sendLocked(p *Player, m protocol.Outbound) {
	if !p.connected {
		return
	}
	data, err := protocol.Marshal(m)
	if err != nil {
		s.logger.Error("encoding outbound message", "user", p.ID, "error", err)
		return
	}
	s.enqueueLocked(p, data)
}

// broadcastLocked marshals once and fans the frame out to every
// connected player.
func (s *Session) broadcastLocked(m protocol.Outbound) {
	data, err := protocol.Marshal(m)
	if err != nil {
		s.logger.Error("encoding broadcast message", "error", err)
		return
	}
	for _, p := range s.players {
		if p.connected {
			s.enqueueLocked(p, data)
		}
	}
}

func (s *Session) enqueueLocked(p *Player, data []byte) {
	if !p.enqueue(data) {
		s.logger.Warn("outbox full, dropping client", "user", p.ID)
		p.detach("connection too slow")
	}
}

func (s *Session) broadcast(m protocol.Outbound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked(m)
}
