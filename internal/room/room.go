package room

import (
	"sync"
	"time"

	"caro/internal/game"
	"caro/internal/shared"
)

type Phase int

const (
	PhaseSetup Phase = iota
	PhaseInRound
	PhaseIntermission
)

func (p Phase) String() string {
	switch p {
	case PhaseInRound:
		return "in_round"
	case PhaseIntermission:
		return "intermission"
	default:
		return "setup"
	}
}

// side is a seat in the room. The host plays X, the guest plays O.
type side int

const (
	hostSide side = iota
	guestSide
)

func (s side) other() side { return 1 - s }

func (s side) symbol() game.Cell {
	if s == hostSide {
		return game.X
	}
	return game.O
}

// MaxChatHistory bounds the history kept per room. Older messages are
// dropped first.
const MaxChatHistory = 200

// Room is one match lobby. Every field below mu is guarded by it; id,
// name and createdAt never change.
type Room struct {
	id        string
	name      string
	createdAt time.Time

	mu         sync.Mutex
	closed     bool
	host       shared.Participant
	guest      shared.Participant
	botMode    bool
	settings   shared.Settings
	phase      Phase
	board      game.Board
	turn       side
	winner     shared.Participant
	draw       bool
	round      int
	hostScore  int
	guestScore int
	chat       []shared.ChatMessage

	// epoch changes whenever a match is started, stopped or reset, so a
	// pending round advance can tell it is stale.
	epoch uint64
	// ply changes on every move and every turn flip; turn timers and bot
	// moves carry the value they were armed at.
	ply      uint64
	timer    *time.Timer
	botTimer *time.Timer
}

func New(id, host string, s shared.Settings, now time.Time) *Room {
	return &Room{
		id:        id,
		name:      host + "'s room",
		createdAt: now,
		host:      shared.Human(host),
		settings:  s,
		board:     game.NewBoard(s.BoardSize),
		round:     1,
	}
}

func (r *Room) ID() string { return r.id }

func (r *Room) CreatedAt() time.Time { return r.createdAt }

// HasParticipant reports whether username is the human host or guest of
// an open room.
func (r *Room) HasParticipant(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.closed && (r.host.IsHuman(username) || r.guest.IsHuman(username))
}

// Info returns a snapshot of the room. ok is false once the room has been
// closed.
func (r *Room) Info() (info shared.RoomInfo, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked(), !r.closed
}

func (r *Room) started() bool { return r.phase != PhaseSetup }

func (r *Room) seat(s side) shared.Participant {
	if s == hostSide {
		return r.host
	}
	return r.guest
}

func (r *Room) sideOf(username string) (side, bool) {
	switch {
	case r.host.IsHuman(username):
		return hostSide, true
	case r.guest.IsHuman(username):
		return guestSide, true
	}
	return 0, false
}

// humans lists the human participants, the ones with a session to push to.
func (r *Room) humans() []string {
	out := []string{r.host.Name()}
	if !r.guest.IsZero() && !r.guest.IsBot() {
		out = append(out, r.guest.Name())
	}
	return out
}

func (r *Room) infoLocked() shared.RoomInfo {
	return shared.RoomInfo{
		ID:           r.id,
		Name:         r.name,
		Host:         r.host,
		Guest:        r.guest,
		BotMode:      r.botMode,
		Settings:     r.settings,
		Started:      r.started(),
		Phase:        r.phase.String(),
		CurrentRound: r.round,
		HostScore:    r.hostScore,
		GuestScore:   r.guestScore,
		ChatHistory:  append([]shared.ChatMessage(nil), r.chat...),
	}
}

func (r *Room) stateLocked() shared.GameState {
	return shared.GameState{
		Board:  r.board.Clone(),
		Turn:   r.seat(r.turn).Name(),
		Winner: r.winner.Name(),
		Draw:   r.draw,
		Round:  r.round,
	}
}

// starter returns who opens the current round: the host on odd rounds,
// the guest on even ones.
func (r *Room) starter() side {
	if r.round%2 == 1 {
		return hostSide
	}
	return guestSide
}

func (r *Room) resetBoardLocked() {
	r.board = game.NewBoard(r.settings.BoardSize)
	r.turn = r.starter()
	r.winner = shared.Participant{}
	r.draw = false
	r.ply++
}

func (r *Room) stopTimersLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.botTimer != nil {
		r.botTimer.Stop()
		r.botTimer = nil
	}
}

// stopLocked abandons any running match. A round that already ended is
// settled first, so its score is never replayed: the next start opens the
// following round, or a fresh match after the last one.
func (r *Room) stopLocked() {
	settled := r.phase == PhaseIntermission
	r.stopTimersLocked()
	r.phase = PhaseSetup
	r.epoch++
	r.ply++
	if !settled {
		return
	}
	if r.round < r.settings.TotalRounds {
		r.round++
		r.resetBoardLocked()
		return
	}
	r.clearMatchLocked()
}

func (r *Room) resetMatchLocked() {
	r.stopLocked()
	r.clearMatchLocked()
}

func (r *Room) clearMatchLocked() {
	r.round = 1
	r.hostScore = 0
	r.guestScore = 0
	r.board = game.NewBoard(r.settings.BoardSize)
	r.turn = hostSide
	r.winner = shared.Participant{}
	r.draw = false
}

func (r *Room) closeLocked() {
	r.stopTimersLocked()
	r.closed = true
	r.epoch++
	r.ply++
}

func (r *Room) appendChatLocked(msg shared.ChatMessage) {
	r.chat = append(r.chat, msg)
	if over := len(r.chat) - MaxChatHistory; over > 0 {
		r.chat = append([]shared.ChatMessage(nil), r.chat[over:]...)
	}
}
