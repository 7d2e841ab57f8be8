package room

import (
	"fmt"
	"time"

	"caro/internal/game"
	"caro/internal/shared"
)

func (m *Manager) StartGame(username, roomID string) error {
	r, err := m.get(roomID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if err := r.checkHostLocked(username); err != nil {
		r.mu.Unlock()
		return err
	}
	if r.phase != PhaseSetup {
		r.mu.Unlock()
		return fmt.Errorf("%w: already started", ErrInvalidState)
	}
	if r.guest.IsZero() {
		r.mu.Unlock()
		return fmt.Errorf("%w: waiting for an opponent", ErrInvalidState)
	}
	r.epoch++
	m.beginRoundLocked(r)
	r.mu.Unlock()

	m.log.Info().Str("room_id", roomID).Msg("match started")
	m.broadcastLobby()
	return nil
}

// PlaceMove plays username's symbol at (row, col). Moves out of turn, on
// an occupied or missing cell, or outside a round are ignored so that
// late and duplicate requests are harmless.
func (m *Manager) PlaceMove(username, roomID string, row, col int) error {
	r, err := m.get(roomID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	s, ok := r.sideOf(username)
	if !ok {
		return fmt.Errorf("%w: not in this room", ErrUnauthorized)
	}
	if r.phase != PhaseInRound || r.turn != s {
		return nil
	}
	m.applyMoveLocked(r, s, row, col)
	return nil
}

func (m *Manager) beginRoundLocked(r *Room) {
	r.phase = PhaseInRound
	r.resetBoardLocked()
	m.armTurnLocked(r)

	to := r.humans()
	m.pushRoomInfo(r.infoLocked(), to...)
	m.pushState(r.stateLocked(), to...)
}

// applyMoveLocked places the symbol of s and advances the state machine.
// It reports false when the cell cannot be played.
func (m *Manager) applyMoveLocked(r *Room, s side, row, col int) bool {
	if !r.board.Place(row, col, s.symbol()) {
		return false
	}
	r.stopTimersLocked()
	r.ply++

	switch {
	case game.CheckWin(r.board, row, col, s.symbol()):
		r.winner = r.seat(s)
		if s == hostSide {
			r.hostScore++
		} else {
			r.guestScore++
		}
		m.pushState(r.stateLocked(), r.humans()...)
		m.endRoundLocked(r)
	case game.IsFull(r.board):
		r.draw = true
		m.pushState(r.stateLocked(), r.humans()...)
		m.endRoundLocked(r)
	default:
		r.turn = s.other()
		m.armTurnLocked(r)
		m.pushState(r.stateLocked(), r.humans()...)
	}
	return true
}

func (m *Manager) turnTimeout(s shared.Settings) time.Duration {
	if s.TimePerTurn <= 0 {
		return m.timing.DefaultTurnTimeout
	}
	return time.Duration(s.TimePerTurn) * m.timing.TurnUnit
}

// armTurnLocked starts the timer for whoever holds the turn, replacing any
// pending one, and schedules the bot when it is the bot's move.
func (m *Manager) armTurnLocked(r *Room) {
	r.stopTimersLocked()
	ply := r.ply
	r.timer = time.AfterFunc(m.turnTimeout(r.settings), func() {
		m.onTurnTimeout(r, ply)
	})
	if r.turn == guestSide && r.guest.IsBot() {
		r.botTimer = time.AfterFunc(m.timing.BotThinkDelay, func() {
			m.onBotTurn(r, ply)
		})
	}
}

// onTurnTimeout skips the turn of a player who did not move in time. The
// ply check drops timers that lost the race against a move.
func (m *Manager) onTurnTimeout(r *Room, ply uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.phase != PhaseInRound || r.ply != ply {
		return
	}

	skipped := r.seat(r.turn).Name()
	r.turn = r.turn.other()
	r.ply++
	m.armTurnLocked(r)
	m.pushState(r.stateLocked(), r.humans()...)
	m.log.Info().Str("room_id", r.id).Str("username", skipped).Msg("turn timed out")
}

func (m *Manager) onBotTurn(r *Room, ply uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.phase != PhaseInRound || r.ply != ply {
		return
	}
	if r.turn != guestSide || !r.guest.IsBot() {
		return
	}

	mv, ok := game.BestMove(r.board, guestSide.symbol(), hostSide.symbol(), m.weights)
	if !ok {
		return
	}
	if !m.applyMoveLocked(r, guestSide, mv.Row, mv.Col) {
		m.log.Error().Str("room_id", r.id).Int("row", mv.Row).Int("col", mv.Col).Msg("bot chose an unplayable cell")
	}
}

func (m *Manager) endRoundLocked(r *Room) {
	r.phase = PhaseIntermission
	m.pushEnded(m.roundSummaryLocked(r), r.humans()...)

	epoch := r.epoch
	r.timer = time.AfterFunc(m.timing.RoundDelay, func() {
		m.onRoundDelay(r, epoch)
	})
	m.log.Info().
		Str("room_id", r.id).
		Int("round", r.round).
		Str("winner", r.winner.Name()).
		Bool("draw", r.draw).
		Msg("round over")
}

func (m *Manager) roundSummaryLocked(r *Room) string {
	if r.round < r.settings.TotalRounds {
		result := "Winner: " + r.winner.Name()
		if r.draw {
			result = "It's a draw."
		}
		return fmt.Sprintf("Round %d over! %s\nNext round starts in %d seconds...",
			r.round, result, int(m.timing.RoundDelay.Round(time.Second)/time.Second))
	}

	var result string
	switch {
	case r.hostScore > r.guestScore:
		result = "Final winner: " + r.host.Name()
	case r.guestScore > r.hostScore:
		result = "Final winner: " + r.guest.Name()
	default:
		result = "The match is a draw."
	}
	return fmt.Sprintf("MATCH OVER! %s (%d - %d)\nReturning to room setup...",
		result, r.hostScore, r.guestScore)
}

// onRoundDelay starts the next round, or resets the room once the match
// is over. A room closed or stopped during the delay is left alone.
func (m *Manager) onRoundDelay(r *Room, epoch uint64) {
	r.mu.Lock()
	if r.closed || r.phase != PhaseIntermission || r.epoch != epoch {
		r.mu.Unlock()
		return
	}

	if r.round < r.settings.TotalRounds {
		r.round++
		round := r.round
		m.beginRoundLocked(r)
		r.mu.Unlock()
		m.log.Info().Str("room_id", r.id).Int("round", round).Msg("next round")
		return
	}

	r.resetMatchLocked()
	to := r.humans()
	m.pushRoomInfo(r.infoLocked(), to...)
	m.pushState(r.stateLocked(), to...)
	r.mu.Unlock()

	m.log.Info().Str("room_id", r.id).Msg("match over")
	m.broadcastLobby()
}
