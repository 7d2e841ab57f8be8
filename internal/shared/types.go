package shared

import (
	"encoding/json"
	"time"

	"caro/internal/game"
)

// BotName is how the bot appears to clients.
const BotName = "BOT"

type Settings struct {
	BoardSize   int `json:"boardSize"`
	TotalRounds int `json:"totalRounds"`
	TimePerTurn int `json:"timePerTurnSeconds"`
}

func DefaultSettings() Settings {
	return Settings{BoardSize: 15, TotalRounds: 3, TimePerTurn: 30}
}

// Normalize clamps the board size into the playable range and forces at
// least one round. TimePerTurn is left as is; a non-positive value means
// the server default applies.
func (s Settings) Normalize() Settings {
	switch {
	case s.BoardSize < game.MinBoardSize:
		s.BoardSize = game.MinBoardSize
	case s.BoardSize > game.MaxBoardSize:
		s.BoardSize = game.MaxBoardSize
	}
	if s.TotalRounds < 1 {
		s.TotalRounds = 1
	}
	return s
}

type participantKind uint8

const (
	nobody participantKind = iota
	human
	bot
)

// Participant identifies who sits in a room slot: a named human or the
// server-controlled bot. The zero value is an empty slot.
type Participant struct {
	kind participantKind
	name string
}

func Human(username string) Participant { return Participant{kind: human, name: username} }

func Bot() Participant { return Participant{kind: bot} }

func (p Participant) IsZero() bool { return p.kind == nobody }

func (p Participant) IsBot() bool { return p.kind == bot }

// IsHuman reports whether p is the human called username. A human who
// picked the bot's display name never matches the bot and vice versa.
func (p Participant) IsHuman(username string) bool {
	return p.kind == human && p.name == username
}

// Name is the display name, "" for an empty slot.
func (p Participant) Name() string {
	switch p.kind {
	case human:
		return p.name
	case bot:
		return BotName
	}
	return ""
}

func (p Participant) String() string { return p.Name() }

func (p Participant) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Name())
}

type GameState struct {
	Board  game.Board `json:"board"`
	Turn   string     `json:"turn"`
	Winner string     `json:"winner,omitempty"`
	Draw   bool       `json:"draw"`
	Round  int        `json:"round"`
}

type ChatMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomInfo is the point-in-time view of a room pushed to clients and
// listed in the lobby.
type RoomInfo struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Host         Participant   `json:"host"`
	Guest        Participant   `json:"guest"`
	BotMode      bool          `json:"botMode"`
	Settings     Settings      `json:"settings"`
	Started      bool          `json:"started"`
	Phase        string        `json:"phase"`
	CurrentRound int           `json:"currentRound"`
	HostScore    int           `json:"hostScore"`
	GuestScore   int           `json:"guestScore"`
	ChatHistory  []ChatMessage `json:"chatHistory"`
}
