package http

import (
	"net/http"

	"caro/internal/config"

	"github.com/gin-gonic/gin"
)

// Tunables is the read side of the server configuration.
type Tunables interface {
	Timing() config.Timing
	Weights() config.Weights
}

type ConfigHandler struct {
	tunables Tunables
}

func NewConfigHandler(t Tunables) *ConfigHandler {
	return &ConfigHandler{tunables: t}
}

type timingResponse struct {
	HeartbeatIntervalMs  int64 `json:"heartbeatIntervalMs"`
	HeartbeatTimeoutMs   int64 `json:"heartbeatTimeoutMs"`
	SweepIntervalMs      int64 `json:"sweepIntervalMs"`
	DefaultTurnTimeoutMs int64 `json:"defaultTurnTimeoutMs"`
	BotThinkDelayMs      int64 `json:"botThinkDelayMs"`
	RoundDelayMs         int64 `json:"roundDelayMs"`
	TurnUnitMs           int64 `json:"turnUnitMs"`
}

type weightsResponse struct {
	Attack        [6]int64 `json:"attack"`
	Defend        [6]int64 `json:"defend"`
	DefenseFactor float64  `json:"defenseFactor"`
}

// TimingHandler reports the delays clients should pace against, most
// importantly the heartbeat interval.
func (h *ConfigHandler) TimingHandler(c *gin.Context) {
	t := h.tunables.Timing()
	c.JSON(http.StatusOK, gin.H{"timing": timingResponse{
		HeartbeatIntervalMs:  t.HeartbeatInterval.Milliseconds(),
		HeartbeatTimeoutMs:   t.HeartbeatTimeout.Milliseconds(),
		SweepIntervalMs:      t.SweepInterval.Milliseconds(),
		DefaultTurnTimeoutMs: t.DefaultTurnTimeout.Milliseconds(),
		BotThinkDelayMs:      t.BotThinkDelay.Milliseconds(),
		RoundDelayMs:         t.RoundDelay.Milliseconds(),
		TurnUnitMs:           t.TurnUnit.Milliseconds(),
	}})
}

// WeightsHandler returns the bot heuristic weights.
func (h *ConfigHandler) WeightsHandler(c *gin.Context) {
	w := h.tunables.Weights()
	c.JSON(http.StatusOK, gin.H{"weights": weightsResponse{
		Attack:        w.Attack,
		Defend:        w.Defend,
		DefenseFactor: w.DefenseFactor,
	}})
}
