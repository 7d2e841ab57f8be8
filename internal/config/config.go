package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Weights tunes the bot move heuristic. Index i holds the weight for a
// run of length i (index 0 is unused).
type Weights struct {
	Attack        [6]int64
	Defend        [6]int64
	DefenseFactor float64
}

// DefaultWeights favours blocking an opponent's four over extending the
// bot's own three.
func DefaultWeights() Weights {
	return Weights{
		Attack:        [6]int64{0, 10, 100, 1000, 10000, 100000},
		Defend:        [6]int64{0, 50, 500, 5000, 80000, 90000},
		DefenseFactor: 1.2,
	}
}

// Timing holds every delay the core schedules against.
type Timing struct {
	HeartbeatInterval  time.Duration // expected client heartbeat period
	HeartbeatTimeout   time.Duration
	SweepInterval      time.Duration
	DefaultTurnTimeout time.Duration
	BotThinkDelay      time.Duration
	RoundDelay         time.Duration
	// TurnUnit converts Settings.TimePerTurn into a duration.
	TurnUnit time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		HeartbeatInterval:  3 * time.Second,
		HeartbeatTimeout:   10 * time.Second,
		SweepInterval:      3 * time.Second,
		DefaultTurnTimeout: 10 * time.Second,
		BotThinkDelay:      time.Second,
		RoundDelay:         5 * time.Second,
		TurnUnit:           time.Second,
	}
}

// Validate checks the invariants the liveness monitor and turn timers rely on.
func (t Timing) Validate() error {
	durations := map[string]time.Duration{
		"HEARTBEAT_INTERVAL":   t.HeartbeatInterval,
		"HEARTBEAT_TIMEOUT":    t.HeartbeatTimeout,
		"SWEEP_INTERVAL":       t.SweepInterval,
		"DEFAULT_TURN_TIMEOUT": t.DefaultTurnTimeout,
		"TURN_UNIT":            t.TurnUnit,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	if t.BotThinkDelay < 0 || t.RoundDelay < 0 {
		return errors.New("BOT_THINK_DELAY and ROUND_DELAY must not be negative")
	}
	if t.HeartbeatTimeout < 2*t.HeartbeatInterval {
		return fmt.Errorf("HEARTBEAT_TIMEOUT (%s) must be at least twice HEARTBEAT_INTERVAL (%s)",
			t.HeartbeatTimeout, t.HeartbeatInterval)
	}
	return nil
}

type Config struct {
	HTTPAddr      string
	LogLevel      string
	LogFile       string
	PushQueueSize int
	Timing        Timing
	Weights       Weights
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, is applied first without overriding
// variables that are already set.
func Load() (Config, error) {
	_ = godotenv.Load()

	t := DefaultTiming()
	w := DefaultWeights()
	for i := 1; i <= 5; i++ {
		w.Attack[i] = getenvInt64(fmt.Sprintf("W_ATTACK_%d", i), w.Attack[i])
		w.Defend[i] = getenvInt64(fmt.Sprintf("W_DEFEND_%d", i), w.Defend[i])
	}
	w.DefenseFactor = getenvFloat("W_DEFENSE_FACTOR", w.DefenseFactor)

	cfg := Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFile:       getenv("LOG_FILE", ""),
		PushQueueSize: getenvInt("PUSH_QUEUE_SIZE", 64),
		Timing: Timing{
			HeartbeatInterval:  getenvDuration("HEARTBEAT_INTERVAL", t.HeartbeatInterval),
			HeartbeatTimeout:   getenvDuration("HEARTBEAT_TIMEOUT", t.HeartbeatTimeout),
			SweepInterval:      getenvDuration("SWEEP_INTERVAL", t.SweepInterval),
			DefaultTurnTimeout: getenvDuration("DEFAULT_TURN_TIMEOUT", t.DefaultTurnTimeout),
			BotThinkDelay:      getenvDuration("BOT_THINK_DELAY", t.BotThinkDelay),
			RoundDelay:         getenvDuration("ROUND_DELAY", t.RoundDelay),
			TurnUnit:           t.TurnUnit,
		},
		Weights: w,
	}
	if cfg.PushQueueSize <= 0 {
		return Config{}, fmt.Errorf("PUSH_QUEUE_SIZE must be positive, got %d", cfg.PushQueueSize)
	}
	if err := cfg.Timing.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
