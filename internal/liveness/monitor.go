// Package liveness evicts users whose client stopped sending heartbeats.
package liveness

import (
	"context"
	"sort"
	"time"

	"caro/internal/session"

	"github.com/rs/zerolog"
)

type Sessions interface {
	Heartbeats() map[string]time.Time
	RemoveIfIdle(username string, since time.Time) bool
	Broadcast(event string, fn func(session.Endpoint) error)
}

// Disconnector runs the room cleanup for a user whose session is gone.
type Disconnector interface {
	HandleDisconnect(username string)
}

type Monitor struct {
	sessions Sessions
	rooms    Disconnector
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

func NewMonitor(sessions Sessions, rooms Disconnector, interval, timeout time.Duration, log zerolog.Logger) *Monitor {
	return &Monitor{
		sessions: sessions,
		rooms:    rooms,
		interval: interval,
		timeout:  timeout,
		log:      log.With().Str("component", "liveness").Logger(),
	}
}

// Run sweeps every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info().Dur("interval", m.interval).Dur("timeout", m.timeout).Msg("liveness monitor started")
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("liveness monitor stopped")
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Sweep evicts every session silent for longer than the timeout and
// returns the evicted usernames. Each eviction runs the disconnect
// handling once; a heartbeat that lands mid-sweep keeps its session.
func (m *Monitor) Sweep(now time.Time) []string {
	cutoff := now.Add(-m.timeout)

	var evicted []string
	for name, last := range m.sessions.Heartbeats() {
		if !last.Before(cutoff) {
			continue
		}
		if !m.sessions.RemoveIfIdle(name, cutoff) {
			continue
		}
		m.log.Warn().
			Str("username", name).
			Dur("silent_for", now.Sub(last)).
			Msg("heartbeat timeout")
		evicted = append(evicted, name)
	}
	sort.Strings(evicted)

	for _, name := range evicted {
		m.rooms.HandleDisconnect(name)
	}

	m.sessions.Broadcast("ping", func(ep session.Endpoint) error {
		return ep.Ping()
	})
	return evicted
}
