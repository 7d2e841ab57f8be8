package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

var (
	ErrNameTaken       = errors.New("username already logged in")
	ErrInvalidUsername = errors.New("invalid username")
	ErrUnreachable     = errors.New("endpoint unreachable")
)

const MaxUsernameLength = 32

type session struct {
	endpoint Endpoint
	lastSeen time.Time
	box      *mailbox
}

// Registry is the process-wide table of logged-in users.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	queueSize int
	now       func() time.Time
	log       zerolog.Logger
}

type Option func(*Registry)

// WithClock overrides the time source used for heartbeats.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(queueSize int, log zerolog.Logger, opts ...Option) *Registry {
	if queueSize <= 0 {
		queueSize = 1
	}
	r := &Registry{
		sessions:  map[string]*session{},
		queueSize: queueSize,
		now:       time.Now,
		log:       log.With().Str("component", "sessions").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func ValidateUsername(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidUsername)
	case len(name) > MaxUsernameLength:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidUsername, MaxUsernameLength)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidUsername)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character", ErrInvalidUsername)
		}
	}
	return nil
}

// Register adds a session with a fresh heartbeat. Names are matched
// exactly, case included.
func (r *Registry) Register(username string, ep Endpoint) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if ep == nil {
		return errors.New("nil endpoint")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[username]; ok {
		return fmt.Errorf("%w: %q", ErrNameTaken, username)
	}
	r.sessions[username] = &session{
		endpoint: ep,
		lastSeen: r.now(),
		box:      newMailbox(username, ep, r.queueSize, r.log),
	}
	r.log.Info().Str("username", username).Msg("session registered")
	return nil
}

// Remove drops the session and reports whether it existed. Pushes already
// queued for it are still delivered.
func (r *Registry) Remove(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(username)
}

func (r *Registry) removeLocked(username string) bool {
	s, ok := r.sessions[username]
	if !ok {
		return false
	}
	delete(r.sessions, username)
	s.box.close()
	r.log.Info().Str("username", username).Msg("session removed")
	return true
}

// RemoveIfIdle removes the session only if its last heartbeat is before
// since. The check and the removal are atomic, so of several racing
// callers at most one sees true.
func (r *Registry) RemoveIfIdle(username string, since time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[username]
	if !ok || !s.lastSeen.Before(since) {
		return false
	}
	return r.removeLocked(username)
}

// Touch records a heartbeat. Unknown users are ignored.
func (r *Registry) Touch(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[username]; ok {
		s.lastSeen = r.now()
	}
}

func (r *Registry) Endpoint(username string) (Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[username]
	if !ok {
		return nil, false
	}
	return s.endpoint, true
}

func (r *Registry) Contains(username string) bool {
	_, ok := r.Endpoint(username)
	return ok
}

// Usernames returns a sorted snapshot.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		out = append(out, name)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Heartbeats returns a snapshot of every session's last heartbeat.
func (r *Registry) Heartbeats() map[string]time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]time.Time, len(r.sessions))
	for name, s := range r.sessions {
		out[name] = s.lastSeen
	}
	return out
}

// Push queues fn for username's endpoint and returns immediately. It
// reports false when the user is not logged in or the queue is full.
func (r *Registry) Push(username, event string, fn func(Endpoint) error) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[username]
	if !ok {
		return false
	}
	return r.offer(username, s, delivery{event: event, fn: fn})
}

// Broadcast queues fn for every session. One slow or failing endpoint
// does not affect delivery to the others.
func (r *Registry) Broadcast(event string, fn func(Endpoint) error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, s := range r.sessions {
		r.offer(name, s, delivery{event: event, fn: fn})
	}
}

func (r *Registry) offer(username string, s *session, d delivery) bool {
	if s.box.offer(d) {
		return true
	}
	r.log.Warn().
		Err(ErrUnreachable).
		Str("username", username).
		Str("event", d.event).
		Msg("push queue full, dropping")
	return false
}
