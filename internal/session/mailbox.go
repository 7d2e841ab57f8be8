package session

import (
	"fmt"

	"github.com/rs/zerolog"
)

type delivery struct {
	event string
	fn    func(Endpoint) error
}

// mailbox serialises pushes to one endpoint on its own goroutine so a slow
// client only ever delays itself.
type mailbox struct {
	username string
	endpoint Endpoint
	queue    chan delivery
	log      zerolog.Logger
}

func newMailbox(username string, ep Endpoint, size int, log zerolog.Logger) *mailbox {
	m := &mailbox{
		username: username,
		endpoint: ep,
		queue:    make(chan delivery, size),
		log:      log,
	}
	go m.run()
	return m
}

// offer enqueues d without blocking. It reports false when the queue is
// full.
func (m *mailbox) offer(d delivery) bool {
	select {
	case m.queue <- d:
		return true
	default:
		return false
	}
}

// close stops the mailbox once the queued pushes are delivered. Callers
// must guarantee no concurrent offer.
func (m *mailbox) close() {
	close(m.queue)
}

func (m *mailbox) run() {
	for d := range m.queue {
		if err := m.deliver(d); err != nil {
			m.log.Warn().
				Err(err).
				Str("username", m.username).
				Str("event", d.event).
				Msg("push failed")
		}
	}
}

func (m *mailbox) deliver(d delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrUnreachable, r)
		}
	}()
	if err := d.fn(m.endpoint); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return nil
}
