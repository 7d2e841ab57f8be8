package session_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"caro/internal/session"
	"caro/internal/session/sessiontest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(opts ...session.Option) *session.Registry {
	return session.NewRegistry(16, zerolog.Nop(), opts...)
}

func ping(ep session.Endpoint) error { return ep.Ping() }

func TestRegister_ConcurrentSameName(t *testing.T) {
	reg := newRegistry()

	const n = 50
	var wg sync.WaitGroup
	var ok, taken atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := reg.Register("alice", sessiontest.NewRecorder())
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, session.ErrNameTaken):
				taken.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(n-1), taken.Load())
	assert.Equal(t, []string{"alice"}, reg.Usernames())
}

func TestRegister_CaseSensitive(t *testing.T) {
	reg := newRegistry()
	require.NoError(t, reg.Register("alice", sessiontest.NewRecorder()))
	require.NoError(t, reg.Register("Alice", sessiontest.NewRecorder()))
	assert.Equal(t, []string{"Alice", "alice"}, reg.Usernames())
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "alice", false},
		{"unicode", "người chơi", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", "abcdefghijklmnopqrstuvwxyz0123456789", true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), true},
		{"control char", "bad\nname", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := session.ValidateUsername(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, session.ErrInvalidUsername)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRemove_Idempotent(t *testing.T) {
	reg := newRegistry()
	require.NoError(t, reg.Register("alice", sessiontest.NewRecorder()))

	assert.True(t, reg.Remove("alice"))
	assert.False(t, reg.Remove("alice"))
	assert.False(t, reg.Remove("nobody"))

	_, ok := reg.Endpoint("alice")
	assert.False(t, ok)
}

func TestTouch_DoesNotResurrect(t *testing.T) {
	reg := newRegistry()
	require.NoError(t, reg.Register("alice", sessiontest.NewRecorder()))
	reg.Remove("alice")

	reg.Touch("alice")
	assert.False(t, reg.Contains("alice"))
	assert.Empty(t, reg.Heartbeats())
}

func TestRemoveIfIdle(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	reg := newRegistry(session.WithClock(clock))
	require.NoError(t, reg.Register("alice", sessiontest.NewRecorder()))
	registeredAt := clock()

	advance(5 * time.Second)
	reg.Touch("alice")
	assert.Equal(t, clock(), reg.Heartbeats()["alice"])

	// The heartbeat moved past the cutoff, so the session survives.
	assert.False(t, reg.RemoveIfIdle("alice", registeredAt.Add(time.Second)))
	assert.True(t, reg.Contains("alice"))

	assert.True(t, reg.RemoveIfIdle("alice", clock().Add(time.Second)))
	assert.False(t, reg.RemoveIfIdle("alice", clock().Add(time.Second)))
}

func TestRemoveIfIdle_ExactlyOnceUnderRace(t *testing.T) {
	reg := newRegistry()
	require.NoError(t, reg.Register("alice", sessiontest.NewRecorder()))
	cutoff := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	var removed atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.RemoveIfIdle("alice", cutoff) {
				removed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), removed.Load())
}

func TestBroadcast_FailingEndpointDoesNotAffectOthers(t *testing.T) {
	reg := newRegistry()
	bad := sessiontest.NewRecorder()
	bad.Fail()
	stuck := sessiontest.NewRecorder()
	release := stuck.Block()
	defer release()
	good := sessiontest.NewRecorder()

	require.NoError(t, reg.Register("bad", bad))
	require.NoError(t, reg.Register("stuck", stuck))
	require.NoError(t, reg.Register("good", good))

	done := make(chan struct{})
	go func() {
		reg.Broadcast("ping", ping)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a stuck endpoint")
	}

	require.Eventually(t, func() bool { return good.Pings() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return bad.Received() == 1 }, time.Second, 5*time.Millisecond)

	// A failed delivery never removes the session.
	assert.ElementsMatch(t, []string{"bad", "good", "stuck"}, reg.Usernames())
}

func TestPush_FullQueueDrops(t *testing.T) {
	reg := session.NewRegistry(1, zerolog.Nop())
	rec := sessiontest.NewRecorder()
	release := rec.Block()
	require.NoError(t, reg.Register("alice", rec))

	require.Eventually(t, func() bool {
		return !reg.Push("alice", "ping", ping)
	}, time.Second, time.Millisecond)

	release()
	require.Eventually(t, func() bool { return rec.Pings() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestPush_UnknownUser(t *testing.T) {
	reg := newRegistry()
	assert.False(t, reg.Push("ghost", "ping", ping))
}

func TestPush_QueuedBeforeRemoveIsDelivered(t *testing.T) {
	reg := newRegistry()
	rec := sessiontest.NewRecorder()
	require.NoError(t, reg.Register("alice", rec))

	require.True(t, reg.Push("alice", "kicked", func(ep session.Endpoint) error {
		return ep.OnKicked("bye")
	}))
	reg.Remove("alice")

	require.Eventually(t, func() bool { return len(rec.Kicked()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	reg := newRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("user-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = reg.Register(name, sessiontest.NewRecorder())
				reg.Touch(name)
				reg.Broadcast("ping", ping)
				_ = reg.Usernames()
				reg.Remove(name)
			}
		}()
	}
	wg.Wait()
	assert.Empty(t, reg.Usernames())
}
