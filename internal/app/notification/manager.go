// Package notification fans player notifications out to subscribed streams.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/isaibox/internal/api/playerv1"
)

// DefaultSendTimeout bounds a single send to one subscriber.
const DefaultSendTimeout = 500 * time.Millisecond

// Stream is the sending side of one Subscribe call.
type Stream interface {
	Send(*playerv1.Notification) error
}

// Manager tracks subscribed streams. Sequence numbers are shared by
// broadcasts and the per-subscriber initial state.
type Manager struct {
	mu          sync.RWMutex
	streams     map[string]Stream
	seq         playerv1.Sequencer
	sendTimeout time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a manager with no subscribers.
func NewManager() *Manager {
	return &Manager{
		streams:     make(map[string]Stream),
		sendTimeout: DefaultSendTimeout,
		done:        make(chan struct{}),
	}
}

// Subscribe registers stream and returns its id.
func (m *Manager) Subscribe(stream Stream) string {
	id := uuid.NewString()

	m.mu.Lock()
	m.streams[id] = stream
	n := len(m.streams)
	m.mu.Unlock()

	zlog.Debug().Msgf("notification: subscribed %s (%d active)", id, n)
	return id
}

// Unsubscribe removes a stream. Unknown ids are ignored.
func (m *Manager) Unsubscribe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.streams, id)
}

// Stamp assigns the next sequence number to n.
func (m *Manager) Stamp(n *playerv1.Notification) *playerv1.Notification {
	return m.seq.Stamp(n)
}

// Broadcast stamps n and delivers it to every subscriber concurrently.
// It returns once each delivery finished or hit the send timeout.
func (m *Manager) Broadcast(n *playerv1.Notification) {
	m.Stamp(n)

	var wg sync.WaitGroup
	for id, stream := range m.snapshot() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.deliver(id, stream, n)
		}()
	}
	wg.Wait()
}

func (m *Manager) snapshot() map[string]Stream {
	m.mu.RLock()
	defer m.mu.RUnlock()

	streams := make(map[string]Stream, len(m.streams))
	for id, stream := range m.streams {
		streams[id] = stream
	}
	return streams
}

// deliver sends n to one stream. A failed stream is dropped; a slow one
// only loses this notification.
func (m *Manager) deliver(id string, stream Stream, n *playerv1.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		result <- stream.Send(n)
	}()

	select {
	case err := <-result:
		if err != nil {
			zlog.Debug().Err(err).Msgf("notification: dropping subscriber %s", id)
			m.Unsubscribe(id)
		}
	case <-ctx.Done():
		zlog.Debug().Msgf("notification: send to %s timed out", id)
	}
}

// Send delivers n to a single subscriber without stamping it.
// Unknown ids are ignored.
func (m *Manager) Send(id string, n *playerv1.Notification) error {
	m.mu.RLock()
	stream, ok := m.streams[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return stream.Send(n)
}

// SubscriberCount returns the number of subscribed streams.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.streams)
}

// Done is closed by Close.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close ends every subscription. It is safe to call more than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.streams)
}
