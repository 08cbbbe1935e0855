package game

import (
	"sync"

	"go.uber.org/zap"
)

const subscriberBuffer = 16

// WinEvent is published when a session detects or is told about a win.
type WinEvent struct {
	Mode      Mode
	SessionID string
	Epoch     Token
	// Question is the player question that triggered a classic win.
	Question string
	// Guess is the confirmed reverse-mode guess.
	Guess string
}

// Signal fans win events out to any number of subscribers. Publish never
// blocks: a subscriber whose buffer is full misses the event.
type Signal struct {
	mu     sync.Mutex
	subs   map[int]chan WinEvent
	nextID int
	log    *zap.Logger
}

// NewSignal creates an empty Signal.
func NewSignal(log *zap.Logger) *Signal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Signal{subs: make(map[int]chan WinEvent), log: log}
}

// Subscribe registers a listener. The returned cancel func unregisters it and
// closes the channel.
func (s *Signal) Subscribe() (<-chan WinEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan WinEvent, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Publish delivers ev to every current subscriber.
func (s *Signal) Publish(ev WinEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn("win subscriber buffer full, dropping event",
				zap.Int("subscriber", id),
				zap.String("session_id", ev.SessionID))
		}
	}
}

// Close unregisters every subscriber.
func (s *Signal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
