package binding

import (
	"sync"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// Signaler lets a value converter force the bindings that use it to
// re-evaluate on demand.
type Signaler struct {
	mu        sync.Mutex
	listeners map[string][]reactive.PropertySubscriber
}

// NewSignaler creates an empty signaler.
func NewSignaler() *Signaler {
	return &Signaler{listeners: make(map[string][]reactive.PropertySubscriber)}
}

// AddSignalListener registers l for name. Adding the same listener twice
// has no effect.
func (s *Signaler) AddSignalListener(name string, l reactive.PropertySubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := l.ID()
	for _, existing := range s.listeners[name] {
		if existing.ID() == id {
			return
		}
	}
	s.listeners[name] = append(s.listeners[name], l)
}

// RemoveSignalListener deregisters l from name.
func (s *Signaler) RemoveSignalListener(name string, l reactive.PropertySubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.listeners[name]
	id := l.ID()
	for i, existing := range subs {
		if existing.ID() == id {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(s.listeners, name)
		return
	}
	s.listeners[name] = subs
}

// ListenerCount returns how many listeners name has.
func (s *Signaler) ListenerCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners[name])
}

// DispatchSignal notifies every listener of name. It returns how many
// listeners were notified.
func (s *Signaler) DispatchSignal(name string, flags reactive.Flags) int {
	s.mu.Lock()
	subs := make([]reactive.PropertySubscriber, len(s.listeners[name]))
	copy(subs, s.listeners[name])
	s.mu.Unlock()

	for _, l := range subs {
		l.HandleChange(reactive.Undefined, reactive.Undefined, flags|reactive.FromSignal|reactive.UpdateTargetInstance)
	}
	return len(subs)
}
