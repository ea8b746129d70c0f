// Package proctor accumulates integrity signals for the active interview
// loop. The only signal today is visibility loss (tab switches).
package proctor

import "sync"

// Source delivers page-visibility notifications. Subscribe returns a cancel
// function that stops delivery to the given callback.
type Source interface {
	Subscribe(fn func(hidden bool)) (cancel func())
}

// Monitor counts transitions to hidden for as long as it is started. The
// counter only ever increases and is never reset.
type Monitor struct {
	mu     sync.Mutex
	count  int
	cancel func()
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// Start subscribes to the visibility source. Starting an already started
// monitor replaces the subscription without touching the counter.
func (m *Monitor) Start(src Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = src.Subscribe(func(hidden bool) {
		if !hidden {
			return
		}
		m.mu.Lock()
		m.count++
		m.mu.Unlock()
	})
}

// Stop deregisters from the source. The accumulated count survives.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Violations returns the number of hidden transitions observed while started.
func (m *Monitor) Violations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// FuncSource adapts a broadcast registry into a Source; it is the glue used
// by UIs and tests to push visibility events.
type FuncSource struct {
	mu   sync.Mutex
	next int
	subs map[int]func(hidden bool)
}

func NewFuncSource() *FuncSource {
	return &FuncSource{subs: make(map[int]func(hidden bool))}
}

func (s *FuncSource) Subscribe(fn func(hidden bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Emit broadcasts one visibility change to all subscribers.
func (s *FuncSource) Emit(hidden bool) {
	s.mu.Lock()
	fns := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(hidden)
	}
}
