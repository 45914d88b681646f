package services

import "sync"

// Simulator is where the vehicle notionally is: an index into a fixed list
// that wraps around. It knows nothing about what has been announced.
type Simulator[T any] struct {
	mu     sync.Mutex
	points []T
	index  int
}

func NewSimulator[T any](points []T) *Simulator[T] {
	return &Simulator[T]{points: points}
}

// Current returns the point at the current index. ok is false only when the
// list is empty.
func (s *Simulator[T]) Current() (point T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.points) == 0 {
		return point, false
	}
	return s.points[s.index], true
}

func (s *Simulator[T]) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.points) == 0 {
		return
	}
	s.index = (s.index + 1) % len(s.points)
}

// AdvanceAndCurrent advances and reads the new point under one lock.
func (s *Simulator[T]) AdvanceAndCurrent() (point T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.points) == 0 {
		return point, false
	}
	s.index = (s.index + 1) % len(s.points)
	return s.points[s.index], true
}

func (s *Simulator[T]) Reset() {
	s.mu.Lock()
	s.index = 0
	s.mu.Unlock()
}

func (s *Simulator[T]) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Simulator[T]) Len() int {
	return len(s.points)
}
