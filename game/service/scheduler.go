package service

import (
	"sync"
	"time"
)

// MismatchScheduler runs delayed mismatch resolutions, at most one per session
type MismatchScheduler interface {
	Schedule(sessionID string, delay time.Duration, fn func())
	Cancel(sessionID string)
	Stop()
}

// TimerScheduler implements MismatchScheduler with time.AfterFunc
type TimerScheduler struct {
	timers map[string]*time.Timer
	mu     sync.Mutex
}

// NewTimerScheduler creates a scheduler backed by runtime timers
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{
		timers: make(map[string]*time.Timer),
	}
}

// Schedule replaces any pending resolution for the session
func (s *TimerScheduler) Schedule(sessionID string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[sessionID]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[sessionID] == timer {
			delete(s.timers, sessionID)
		}
		s.mu.Unlock()
		fn()
	})
	s.timers[sessionID] = timer
}

// Cancel drops the pending resolution for the session, if any
func (s *TimerScheduler) Cancel(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[sessionID]; ok {
		t.Stop()
		delete(s.timers, sessionID)
	}
}

// Pending returns the number of scheduled resolutions
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending resolution
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
