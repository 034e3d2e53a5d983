package services

import (
	"sync"
	"time"
)

// typingTracker keeps one cancellable idle timer per (conversation, user)
// key. Touching an existing key resets its timer instead of stacking a
// second one, which is what makes the typing indicator debounce.
type typingTracker struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newTypingTracker() *typingTracker {
	return &typingTracker{
		timers: make(map[string]*time.Timer),
	}
}

// Touch (re)arms the idle timer for key. When the timer fires without
// another Touch, expire runs and the key is forgotten.
func (t *typingTracker) Touch(key string, idle time.Duration, expire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.timers[key]; ok {
		timer.Reset(idle)
		return
	}

	t.timers[key] = time.AfterFunc(idle, func() {
		t.mu.Lock()
		delete(t.timers, key)
		t.mu.Unlock()

		expire()
	})
}

// Cancel stops the idle timer for key, if armed. Returns whether a timer
// was pending.
func (t *typingTracker) Cancel(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.timers[key]
	if !ok {
		return false
	}

	timer.Stop()
	delete(t.timers, key)
	return true
}

// CancelAll stops every pending timer. Used on shutdown.
func (t *typingTracker) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}
