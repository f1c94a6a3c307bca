package bot

import "sync"

// turnLocks serializes message processing per identity. Turns for
// different identities run concurrently; a second message for the same
// identity queues behind the in-flight turn, so history ordering can
// never interleave. The rate limiter bounds how much can queue up.
type turnLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTurnLocks() *turnLocks {
	return &turnLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the identity's turn lock and returns its release func.
func (t *turnLocks) lock(identity string) func() {
	t.mu.Lock()
	l, ok := t.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		t.locks[identity] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
