package match

import (
	"sync"

	"github.com/mcoot/snookercounter/internal/model"
)

// matchLocks hands out one mutex per match so that mutations of the same match
// are serialised while different matches proceed in parallel. Entries are
// dropped once nobody holds or waits on them.
type matchLocks struct {
	mu    sync.Mutex
	locks map[model.MatchID]*matchLock
}

type matchLock struct {
	mu   sync.Mutex
	refs int
}

func newMatchLocks() *matchLocks {
	return &matchLocks{locks: make(map[model.MatchID]*matchLock)}
}

// Lock blocks until the match is free and returns the matching unlock func
func (l *matchLocks) Lock(id model.MatchID) func() {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &matchLock{}
		l.locks[id] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *matchLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
