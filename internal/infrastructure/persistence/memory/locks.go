package memory

import (
	"context"
	"sync"
)

// userLocks hands out one exclusive lock per user ID. Entries are
// reference-counted and dropped when nobody holds or waits for them.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sem  chan struct{}
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// acquire blocks until the lock for id is held or ctx is done.
func (l *userLocks) acquire(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	ul, ok := l.locks[id]
	if !ok {
		ul = &userLock{sem: make(chan struct{}, 1)}
		l.locks[id] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(id, ul)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ul.sem
			l.release(id, ul)
		})
	}, nil
}

func (l *userLocks) release(id string, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, id)
	}
}
