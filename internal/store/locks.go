package store

import "sync"

// orgLocks hands out one mutex per organization so that engine operations on
// the same org serialize while operations on different orgs never contend.
// Entries are never evicted; the map is bounded by the number of organizations
// the process has touched.
type orgLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newOrgLocks() *orgLocks {
	return &orgLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *orgLocks) get(orgID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[orgID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[orgID] = lock
	}
	return lock
}
