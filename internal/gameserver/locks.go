package gameserver

import "sync"

// lockTable hands out one mutex per character name. Entries are reference
// counted and removed once no caller holds or waits on them.
// All methods are safe for concurrent use.
type lockTable struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{entries: make(map[string]*lockEntry)}
}

// acquire blocks until the caller is the only writer for key and returns
// the function that releases it.
//
// Postcondition: The returned release must be called exactly once.
func (t *lockTable) acquire(key string) (release func()) {
	t.mu.Lock()
	e, ok := t.entries[key]
	if !ok {
		e = &lockEntry{}
		t.entries[key] = e
	}
	e.refs++
	t.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		t.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(t.entries, key)
		}
		t.mu.Unlock()
	}
}

// size returns the number of keys currently held or awaited.
func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
