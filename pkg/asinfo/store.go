package asinfo

import "sync/atomic"

// Store publishes the current snapshot to concurrent readers. Replacement is a
// single pointer swap, so readers never observe a mix of two snapshots and
// never wait on a writer; the expensive fetch that produces a new snapshot
// happens entirely outside the store.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns an empty store. Get returns nil until the first Replace.
func NewStore() *Store {
	return &Store{}
}

// Get returns the most recently committed snapshot, or nil before the first
// commit. The returned snapshot stays valid even after later replacements.
func (s *Store) Get() *Snapshot {
	return s.current.Load()
}

// Replace atomically commits a new snapshot. Subsequent Get calls return it;
// in-flight readers keep the snapshot they already hold.
func (s *Store) Replace(snapshot *Snapshot) {
	s.current.Store(snapshot)
}
