package cache

// Subscription keeps an entry alive and reports its changes. Changes
// coalesce: a receive means "state moved since you last looked", so read
// State after each one.
type Subscription struct {
	cache   *Cache
	key     Key
	changes chan struct{}
	closed  bool // guarded by cache.mu
}

// Key returns the entry this subscription watches.
func (s *Subscription) Key() Key {
	return s.key
}

// State returns the current state of the watched entry.
func (s *Subscription) State() State {
	return s.cache.stateOf(s.key)
}

// Changes is signalled whenever the entry changes. It is closed by Close.
func (s *Subscription) Changes() <-chan struct{} {
	return s.changes
}

// Refetch forces a new request for the entry, bypassing any request
// already in flight.
func (s *Subscription) Refetch() {
	s.cache.refetch(s.key)
}

// Close releases the subscription. The entry stays cached for the
// configured retention before it is discarded.
func (s *Subscription) Close() {
	s.cache.unsubscribe(s)
}

func (s *Subscription) notify() {
	if s.closed {
		return
	}
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Subscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.changes)
}
