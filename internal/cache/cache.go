package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle stage of a cache entry.
type Status int

const (
	StatusUninitialized Status = iota
	StatusPending
	StatusFulfilled
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFulfilled:
		return "fulfilled"
	case StatusRejected:
		return "rejected"
	default:
		return "uninitialized"
	}
}

// State is a copy of an entry as seen by a consumer. Data survives a failed
// refetch, so Err and Data can both be set.
type State struct {
	Status      Status
	Response    Response
	Err         error
	Stale       bool
	Fetching    bool
	FulfilledAt time.Time
}

// HasData reports whether a response has ever been applied.
func (s State) HasData() bool {
	return !s.FulfilledAt.IsZero()
}

// IsLoading reports a first load: a request is running and nothing has
// been received yet.
func (s State) IsLoading() bool {
	return !s.HasData() && (s.Fetching || s.Status == StatusPending || s.Status == StatusUninitialized)
}

// EventKind tells observers which kind of request finished.
type EventKind int

const (
	EventQuery EventKind = iota
	EventMutation
)

// Event describes a finished request.
type Event struct {
	Kind    EventKind
	Key     Key
	Err     error
	Dropped bool // response arrived out of order or after invalidation
}

// Options tune a Cache.
type Options struct {
	// KeepUnusedFor is how long an entry without subscribers is kept for
	// reuse. Zero uses DefaultKeepUnusedFor; negative discards immediately.
	KeepUnusedFor time.Duration
	Logger        *slog.Logger
	// Observer, when set, is called after every query and mutation.
	Observer func(Event)
	Now      func() time.Time
}

// DefaultKeepUnusedFor matches the retention most data-fetching caches use.
const DefaultKeepUnusedFor = 60 * time.Second

type entry struct {
	key      Key
	endpoint Endpoint
	state    State
	stale    bool
	applied  uint64 // sequence of the last applied response
	floor    uint64 // responses at or below this sequence are ignored
	inflight int
	refs     int
	subs     map[*Subscription]struct{}
	evict    *time.Timer
}

// Cache mediates reads and writes against a Transport. Identical queries
// in flight share one request, results are stored per (endpoint, arg) and
// tagged, and mutations invalidate tags so subscribed entries refetch.
//
// A Cache is safe for concurrent use.
type Cache struct {
	ctx       context.Context
	cancel    context.CancelFunc
	transport Transport
	logger    *slog.Logger
	observer  func(Event)
	now       func() time.Time
	keep      time.Duration

	group singleflight.Group

	mu      sync.Mutex
	seq     uint64
	entries map[Key]*entry
}

// New builds a Cache. Shared fetches run on ctx, not on any single
// caller's context; cancelling ctx (or calling Close) aborts them.
func New(ctx context.Context, transport Transport, opts Options) *Cache {
	if ctx == nil {
		ctx = context.Background()
	}
	cctx, cancel := context.WithCancel(ctx)

	keep := opts.KeepUnusedFor
	if keep == 0 {
		keep = DefaultKeepUnusedFor
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Cache{
		ctx:       cctx,
		cancel:    cancel,
		transport: transport,
		logger:    logger,
		observer:  opts.Observer,
		now:       now,
		keep:      keep,
		entries:   make(map[Key]*entry),
	}
}

// Close aborts in-flight fetches and drops every entry.
func (c *Cache) Close() {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.evict != nil {
			e.evict.Stop()
		}
		for sub := range e.subs {
			sub.closeLocked()
		}
		delete(c.entries, key)
	}
}

// Query returns the result for endpoint and arg. A fresh cached result is
// returned without a request; otherwise the call joins an identical request
// in flight or starts one.
func (c *Cache) Query(ctx context.Context, ep Endpoint, arg string) (Response, error) {
	if ep.Kind != KindQuery {
		return Response{}, fmt.Errorf("endpoint %s is not a query", ep.Name)
	}
	key := Key{Endpoint: ep.Name, Arg: arg}

	c.mu.Lock()
	e := c.acquireLocked(key, ep)
	if e.state.Status == StatusFulfilled && !e.stale {
		resp := e.state.Response
		c.releaseLocked(e)
		c.mu.Unlock()
		c.logger.Debug("cache hit", "key", key.String())
		return resp, nil
	}
	c.markFetchingLocked(e)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.releaseLocked(e)
		c.mu.Unlock()
	}()

	ch := c.startFetch(key, ep)
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Response{}, res.Err
		}
		return res.Val.(Response), nil
	}
}

// Subscribe registers interest in endpoint and arg. The entry is fetched
// when it has no usable data and kept up to date while the subscription is
// open. Call Close when done.
//
// Mutations cannot be watched: for a mutation endpoint the returned
// subscription is already closed and never issues a request.
func (c *Cache) Subscribe(ep Endpoint, arg string) *Subscription {
	key := Key{Endpoint: ep.Name, Arg: arg}
	sub := &Subscription{
		cache:   c,
		key:     key,
		changes: make(chan struct{}, 1),
	}

	c.mu.Lock()
	if ep.Kind != KindQuery {
		sub.closeLocked()
		c.mu.Unlock()
		c.logger.Warn("subscribe to mutation endpoint ignored", "endpoint", ep.Name)
		return sub
	}
	e := c.acquireLocked(key, ep)
	e.subs[sub] = struct{}{}
	needFetch := e.stale || e.state.Status == StatusUninitialized || e.state.Status == StatusRejected
	if needFetch {
		c.markFetchingLocked(e)
	}
	c.mu.Unlock()

	if needFetch {
		c.startFetch(key, ep)
	}
	return sub
}

// Mutate performs a mutation. On success every entry carrying one of the
// endpoint's invalidated tags is invalidated; on failure the cache is left
// untouched.
func (c *Cache) Mutate(ctx context.Context, ep Endpoint, arg string, body any) (Response, error) {
	if ep.Kind != KindMutation {
		return Response{}, fmt.Errorf("endpoint %s is not a mutation", ep.Name)
	}
	key := Key{Endpoint: ep.Name, Arg: arg}

	resp, err := c.transport.Do(ctx, ep.Method, ep.Resolve(arg), body)
	c.observe(Event{Kind: EventMutation, Key: key, Err: err})
	if err != nil {
		c.logger.Warn("mutation failed", "key", key.String(), "error", err)
		return Response{}, err
	}
	c.logger.Debug("mutation committed", "key", key.String(), "invalidates", ep.Invalidates)
	c.Invalidate(ep.Invalidates...)
	return resp, nil
}

// Invalidate marks every entry providing one of tags stale. Subscribed
// entries refetch right away; unsubscribed ones are dropped.
func (c *Cache) Invalidate(tags ...Tag) {
	if len(tags) == 0 {
		return
	}

	type target struct {
		key Key
		ep  Endpoint
	}
	var refetch []target

	c.mu.Lock()
	for key, e := range c.entries {
		if !e.endpoint.provides(tags) {
			continue
		}
		// Anything already in flight predates the invalidation.
		e.floor = c.seq
		c.group.Forget(key.String())
		if e.refs == 0 {
			c.removeLocked(e)
			continue
		}
		e.stale = true
		e.state.Stale = true
		c.markFetchingLocked(e)
		c.notifyLocked(e)
		refetch = append(refetch, target{key: key, ep: e.endpoint})
	}
	c.mu.Unlock()

	c.logger.Debug("cache invalidated", "tags", tags, "refetching", len(refetch))
	for _, t := range refetch {
		c.startFetch(t.key, t.ep)
	}
}

// Peek returns the state of an entry without subscribing to it.
func (c *Cache) Peek(ep Endpoint, arg string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[Key{Endpoint: ep.Name, Arg: arg}]
	if !ok {
		return State{}, false
	}
	return e.state, true
}

// Len reports the number of entries currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) refetch(key Key) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	ep := e.endpoint
	c.group.Forget(key.String())
	c.markFetchingLocked(e)
	c.mu.Unlock()
	c.startFetch(key, ep)
}

// startFetch joins or starts the shared request for key. The returned
// channel is buffered; callers may ignore it.
func (c *Cache) startFetch(key Key, ep Endpoint) <-chan singleflight.Result {
	return c.group.DoChan(key.String(), func() (any, error) {
		c.mu.Lock()
		c.seq++
		seq := c.seq
		e := c.entries[key]
		if e != nil {
			e.inflight++
			c.markFetchingLocked(e)
		}
		c.mu.Unlock()

		resp, err := c.transport.Do(c.ctx, ep.Method, ep.Resolve(key.Arg), nil)
		c.apply(key, e, seq, resp, err)
		return resp, err
	})
}

// apply stores a response in e, the entry that issued it, when e is still
// cached, the response is newer than anything applied before and it was
// issued after the last invalidation.
func (c *Cache) apply(key Key, e *entry, seq uint64, resp Response, err error) {
	c.mu.Lock()
	dropped := true
	if e != nil {
		e.inflight = max(e.inflight-1, 0)
		e.state.Fetching = e.inflight > 0
	}
	if e != nil && c.entries[key] == e {
		dropped = false
		if seq > e.applied && seq > e.floor {
			e.applied = seq
			if err != nil {
				e.state.Status = StatusRejected
				e.state.Err = err
			} else {
				e.state.Status = StatusFulfilled
				e.state.Response = resp
				e.state.Err = nil
				e.state.FulfilledAt = c.now()
				e.stale = false
				e.state.Stale = false
			}
		} else {
			dropped = true
		}
		c.notifyLocked(e)
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("query failed", "key", key.String(), "seq", seq, "error", err)
	} else {
		c.logger.Debug("query settled", "key", key.String(), "seq", seq, "dropped", dropped)
	}
	c.observe(Event{Kind: EventQuery, Key: key, Err: err, Dropped: dropped})
}

func (c *Cache) observe(ev Event) {
	if c.observer != nil {
		c.observer(ev)
	}
}

func (c *Cache) acquireLocked(key Key, ep Endpoint) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			key:      key,
			endpoint: ep,
			floor:    c.seq,
			subs:     make(map[*Subscription]struct{}),
		}
		c.entries[key] = e
	}
	e.refs++
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
	return e
}

func (c *Cache) releaseLocked(e *entry) {
	e.refs--
	if e.refs > 0 {
		return
	}
	if c.entries[e.key] != e {
		return
	}
	if c.keep < 0 {
		c.removeLocked(e)
		return
	}
	e.evict = time.AfterFunc(c.keep, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.entries[e.key] == e && e.refs == 0 {
			c.removeLocked(e)
		}
	})
}

// removeLocked discards e. A request still in flight for it is forgotten so
// the next caller for the key starts a fresh one.
func (c *Cache) removeLocked(e *entry) {
	if e.evict != nil {
		e.evict.Stop()
		e.evict = nil
	}
	c.group.Forget(e.key.String())
	delete(c.entries, e.key)
}

func (c *Cache) markFetchingLocked(e *entry) {
	e.state.Fetching = true
	if e.state.Status == StatusUninitialized {
		e.state.Status = StatusPending
	}
}

func (c *Cache) notifyLocked(e *entry) {
	for sub := range e.subs {
		sub.notify()
	}
}

func (c *Cache) unsubscribe(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[sub.key]
	if !ok {
		sub.closeLocked()
		return
	}
	if _, ok := e.subs[sub]; !ok {
		sub.closeLocked()
		return
	}
	delete(e.subs, sub)
	sub.closeLocked()
	c.releaseLocked(e)
}

func (c *Cache) stateOf(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.state
	}
	return State{}
}
