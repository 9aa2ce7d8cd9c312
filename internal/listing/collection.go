package listing

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned once a collection's owner has gone away.
var ErrClosed = errors.New("listing: collection closed")

// Status is the loading state of a collection.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusErrored Status = "errored"
)

// EntryState tags an item with its persistence status.
type EntryState string

const (
	StateSynced  EntryState = "synced"
	StatePending EntryState = "pending"
	// StateLocal marks items of a collection without a writer.
	StateLocal EntryState = "local"
)

type Entry[T any] struct {
	Item  T
	State EntryState
	rev   uint64
}

// Snapshot is a copy of a collection's state at one point in time.
type Snapshot[T any] struct {
	Status   Status
	Error    string
	Entries  []Entry[T]
	LoadedAt time.Time
}

type Options struct {
	NewID    func() string
	Now      func() time.Time
	Observer Observer
}

func (o Options) newID() string {
	if o.NewID != nil {
		return o.NewID()
	}
	return uuid.NewString()
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Collection holds one screen's items. It is safe for concurrent use;
// network calls never run under its lock.
type Collection[T any] struct {
	schema Schema[T]
	source Source[T]
	writer Writer[T]
	scope  Scope
	opts   Options

	life context.Context
	stop context.CancelFunc

	mu       sync.RWMutex
	entries  []Entry[T]
	status   Status
	errMsg   string
	lastErr  error
	inflight int
	loadedAt time.Time
	rev      uint64
}

// New builds an idle collection. writer may be nil, in which case every
// mutation stays local until the next load.
func New[T any](schema Schema[T], source Source[T], writer Writer[T], scope Scope, opts Options) *Collection[T] {
	life, stop := context.WithCancel(context.Background())
	return &Collection[T]{
		schema: schema,
		source: source,
		writer: writer,
		scope:  scope,
		opts:   opts,
		life:   life,
		stop:   stop,
		status: StatusIdle,
	}
}

func (c *Collection[T]) Schema() Schema[T] { return c.schema }

func (c *Collection[T]) Scope() Scope { return c.scope }

// Close cancels every in-flight call. Results arriving afterwards are dropped.
func (c *Collection[T]) Close() {
	c.stop()
}

func (c *Collection[T]) Closed() bool {
	return c.life.Err() != nil
}

// bind derives a context that is also cancelled when the collection closes.
func (c *Collection[T]) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Load fetches the collection and replaces the held items on success. On
// failure the previous items stay available and the error is recorded.
// Overlapping loads are not deduplicated; the last one to finish wins.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.Closed() {
		c.mu.Unlock()
		return ErrClosed
	}
	c.inflight++
	c.status = StatusLoading
	c.mu.Unlock()

	ctx, cancel := c.bind(ctx)
	defer cancel()

	start := c.opts.now()
	items, err := c.source.List(ctx, c.scope)
	if c.opts.Observer != nil {
		c.opts.Observer.LoadDone(c.schema.Resource, c.opts.now().Sub(start), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if c.Closed() {
		return ErrClosed
	}

	c.lastErr = err
	if err != nil {
		c.errMsg = err.Error()
	} else {
		c.entries = c.fresh(items)
		c.errMsg = ""
		c.loadedAt = c.opts.now()
	}

	switch {
	case c.inflight > 0:
		c.status = StatusLoading
	case c.lastErr != nil:
		c.status = StatusErrored
	default:
		c.status = StatusLoaded
	}
	return err
}

// fresh turns a load result into entries, keeping the first of any
// duplicated id.
func (c *Collection[T]) fresh(items []T) []Entry[T] {
	out := make([]Entry[T], 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		id := c.schema.ID(it)
		if _, dup := seen[id]; dup {
			log.Printf("[LISTING] resource=%s duplicate id=%s dropped from load", c.schema.Resource, id)
			continue
		}
		seen[id] = struct{}{}
		c.rev++
		out = append(out, Entry[T]{Item: it, State: StateSynced, rev: c.rev})
	}
	return out
}

func (c *Collection[T]) Snapshot() Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot[T]{
		Status:   c.status,
		Error:    c.errMsg,
		Entries:  slices.Clone(c.entries),
		LoadedAt: c.loadedAt,
	}
}

func (c *Collection[T]) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Items returns a copy of the held items in collection order.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Item
	}
	return out
}

// Get returns the entry with id.
func (c *Collection[T]) Get(id string) (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.entries[i], true
	}
	return Entry[T]{}, false
}

// View computes the visible entries for cr.
func (c *Collection[T]) View(cr Criteria) ([]Entry[T], error) {
	if err := c.schema.Check(cr); err != nil {
		return nil, err
	}
	snap := c.Snapshot()
	return compute(snap.Entries, func(e Entry[T]) T { return e.Item }, c.schema, cr), nil
}

func (c *Collection[T]) indexOf(id string) int {
	return slices.IndexFunc(c.entries, func(e Entry[T]) bool { return c.schema.ID(e.Item) == id })
}
