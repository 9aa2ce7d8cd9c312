package listing

import (
	"context"
	"slices"

	"marketadmin/internal/domain"
)

// TempIDPrefix marks ids synthesized locally for items not yet saved.
const TempIDPrefix = "tmp-"

func (c *Collection[T]) validate(item T) error {
	if c.schema.Validate == nil {
		return nil
	}
	return c.schema.Validate(item)
}

func (c *Collection[T]) observe(op string, err error, rolledBack bool) {
	if c.opts.Observer != nil {
		c.opts.Observer.MutationDone(c.schema.Resource, op, err, rolledBack)
	}
}

func (c *Collection[T]) nextState() EntryState {
	if c.writer == nil {
		return StateLocal
	}
	return StatePending
}

// Create appends item under a temporary id and, when a writer is set,
// saves it. A saved item replaces the temporary entry; a failed save
// removes it again.
func (c *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	if err := c.validate(item); err != nil {
		return zero, err
	}
	tmp := TempIDPrefix + c.opts.newID()
	outbound := item
	c.schema.SetID(&outbound, "")
	c.schema.SetID(&item, tmp)

	c.mu.Lock()
	if c.Closed() {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	c.rev++
	c.entries = append(c.entries, Entry[T]{Item: item, State: c.nextState(), rev: c.rev})
	c.mu.Unlock()

	if c.writer == nil {
		c.observe("create", nil, false)
		return item, nil
	}

	wctx, cancel := c.bind(ctx)
	defer cancel()
	saved, err := c.writer.Create(wctx, c.scope, outbound)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed() {
		return zero, ErrClosed
	}
	idx := c.indexOf(tmp)
	if err != nil {
		if idx >= 0 {
			c.entries = slices.Delete(c.entries, idx, idx+1)
		}
		c.observe("create", err, idx >= 0)
		return zero, err
	}

	if c.schema.ID(saved) == "" {
		saved = item
	}
	c.rev++
	synced := Entry[T]{Item: saved, State: StateSynced, rev: c.rev}
	other := c.indexOf(c.schema.ID(saved))
	switch {
	case idx >= 0 && other >= 0 && other != idx:
		// a reload already brought the saved row in
		c.entries = slices.Delete(c.entries, idx, idx+1)
	case idx >= 0:
		c.entries[idx] = synced
	case other < 0:
		c.entries = append(c.entries, synced)
	}
	c.observe("create", nil, false)
	return saved, nil
}

// Update merges patch into the item with id. found is false, with no error,
// when no such item is held. A failed save restores the previous item
// unless it was changed again in the meantime.
func (c *Collection[T]) Update(ctx context.Context, id string, patch Patch) (item T, found bool, err error) {
	var zero T
	patch = patch.withoutID()

	c.mu.Lock()
	if c.Closed() {
		c.mu.Unlock()
		return zero, false, ErrClosed
	}
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return zero, false, nil
	}
	prev := c.entries[idx]
	next, err := ApplyPatch(prev.Item, patch)
	if err != nil {
		c.mu.Unlock()
		return zero, true, err
	}
	c.schema.SetID(&next, id)
	if err := c.validate(next); err != nil {
		c.mu.Unlock()
		return zero, true, err
	}
	sent, err := settled(next, patch)
	if err != nil {
		c.mu.Unlock()
		return zero, true, err
	}
	c.rev++
	rev := c.rev
	c.entries[idx] = Entry[T]{Item: next, State: c.nextState(), rev: rev}
	c.mu.Unlock()

	if c.writer == nil {
		c.observe("update", nil, false)
		return next, true, nil
	}

	wctx, cancel := c.bind(ctx)
	defer cancel()
	saved, err := c.writer.Update(wctx, c.scope, id, sent)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed() {
		return zero, true, ErrClosed
	}
	idx = c.indexOf(id)
	untouched := idx >= 0 && c.entries[idx].rev == rev
	if err != nil {
		if untouched {
			c.entries[idx] = prev
		}
		c.observe("update", err, untouched)
		return zero, true, err
	}

	if c.schema.ID(saved) == "" {
		saved = next
	}
	if untouched {
		c.rev++
		c.entries[idx] = Entry[T]{Item: saved, State: StateSynced, rev: c.rev}
	}
	c.observe("update", nil, false)
	return saved, true, nil
}

// Delete removes the item with id. found is false, with no error, when no
// such item is held. A failed delete puts the item back where it was,
// unless the writer reports the item as already gone.
func (c *Collection[T]) Delete(ctx context.Context, id string) (found bool, err error) {
	c.mu.Lock()
	if c.Closed() {
		c.mu.Unlock()
		return false, ErrClosed
	}
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return false, nil
	}
	removed := c.entries[idx]
	c.entries = slices.Delete(c.entries, idx, idx+1)
	c.mu.Unlock()

	if c.writer == nil {
		c.observe("delete", nil, false)
		return true, nil
	}

	wctx, cancel := c.bind(ctx)
	defer cancel()
	err = c.writer.Delete(wctx, c.scope, id)
	if err == nil {
		c.observe("delete", nil, false)
		return true, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed() {
		return true, ErrClosed
	}
	restored := false
	// the server no longer has it either
	if c.indexOf(id) < 0 && !domain.IsNotFound(err) {
		at := min(idx, len(c.entries))
		c.entries = slices.Insert(c.entries, at, removed)
		restored = true
	}
	c.observe("delete", err, restored)
	return true, err
}
