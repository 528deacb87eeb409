package events

import "sync"

// Deduplicator suppresses the second delivery of an event that arrives
// through two parallel subscription paths (the events API and the
// mentions API overlap for bot mentions).
//
// Marks toggle rather than persist: the first sighting of an ID marks it
// and is processed, the second sighting clears the mark and is dropped.
// This assumes an event is delivered through at most two paths; a third
// delivery with the same ID would be treated as first-seen again.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDeduplicator creates an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// ShouldProcess reports whether the event identified by id should be
// processed, toggling the seen mark.
func (d *Deduplicator) ShouldProcess(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, dup := d.seen[id]; dup {
		delete(d.seen, id)
		return false
	}
	d.seen[id] = struct{}{}
	return true
}
