package index

// entryCache holds per-position IndexEntry overrides that are only known
// once a future picture arrives (B-frame reordering), per §4.3 "Entry
// cache." One cache serves all elements of a track: entries are keyed by
// position only, not by element. Bounded to EntryCacheLimit entries.
type entryCache struct {
	entries map[int64]IndexEntry
}

func newEntryCache() *entryCache {
	return &entryCache{entries: make(map[int64]IndexEntry)}
}

// Set records (or merges with) the entry for position. Returns false if
// the cache is full and position is not already present.
func (c *entryCache) Set(position int64, entry IndexEntry) bool {
	if existing, ok := c.entries[position]; ok {
		c.entries[position] = existing.Merge(entry)
		return true
	}
	if len(c.entries) >= EntryCacheLimit {
		return false
	}
	c.entries[position] = entry
	return true
}

// Take drains and returns the entry at position, defaulting to the zero
// IndexEntry if nothing was cached (matching §3 "An entry is default
// when all three bytes are zero").
func (c *entryCache) Take(position int64) IndexEntry {
	entry, ok := c.entries[position]
	if !ok {
		return IndexEntry{}
	}
	delete(c.entries, position)
	return entry
}

// Peek returns the cached entry at position without draining it, used
// by CanStartPartition which must not consume the entry before
// UpdateIndex does.
func (c *entryCache) Peek(position int64) IndexEntry {
	return c.entries[position]
}

// PatchTemporalOffset updates the cached entry's temporal offset in
// place if position is still cached. Returns true if found.
func (c *entryCache) PatchTemporalOffset(position int64, temporalOffset int8) bool {
	entry, ok := c.entries[position]
	if !ok {
		return false
	}
	entry.TemporalOffset = temporalOffset
	c.entries[position] = entry
	return true
}

func (c *entryCache) Has(position int64) bool {
	_, ok := c.entries[position]
	return ok
}
