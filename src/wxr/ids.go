package wxr

// ReplyKey identifies a post by its thread and slug path. Replies refer to
// their parents this way, so reply items are allocated under it.
type ReplyKey struct {
	ThreadID string
	Slug     string

	// Set to the post's index when its slug repeats an earlier post's, so
	// the repeat still gets its own id. References by slug never set it.
	Duplicate int
}

// Allocator hands out WordPress post ids. Keys are source ids (strings),
// attachment URLs or ReplyKeys; any comparable value works.
type Allocator struct {
	start int
	ids   map[any]int
}

func NewAllocator(startID int) *Allocator {
	return &Allocator{
		start: startID,
		ids:   make(map[any]int),
	}
}

// ID returns the id for key, allocating the next free one on first use.
func (a *Allocator) ID(key any) int {
	if id, ok := a.ids[key]; ok {
		return id
	}
	id := a.start + len(a.ids)
	a.ids[key] = id
	return id
}

// Lookup returns the id of a key without allocating.
func (a *Allocator) Lookup(key any) (int, bool) {
	id, ok := a.ids[key]
	return id, ok
}

func (a *Allocator) Len() int {
	return len(a.ids)
}
