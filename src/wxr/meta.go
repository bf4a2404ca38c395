package wxr

import "strconv"

type MetaEntry struct {
	Key   string
	Value string
}

// Meta is an item's postmeta, kept in insertion order. It is the only part of
// an Item that changes after the builder returns it: statistics are written
// once the item's topic or forum has been fully processed.
type Meta struct {
	entries []MetaEntry
	index   map[string]int
}

func NewMeta() *Meta {
	return &Meta{index: make(map[string]int)}
}

// Set adds key at the end, or replaces its value in place if already set.
func (m *Meta) Set(key, value string) {
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, MetaEntry{Key: key, Value: value})
}

func (m *Meta) SetInt(key string, value int) {
	m.Set(key, strconv.Itoa(value))
}

func (m *Meta) Get(key string) (string, bool) {
	i, ok := m.index[key]
	if !ok {
		return "", false
	}
	return m.entries[i].Value, true
}

func (m *Meta) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in insertion order.
func (m *Meta) Entries() []MetaEntry {
	return append([]MetaEntry(nil), m.entries...)
}

func (m *Meta) Len() int {
	return len(m.entries)
}
