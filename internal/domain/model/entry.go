// Package model contains domain models passed between layers.
package model

// Entry is one guild's result in one event. (EventNum, GuildID) is the natural key.
type Entry struct {
	EventNum int    // event the row belongs to, assigned per ingestion batch
	GuildID  int64  // stable guild identity
	Name     string // name as of this event; may differ across events
	Rank     int    // placement within the event, lower is better
	Points   *int64 // nil when the source row carried no points
	IsSeed   bool   // pre-qualified (superseed) entry
}

// Key returns the natural key of the entry.
func (e Entry) Key() EntryKey {
	return EntryKey{EventNum: e.EventNum, GuildID: e.GuildID}
}

// EntryKey identifies a row within the store.
type EntryKey struct {
	EventNum int
	GuildID  int64
}

// Group holds the history of one guild, newest event first.
type Group struct {
	GuildID int64
	Entries []Entry
}

// Newest returns the most recent entry of the group and false if the group is empty.
func (g Group) Newest() (Entry, bool) {
	if len(g.Entries) == 0 {
		return Entry{}, false
	}
	return g.Entries[0], true
}

// EventRange is the span of event numbers present in the store.
type EventRange struct {
	Min int
	Max int
}

// Next returns the event number the next ingestion batch will use.
func (r EventRange) Next() int {
	return r.Max + 1
}

// EventBoard is the full leaderboard of one event split by seed status.
// Both buckets are ordered by rank ascending.
type EventBoard struct {
	Num     int
	Seed    []Entry
	Regular []Entry
}

// Len returns the number of entries on the board.
func (b EventBoard) Len() int {
	return len(b.Seed) + len(b.Regular)
}

// Int64Ptr is a small helper for building entries with points.
func Int64Ptr(v int64) *int64 {
	return &v
}
