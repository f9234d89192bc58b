package kds

import "time"

const (
	// RecallCapacity bounds the undo stack; the oldest entry is
	// dropped when an eleventh bump lands.
	RecallCapacity = 10

	// RecallTTL is how long a bump stays undoable. The sweep prunes
	// silently; pruning forfeits the undo, it reverts nothing.
	RecallTTL = 60 * time.Second
)

// RecallEntry captures the reverse of one bump, in memory only.
type RecallEntry struct {
	ItemID         ItemID    `json:"item_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ItemLabel      string    `json:"item_label"`
	TableLabel     string    `json:"table_label"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecallStack is a fixed-capacity ring buffer of undo records. Not
// goroutine-safe; the owning session serializes access.
type RecallStack struct {
	entries [RecallCapacity]RecallEntry
	start   int
	count   int
}

func (s *RecallStack) Len() int {
	return s.count
}

// Push appends an entry, dropping the oldest when full.
func (s *RecallStack) Push(e RecallEntry) {
	if s.count == RecallCapacity {
		s.start = (s.start + 1) % RecallCapacity
		s.count--
	}
	s.entries[(s.start+s.count)%RecallCapacity] = e
	s.count++
}

// Pop removes and returns the most recent entry (LIFO).
func (s *RecallStack) Pop() (RecallEntry, bool) {
	if s.count == 0 {
		return RecallEntry{}, false
	}
	s.count--
	return s.entries[(s.start+s.count)%RecallCapacity], true
}

// Peek returns the most recent entry without removing it, for the
// "undo available" indicator.
func (s *RecallStack) Peek() (RecallEntry, bool) {
	if s.count == 0 {
		return RecallEntry{}, false
	}
	return s.entries[(s.start+s.count-1)%RecallCapacity], true
}

// Clear forgets all undo history without reverting anything.
func (s *RecallStack) Clear() {
	s.start = 0
	s.count = 0
}

// Sweep prunes entries older than RecallTTL. Entries are pushed in
// time order, so expiry only ever eats from the oldest end.
func (s *RecallStack) Sweep(now time.Time) int {
	pruned := 0
	for s.count > 0 && now.Sub(s.entries[s.start].CreatedAt) > RecallTTL {
		s.start = (s.start + 1) % RecallCapacity
		s.count--
		pruned++
	}
	return pruned
}

// Entries returns the stack newest-first.
func (s *RecallStack) Entries() []RecallEntry {
	out := make([]RecallEntry, 0, s.count)
	for i := s.count - 1; i >= 0; i-- {
		out = append(out, s.entries[(s.start+i)%RecallCapacity])
	}
	return out
}
