package console

// DefaultHistorySize bounds how many lines History keeps.
const DefaultHistorySize = 1000

// History is the bounded command history with cursor navigation.
// Consecutive duplicates collapse; once full, the oldest entry is
// evicted.
type History struct {
	entries []string
	max     int
	// cursor indexes the entry Prev last returned; len(entries)
	// means "past the newest", i.e. not navigating.
	cursor int
}

// NewHistory builds an empty history. A non-positive max uses
// DefaultHistorySize.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max}
}

// Load seeds the history with persisted lines, oldest first,
// applying the same dedup and bound as live appends.
func (h *History) Load(lines []string) {
	for _, line := range lines {
		h.Append(line)
	}
}

// Append records a submitted line. Identical to the newest entry is
// a no-op; exceeding the bound evicts the oldest. Appending resets
// navigation.
func (h *History) Append(line string) {
	defer func() { h.cursor = len(h.entries) }()
	if line == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.max {
		h.entries = h.entries[1:]
	}
}

// Prev steps backward, returning false when already at the oldest
// entry or the history is empty.
func (h *History) Prev() (string, bool) {
	if h.cursor == 0 {
		return "", false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Next steps forward after Prev. Stepping past the newest entry
// returns false, signalling the input line should revert to what
// the user was typing.
func (h *History) Next() (string, bool) {
	if h.cursor >= len(h.entries)-1 {
		h.cursor = len(h.entries)
		return "", false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Entries returns the history oldest first. The caller must not
// mutate the result.
func (h *History) Entries() []string { return h.entries }

// Len reports stored entries.
func (h *History) Len() int { return len(h.entries) }
