package config

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// LoadHistory reads persisted command history, oldest first. A
// missing or unreadable document yields an empty history rather than
// an error: losing history is not worth failing startup over.
func (s *Store) LoadHistory() []string {
	b, err := s.readFile(historyFile)
	if err != nil || len(b) == 0 {
		return nil
	}
	entries := gjson.GetBytes(b, "entries")
	if !entries.IsArray() {
		return nil
	}
	var out []string
	entries.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.String())
		return true
	})
	return out
}

// SaveHistory persists history oldest first, trimmed to the
// configured bound.
func (s *Store) SaveHistory(lines []string) error {
	if len(lines) > s.historyMax {
		lines = lines[len(lines)-s.historyMax:]
	}
	doc := []byte(`{"entries":[]}`)
	var err error
	for _, line := range lines {
		doc, err = sjson.SetBytes(doc, "entries.-1", line)
		if err != nil {
			return fmt.Errorf("config: encode history: %w", err)
		}
	}
	return s.writeFile(historyFile, doc)
}

// AppendHistory adds one line to the persisted document in place,
// trimming from the front when the bound is exceeded. Used for
// incremental persistence without rewriting the session's whole
// history.
func (s *Store) AppendHistory(line string) error {
	b, err := s.readFile(historyFile)
	if err != nil || len(b) == 0 {
		b = []byte(`{"entries":[]}`)
	}
	if last := gjson.GetBytes(b, "entries|@reverse|0"); last.Exists() && last.String() == line {
		return nil
	}
	b, err = sjson.SetBytes(b, "entries.-1", line)
	if err != nil {
		return fmt.Errorf("config: append history: %w", err)
	}
	for int(gjson.GetBytes(b, "entries.#").Int()) > s.historyMax {
		b, err = sjson.DeleteBytes(b, "entries.0")
		if err != nil {
			return fmt.Errorf("config: trim history: %w", err)
		}
	}
	return s.writeFile(historyFile, b)
}
