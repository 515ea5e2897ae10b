package console

import (
	"sort"
	"strings"
)

// Completer suggests command names and observed key names. Keys come
// from a callback so the completer always sees the explorer's latest
// tree without holding a reference into it.
type Completer struct {
	vocab []string
	keys  func() []string
}

// NewCompleter builds a completer over the static vocabulary plus a
// dynamic key source. A nil keys callback means commands only.
func NewCompleter(keys func() []string) *Completer {
	vocab := append([]string(nil), Vocabulary...)
	sort.Strings(vocab)
	return &Completer{vocab: vocab, keys: keys}
}

// Complete returns candidates for a case-sensitive prefix:
// vocabulary matches first, then key matches, each alphabetical.
// An empty prefix completes nothing.
func (c *Completer) Complete(prefix string) []string {
	if prefix == "" {
		return nil
	}
	var out []string
	for _, v := range c.vocab {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	if c.keys != nil {
		keys := append([]string(nil), c.keys()...)
		sort.Strings(keys)
		for _, k := range keys {
			if strings.HasPrefix(k, prefix) {
				out = append(out, k)
			}
		}
	}
	return out
}
