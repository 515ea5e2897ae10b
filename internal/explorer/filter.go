package explorer

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Filter is a client-side, read-only view over scanned keys. It
// never mutates the tree and never talks to the backend, so typing
// in the filter box costs nothing beyond a walk of what is already
// loaded.
func Filter(keys []string, query string) []string {
	if query == "" {
		return keys
	}
	type ranked struct {
		key  string
		dist int
	}
	var hits []ranked
	lq := strings.ToLower(query)
	for _, k := range keys {
		if !strings.Contains(strings.ToLower(k), lq) {
			continue
		}
		hits = append(hits, ranked{key: k, dist: levenshtein.ComputeDistance(lq, strings.ToLower(k))})
	}
	// Closest match first; ties resolve alphabetically so the view
	// is stable while typing.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].key < hits[j].key
	})
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.key
	}
	return out
}
