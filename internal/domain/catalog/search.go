package catalog

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Search ranks catalog entries against query using case-insensitive,
// unicode-normalized subsequence matching over names and keywords. Closer
// matches come first; an empty query returns the whole catalog.
func (c *Catalog) Search(query string, limit int) []Entry {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.Entries()
	}

	targets := make([]string, 0, len(c.entries)*2)
	owner := make([]int, 0, len(c.entries)*2)
	for i, e := range c.entries {
		targets = append(targets, e.Name)
		owner = append(owner, i)
		if e.Keyword != "" {
			targets = append(targets, e.Keyword)
			owner = append(owner, i)
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)

	seen := make(map[int]bool, len(ranks))
	out := make([]Entry, 0, len(ranks))
	for _, r := range ranks {
		idx := owner[r.OriginalIndex]
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, c.entries[idx])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
