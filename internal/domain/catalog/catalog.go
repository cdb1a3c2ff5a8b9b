// Package catalog maps messy merchant strings from bank statements onto a
// small set of known subscription services.
package catalog

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"
)

const (
	// CategoryOther is assigned to names that match no catalog keyword.
	CategoryOther = "other"
	// GenericLogo is the logo for unmatched names.
	GenericLogo = "💳"
)

// Entry is one known service. Keyword is matched as a lowercase substring.
type Entry struct {
	Keyword        string
	Name           string
	Category       string
	Logo           string
	SuggestedPrice decimal.Decimal
}

// Match is the result of normalizing a raw merchant name.
type Match struct {
	Name     string
	Category string
	Logo     string
	Keyword  string
	Matched  bool
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	entries []Entry
	matcher *ahocorasick.Matcher
}

// New builds a catalog from entries. Keywords are lowercased; empty keywords
// are ignored for matching but still listed.
func New(entries []Entry) *Catalog {
	c := &Catalog{entries: make([]Entry, len(entries))}
	copy(c.entries, entries)

	patterns := make([][]byte, len(c.entries))
	for i := range c.entries {
		c.entries[i].Keyword = strings.ToLower(strings.TrimSpace(c.entries[i].Keyword))
		patterns[i] = []byte(c.entries[i].Keyword)
	}
	if len(patterns) > 0 {
		c.matcher = ahocorasick.NewMatcher(patterns)
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(defaultEntries())
}

// Normalize resolves raw to a canonical service. When several keywords occur
// in raw the longest keyword wins, and equal lengths fall back to catalog
// order. Unmatched names are returned exactly as given with category "other".
func (c *Catalog) Normalize(raw string) Match {
	if best := c.bestEntry(matchKey(raw)); best != nil {
		return Match{
			Name:     best.Name,
			Category: best.Category,
			Logo:     best.Logo,
			Keyword:  best.Keyword,
			Matched:  true,
		}
	}
	return Match{Name: raw, Category: CategoryOther, Logo: GenericLogo}
}

func (c *Catalog) bestEntry(key string) *Entry {
	if c.matcher == nil || key == "" {
		return nil
	}

	var best *Entry
	bestIdx := -1
	for _, idx := range c.matcher.Match([]byte(key)) {
		if idx < 0 || idx >= len(c.entries) || c.entries[idx].Keyword == "" {
			continue
		}
		e := &c.entries[idx]
		if best == nil || len(e.Keyword) > len(best.Keyword) ||
			(len(e.Keyword) == len(best.Keyword) && idx < bestIdx) {
			best, bestIdx = e, idx
		}
	}
	return best
}

// Entries returns the catalog in declaration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func defaultEntries() []Entry {
	price := decimal.RequireFromString
	return []Entry{
		{Keyword: "netflix", Name: "Netflix", Category: "streaming", Logo: "🎬", SuggestedPrice: price("15.99")},
		{Keyword: "spotify", Name: "Spotify", Category: "streaming", Logo: "🎵", SuggestedPrice: price("9.99")},
		{Keyword: "amazon prime", Name: "Amazon Prime", Category: "streaming", Logo: "📦", SuggestedPrice: price("14.99")},
		{Keyword: "disney", Name: "Disney+", Category: "streaming", Logo: "🏰", SuggestedPrice: price("13.99")},
		{Keyword: "chatgpt", Name: "ChatGPT Plus", Category: "software", Logo: "🤖", SuggestedPrice: price("20.00")},
		{Keyword: "adobe", Name: "Adobe Creative Cloud", Category: "software", Logo: "🎨", SuggestedPrice: price("54.99")},
		{Keyword: "microsoft", Name: "Microsoft 365", Category: "software", Logo: "📊", SuggestedPrice: price("9.99")},
		{Keyword: "dropbox", Name: "Dropbox", Category: "storage", Logo: "☁️", SuggestedPrice: price("11.99")},
		{Keyword: "apple", Name: "Apple Services", Category: "various", Logo: "🍎", SuggestedPrice: price("9.99")},
		{Keyword: "google", Name: "Google Services", Category: "various", Logo: "🔍", SuggestedPrice: price("6.99")},
	}
}
