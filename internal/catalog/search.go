package catalog

import (
	"sort"
	"strings"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/artshelf/internal/domain"
	"github.com/sahilm/fuzzy"
)

// SearchResult is a loaded artwork matching a query
type SearchResult struct {
	Artwork        domain.Artwork
	Text           string // The searched text: tags then URL
	MatchedIndexes []int  // Positions in Text that matched (for highlighting)
	Score          int    // Higher is better
}

// searchIndex implements sahilm/fuzzy.Source over a snapshot of the list
type searchIndex struct {
	items []domain.Artwork
	lines []string // Pre-computed lowercase search text
}

func newSearchIndex(items []domain.Artwork) *searchIndex {
	idx := &searchIndex{
		items: items,
		lines: make([]string, len(items)),
	}
	for i, a := range items {
		idx.lines[i] = searchText(a)
	}
	return idx
}

// String returns the search text at index i (implements fuzzy.Source)
func (idx *searchIndex) String(i int) string { return idx.lines[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *searchIndex) Len() int { return len(idx.items) }

func searchText(a domain.Artwork) string {
	return strings.ToLower(strings.Join(a.Tags, " ") + " " + a.URL)
}

// Search fuzzy-matches query against the tags and URL of every loaded
// artwork. Results are best first; an empty query matches nothing.
func (c *Catalog) Search(query string) []SearchResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	idx := newSearchIndex(c.Items())
	matches := fuzzy.FindFrom(query, idx)

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Artwork:        idx.items[m.Index],
			Text:           m.Str,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// FilterByTag returns the loaded artworks with a tag that loosely matches
// tag (case-insensitive, characters in order). Server order is kept.
func (c *Catalog) FilterByTag(tag string) []domain.Artwork {
	tag = strings.TrimSpace(tag)
	filtered := make([]domain.Artwork, 0)
	if tag == "" {
		return filtered
	}
	for _, a := range c.Items() {
		for _, t := range a.Tags {
			if fuzzysearch.MatchFold(tag, t) {
				filtered = append(filtered, a)
				break
			}
		}
	}
	return filtered
}

// SuggestTags ranks the distinct tags of the loaded artworks against query,
// closest first.
func (c *Catalog) SuggestTags(query string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, a := range c.Items() {
		for _, t := range a.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}

	ranks := fuzzysearch.RankFindFold(query, tags)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].Target < ranks[j].Target
	})

	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}
