// Package search derives the displayed subset of the library: a pure
// projection from (collection, search text, selected category) to an ordered
// slice. It holds no state and is recomputed on every input change.
package search

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"

	"github.com/abhi9818/libris/internal/entities"
)

// Filter returns the books passing the category filter and, when query is
// non-blank, an approximate match over title and author, ordered by match
// quality (best first). A blank query preserves the collection's own order.
// The category sentinel entities.CategoryAll passes everything through.
func Filter(books []entities.Book, query, category string) []entities.Book {
	filtered := make([]entities.Book, 0, len(books))
	for _, b := range books {
		if category == "" || category == entities.CategoryAll || b.Category == category {
			filtered = append(filtered, b)
		}
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return filtered
	}
	return rank(filtered, strings.ToLower(query))
}

type scored struct {
	book entities.Book

	// distance is the Levenshtein distance between the query and the
	// closest full field, the primary quality signal: an exact title
	// match always beats a prefix of a longer one.
	distance int

	// wordDistance is the distance to the closest individual word.
	wordDistance int

	fuzzyScore int
}

func rank(books []entities.Book, query string) []entities.Book {
	results := make([]scored, 0, len(books))
	for _, b := range books {
		s, ok := score(b, query)
		if !ok {
			continue
		}
		results = append(results, s)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.wordDistance != b.wordDistance {
			return a.wordDistance < b.wordDistance
		}
		if a.fuzzyScore != b.fuzzyScore {
			return a.fuzzyScore > b.fuzzyScore
		}
		// Newest first among equally good matches.
		return a.book.ID > b.book.ID
	})

	out := make([]entities.Book, len(results))
	for i, r := range results {
		out[i] = r.book
	}
	return out
}

// score decides whether a book matches the query and how well. A book matches
// when the query is a fuzzy subsequence of title or author, or when it sits
// within misspelling distance of any single word of either field.
func score(b entities.Book, query string) (scored, bool) {
	title := strings.ToLower(b.Title)
	author := strings.ToLower(b.Author)

	s := scored{
		book:         b,
		distance:     min(levenshtein.ComputeDistance(query, title), levenshtein.ComputeDistance(query, author)),
		wordDistance: closestWord(query, title, author),
		fuzzyScore:   -1,
	}

	matches := fuzzy.Find(query, []string{title, author})
	for _, m := range matches {
		if m.Score > s.fuzzyScore {
			s.fuzzyScore = m.Score
		}
	}

	if len(matches) == 0 && s.wordDistance > misspellingAllowance(query) {
		return scored{}, false
	}
	return s, true
}

func closestWord(query string, fields ...string) int {
	best := len(query) + 1
	for _, field := range fields {
		for _, word := range strings.Fields(field) {
			if d := levenshtein.ComputeDistance(query, word); d < best {
				best = d
			}
		}
	}
	return best
}

// misspellingAllowance is the tolerated edit distance for a query word.
// The precise value is an internal tunable, not a contract.
func misspellingAllowance(query string) int {
	if allowance := len(query) / 4; allowance > 1 {
		return allowance
	}
	return 1
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
