// Package match ranks locally cached titles against a free-text query using
// ratio-based string similarity.
package match

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Match is one ranked candidate: the anime id, the alternative title that
// matched, and a similarity score in [0, 100].
type Match struct {
	ID      int
	Matched string
	Score   float64
}

// TopN scores every alternative title of every id against the query and
// returns the n best matches ordered by score descending.
func TopN(query string, titles map[int][]string, n int) []Match {
	if n <= 0 {
		return nil
	}

	lev := metrics.NewLevenshtein()
	query = strings.ToLower(strings.TrimSpace(query))

	var matches []Match
	for id, candidates := range titles {
		for _, title := range candidates {
			if title == "" {
				continue
			}
			score := strutil.Similarity(query, strings.ToLower(title), lev) * 100
			matches = append(matches, Match{ID: id, Matched: title, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > n {
		matches = matches[:n]
	}
	return matches
}
