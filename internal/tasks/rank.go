package tasks

import (
	"sort"
	"strings"
	"tieba-assist/internal/tieba"

	"github.com/antzucaro/matchr"
)

// RankedForum is a forum with its similarity to a query, in [0, 1].
type RankedForum struct {
	Forum      tieba.ForumRef
	Similarity float64
}

// RankForums orders forums by Jaro-Winkler similarity of their name to query, most similar
// first. Forums below minSimilarity are dropped.
func RankForums(forums []tieba.ForumRef, query string, minSimilarity float64) []RankedForum {
	query = strings.ToLower(strings.TrimSpace(query))

	ranked := make([]RankedForum, 0, len(forums))
	for _, forum := range forums {
		similarity := matchr.JaroWinkler(strings.ToLower(forum.Name), query, false)
		if similarity < minSimilarity {
			continue
		}
		ranked = append(ranked, RankedForum{Forum: forum, Similarity: similarity})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	return ranked
}
