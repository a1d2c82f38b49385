package refdocs

import (
	"sort"
	"strings"

	"notevec/internal/vector"
)

const defaultLimit = 5

// Match is one ranked reference chunk.
type Match struct {
	Chunk
	Score float64 `json:"score"`
}

// Search ranks chunks against a query vector by cosine similarity. Hits
// below minScore are dropped when minScore is positive.
func (idx *Index) Search(queryVec []float32, limit int, minScore float64) []Match {
	if limit <= 0 {
		limit = defaultLimit
	}

	matches := make([]Match, 0, len(idx.chunks))
	for i, chunk := range idx.chunks {
		score := vector.Cosine(queryVec, idx.vectors[i])
		if minScore > 0 && score < minScore {
			continue
		}
		matches = append(matches, Match{Chunk: chunk, Score: score})
	}

	sortMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// SearchText ranks chunks by term overlap, for use when no embedding
// provider is reachable. Each query term found in the chunk text counts
// once, a term found in the doc title counts double.
func (idx *Index) SearchText(query string, limit int) []Match {
	if limit <= 0 {
		limit = defaultLimit
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return []Match{}
	}

	var matches []Match
	for _, chunk := range idx.chunks {
		text := strings.ToLower(chunk.Text)
		title := strings.ToLower(chunk.Doc)

		var score float64
		for _, term := range terms {
			if strings.Contains(text, term) {
				score++
			}
			if strings.Contains(title, term) {
				score += 2
			}
		}
		if score > 0 {
			matches = append(matches, Match{Chunk: chunk, Score: score})
		}
	}

	sortMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Chunk returns the chunk with the given doc title and index, plus the
// doc's total chunk count. Title matching is case-insensitive.
func (idx *Index) Chunk(docTitle string, index int) (Chunk, int, error) {
	for _, chunk := range idx.chunks {
		if strings.EqualFold(chunk.Doc, docTitle) && chunk.Index == index {
			return chunk, idx.docCounts[chunk.Doc], nil
		}
	}
	return Chunk{}, 0, ErrChunkNotFound
}

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
}

func tokenize(query string) []string {
	var terms []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		if field = strings.TrimSpace(field); field != "" {
			terms = append(terms, field)
		}
	}
	return terms
}
