package search

import "sort"

// RRFK is the reciprocal-rank-fusion constant. K=20 emphasises top-ranked
// results more strongly than the canonical K=60, which this codebase's
// predecessor validated against small-to-medium corpora (spec §4.5 step
// 7: "K = 20 (empirically chosen over the canonical 60 ...)").
const RRFK = 20.0

type hitMetadata struct {
	snippet string
	title   string
	tags    []string
	status  EmbeddingStatus
}

// Fuse combines rankedLists (e.g. [lexical, semantic], each already sorted
// best-first) with reciprocal-rank fusion, normalises scores to [0,1],
// sorts descending and truncates to limit (spec §4.5 step 7).
func Fuse(rankedLists [][]SearchHit, limit int) []SearchHit {
	scores := make(map[string]float64)
	metadata := make(map[string]hitMetadata)

	numLists := len(rankedLists)
	for _, list := range rankedLists {
		for rank, hit := range list {
			contribution := 1.0 / (RRFK + float64(rank) + 1.0)
			scores[hit.NoteID] += contribution
			if _, seen := metadata[hit.NoteID]; !seen {
				metadata[hit.NoteID] = hitMetadata{
					snippet: hit.Snippet,
					title:   hit.Title,
					tags:    hit.Tags,
					status:  hit.EmbeddingStatus,
				}
			}
		}
	}

	if len(scores) == 0 {
		return nil
	}

	maxPossibleScore := float64(numLists) / (RRFK + 1.0)

	results := make([]SearchHit, 0, len(scores))
	for noteID, score := range scores {
		normalized := 0.0
		if maxPossibleScore > 0 {
			normalized = score / maxPossibleScore
			if normalized > 1.0 {
				normalized = 1.0
			}
		}
		meta := metadata[noteID]
		results = append(results, SearchHit{
			NoteID:          noteID,
			Score:           normalized,
			Snippet:         meta.snippet,
			Title:           meta.title,
			Tags:            meta.tags,
			EmbeddingStatus: meta.status,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].NoteID < results[j].NoteID
	})

	if limit >= 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
