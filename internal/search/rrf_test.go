package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuseSingleList(t *testing.T) {
	list := []SearchHit{
		{NoteID: "id1", Snippet: "first", Title: "First Note", Tags: []string{"tag1"}},
		{NoteID: "id2", Snippet: "second", Title: "Second Note", Tags: []string{"tag2"}},
	}

	results := Fuse([][]SearchHit{list}, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "id1", results[0].NoteID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
	assert.Equal(t, "First Note", results[0].Title)
	assert.Equal(t, []string{"tag1"}, results[0].Tags)
}

func TestFuseMultipleLists(t *testing.T) {
	list1 := []SearchHit{{NoteID: "id1"}, {NoteID: "id2"}}
	list2 := []SearchHit{{NoteID: "id2"}, {NoteID: "id3"}, {NoteID: "id1"}}

	results := Fuse([][]SearchHit{list1, list2}, 10)
	require.Len(t, results, 3)
	ids := map[string]bool{}
	for _, r := range results {
		ids[r.NoteID] = true
	}
	assert.True(t, ids["id1"])
	assert.True(t, ids["id2"])
	assert.True(t, ids["id3"])
}

func TestFuseRespectsLimit(t *testing.T) {
	var hits []SearchHit
	for i := 0; i < 100; i++ {
		hits = append(hits, SearchHit{NoteID: fmt.Sprintf("note-%d", i)})
	}
	results := Fuse([][]SearchHit{hits}, 10)
	assert.Len(t, results, 10)
}

func TestFuseScoresNormalizedTo01Range(t *testing.T) {
	list1 := []SearchHit{{NoteID: "id1"}, {NoteID: "id2"}}
	list2 := []SearchHit{{NoteID: "id1"}}

	results := Fuse([][]SearchHit{list1, list2}, 10)
	var id1Score float64
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
		if r.NoteID == "id1" {
			id1Score = r.Score
		}
	}
	assert.InDelta(t, 1.0, id1Score, 0.001)
}

func TestFuseEmptyLists(t *testing.T) {
	assert.Len(t, Fuse(nil, 10), 0)
}

func TestFuseEmptyListInput(t *testing.T) {
	assert.Len(t, Fuse([][]SearchHit{{}}, 10), 0)
}

func TestFuseLimitZero(t *testing.T) {
	results := Fuse([][]SearchHit{{{NoteID: "id1"}}}, 0)
	assert.Len(t, results, 0)
}

func TestFuseLimitOne(t *testing.T) {
	list := []SearchHit{{NoteID: "id1"}, {NoteID: "id2"}}
	results := Fuse([][]SearchHit{list}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "id1", results[0].NoteID)
}

func TestFuseMetadataFromFirstOccurrence(t *testing.T) {
	list1 := []SearchHit{{NoteID: "id1"}}
	list2 := []SearchHit{{NoteID: "id1", Snippet: "snippet2", Title: "Title2", Tags: []string{"tag2"}}}

	results := Fuse([][]SearchHit{list1, list2}, 10)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Snippet)
	assert.Empty(t, results[0].Title)
	assert.Empty(t, results[0].Tags)
}

func TestFuseScoreCalculationMultipleLists(t *testing.T) {
	list1 := []SearchHit{{NoteID: "id1"}}
	list2 := []SearchHit{{NoteID: "id1"}, {NoteID: "id2"}}

	results := Fuse([][]SearchHit{list1, list2}, 10)
	var id1Score, id2Score float64
	for _, r := range results {
		switch r.NoteID {
		case "id1":
			id1Score = r.Score
		case "id2":
			id2Score = r.Score
		}
	}
	assert.InDelta(t, 1.0, id1Score, 0.001)
	assert.Less(t, id2Score, 1.0)
}

func TestFuseSortedOutput(t *testing.T) {
	list := []SearchHit{{NoteID: "id3"}, {NoteID: "id2"}, {NoteID: "id1"}}
	results := Fuse([][]SearchHit{list}, 10)
	for i := 0; i < len(results)-1; i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i+1].Score)
	}
}

func TestFuseDisjointLists(t *testing.T) {
	list1 := []SearchHit{{NoteID: "id1"}, {NoteID: "id2"}}
	list2 := []SearchHit{{NoteID: "id3"}, {NoteID: "id4"}}
	results := Fuse([][]SearchHit{list1, list2}, 10)
	assert.Len(t, results, 4)
}

func TestFuseOverlappingLists(t *testing.T) {
	list1 := []SearchHit{{NoteID: "id1"}, {NoteID: "id2"}}
	list2 := []SearchHit{{NoteID: "id2"}, {NoteID: "id1"}, {NoteID: "id3"}}
	results := Fuse([][]SearchHit{list1, list2}, 10)
	require.Len(t, results, 3)
	scores := map[string]float64{}
	for _, r := range results {
		scores[r.NoteID] = r.Score
	}
	assert.Greater(t, scores["id1"], scores["id3"])
	assert.Greater(t, scores["id2"], scores["id3"])
}

func TestRRFConstantValue(t *testing.T) {
	assert.Equal(t, 20.0, float64(RRFK))
}
