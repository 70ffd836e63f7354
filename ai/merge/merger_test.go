package merge

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarerhq/wayfarer/ai/retrieval"
)

func vectorResult(documents ...retrieval.Document) retrieval.Result {
	return retrieval.Result{Source: retrieval.SourceVector, Documents: documents}
}

func graphResult(facts ...retrieval.Fact) retrieval.Result {
	return retrieval.Result{Source: retrieval.SourceGraph, Facts: facts}
}

func TestMergeOrdersVectorFirstThenGraph(t *testing.T) {
	m := NewMerger(Config{})

	vector := vectorResult(
		retrieval.Document{UID: "b", Name: "Beta", Summary: "s", Score: 0.8},
		retrieval.Document{UID: "a", Name: "Alpha", Summary: "s", Score: 0.9},
	)
	graph := graphResult(
		retrieval.Fact{SubjectName: "Two", Relation: "near", ObjectName: "Alpha", Depth: 2},
		retrieval.Fact{SubjectName: "One", Relation: "near", ObjectName: "Alpha", Depth: 1},
	)

	merged := m.Merge(vector, graph)
	require.Len(t, merged, 4)

	assert.Equal(t, retrieval.SourceVector, merged[0].Source)
	assert.Contains(t, merged[0].Text, "Alpha", "higher score first")
	assert.Contains(t, merged[1].Text, "Beta")

	assert.Equal(t, retrieval.SourceGraph, merged[2].Source)
	assert.Contains(t, merged[2].Text, "One", "depth 1 before depth 2")
	assert.Contains(t, merged[3].Text, "Two")
}

func TestMergeTieBreaksDeterministically(t *testing.T) {
	m := NewMerger(Config{})

	vector := vectorResult(
		retrieval.Document{UID: "b-place", Name: "B Place", Summary: "s", Score: 0.5},
		retrieval.Document{UID: "a-place", Name: "A Place", Summary: "s", Score: 0.5},
	)
	graph := graphResult(
		retrieval.Fact{SubjectName: "Zoo", Relation: "in", ObjectName: "Town", Depth: 1},
		retrieval.Fact{SubjectName: "Bar", Relation: "in", ObjectName: "Town", Depth: 1},
	)

	first := m.Merge(vector, graph)
	second := m.Merge(vector, graph)
	assert.Equal(t, first, second, "same input must merge identically")

	assert.Contains(t, first[0].Text, "A Place", "equal scores order by uid")
	assert.Contains(t, first[2].Text, "Bar", "equal depths order by text")
}

func TestMergeCapsFragmentsFromLargeResult(t *testing.T) {
	m := NewMerger(Config{MaxVectorFragments: 5, MaxChars: 100000})

	documents := make([]retrieval.Document, 0, 1000)
	for i := 0; i < 1000; i++ {
		documents = append(documents, retrieval.Document{
			UID:     fmt.Sprintf("doc-%04d", i),
			Name:    fmt.Sprintf("Place %d", i),
			Summary: "somewhere",
			Score:   float32(i) / 1000,
		})
	}

	merged := m.Merge(vectorResult(documents...), graphResult())
	assert.Len(t, merged, 5)
	assert.Contains(t, merged[0].Text, "Place 999", "top scored survives the cap")
}

func TestMergeRespectsCharBudgetWithoutSplitting(t *testing.T) {
	m := NewMerger(Config{MaxChars: 60})

	vector := vectorResult(
		retrieval.Document{UID: "a", Name: "First", Summary: strings.Repeat("x", 30), Score: 0.9},
		retrieval.Document{UID: "b", Name: "Second", Summary: strings.Repeat("y", 30), Score: 0.8},
	)

	merged := m.Merge(vector, graphResult())
	require.Len(t, merged, 1, "second fragment does not fit and is dropped whole")

	total := 0
	for _, f := range merged {
		total += utf8.RuneCountInString(f.Text)
		assert.NotContains(t, f.Text, "yyy", "dropped fragment must not leak")
	}
	assert.LessOrEqual(t, total, 60)
}

func TestMergeSingleSourceSurvivor(t *testing.T) {
	m := NewMerger(Config{})

	failed := retrieval.Result{
		Source:  retrieval.SourceVector,
		Failure: &retrieval.Failure{Source: retrieval.SourceVector, Kind: retrieval.FailureTimeout},
	}
	graph := graphResult(
		retrieval.Fact{SubjectName: "Versailles", Relation: "near", ObjectName: "Paris", Depth: 1},
	)

	merged := m.Merge(failed, graph)
	require.Len(t, merged, 1)
	assert.Equal(t, retrieval.SourceGraph, merged[0].Source)
}

func TestMergeEmptyInputs(t *testing.T) {
	m := NewMerger(Config{})
	assert.Empty(t, m.Merge(vectorResult(), graphResult()))
}

func TestMergeClipsLongItems(t *testing.T) {
	m := NewMerger(Config{MaxChars: 100000})

	vector := vectorResult(retrieval.Document{
		UID:     "long",
		Name:    "Long Place",
		Summary: strings.Repeat("s", 2000),
		Score:   0.9,
	})
	graph := graphResult(retrieval.Fact{
		SubjectName:   "A",
		Relation:      "near",
		ObjectName:    "B",
		ObjectSummary: strings.Repeat("o", 2000),
		Depth:         1,
	})

	merged := m.Merge(vector, graph)
	require.Len(t, merged, 2)
	assert.LessOrEqual(t, utf8.RuneCountInString(merged[0].Text), documentClipRunes+3)
	assert.LessOrEqual(t, utf8.RuneCountInString(merged[1].Text), factClipRunes+30)
}
