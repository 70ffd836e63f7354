package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarerhq/wayfarer/ai/merge"
	"github.com/wayfarerhq/wayfarer/ai/retrieval"
)

func vectorFragment(text string) merge.Fragment {
	return merge.Fragment{Source: retrieval.SourceVector, Text: text}
}

func graphFragment(text string) merge.Fragment {
	return merge.Fragment{Source: retrieval.SourceGraph, Text: text}
}

func TestAssembleRendersBothSections(t *testing.T) {
	a := NewAssembler()

	got, err := a.Assemble("3-day Paris itinerary", []merge.Fragment{
		vectorFragment("Louvre (Paris): Art museum"),
		graphFragment("Versailles near Paris. Versailles: Royal palace"),
	})
	require.NoError(t, err)

	want := "Use the travel context below to answer the traveler's question.\n\n" +
		"Destination notes:\n" +
		"- Louvre (Paris): Art museum\n\n" +
		"Related places:\n" +
		"- Versailles near Paris. Versailles: Royal palace\n\n" +
		"Question: 3-day Paris itinerary"
	assert.Equal(t, want, got)
}

func TestAssembleIsIdempotent(t *testing.T) {
	a := NewAssembler()
	fragments := []merge.Fragment{
		vectorFragment("Louvre (Paris): Art museum"),
		vectorFragment("Eiffel Tower (Paris): Landmark"),
		graphFragment("Montmartre in Paris. Montmartre: Hilltop district"),
	}

	first, err := a.Assemble("what to see in Paris", fragments)
	require.NoError(t, err)
	second, err := a.Assemble("what to see in Paris", fragments)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAssembleKeepsQueryVerbatim(t *testing.T) {
	a := NewAssembler()
	query := "is  the Louvre open on Mondays?!"

	got, err := a.Assemble(query, []merge.Fragment{vectorFragment("Louvre (Paris): Art museum")})
	require.NoError(t, err)

	assert.Contains(t, got, "Question: "+query, "query must not be reflowed")
}

func TestAssembleDistinctContextsStayDistinct(t *testing.T) {
	a := NewAssembler()
	query := "best cafes in Lyon"

	withSpace, err := a.Assemble(query, []merge.Fragment{vectorFragment("Cafe du  Soleil (Lyon): Terrace")})
	require.NoError(t, err)
	withoutSpace, err := a.Assemble(query, []merge.Fragment{vectorFragment("Cafe du Soleil (Lyon): Terrace")})
	require.NoError(t, err)

	assert.NotEqual(t, withSpace, withoutSpace, "fragments must pass through unmodified")
}

func TestAssembleDegradedWhenNoContext(t *testing.T) {
	a := NewAssembler()

	got, err := a.Assemble("weekend in Prague", nil)
	require.NoError(t, err)

	want := "No saved travel context matched this question. Answer from general travel knowledge and say when you are unsure.\n\n" +
		"Question: weekend in Prague"
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "Destination notes:")
	assert.NotContains(t, got, "Related places:")
}

func TestAssembleSingleSourceOmitsEmptySection(t *testing.T) {
	a := NewAssembler()

	got, err := a.Assemble("day trips from Paris", []merge.Fragment{
		graphFragment("Versailles near Paris. Versailles: Royal palace"),
	})
	require.NoError(t, err)

	assert.NotContains(t, got, "Destination notes:")
	assert.Contains(t, got, "Related places:")
	assert.Contains(t, got, "Versailles near Paris")
}

func TestAssembleVectorSectionComesFirst(t *testing.T) {
	a := NewAssembler()

	got, err := a.Assemble("q", []merge.Fragment{
		graphFragment("fact"),
		vectorFragment("note"),
	})
	require.NoError(t, err)

	notes := strings.Index(got, "Destination notes:")
	places := strings.Index(got, "Related places:")
	require.GreaterOrEqual(t, notes, 0)
	require.GreaterOrEqual(t, places, 0)
	assert.Less(t, notes, places)
}

func TestSystemPromptDescribesAnswerFormat(t *testing.T) {
	a := NewAssembler()
	sp := a.SystemPrompt()

	assert.Contains(t, sp, "Overview")
	assert.Contains(t, sp, "Suggested itinerary")
	assert.Contains(t, sp, "References")
}
