package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnchorTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "city name survives question words",
			query: "What should I see in Paris?",
			want:  []string{"paris"},
		},
		{
			name:  "multi-word name yields unigrams and the bigram",
			query: "where is the Eiffel Tower",
			want:  []string{"eiffel", "eiffel tower", "tower"},
		},
		{
			name:  "stopword-only query yields nothing",
			query: "what should i do",
			want:  []string{},
		},
		{
			name:  "case and repeats collapse",
			query: "Paris paris PARIS",
			want:  []string{"paris"},
		},
		{
			name:  "punctuation splits tokens",
			query: "Lyon, Bordeaux & Marseille!",
			want:  []string{"lyon", "lyon bordeaux", "bordeaux", "bordeaux marseille", "marseille"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnchorTerms(tt.query)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestAnchorTermsNoBigramAcrossStopword(t *testing.T) {
	got := AnchorTerms("tower of london")
	assert.Contains(t, got, "tower")
	assert.Contains(t, got, "london")
	assert.NotContains(t, got, "tower of")
	assert.NotContains(t, got, "of london")
}

func TestAnchorTermsCapped(t *testing.T) {
	got := AnchorTerms("alpha bravo charlie delta echo foxtrot golf hotel india juliett kilo lima mike november oscar papa quebec romeo sierra tango")
	assert.LessOrEqual(t, len(got), maxAnchorTerms)
}
