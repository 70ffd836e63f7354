package retrieval

import (
	"strings"
	"unicode"
)

// maxAnchorTerms bounds the IN-list sent to the relation search.
const maxAnchorTerms = 16

// Common English words that never name a place.
var stopwords = map[string]bool{
	"a": true, "about": true, "an": true, "and": true, "any": true,
	"are": true, "around": true, "at": true, "be": true, "best": true,
	"by": true, "can": true, "could": true, "day": true, "days": true,
	"do": true, "for": true, "from": true, "get": true, "go": true,
	"good": true, "how": true, "i": true, "in": true, "is": true,
	"it": true, "me": true, "my": true, "near": true, "nice": true,
	"of": true, "on": true, "one": true, "or": true, "place": true,
	"places": true, "recommend": true, "see": true, "should": true,
	"show": true, "some": true, "spend": true, "tell": true, "the": true,
	"things": true, "this": true, "tips": true, "to": true, "top": true,
	"trip": true, "visit": true, "want": true, "we": true, "weekend": true,
	"what": true, "when": true, "where": true, "which": true, "with": true,
	"worth": true, "you": true,
}

// AnchorTerms extracts candidate place names from a query: lowercased
// unigrams plus adjacent bigrams, with stopwords removed. It is a heuristic;
// terms that match nothing in the relation graph are simply inert.
func AnchorTerms(query string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})

	seen := map[string]bool{}
	terms := []string{}
	add := func(term string) {
		if term == "" || seen[term] || len(terms) >= maxAnchorTerms {
			return
		}
		seen[term] = true
		terms = append(terms, term)
	}

	for i, tok := range tokens {
		if stopwords[tok] || len(tok) < 2 {
			continue
		}
		add(tok)
		// Multi-word names like "eiffel tower" arrive as adjacent tokens.
		// A repeated token is noise, not a name.
		if i+1 < len(tokens) {
			next := tokens[i+1]
			if next != tok && !stopwords[next] && len(next) >= 2 {
				add(tok + " " + next)
			}
		}
	}
	return terms
}
