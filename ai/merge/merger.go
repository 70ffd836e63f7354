// Package merge turns raw retrieval output into an ordered, budgeted list of
// prompt context fragments.
package merge

import (
	"sort"
	"unicode/utf8"

	"github.com/wayfarerhq/wayfarer/ai/internal/strutil"
	"github.com/wayfarerhq/wayfarer/ai/retrieval"
)

const (
	defaultMaxChars           = 2000
	defaultMaxVectorFragments = 5
	defaultMaxGraphFacts      = 20

	// Per-item clips applied when fragments are rendered, so the budget
	// below never has to split a fragment.
	documentClipRunes = 300
	factClipRunes     = 400
)

// Config bounds the merged context.
type Config struct {
	// MaxChars is the total character budget across all fragments.
	MaxChars int

	MaxVectorFragments int
	MaxGraphFacts      int
}

// Fragment is one unit of prompt context.
type Fragment struct {
	Source retrieval.Source
	Text   string
}

type Merger struct {
	cfg Config
}

func NewMerger(cfg Config) *Merger {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaultMaxChars
	}
	if cfg.MaxVectorFragments <= 0 {
		cfg.MaxVectorFragments = defaultMaxVectorFragments
	}
	if cfg.MaxGraphFacts <= 0 {
		cfg.MaxGraphFacts = defaultMaxGraphFacts
	}
	return &Merger{cfg: cfg}
}

// Merge orders and budgets the two branches into prompt-ready fragments.
// Vector documents come first (score descending, uid ascending), then graph
// facts (depth ascending, text ascending). The character budget keeps the
// longest prefix that fits; fragments are dropped whole, never split. The
// same inputs always produce the same output.
func (m *Merger) Merge(vector, graph retrieval.Result) []Fragment {
	ordered := make([]Fragment, 0, len(vector.Documents)+len(graph.Facts))

	documents := append([]retrieval.Document{}, vector.Documents...)
	sort.SliceStable(documents, func(i, j int) bool {
		if documents[i].Score != documents[j].Score {
			return documents[i].Score > documents[j].Score
		}
		return documents[i].UID < documents[j].UID
	})
	if len(documents) > m.cfg.MaxVectorFragments {
		documents = documents[:m.cfg.MaxVectorFragments]
	}
	for _, d := range documents {
		ordered = append(ordered, Fragment{Source: retrieval.SourceVector, Text: renderDocument(d)})
	}

	type renderedFact struct {
		text  string
		depth int32
	}
	facts := make([]renderedFact, 0, len(graph.Facts))
	for _, f := range graph.Facts {
		facts = append(facts, renderedFact{text: renderFact(f), depth: f.Depth})
	}
	sort.SliceStable(facts, func(i, j int) bool {
		if facts[i].depth != facts[j].depth {
			return facts[i].depth < facts[j].depth
		}
		return facts[i].text < facts[j].text
	})
	if len(facts) > m.cfg.MaxGraphFacts {
		facts = facts[:m.cfg.MaxGraphFacts]
	}
	for _, f := range facts {
		ordered = append(ordered, Fragment{Source: retrieval.SourceGraph, Text: f.text})
	}

	// Longest prefix within budget.
	merged := []Fragment{}
	total := 0
	for _, fragment := range ordered {
		size := utf8.RuneCountInString(fragment.Text)
		if total+size > m.cfg.MaxChars {
			break
		}
		total += size
		merged = append(merged, fragment)
	}
	return merged
}

func renderDocument(d retrieval.Document) string {
	head := d.Name
	if d.City != "" {
		head += " (" + d.City + ")"
	}
	return strutil.Truncate(head+": "+d.Summary, documentClipRunes)
}

func renderFact(f retrieval.Fact) string {
	text := f.SubjectName + " " + f.Relation + " " + f.ObjectName
	if f.ObjectSummary != "" {
		text += ". " + f.ObjectName + ": " + strutil.Truncate(f.ObjectSummary, factClipRunes)
	}
	return text
}
