// Package prompt renders merged retrieval context and the traveler's
// question into the chat messages sent to the language model. Assembly
// is deterministic: the same query and fragments always produce the
// same prompt bytes, which keeps cached answers stable across restarts.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/wayfarerhq/wayfarer/ai/merge"
	"github.com/wayfarerhq/wayfarer/ai/retrieval"
)

const systemPrompt = `You are Wayfarer, a travel planning assistant.

Ground your answer in the provided context when it is present. Prefer
facts from the context over general knowledge and never invent places
that are not mentioned there.

Structure longer answers as:
Overview: two or three sentences that answer the question directly.
Suggested itinerary: a short day-by-day or stop-by-stop plan, only when
the question asks for one.
References: the place names from the context you relied on.

Keep answers under 300 words. When the context is empty or irrelevant,
answer from general travel knowledge and say that you are doing so.`

const contextTemplate = `Use the travel context below to answer the traveler's question.

{{- if .Documents}}

Destination notes:
{{- range .Documents}}
- {{.}}
{{- end}}
{{- end}}
{{- if .Facts}}

Related places:
{{- range .Facts}}
- {{.}}
{{- end}}
{{- end}}

Question: {{.Query}}`

const degradedTemplate = `No saved travel context matched this question. Answer from general travel knowledge and say when you are unsure.

Question: {{.Query}}`

var (
	contextTmpl  = template.Must(template.New("context").Parse(contextTemplate))
	degradedTmpl = template.Must(template.New("degraded").Parse(degradedTemplate))
)

type promptData struct {
	Query     string
	Documents []string
	Facts     []string
}

// Assembler builds the user prompt for a single answer call.
type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// SystemPrompt returns the instruction block shared by every answer call.
func (a *Assembler) SystemPrompt() string {
	return systemPrompt
}

// Assemble renders the user prompt for the given question and merged
// context. The query and every fragment are included verbatim, never
// reflowed, so distinct contexts always yield distinct prompts. When
// fragments is empty the degraded wording is used, so a fully failed
// retrieval and a genuinely empty knowledge base produce the same
// prompt.
func (a *Assembler) Assemble(query string, fragments []merge.Fragment) (string, error) {
	data := promptData{Query: query}
	for _, f := range fragments {
		switch f.Source {
		case retrieval.SourceVector:
			data.Documents = append(data.Documents, f.Text)
		case retrieval.SourceGraph:
			data.Facts = append(data.Facts, f.Text)
		}
	}

	tmpl := contextTmpl
	if len(data.Documents) == 0 && len(data.Facts) == 0 {
		tmpl = degradedTmpl
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute prompt template: %w", err)
	}
	return buf.String(), nil
}
