// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

// topicsPrompt asks the reasoning service to enumerate distinct lecture
// topics. The response must be a bare JSON object matching topicsSchema.
var topicsPrompt = template.Must(template.New("topics").Parse(`You are indexing lecture material for an exam-preparation tool. Read the lecture content below and enumerate the distinct, non-overlapping topics it teaches.

For each topic provide:
- name: a short topic name (a few words)
- description: one or two sentences describing what a student must know about it
- source_ref: where the topic appears, citing page markers like <!-- page 3 --> as "page 3" when present, otherwise an empty string

Merge duplicated or overlapping material into one topic. Do not invent topics that are not taught in the content.

Respond with a JSON object containing a "topics" array. Do not include any text outside the JSON object.

Example response:
{"topics": [{"name": "Quicksort partitioning", "description": "How the pivot splits the array and why average complexity is O(n log n).", "source_ref": "page 4"}]}

Lecture content:
{{.Text}}
`))

// questionsPrompt asks for one entry per distinct question or sub-question.
var questionsPrompt = template.Must(template.New("questions").Parse(`You are indexing an exam paper or assignment sheet for an exam-preparation tool. Read the content below and list every distinct question and sub-question a student is asked to answer.

For each question provide:
- label: the question identifier as printed, e.g. "Q3(b)" or "Exercise 2"; empty string if none is printed
- text: the question text, verbatim where possible, lightly paraphrased only when the original spans figures or tables
- source_ref: where the question appears, citing page markers like <!-- page 2 --> as "page 2" when present, otherwise an empty string

Split multi-part questions into one entry per sub-question. Skip instructions, cover pages, and mark schemes.

Respond with a JSON object containing a "questions" array. Do not include any text outside the JSON object.

Example response:
{"questions": [{"label": "Q1(a)", "text": "State the master theorem and use it to solve T(n) = 2T(n/2) + n.", "source_ref": "page 1"}]}

Document content:
{{.Text}}
`))

// topicsSchema is the fixed response contract for lecture extraction.
const topicsSchema = `{
	"type": "object",
	"required": ["topics"],
	"properties": {
		"topics": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "description"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"description": {"type": "string", "minLength": 1},
					"source_ref": {"type": "string"}
				}
			}
		}
	}
}`

// questionsSchema is the fixed response contract for paper/assignment extraction.
const questionsSchema = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["text"],
				"properties": {
					"label": {"type": "string"},
					"text": {"type": "string", "minLength": 1},
					"source_ref": {"type": "string"}
				}
			}
		}
	}
}`

// complete renders the prompt for doc and sends it to the reasoning service.
func complete(ctx context.Context, r Reasoner, tmpl *template.Template, doc types.NormalizedDocument) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Text string }{Text: doc.Text}); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	raw, err := r.Complete(ctx, buf.String())
	if err != nil {
		return "", fmt.Errorf("extracting units from %s: %w", doc.Source.ID, err)
	}
	return raw, nil
}
