// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract derives checkable units from normalized documents: topics
// from lecture material, questions from past papers and assignments. The
// reasoning service does the reading; this package enforces the response
// contract and assigns unit identities.
package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/coverage-engine/internal/reason"
	"github.com/pdiddy/coverage-engine/pkg/types"
)

// Reasoner is the narrow surface this package needs from the reasoning
// service. Tests supply deterministic mocks.
type Reasoner interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// minSubstantiveChars is the non-whitespace size below which a document
// counts as trivial: zero extracted units from anything larger is flagged
// as a possible extraction or prompting failure.
const minSubstantiveChars = 200

// Result holds the units extracted from one document plus a non-fatal
// warning, surfaced in the report's metadata rather than failing the run.
type Result struct {
	Units   []types.Unit
	Warning string
}

// topicsResponse mirrors the extraction schema for lecture material.
type topicsResponse struct {
	Topics []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		SourceRef   string `json:"source_ref"`
	} `json:"topics"`
}

// questionsResponse mirrors the extraction schema for papers and assignments.
type questionsResponse struct {
	Questions []struct {
		Label     string `json:"label"`
		Text      string `json:"text"`
		SourceRef string `json:"source_ref"`
	} `json:"questions"`
}

// ExtractUnits derives the units for one document. Documents that failed
// conversion yield no units and no service call; the pipeline carries a
// "document unreadable" note into the report instead. An unusable service
// response returns an error wrapping ErrExtractionFailure, recovered at
// document scope by the caller.
func ExtractUnits(ctx context.Context, r Reasoner, doc types.NormalizedDocument) (Result, error) {
	if doc.Failed() {
		return Result{}, nil
	}

	switch doc.Source.Role {
	case types.RoleLecture:
		return extractTopics(ctx, r, doc)
	case types.RolePastPaper, types.RoleAssignment:
		return extractQuestions(ctx, r, doc)
	default:
		return Result{}, fmt.Errorf("%w: unknown role %q", types.ErrExtractionFailure, doc.Source.Role)
	}
}

func extractTopics(ctx context.Context, r Reasoner, doc types.NormalizedDocument) (Result, error) {
	raw, err := complete(ctx, r, topicsPrompt, doc)
	if err != nil {
		return Result{}, err
	}

	if err := reason.Validate(topicsSchema, raw); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", types.ErrExtractionFailure, doc.Source.ID, err)
	}
	var resp topicsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return Result{}, fmt.Errorf("%w: %s: parsing response: %v", types.ErrExtractionFailure, doc.Source.ID, err)
	}

	units := make([]types.Unit, 0, len(resp.Topics))
	for i, tp := range resp.Topics {
		units = append(units, types.Unit{
			ID:         unitID(doc.Source.ID, types.UnitTopic, i+1),
			Kind:       types.UnitTopic,
			DocumentID: doc.Source.ID,
			Ordinal:    i + 1,
			Name:       tp.Name,
			Body:       tp.Description,
			SourceRef:  tp.SourceRef,
		})
	}
	return Result{Units: units, Warning: zeroUnitWarning(doc, len(units))}, nil
}

func extractQuestions(ctx context.Context, r Reasoner, doc types.NormalizedDocument) (Result, error) {
	raw, err := complete(ctx, r, questionsPrompt, doc)
	if err != nil {
		return Result{}, err
	}

	if err := reason.Validate(questionsSchema, raw); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", types.ErrExtractionFailure, doc.Source.ID, err)
	}
	var resp questionsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return Result{}, fmt.Errorf("%w: %s: parsing response: %v", types.ErrExtractionFailure, doc.Source.ID, err)
	}

	units := make([]types.Unit, 0, len(resp.Questions))
	for i, q := range resp.Questions {
		name := q.Label
		if name == "" {
			name = fmt.Sprintf("Question %d", i+1)
		}
		units = append(units, types.Unit{
			ID:         unitID(doc.Source.ID, types.UnitQuestion, i+1),
			Kind:       types.UnitQuestion,
			DocumentID: doc.Source.ID,
			Ordinal:    i + 1,
			Name:       name,
			Body:       q.Text,
			SourceRef:  q.SourceRef,
		})
	}
	return Result{Units: units, Warning: zeroUnitWarning(doc, len(units))}, nil
}

// unitID derives the stable identity from source document and ordinal
// position. Content is deliberately not hashed: the service may rename or
// reword units across runs, and position is what re-runs can match on.
func unitID(docID string, kind types.UnitKind, ordinal int) string {
	return fmt.Sprintf("%s#%c%02d", docID, kind[0], ordinal)
}

func zeroUnitWarning(doc types.NormalizedDocument, n int) string {
	if n > 0 {
		return ""
	}
	if countNonSpace(doc.Text) < minSubstantiveChars {
		return ""
	}
	return fmt.Sprintf("no units extracted from non-trivial document %s; possible extraction or prompting failure", doc.Source.ID)
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
		default:
			n++
		}
	}
	return n
}
