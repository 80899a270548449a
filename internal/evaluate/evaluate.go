// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate judges each unit against the cheat sheet. Every unit is
// evaluated independently and exactly once; a verdict that could not be
// obtained is recorded as a check failure, which the report keeps separate
// from real content gaps.
package evaluate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/template"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/coverage-engine/internal/reason"
	"github.com/pdiddy/coverage-engine/pkg/types"
)

// Reasoner is the surface this package needs from the reasoning service.
type Reasoner interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// failedDraft is the synthetic draft recorded when no judgement was obtained.
const failedDraft = "evaluation failed"

// evaluationPrompt instructs the service to require sufficiency, not mere
// relevance: a sheet that addresses the area generically but cannot answer
// the specific unit is not covered.
var evaluationPrompt = template.Must(template.New("evaluation").Parse(`You are checking whether a student's exam cheat sheet covers a specific item of course material.

Item kind: {{.Kind}}
Item name: {{.Name}}
Item content:
{{.Body}}

Judge the cheat sheet below. The item counts as covered ONLY if the cheat sheet contains enough information to fully answer or address this specific item. Generic relevance is not enough: if the sheet mentions the area but lacks what this item specifically needs, it is NOT covered. Partial coverage is NOT covered.

If not covered, write a concise draft of the content that, added to the sheet, would achieve coverage. Keep the draft in the compact style of a cheat sheet.

Respond with a JSON object and nothing else:
{"covered": <true|false>, "draft_addition": "<draft when not covered, empty string when covered>"}

Cheat sheet:
{{.CheatSheet}}
`))

// verdictSchema is the fixed response contract for coverage judgements.
const verdictSchema = `{
	"type": "object",
	"required": ["covered", "draft_addition"],
	"properties": {
		"covered": {"type": "boolean"},
		"draft_addition": {"type": "string"}
	}
}`

// verdictResponse mirrors verdictSchema.
type verdictResponse struct {
	Covered       bool   `json:"covered"`
	DraftAddition string `json:"draft_addition"`
}

// Evaluate produces the verdict for one unit. It never returns an error: an
// unusable response is re-asked once, then downgraded to a synthetic
// covered=false verdict marked as a check failure.
func Evaluate(ctx context.Context, r Reasoner, unit types.Unit, sheet types.CheatSheet) types.CoverageVerdict {
	prompt, err := renderPrompt(unit, sheet)
	if err != nil {
		return failedVerdict(unit, fmt.Sprintf("rendering prompt: %v", err))
	}

	var lastReason string
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := r.Complete(ctx, prompt)
		if err != nil {
			// Transport-level failures (timeout, exhausted rate-limit
			// backoff) are not re-asked here; the client already retried
			// what is retryable.
			return failedVerdict(unit, err.Error())
		}

		v, err := parseVerdict(raw)
		if err != nil {
			lastReason = fmt.Sprintf("%v: %v", types.ErrEvaluationFailure, err)
			continue
		}

		verdict := types.CoverageVerdict{
			UnitID:  unit.ID,
			Covered: v.Covered,
		}
		if !v.Covered {
			verdict.DraftAddition = v.DraftAddition
		}
		return verdict
	}
	return failedVerdict(unit, lastReason)
}

// EvaluateAll judges units in parallel under the concurrency cap, sharing
// the read-only cheat sheet. The returned slice is positionally parallel to
// units regardless of completion order. Cancellation stops new evaluations;
// units never judged get check-failure verdicts so the partial report stays
// complete.
func EvaluateAll(ctx context.Context, r Reasoner, units []types.Unit, sheet types.CheatSheet, concurrency int, w io.Writer) []types.CoverageVerdict {
	if concurrency <= 0 {
		concurrency = types.DefaultConcurrency
	}

	verdicts := make([]types.CoverageVerdict, len(units))
	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	for i, u := range units {
		g.Go(func() error {
			if ctx.Err() != nil {
				verdicts[i] = failedVerdict(u, "run cancelled before evaluation")
				return nil
			}
			verdicts[i] = Evaluate(ctx, r, u, sheet)
			return nil
		})
	}
	g.Wait()

	for i, v := range verdicts {
		switch {
		case v.CheckFailed:
			fmt.Fprintf(w, "unchecked: %s (%s)\n", units[i].ID, v.FailureReason)
		case v.Covered:
			fmt.Fprintf(w, "covered:   %s\n", units[i].ID)
		default:
			fmt.Fprintf(w, "gap:       %s\n", units[i].ID)
		}
	}
	return verdicts
}

// parseVerdict validates and decodes one response. A not-covered verdict
// with an empty draft is unusable: the contract requires a remedy for
// every gap.
func parseVerdict(raw string) (verdictResponse, error) {
	if err := reason.Validate(verdictSchema, raw); err != nil {
		return verdictResponse{}, err
	}
	var v verdictResponse
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return verdictResponse{}, fmt.Errorf("parsing response: %w", err)
	}
	if !v.Covered && v.DraftAddition == "" {
		return verdictResponse{}, fmt.Errorf("not-covered verdict without draft addition")
	}
	return v, nil
}

func renderPrompt(unit types.Unit, sheet types.CheatSheet) (string, error) {
	var buf bytes.Buffer
	err := evaluationPrompt.Execute(&buf, struct {
		Kind, Name, Body, CheatSheet string
	}{
		Kind:       string(unit.Kind),
		Name:       unit.Name,
		Body:       unit.Body,
		CheatSheet: sheet.Text,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func failedVerdict(unit types.Unit, reason string) types.CoverageVerdict {
	return types.CoverageVerdict{
		UnitID:        unit.ID,
		Covered:       false,
		DraftAddition: failedDraft,
		CheckFailed:   true,
		FailureReason: reason,
	}
}
