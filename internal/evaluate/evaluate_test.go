package evaluate

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

// --- mock reasoner ---

// mockReasoner returns queued responses in order, then repeats the last one.
type mockReasoner struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (m *mockReasoner) Complete(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func testUnit(id string) types.Unit {
	return types.Unit{
		ID:         id,
		Kind:       types.UnitTopic,
		DocumentID: "lecture01",
		Ordinal:    1,
		Name:       "Quicksort",
		Body:       "Partitioning and average-case complexity.",
	}
}

var testSheet = types.CheatSheet{
	SourcePath: "cheatsheet.md",
	Text:       "Quicksort: pick pivot, partition, recurse. Average O(n log n).",
}

func TestEvaluateCovered(t *testing.T) {
	r := &mockReasoner{responses: []string{`{"covered": true, "draft_addition": ""}`}}

	v := Evaluate(context.Background(), r, testUnit("lecture01#t01"), testSheet)

	if !v.Covered || v.CheckFailed {
		t.Fatalf("verdict = %+v, want covered", v)
	}
	if v.DraftAddition != "" {
		t.Errorf("covered verdict carries draft: %q", v.DraftAddition)
	}
}

func TestEvaluateNotCovered(t *testing.T) {
	r := &mockReasoner{responses: []string{`{"covered": false, "draft_addition": "Add the worst-case bound and pivot strategies."}`}}

	v := Evaluate(context.Background(), r, testUnit("lecture01#t01"), testSheet)

	if v.Covered || v.CheckFailed {
		t.Fatalf("verdict = %+v, want uncovered", v)
	}
	if v.DraftAddition == "" {
		t.Error("uncovered verdict must carry a draft addition")
	}
}

func TestEvaluateEmptyCheatSheet(t *testing.T) {
	// An empty sheet is still evaluated; it cannot cover anything, so the
	// service reports a gap with a draft, never a special case.
	r := &mockReasoner{responses: []string{`{"covered": false, "draft_addition": "Quicksort: pick pivot, partition, recurse."}`}}

	v := Evaluate(context.Background(), r, testUnit("lecture01#t01"), types.CheatSheet{})

	if v.Covered || v.CheckFailed {
		t.Fatalf("verdict = %+v, want uncovered", v)
	}
	if v.DraftAddition == "" {
		t.Error("gap against an empty sheet must carry a draft addition")
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	response := `{"covered": false, "draft_addition": "Add mergesort space analysis."}`
	unit := testUnit("lecture01#t02")

	first := Evaluate(context.Background(), &mockReasoner{responses: []string{response}}, unit, testSheet)
	second := Evaluate(context.Background(), &mockReasoner{responses: []string{response}}, unit, testSheet)

	if first != second {
		t.Errorf("same (unit, sheet) pair produced different verdicts:\n%+v\n%+v", first, second)
	}
}

func TestEvaluateRetriesOnceThenSynthetic(t *testing.T) {
	tests := []struct {
		name      string
		responses []string
		wantCalls int
		wantFail  bool
	}{
		{
			name:      "second attempt parses",
			responses: []string{"sure, it is covered!", `{"covered": true, "draft_addition": ""}`},
			wantCalls: 2,
			wantFail:  false,
		},
		{
			name:      "both attempts unusable",
			responses: []string{`{"covered": "yes"}`, "still not json"},
			wantCalls: 2,
			wantFail:  true,
		},
		{
			name:      "gap without draft is unusable",
			responses: []string{`{"covered": false, "draft_addition": ""}`},
			wantCalls: 2,
			wantFail:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &mockReasoner{responses: tt.responses}
			v := Evaluate(context.Background(), r, testUnit("u"), testSheet)
			if r.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", r.calls, tt.wantCalls)
			}
			if v.CheckFailed != tt.wantFail {
				t.Errorf("CheckFailed = %v, want %v (verdict %+v)", v.CheckFailed, tt.wantFail, v)
			}
			if tt.wantFail {
				if v.Covered {
					t.Error("failed check must not report covered")
				}
				if v.DraftAddition != failedDraft {
					t.Errorf("draft = %q, want %q", v.DraftAddition, failedDraft)
				}
			}
		})
	}
}

func TestEvaluateTimeoutBecomesCheckFailure(t *testing.T) {
	r := &mockReasoner{err: fmt.Errorf("%w: call exceeded 2m", types.ErrUpstreamTimeout)}

	v := Evaluate(context.Background(), r, testUnit("u"), testSheet)

	if !v.CheckFailed || v.Covered {
		t.Fatalf("verdict = %+v, want check failure", v)
	}
	if v.DraftAddition != failedDraft {
		t.Errorf("draft = %q, want %q", v.DraftAddition, failedDraft)
	}
	if r.calls != 1 {
		t.Errorf("transport errors must not be re-asked, calls = %d", r.calls)
	}
}

func TestEvaluateAllPreservesOrder(t *testing.T) {
	units := make([]types.Unit, 8)
	for i := range units {
		units[i] = testUnit(fmt.Sprintf("lecture01#t%02d", i+1))
	}
	r := &mockReasoner{responses: []string{`{"covered": true, "draft_addition": ""}`}}

	var w bytes.Buffer
	verdicts := EvaluateAll(context.Background(), r, units, testSheet, 3, &w)

	if len(verdicts) != len(units) {
		t.Fatalf("verdicts = %d, want %d", len(verdicts), len(units))
	}
	for i, v := range verdicts {
		if v.UnitID != units[i].ID {
			t.Errorf("verdicts[%d] = %s, want %s", i, v.UnitID, units[i].ID)
		}
	}
	if r.calls != len(units) {
		t.Errorf("each unit must be evaluated exactly once, calls = %d", r.calls)
	}
}

func TestEvaluateAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	units := []types.Unit{testUnit("a#t01"), testUnit("a#t02")}
	r := &mockReasoner{responses: []string{`{"covered": true, "draft_addition": ""}`}}

	var w bytes.Buffer
	verdicts := EvaluateAll(ctx, r, units, testSheet, 2, &w)

	for i, v := range verdicts {
		if !v.CheckFailed {
			t.Errorf("verdicts[%d] = %+v, want check failure after cancel", i, v)
		}
	}
	if r.calls != 0 {
		t.Errorf("cancelled run issued %d new calls", r.calls)
	}
}

func TestEvaluatePromptRequiresSufficiency(t *testing.T) {
	prompt, err := renderPrompt(testUnit("u"), testSheet)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Partial coverage is NOT covered", testSheet.Text, "Quicksort"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
