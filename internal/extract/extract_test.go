package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

// --- mock reasoner ---

type mockReasoner struct {
	response string
	err      error
	calls    int
}

func (m *mockReasoner) Complete(_ context.Context, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func lectureDoc(id, text string) types.NormalizedDocument {
	return types.NormalizedDocument{
		Source:   types.SourceDocument{ID: id, Path: id + ".pdf", Format: ".pdf", Role: types.RoleLecture},
		Text:     text,
		Strategy: types.StrategyNativeText,
	}
}

func paperDoc(id, text string) types.NormalizedDocument {
	return types.NormalizedDocument{
		Source:   types.SourceDocument{ID: id, Path: id + ".pdf", Format: ".pdf", Role: types.RolePastPaper},
		Text:     text,
		Strategy: types.StrategyNativeText,
	}
}

const substantiveText = `<!-- page 1 -->

Sorting algorithms. Quicksort partitions around a pivot; average O(n log n),
worst case O(n^2) on sorted input with naive pivot selection. Mergesort is
stable and guarantees O(n log n) at the cost of O(n) auxiliary space. Heaps
support O(log n) insert and extract-min, giving heapsort and priority queues.`

func TestExtractTopics(t *testing.T) {
	r := &mockReasoner{response: `{"topics": [
		{"name": "Quicksort", "description": "Partitioning and complexity.", "source_ref": "page 1"},
		{"name": "Mergesort", "description": "Stable divide and conquer.", "source_ref": "page 1"}
	]}`}

	result, err := ExtractUnits(context.Background(), r, lectureDoc("lecture03", substantiveText))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Units) != 2 {
		t.Fatalf("units = %d, want 2", len(result.Units))
	}
	if result.Warning != "" {
		t.Errorf("unexpected warning: %s", result.Warning)
	}

	first := result.Units[0]
	if first.ID != "lecture03#t01" {
		t.Errorf("ID = %q, want lecture03#t01", first.ID)
	}
	if first.Kind != types.UnitTopic || first.Ordinal != 1 || first.Name != "Quicksort" {
		t.Errorf("unexpected unit: %+v", first)
	}
	if result.Units[1].Ordinal != 2 {
		t.Errorf("second ordinal = %d", result.Units[1].Ordinal)
	}
}

func TestExtractQuestions(t *testing.T) {
	r := &mockReasoner{response: `{"questions": [
		{"label": "Q1(a)", "text": "State the master theorem.", "source_ref": "page 1"},
		{"label": "", "text": "Prove quicksort's average complexity.", "source_ref": "page 2"}
	]}`}

	result, err := ExtractUnits(context.Background(), r, paperDoc("exam2024", substantiveText))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Units) != 2 {
		t.Fatalf("units = %d, want 2", len(result.Units))
	}
	if result.Units[0].ID != "exam2024#q01" {
		t.Errorf("ID = %q, want exam2024#q01", result.Units[0].ID)
	}
	if result.Units[0].Name != "Q1(a)" {
		t.Errorf("Name = %q", result.Units[0].Name)
	}
	// Unlabelled questions get a positional name.
	if result.Units[1].Name != "Question 2" {
		t.Errorf("default name = %q, want Question 2", result.Units[1].Name)
	}
}

func TestExtractFailedDocSkipsService(t *testing.T) {
	r := &mockReasoner{response: `{"topics": []}`}
	doc := types.NormalizedDocument{
		Source:        types.SourceDocument{ID: "bad", Role: types.RoleLecture},
		FailureReason: "corrupt file",
	}

	result, err := ExtractUnits(context.Background(), r, doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Units) != 0 {
		t.Error("failed document must yield no units")
	}
	if r.calls != 0 {
		t.Errorf("service called %d times for unreadable document", r.calls)
	}
}

func TestExtractZeroUnitsWarning(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantWarning bool
	}{
		{"non-trivial document", substantiveText, true},
		{"trivial document", "Title page\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &mockReasoner{response: `{"topics": []}`}
			result, err := ExtractUnits(context.Background(), r, lectureDoc("doc", tt.text))
			if err != nil {
				t.Fatal(err)
			}
			if got := result.Warning != ""; got != tt.wantWarning {
				t.Errorf("warning = %q, wantWarning=%v", result.Warning, tt.wantWarning)
			}
		})
	}
}

func TestExtractRejectsMalformedResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "here are the topics: sorting, heaps"},
		{"wrong shape", `{"items": []}`},
		{"missing required field", `{"topics": [{"name": "Quicksort"}]}`},
		{"empty name", `{"topics": [{"name": "", "description": "x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &mockReasoner{response: tt.response}
			_, err := ExtractUnits(context.Background(), r, lectureDoc("doc", substantiveText))
			if !errors.Is(err, types.ErrExtractionFailure) {
				t.Errorf("error = %v, want ErrExtractionFailure", err)
			}
		})
	}
}

func TestExtractServiceErrorKeepsKind(t *testing.T) {
	r := &mockReasoner{err: fmt.Errorf("%w: deadline exceeded", types.ErrUpstreamTimeout)}
	_, err := ExtractUnits(context.Background(), r, lectureDoc("doc", substantiveText))
	if !errors.Is(err, types.ErrUpstreamTimeout) {
		t.Errorf("error = %v, want ErrUpstreamTimeout preserved", err)
	}
}

func TestExtractIdempotentWithDeterministicMock(t *testing.T) {
	response := `{"topics": [{"name": "Heaps", "description": "Priority queues.", "source_ref": ""}]}`

	first, err := ExtractUnits(context.Background(), &mockReasoner{response: response}, lectureDoc("doc", substantiveText))
	if err != nil {
		t.Fatal(err)
	}
	second, err := ExtractUnits(context.Background(), &mockReasoner{response: response}, lectureDoc("doc", substantiveText))
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Units) != len(second.Units) || first.Units[0] != second.Units[0] {
		t.Errorf("extraction not deterministic: %+v vs %+v", first.Units, second.Units)
	}
}

func TestUnitIDFormat(t *testing.T) {
	if got := unitID("lecture03", types.UnitTopic, 7); got != "lecture03#t07" {
		t.Errorf("unitID = %q", got)
	}
	if got := unitID("exam", types.UnitQuestion, 12); got != "exam#q12" {
		t.Errorf("unitID = %q", got)
	}
	if !strings.Contains(unitID("d", types.UnitTopic, 1), "#") {
		t.Error("unit IDs must separate document from ordinal")
	}
}
