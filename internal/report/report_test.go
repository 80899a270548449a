package report

import (
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

func doc(id string, role types.DocumentRole) types.NormalizedDocument {
	return types.NormalizedDocument{
		Source:   types.SourceDocument{ID: id, Path: id + ".pdf", Format: ".pdf", Role: role},
		Text:     "content",
		Strategy: types.StrategyNativeText,
	}
}

func coverage(id string, role types.DocumentRole, kind types.UnitKind, covered []bool) types.DocumentCoverage {
	dc := types.DocumentCoverage{Doc: doc(id, role)}
	for i, c := range covered {
		u := types.Unit{
			ID:         id + "#u",
			Kind:       kind,
			DocumentID: id,
			Ordinal:    i + 1,
			Name:       "Unit",
			Body:       "body",
		}
		v := types.CoverageVerdict{UnitID: u.ID, Covered: c}
		if !c {
			v.DraftAddition = "add this"
		}
		dc.Units = append(dc.Units, u)
		dc.Verdicts = append(dc.Verdicts, v)
	}
	return dc
}

func TestAssembleAllCoveredHasNoDrafts(t *testing.T) {
	lectures := []types.DocumentCoverage{coverage("lec1", types.RoleLecture, types.UnitTopic, []bool{true, true})}
	questions := []types.DocumentCoverage{coverage("exam", types.RolePastPaper, types.UnitQuestion, []bool{true})}

	out := Assemble("CS231", lectures, questions)

	if strings.Contains(out, "Suggested addition") {
		t.Error("fully covered report contains draft additions")
	}
	if strings.Count(out, "- [x]") != 3 {
		t.Errorf("checked items = %d, want 3\n%s", strings.Count(out, "- [x]"), out)
	}
	if strings.Contains(out, "## Processing Issues") {
		t.Error("clean run should have no processing-issues section")
	}
}

func TestAssembleAllUncoveredHasOneDraftPerUnit(t *testing.T) {
	lectures := []types.DocumentCoverage{coverage("lec1", types.RoleLecture, types.UnitTopic, []bool{false, false})}
	questions := []types.DocumentCoverage{coverage("exam", types.RolePastPaper, types.UnitQuestion, []bool{false})}

	out := Assemble("CS231", lectures, questions)

	if got := strings.Count(out, "Suggested addition:"); got != 3 {
		t.Errorf("draft additions = %d, want exactly one per unit (3)\n%s", got, out)
	}
	if strings.Contains(out, "- [x]") {
		t.Error("all-uncovered report contains checked items")
	}
}

func TestAssembleSectionsAndOrder(t *testing.T) {
	lectures := []types.DocumentCoverage{
		coverage("lec1", types.RoleLecture, types.UnitTopic, []bool{true}),
		coverage("lec2", types.RoleLecture, types.UnitTopic, []bool{true}),
	}
	questions := []types.DocumentCoverage{coverage("exam", types.RolePastPaper, types.UnitQuestion, []bool{true})}

	out := Assemble("CS231", lectures, questions)

	topicIdx := strings.Index(out, "## Lecture Topic Coverage")
	questionIdx := strings.Index(out, "## Exam/Assignment Question Coverage")
	if topicIdx < 0 || questionIdx < 0 || topicIdx > questionIdx {
		t.Fatalf("section order wrong:\n%s", out)
	}
	if strings.Index(out, "### lec1") > strings.Index(out, "### lec2") {
		t.Error("documents not in source order")
	}
}

func TestAssembleFailedDocumentFlagged(t *testing.T) {
	failed := types.DocumentCoverage{Doc: types.NormalizedDocument{
		Source:        types.SourceDocument{ID: "broken", Role: types.RoleLecture},
		FailureReason: "corrupt file",
	}}

	out := Assemble("CS231", []types.DocumentCoverage{failed}, nil)

	if !strings.Contains(out, "### broken") {
		t.Error("failed document dropped from checklist")
	}
	if !strings.Contains(out, "Document unreadable: corrupt file") {
		t.Error("failure reason not rendered")
	}
	if !strings.Contains(out, "## Processing Issues") {
		t.Error("failed document missing from processing issues")
	}
}

func TestAssembleCheckFailureNotAGap(t *testing.T) {
	dc := coverage("lec1", types.RoleLecture, types.UnitTopic, []bool{true})
	dc.Units = append(dc.Units, types.Unit{ID: "lec1#t02", Kind: types.UnitTopic, DocumentID: "lec1", Ordinal: 2, Name: "Heaps"})
	dc.Verdicts = append(dc.Verdicts, types.CoverageVerdict{
		UnitID:        "lec1#t02",
		Covered:       false,
		DraftAddition: "evaluation failed",
		CheckFailed:   true,
		FailureReason: "upstream timeout",
	})

	out := Assemble("CS231", []types.DocumentCoverage{dc}, nil)

	if !strings.Contains(out, "*(could not be checked)*") {
		t.Error("check failure not distinguished in checklist")
	}
	if strings.Contains(out, "Suggested addition: evaluation failed") {
		t.Error("synthetic draft rendered as a real gap remedy")
	}
	if !strings.Contains(out, "lec1#t02: could not be checked (upstream timeout)") {
		t.Errorf("check failure missing from processing issues:\n%s", out)
	}
}

func TestAssembleWarningSurfaced(t *testing.T) {
	dc := coverage("lec1", types.RoleLecture, types.UnitTopic, nil)
	dc.Warning = "no units extracted from non-trivial document lec1"

	out := Assemble("CS231", []types.DocumentCoverage{dc}, nil)

	if !strings.Contains(out, dc.Warning) {
		t.Error("zero-unit warning not surfaced")
	}
}

func TestBuildMeta(t *testing.T) {
	lec := coverage("lec1", types.RoleLecture, types.UnitTopic, []bool{true, false})
	lec.Warning = "warning text"
	q := coverage("exam", types.RolePastPaper, types.UnitQuestion, []bool{true})
	q.Verdicts[0] = types.CoverageVerdict{UnitID: q.Units[0].ID, CheckFailed: true, DraftAddition: "evaluation failed"}

	failed := types.DocumentCoverage{Doc: types.NormalizedDocument{
		Source:        types.SourceDocument{ID: "bad", Role: types.RoleLecture},
		FailureReason: "corrupt",
	}}

	m := BuildMeta("CS231", []types.DocumentCoverage{lec, failed}, []types.DocumentCoverage{q}, 2, time.Now())

	if m.Documents != 3 || m.FailedDocuments != 1 {
		t.Errorf("documents=%d failed=%d", m.Documents, m.FailedDocuments)
	}
	if m.Topics != 2 || m.Questions != 1 {
		t.Errorf("topics=%d questions=%d", m.Topics, m.Questions)
	}
	if m.Covered != 1 || m.Gaps != 1 || m.Unchecked != 1 {
		t.Errorf("covered=%d gaps=%d unchecked=%d", m.Covered, m.Gaps, m.Unchecked)
	}
	if m.PriorMatches != 2 || len(m.Warnings) != 1 {
		t.Errorf("priorMatches=%d warnings=%v", m.PriorMatches, m.Warnings)
	}
}
