// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders the final coverage report: two checklists in source
// order plus a processing-issues section. Failed documents and failed checks
// are flagged entries, never silently dropped, and a processing failure is
// never presented as a content gap.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

// Meta is the run metadata written alongside the report.
type Meta struct {
	Course      string    `yaml:"course"`
	GeneratedAt time.Time `yaml:"generated_at"`

	Documents       int `yaml:"documents"`
	FailedDocuments int `yaml:"failed_documents"`
	Topics          int `yaml:"topics"`
	Questions       int `yaml:"questions"`
	Covered         int `yaml:"covered"`
	Gaps            int `yaml:"gaps"`
	Unchecked       int `yaml:"unchecked"`

	// PriorMatches counts units whose (document, ordinal, kind) identity
	// also existed in the previous recorded run for this course.
	PriorMatches int `yaml:"prior_matches"`

	Warnings []string `yaml:"warnings,omitempty"`
}

// Assemble renders the Markdown report from per-document coverage results.
// Topic and question sections keep discovery order; unchecked entries append
// the draft addition as a nested note.
func Assemble(course string, lectures, questions []types.DocumentCoverage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Cheat Sheet Coverage Report — %s\n\n", course)

	b.WriteString("## Lecture Topic Coverage\n\n")
	writeChecklist(&b, lectures)

	b.WriteString("## Exam/Assignment Question Coverage\n\n")
	writeChecklist(&b, questions)

	writeIssues(&b, append(append([]types.DocumentCoverage{}, lectures...), questions...))

	return b.String()
}

// BuildMeta computes run metadata from the same inputs.
func BuildMeta(course string, lectures, questions []types.DocumentCoverage, priorMatches int, now time.Time) Meta {
	m := Meta{
		Course:       course,
		GeneratedAt:  now.UTC(),
		PriorMatches: priorMatches,
	}
	for _, dc := range append(append([]types.DocumentCoverage{}, lectures...), questions...) {
		m.Documents++
		if dc.Doc.Failed() {
			m.FailedDocuments++
		}
		if dc.Warning != "" {
			m.Warnings = append(m.Warnings, dc.Warning)
		}
		for i, u := range dc.Units {
			if u.Kind == types.UnitTopic {
				m.Topics++
			} else {
				m.Questions++
			}
			v := dc.Verdicts[i]
			switch {
			case v.CheckFailed:
				m.Unchecked++
			case v.Covered:
				m.Covered++
			default:
				m.Gaps++
			}
		}
	}
	return m
}

// writeChecklist renders one section grouped by source document.
func writeChecklist(b *strings.Builder, docs []types.DocumentCoverage) {
	if len(docs) == 0 {
		b.WriteString("_No documents found._\n\n")
		return
	}

	for _, dc := range docs {
		fmt.Fprintf(b, "### %s\n\n", dc.Doc.Source.ID)

		if dc.Doc.Failed() {
			fmt.Fprintf(b, "⚠️ Document unreadable: %s\n\n", dc.Doc.FailureReason)
			continue
		}
		if len(dc.Units) == 0 {
			b.WriteString("_No units extracted._\n\n")
			continue
		}

		for i, u := range dc.Units {
			v := dc.Verdicts[i]
			label := u.Name
			if u.Body != "" {
				label += " — " + u.Body
			}
			if u.SourceRef != "" {
				label += " (" + u.SourceRef + ")"
			}

			switch {
			case v.CheckFailed:
				fmt.Fprintf(b, "- [ ] %s *(could not be checked)*\n", label)
			case v.Covered:
				fmt.Fprintf(b, "- [x] %s\n", label)
			default:
				fmt.Fprintf(b, "- [ ] %s\n", label)
				fmt.Fprintf(b, "  - Suggested addition: %s\n", indentContinuation(v.DraftAddition))
			}
		}
		b.WriteString("\n")
	}
}

// writeIssues renders the processing-issues section: failed documents,
// extraction warnings, and failed checks. Omitted when the run was clean.
func writeIssues(b *strings.Builder, docs []types.DocumentCoverage) {
	var lines []string
	for _, dc := range docs {
		if dc.Doc.Failed() {
			lines = append(lines, fmt.Sprintf("- %s: document unreadable (%s)", dc.Doc.Source.ID, dc.Doc.FailureReason))
		}
		if dc.Warning != "" {
			lines = append(lines, "- "+dc.Warning)
		}
		for i, v := range dc.Verdicts {
			if v.CheckFailed {
				lines = append(lines, fmt.Sprintf("- %s: could not be checked (%s)", dc.Units[i].ID, v.FailureReason))
			}
		}
	}
	if len(lines) == 0 {
		return
	}

	b.WriteString("## Processing Issues\n\n")
	b.WriteString("These entries are processing failures, not content gaps.\n\n")
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
	b.WriteString("\n")
}

// indentContinuation keeps multi-line drafts inside the nested list item.
func indentContinuation(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n    ")
}
