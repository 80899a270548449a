// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DocumentRole identifies which part of the course corpus a document belongs to.
type DocumentRole string

const (
	RoleLecture    DocumentRole = "lecture"
	RolePastPaper  DocumentRole = "past_paper"
	RoleAssignment DocumentRole = "assignment_question"
)

// ExtractionStrategy selects how text is pulled out of a source document.
type ExtractionStrategy string

const (
	// StrategyNativeText extracts the embedded text layer directly.
	StrategyNativeText ExtractionStrategy = "native_text"

	// StrategyRenderOCR rasterizes pages and recognizes text from the images.
	StrategyRenderOCR ExtractionStrategy = "render_ocr"
)

// Course references one course's materials for the duration of a single run.
type Course struct {
	// Code is the course identifier, e.g. "CS231".
	Code string `json:"code" yaml:"code"`

	// Dir is the resolved course directory under the courses base.
	Dir string `json:"dir" yaml:"dir"`

	// CheatSheetPath points at cheatsheet.md or cheatsheet.pdf.
	CheatSheetPath string `json:"cheat_sheet_path" yaml:"cheat_sheet_path"`

	// Lectures, PastPapers, and Assignments list discovered material files
	// in sorted order. Discovery order fixes report order.
	Lectures    []string `json:"lectures" yaml:"lectures"`
	PastPapers  []string `json:"past_papers" yaml:"past_papers"`
	Assignments []string `json:"assignments" yaml:"assignments"`
}

// SourceDocument is one discovered material file. Immutable once discovered.
type SourceDocument struct {
	// ID is a slug derived from the filename, unique within the run.
	ID string `json:"id" yaml:"id"`

	// Path is the filesystem path to the source file.
	Path string `json:"path" yaml:"path"`

	// Format is the lowercase file extension including the dot, e.g. ".pdf".
	Format string `json:"format" yaml:"format"`

	// Role records which corpus directory the document came from.
	Role DocumentRole `json:"role" yaml:"role"`
}

// NormalizedDocument holds the extraction outcome for one SourceDocument.
// It is terminal: created by the converter and only consumed afterwards.
// A failed document has empty Text and a non-empty FailureReason.
type NormalizedDocument struct {
	Source SourceDocument `json:"source" yaml:"source"`

	// Text is the normalized Markdown, with <!-- page N --> markers for
	// multi-page sources. Empty when Failed.
	Text string `json:"text" yaml:"text"`

	// Strategy is the extraction strategy actually used, which may differ
	// from the classified one after an OCR fallback.
	Strategy ExtractionStrategy `json:"strategy" yaml:"strategy"`

	// FailureReason is a human-readable reason when conversion failed.
	FailureReason string `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`
}

// Failed reports whether conversion of this document failed.
func (d NormalizedDocument) Failed() bool {
	return d.FailureReason != ""
}

// CheatSheet is the normalized text of the evaluated artifact. Read-only
// input shared by all evaluator calls.
type CheatSheet struct {
	// SourcePath is the cheat sheet file the text came from.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Text is the normalized Markdown content.
	Text string `json:"text" yaml:"text"`
}

// UnitKind distinguishes the two checkable unit shapes.
type UnitKind string

const (
	UnitTopic    UnitKind = "topic"
	UnitQuestion UnitKind = "question"
)

// Unit is one checkable item derived from a normalized document: a lecture
// topic or an exam/assignment question. Identity is (source document,
// ordinal position in the extraction response), not a content hash, so
// re-runs may rename or reorder units.
type Unit struct {
	// ID is "<documentID>#<kind><ordinal>", e.g. "lecture03#t02".
	ID string `json:"id" yaml:"id"`

	// Kind is topic or question.
	Kind UnitKind `json:"kind" yaml:"kind"`

	// DocumentID references the source document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Ordinal is the 1-based position within the extraction response.
	Ordinal int `json:"ordinal" yaml:"ordinal"`

	// Name is the short topic name, or a question label like "Q3(b)".
	Name string `json:"name" yaml:"name"`

	// Body is the topic description or the (possibly paraphrased) question text.
	Body string `json:"body" yaml:"body"`

	// SourceRef cites where in the document the unit was found, e.g. "page 4".
	SourceRef string `json:"source_ref,omitempty" yaml:"source_ref,omitempty"`
}

// CoverageVerdict links one Unit to its coverage judgement. Produced exactly
// once per unit. CheckFailed marks verdicts that record a processing failure
// rather than a real content gap; the two are never conflated in the report.
type CoverageVerdict struct {
	UnitID string `json:"unit_id" yaml:"unit_id"`

	// Covered reports whether the cheat sheet suffices to answer the unit.
	// Partial coverage counts as not covered.
	Covered bool `json:"covered" yaml:"covered"`

	// DraftAddition is proposed cheat-sheet content closing the gap.
	// Empty when Covered.
	DraftAddition string `json:"draft_addition,omitempty" yaml:"draft_addition,omitempty"`

	// CheckFailed is true when the judgement could not be obtained; Covered
	// is false and DraftAddition holds a synthetic placeholder.
	CheckFailed bool `json:"check_failed,omitempty" yaml:"check_failed,omitempty"`

	// FailureReason explains a failed check.
	FailureReason string `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`
}

// DocumentCoverage groups one document's units and their verdicts for the
// report. Verdicts is positionally parallel to Units.
type DocumentCoverage struct {
	Doc      NormalizedDocument `json:"doc" yaml:"doc"`
	Units    []Unit             `json:"units" yaml:"units"`
	Verdicts []CoverageVerdict  `json:"verdicts" yaml:"verdicts"`

	// Warning records a non-fatal extraction anomaly, such as zero units
	// from a non-trivial document.
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`
}
