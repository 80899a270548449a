// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coverage wires the stages into one run: discover the course,
// normalize the corpus, extract units, evaluate them against the cheat
// sheet, and write the report. Only a missing course or cheat sheet aborts
// a run; everything else degrades to annotated report entries.
package coverage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/coverage-engine/internal/convert"
	"github.com/pdiddy/coverage-engine/internal/course"
	"github.com/pdiddy/coverage-engine/internal/evaluate"
	"github.com/pdiddy/coverage-engine/internal/extract"
	"github.com/pdiddy/coverage-engine/internal/history"
	"github.com/pdiddy/coverage-engine/internal/report"
	"github.com/pdiddy/coverage-engine/pkg/types"
)

// Pipeline runs the full coverage check for one course.
type Pipeline struct {
	cfg        types.PipelineConfig
	classifier convert.Classifier
	converter  *convert.Converter
	extractor  extract.Reasoner
	evaluator  evaluate.Reasoner
	history    *history.Store // nil disables run history
	w          io.Writer
}

// New assembles a pipeline from its stage collaborators. Components receive
// their configuration explicitly so tests can inject deterministic stand-ins
// for the reasoning service and OCR engine.
func New(cfg types.PipelineConfig, classifier convert.Classifier, converter *convert.Converter, extractor extract.Reasoner, evaluator evaluate.Reasoner, hist *history.Store, w io.Writer) *Pipeline {
	cfg.Reasoning.Normalize()
	cfg.Conversion.Normalize()
	return &Pipeline{
		cfg:        cfg,
		classifier: classifier,
		converter:  converter,
		extractor:  extractor,
		evaluator:  evaluator,
		history:    hist,
		w:          w,
	}
}

// Run executes the coverage check and returns the written report path.
// Cancellation mid-run stops issuing new external calls and still writes a
// partial report from whatever succeeded.
func (p *Pipeline) Run(ctx context.Context, code string) (string, error) {
	c, err := course.Discover(p.cfg.Coverage.CoursesDir, code)
	if err != nil {
		return "", err
	}

	sheet, err := p.loadCheatSheet(ctx, c)
	if err != nil {
		return "", err
	}

	fmt.Fprintf(p.w, "checking %s (%d lectures, %d past papers, %d assignments)\n",
		code, len(c.Lectures), len(c.PastPapers), len(c.Assignments))

	lectures := p.processRole(ctx, types.RoleLecture, c.Lectures)
	papers := p.processRole(ctx, types.RolePastPaper, c.PastPapers)
	assignments := p.processRole(ctx, types.RoleAssignment, c.Assignments)
	questions := append(papers, assignments...)

	units := gatherUnits(lectures, questions)
	verdicts := evaluate.EvaluateAll(ctx, p.evaluator, units, sheet, p.cfg.Reasoning.Concurrency, p.w)
	scatterVerdicts(verdicts, lectures, questions)

	priorMatches := 0
	if p.history != nil {
		combined := append(append([]types.DocumentCoverage{}, lectures...), questions...)
		if priorMatches, err = p.history.PriorMatches(code, combined); err != nil {
			fmt.Fprintf(p.w, "warning: reading run history: %v\n", err)
		}
		if _, err := p.history.RecordRun(code, combined, time.Now()); err != nil {
			fmt.Fprintf(p.w, "warning: recording run: %v\n", err)
		}
	}

	return p.writeReport(code, lectures, questions, priorMatches)
}

// loadCheatSheet reads the cheat sheet as Markdown, converting a PDF through
// the regular converter. A sheet that cannot be read is fatal.
func (p *Pipeline) loadCheatSheet(ctx context.Context, c *types.Course) (types.CheatSheet, error) {
	ext := strings.ToLower(filepath.Ext(c.CheatSheetPath))
	if ext != ".pdf" {
		data, err := os.ReadFile(c.CheatSheetPath)
		if err != nil {
			return types.CheatSheet{}, fmt.Errorf("%w: reading cheat sheet: %v", types.ErrMissingInput, err)
		}
		return types.CheatSheet{SourcePath: c.CheatSheetPath, Text: string(data)}, nil
	}

	strategy, err := p.classifier.Classify(c.CheatSheetPath)
	if err != nil {
		return types.CheatSheet{}, fmt.Errorf("classifying cheat sheet: %w", err)
	}
	src := types.SourceDocument{
		ID:     "cheatsheet",
		Path:   c.CheatSheetPath,
		Format: ext,
	}
	doc := p.converter.Convert(ctx, src, strategy)
	if doc.Failed() {
		return types.CheatSheet{}, fmt.Errorf("%w: cheat sheet: %s", types.ErrConversionFailure, doc.FailureReason)
	}
	return types.CheatSheet{SourcePath: c.CheatSheetPath, Text: doc.Text}, nil
}

// processRole converts one role's files and extracts units per document in
// parallel. Unreadable documents and unusable extraction responses become
// annotated entries, never run failures.
func (p *Pipeline) processRole(ctx context.Context, role types.DocumentRole, paths []string) []types.DocumentCoverage {
	corpus := p.converter.ConvertCorpus(ctx, p.classifier, role, paths, p.w)

	results := make([]types.DocumentCoverage, len(corpus.Docs))
	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Reasoning.Concurrency)
	for i, doc := range corpus.Docs {
		g.Go(func() error {
			results[i] = types.DocumentCoverage{Doc: doc}
			if doc.Failed() {
				return nil
			}
			if ctx.Err() != nil {
				results[i].Warning = fmt.Sprintf("%s: run cancelled before unit extraction", doc.Source.ID)
				return nil
			}
			res, err := extract.ExtractUnits(ctx, p.extractor, doc)
			if err != nil {
				results[i].Warning = fmt.Sprintf("%s: unit extraction failed: %v", doc.Source.ID, err)
				return nil
			}
			results[i].Units = res.Units
			results[i].Warning = res.Warning
			fmt.Fprintf(p.w, "extracted: %s (%d units)\n", doc.Source.ID, len(res.Units))
			return nil
		})
	}
	g.Wait()
	return results
}

// writeReport renders the Markdown report and its metadata sidecar.
func (p *Pipeline) writeReport(code string, lectures, questions []types.DocumentCoverage, priorMatches int) (string, error) {
	if err := os.MkdirAll(p.cfg.Coverage.ReportsDir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}

	md := report.Assemble(code, lectures, questions)
	reportPath := filepath.Join(p.cfg.Coverage.ReportsDir, code+"_coverage_report.md")
	if err := os.WriteFile(reportPath, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	meta := report.BuildMeta(code, lectures, questions, priorMatches, time.Now())
	data, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}
	metaPath := filepath.Join(p.cfg.Coverage.ReportsDir, code+"_coverage_report.meta.yaml")
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing metadata: %w", err)
	}

	fmt.Fprintf(p.w, "report written to %s\n", reportPath)
	return reportPath, nil
}

// gatherUnits flattens units across document groups in report order.
func gatherUnits(groups ...[]types.DocumentCoverage) []types.Unit {
	var units []types.Unit
	for _, group := range groups {
		for _, dc := range group {
			units = append(units, dc.Units...)
		}
	}
	return units
}

// scatterVerdicts distributes a flat verdict slice back onto the document
// groups, in the same order gatherUnits flattened them.
func scatterVerdicts(verdicts []types.CoverageVerdict, groups ...[]types.DocumentCoverage) {
	k := 0
	for _, group := range groups {
		for i := range group {
			n := len(group[i].Units)
			group[i].Verdicts = verdicts[k : k+n : k+n]
			k += n
		}
	}
}
