// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/coverage-engine/internal/classify"
	"github.com/pdiddy/coverage-engine/internal/convert"
	"github.com/pdiddy/coverage-engine/internal/coverage"
	"github.com/pdiddy/coverage-engine/internal/history"
	"github.com/pdiddy/coverage-engine/internal/reason"
)

var checkCmd = &cobra.Command{
	Use:   "check <course-code>",
	Short: "Check a cheat sheet against the course material",
	Long: `Check runs the full coverage pipeline for one course: it discovers the
course materials under <courses-dir>/<course-code>/, normalizes them to
Markdown, extracts lecture topics and exam/assignment questions, evaluates
each against the cheat sheet, and writes a coverage report with draft
additions for every gap.

Unreadable documents and failed evaluations become flagged report entries;
only a missing course directory or cheat sheet aborts the run. Interrupting
a run stops new service calls and still writes a partial report.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	if cfg.Reasoning.APIKey == "" {
		return fmt.Errorf("no API key: set reasoning.api_key, COVERAGE_ENGINE_REASONING_API_KEY, or .secrets/openai-api-key")
	}

	client := reason.New(cfg.Reasoning)
	classifier := classify.New(cfg.Conversion)
	converter := convert.New(cfg.Conversion, convert.PDFTextExtractor{}, convert.PDFPageRenderer{}, client)

	var hist *history.Store
	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		var err error
		if hist, err = history.Open(cfg.Coverage.HistoryDir); err != nil {
			return err
		}
		defer hist.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	p := coverage.New(cfg, classifier, converter,
		client.Task(cfg.Reasoning.Extraction),
		client.Task(cfg.Reasoning.Evaluation),
		hist, os.Stdout)

	_, err := p.Run(ctx, args[0])
	return err
}

func init() {
	checkCmd.Flags().String("courses-dir", "courses", "base directory containing one subdirectory per course")
	checkCmd.Flags().String("reports-dir", "reports", "directory for coverage reports")
	checkCmd.Flags().String("history-dir", "history", "directory for the run-history database")
	checkCmd.Flags().Bool("no-history", false, "skip recording the run in history")
	checkCmd.Flags().String("model", "", "model identifier overriding all task models")

	rootCmd.AddCommand(checkCmd)
}
