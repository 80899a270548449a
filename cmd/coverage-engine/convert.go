// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/coverage-engine/internal/classify"
	"github.com/pdiddy/coverage-engine/internal/convert"
	"github.com/pdiddy/coverage-engine/internal/reason"
	"github.com/pdiddy/coverage-engine/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert one document to normalized Markdown",
	Long: `Convert normalizes a single document and prints the resulting Markdown
to stdout, a debug aid for inspecting what the pipeline feeds the reasoning
service. The extraction strategy is chosen the same way check chooses it;
pass --strategy to force one. Scanned PDFs need an API key for OCR.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg := pipelineConfig(cmd)

	strategy := types.ExtractionStrategy("")
	if s, _ := cmd.Flags().GetString("strategy"); s != "" {
		switch types.ExtractionStrategy(s) {
		case types.StrategyNativeText, types.StrategyRenderOCR:
			strategy = types.ExtractionStrategy(s)
		default:
			return fmt.Errorf("unknown strategy %q: use %s or %s", s, types.StrategyNativeText, types.StrategyRenderOCR)
		}
	} else {
		var err error
		if strategy, err = classify.New(cfg.Conversion).Classify(path); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "strategy: %s\n", strategy)

	client := reason.New(cfg.Reasoning)
	converter := convert.New(cfg.Conversion, convert.PDFTextExtractor{}, convert.PDFPageRenderer{}, client)

	base := filepath.Base(path)
	src := types.SourceDocument{
		ID:     strings.TrimSuffix(base, filepath.Ext(base)),
		Path:   path,
		Format: strings.ToLower(filepath.Ext(path)),
	}

	doc := converter.Convert(cmd.Context(), src, strategy)
	if doc.Failed() {
		return fmt.Errorf("conversion failed: %s", doc.FailureReason)
	}
	fmt.Print(doc.Text)
	return nil
}

func init() {
	convertCmd.Flags().String("strategy", "", "force extraction strategy: native_text or render_ocr")

	rootCmd.AddCommand(convertCmd)
}
