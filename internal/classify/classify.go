// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify selects the extraction strategy for a source document:
// direct text-layer extraction or render-then-OCR. It never inspects OCR
// output quality; that is the converter's concern.
package classify

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

// textExtensions always classify as native_text: their content is the text.
var textExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// Classifier decides extraction strategies using a text-density probe.
type Classifier struct {
	cfg types.ConversionConfig

	// probe samples a PDF's leading pages. Swapped in tests.
	probe func(path string, pages int) (chars, probed int, err error)
}

// New creates a classifier with the given conversion settings.
func New(cfg types.ConversionConfig) *Classifier {
	cfg.Normalize()
	return &Classifier{cfg: cfg, probe: probePDFText}
}

// Classify returns the strategy for the file at path. Plain-text formats are
// native_text by definition. PDFs whose embedded text layer falls below the
// density threshold classify as render_ocr. Unsupported extensions return
// ErrUnsupportedFormat; the caller recovers per file, the run continues.
func (c *Classifier) Classify(path string) (types.ExtractionStrategy, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if textExtensions[ext] {
		return types.StrategyNativeText, nil
	}
	if ext != ".pdf" {
		return "", fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, ext)
	}

	chars, probed, err := c.probe(path, c.cfg.ProbePages)
	if err != nil {
		return "", fmt.Errorf("%w: probing %s: %v", types.ErrConversionFailure, filepath.Base(path), err)
	}
	if probed == 0 {
		return "", fmt.Errorf("%w: %s has no pages", types.ErrConversionFailure, filepath.Base(path))
	}

	if chars < probed*c.cfg.MinCharsPerPage {
		return types.StrategyRenderOCR, nil
	}
	return types.StrategyNativeText, nil
}

// probePDFText extracts the text layer of up to maxPages leading pages and
// returns the total non-whitespace character count and pages sampled.
func probePDFText(path string, maxPages int) (int, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	if total < maxPages {
		maxPages = total
	}

	chars := 0
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A page we cannot read natively contributes no density.
			continue
		}
		for _, c := range text {
			if !isSpace(c) {
				chars++
			}
		}
	}
	return chars, maxPages, nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
