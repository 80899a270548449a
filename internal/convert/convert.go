// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert normalizes heterogeneous source documents into Markdown
// text, choosing between direct text extraction and render-then-OCR per
// document. Per-document failures never abort the run: an unrecoverable
// error becomes a NormalizedDocument with failure status and a readable
// reason, collected like any other result.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

// NativeExtractor pulls the embedded text layer out of a PDF, one string
// per page in page order.
type NativeExtractor interface {
	ExtractPages(path string) ([]string, error)
}

// PageImage is one rendered page image with its 1-based page number.
type PageImage struct {
	Page int
	Data []byte
}

// PageRenderer produces page images from a PDF in page order.
type PageRenderer interface {
	RenderPages(path string) ([]PageImage, error)
}

// OCREngine recognizes text from one page image. Implementations block on a
// remote result; the context bounds the wait.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Converter executes extraction strategies. Backends are injected so tests
// can supply deterministic stand-ins for the PDF reader and OCR engine.
type Converter struct {
	cfg      types.ConversionConfig
	native   NativeExtractor
	renderer PageRenderer
	ocr      OCREngine
}

// New creates a converter with the given backends.
func New(cfg types.ConversionConfig, native NativeExtractor, renderer PageRenderer, ocr OCREngine) *Converter {
	cfg.Normalize()
	return &Converter{cfg: cfg, native: native, renderer: renderer, ocr: ocr}
}

// Convert produces the NormalizedDocument for one source file using the
// chosen strategy. It never returns an error: corrupt files, zero pages, and
// OCR failures all yield a failed document the caller keeps.
func (c *Converter) Convert(ctx context.Context, src types.SourceDocument, strategy types.ExtractionStrategy) types.NormalizedDocument {
	switch {
	case src.Format == ".md" || src.Format == ".markdown" || src.Format == ".txt":
		return c.convertTextFile(src)
	case src.Format == ".pdf" && strategy == types.StrategyNativeText:
		return c.convertNative(ctx, src)
	case src.Format == ".pdf" && strategy == types.StrategyRenderOCR:
		return c.convertOCR(ctx, src)
	default:
		return failed(src, strategy, fmt.Sprintf("no converter for %s with strategy %s", src.Format, strategy))
	}
}

// convertTextFile reads Markdown and plain-text sources as-is.
func (c *Converter) convertTextFile(src types.SourceDocument) types.NormalizedDocument {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return failed(src, types.StrategyNativeText, fmt.Sprintf("reading file: %v", err))
	}
	text := strings.TrimSpace(string(data))
	if text != "" {
		text += "\n"
	}
	return types.NormalizedDocument{
		Source:   src,
		Text:     text,
		Strategy: types.StrategyNativeText,
	}
}

// convertNative extracts the embedded text layer. Near-empty output from a
// successful extraction re-attempts with render_ocr instead of reporting a
// false success.
func (c *Converter) convertNative(ctx context.Context, src types.SourceDocument) types.NormalizedDocument {
	pages, err := c.native.ExtractPages(src.Path)
	if err != nil {
		return failed(src, types.StrategyNativeText, fmt.Sprintf("text extraction: %v", err))
	}

	text := joinPages(pages)
	if countNonSpace(text) < c.cfg.MinCharsPerPage {
		return c.convertOCR(ctx, src)
	}

	return types.NormalizedDocument{
		Source:   src,
		Text:     text,
		Strategy: types.StrategyNativeText,
	}
}

// convertOCR renders each page to an image and recognizes text per page under
// the concurrency cap, concatenating results in page order with page markers.
func (c *Converter) convertOCR(ctx context.Context, src types.SourceDocument) types.NormalizedDocument {
	images, err := c.renderer.RenderPages(src.Path)
	if err != nil {
		return failed(src, types.StrategyRenderOCR, fmt.Sprintf("rendering pages: %v", err))
	}
	if len(images) == 0 {
		return failed(src, types.StrategyRenderOCR, "no renderable pages")
	}

	texts := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, img := range images {
		g.Go(func() error {
			out, err := c.ocr.Recognize(gctx, img.Data)
			if err != nil {
				return fmt.Errorf("page %d: %w", img.Page, err)
			}
			texts[i] = strings.TrimSpace(out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failed(src, types.StrategyRenderOCR, fmt.Sprintf("OCR: %v", err))
	}

	var b strings.Builder
	lastPage := -1
	for i, img := range images {
		if texts[i] == "" {
			continue
		}
		if img.Page != lastPage {
			fmt.Fprintf(&b, "<!-- page %d -->\n\n", img.Page)
			lastPage = img.Page
		}
		b.WriteString(texts[i])
		b.WriteString("\n\n")
	}
	if b.Len() == 0 {
		return failed(src, types.StrategyRenderOCR, "OCR produced no content")
	}

	return types.NormalizedDocument{
		Source:   src,
		Text:     strings.TrimSpace(b.String()) + "\n",
		Strategy: types.StrategyRenderOCR,
	}
}

// failed builds the failure-status document: empty text, recorded reason.
func failed(src types.SourceDocument, strategy types.ExtractionStrategy, reason string) types.NormalizedDocument {
	return types.NormalizedDocument{
		Source:        src,
		Strategy:      strategy,
		FailureReason: reason,
	}
}

// joinPages concatenates per-page texts in order, marking each non-empty
// page with a boundary comment so extraction can cite source locations.
func joinPages(pages []string) string {
	var b strings.Builder
	for i, p := range pages {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fmt.Fprintf(&b, "<!-- page %d -->\n\n%s\n\n", i+1, p)
	}
	if b.Len() == 0 {
		return ""
	}
	return strings.TrimSpace(b.String()) + "\n"
}

// countNonSpace counts non-whitespace characters, the density measure shared
// with the classifier.
func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
		default:
			n++
		}
	}
	return n
}

// baseID derives a document ID slug from a file path.
func baseID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
