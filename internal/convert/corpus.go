// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

// Classifier selects an extraction strategy per file.
type Classifier interface {
	Classify(path string) (types.ExtractionStrategy, error)
}

// CorpusResult is the outcome of converting one role's documents. Docs
// preserves input order and includes failed documents; one bad file never
// drops an entry.
type CorpusResult struct {
	Docs     []types.NormalizedDocument
	Failures int
}

// ConvertCorpus classifies and converts all files of one role. Documents are
// independent and converted in parallel under the concurrency cap; results
// are reordered to discovery order before returning, so reports are
// reproducible regardless of completion order. A run-level cancellation
// stops new conversions; already-started ones finish or time out.
func (c *Converter) ConvertCorpus(ctx context.Context, cls Classifier, role types.DocumentRole, paths []string, w io.Writer) CorpusResult {
	srcs := makeSources(role, paths)
	docs := make([]types.NormalizedDocument, len(srcs))

	g := new(errgroup.Group)
	g.SetLimit(c.cfg.Concurrency)
	for i, src := range srcs {
		g.Go(func() error {
			if ctx.Err() != nil {
				docs[i] = failed(src, "", "run cancelled before conversion")
				return nil
			}
			strategy, err := cls.Classify(src.Path)
			if err != nil {
				docs[i] = failed(src, "", err.Error())
				return nil
			}
			docs[i] = c.Convert(ctx, src, strategy)
			return nil
		})
	}
	g.Wait()

	result := CorpusResult{Docs: docs}
	for _, d := range docs {
		if d.Failed() {
			result.Failures++
			fmt.Fprintf(w, "failed:    %s (%s)\n", d.Source.ID, d.FailureReason)
		} else {
			fmt.Fprintf(w, "converted: %s (%s)\n", d.Source.ID, d.Strategy)
		}
	}
	return result
}

// makeSources builds SourceDocument records with run-unique IDs.
func makeSources(role types.DocumentRole, paths []string) []types.SourceDocument {
	srcs := make([]types.SourceDocument, len(paths))
	seen := make(map[string]int, len(paths))
	for i, p := range paths {
		id := baseID(p)
		seen[id]++
		if n := seen[id]; n > 1 {
			id = fmt.Sprintf("%s-%d", id, n)
		}
		srcs[i] = types.SourceDocument{
			ID:     id,
			Path:   p,
			Format: strings.ToLower(filepath.Ext(p)),
			Role:   role,
		}
	}
	return srcs
}
