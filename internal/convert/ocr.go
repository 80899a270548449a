// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// pageImagePattern matches pdfcpu's extracted image filenames,
// <base>_<page>_<resource>.<ext>, capturing the page number.
var pageImagePattern = regexp.MustCompile(`_(\d+)_[A-Za-z0-9]+\.(?:png|jpe?g|tiff?)$`)

// PDFPageRenderer recovers page images from a PDF via pdfcpu. Scanned
// documents carry one embedded full-page image per page, which is exactly
// the input the OCR engine needs.
type PDFPageRenderer struct{}

// RenderPages extracts the embedded page images in page order.
func (PDFPageRenderer) RenderPages(path string) ([]PageImage, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page count: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	tmp, err := os.MkdirTemp("", "coverage-pages-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := api.ExtractImagesFile(path, tmp, nil, nil); err != nil {
		return nil, fmt.Errorf("extracting page images: %w", err)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		return nil, fmt.Errorf("reading scratch directory: %w", err)
	}

	var images []PageImage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := pageImagePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(tmp, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading page image %s: %w", e.Name(), err)
		}
		images = append(images, PageImage{Page: page, Data: data})
	}

	if len(images) == 0 {
		return nil, fmt.Errorf("no page images found; document may have no renderable pages")
	}

	sort.SliceStable(images, func(i, j int) bool { return images[i].Page < images[j].Page })
	return images, nil
}
