// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package course locates a course's materials in the fixed directory layout:
//
//	<courses>/<code>/cheatsheet.{md|pdf}
//	<courses>/<code>/lecture_notes/
//	<courses>/<code>/past_papers/
//	<courses>/<code>/assignment/question/
package course

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

// Discover resolves a course code to its materials. A missing course
// directory or cheat sheet is fatal: no report can be produced without
// them. Missing material directories yield empty lists; unsupported files
// inside present directories are kept for the converter to flag per file.
func Discover(coursesDir, code string) (*types.Course, error) {
	dir := filepath.Join(coursesDir, code)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: course directory not found: %s", types.ErrMissingInput, dir)
	}

	c := &types.Course{Code: code, Dir: dir}

	for _, name := range []string{"cheatsheet.md", "cheatsheet.pdf"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			c.CheatSheetPath = path
			break
		}
	}
	if c.CheatSheetPath == "" {
		return nil, fmt.Errorf("%w: no cheatsheet.md or cheatsheet.pdf in %s", types.ErrMissingInput, dir)
	}

	var err error
	if c.Lectures, err = listFiles(filepath.Join(dir, "lecture_notes")); err != nil {
		return nil, err
	}
	if c.PastPapers, err = listFiles(filepath.Join(dir, "past_papers")); err != nil {
		return nil, err
	}
	if c.Assignments, err = listFiles(filepath.Join(dir, "assignment", "question")); err != nil {
		return nil, err
	}

	return c, nil
}

// listFiles walks a material directory recursively and returns non-hidden
// file paths in sorted order. Discovery order fixes report order. A missing
// directory is not an error; the course simply has no such materials.
func listFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return paths, nil
}
