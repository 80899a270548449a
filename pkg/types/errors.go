// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error taxonomy for the pipeline. Only ErrMissingInput is fatal to a run;
// every other kind is recovered at the smallest possible scope (one document,
// one unit) and surfaced as an annotated report entry.
var (
	// ErrUnsupportedFormat marks a file extension no converter handles.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrConversionFailure marks a corrupt or unreadable source document.
	ErrConversionFailure = errors.New("conversion failure")

	// ErrExtractionFailure marks an unusable reasoning-service response
	// during unit extraction.
	ErrExtractionFailure = errors.New("extraction failure")

	// ErrEvaluationFailure marks an unusable reasoning-service response
	// during coverage judgement.
	ErrEvaluationFailure = errors.New("evaluation failure")

	// ErrUpstreamTimeout marks a reasoning-service or OCR call that exceeded
	// its bounded wait.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamRateLimited marks a rate-limited upstream call, after
	// backoff retries were exhausted.
	ErrUpstreamRateLimited = errors.New("upstream rate limited")

	// ErrMissingInput marks an absent course directory or cheat sheet.
	// Fatal: no report can be produced.
	ErrMissingInput = errors.New("missing input")
)
