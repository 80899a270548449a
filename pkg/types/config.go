// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// TaskParams is the per-task tuning block for one reasoning-service task.
type TaskParams struct {
	// Model is the model identifier sent to the service.
	Model string `json:"model" yaml:"model"`

	// Temperature is the sampling temperature for this task.
	Temperature float32 `json:"temperature" yaml:"temperature"`

	// MaxTokens bounds the response length.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
}

// ReasoningConfig holds settings for the external reasoning service.
type ReasoningConfig struct {
	// BaseURL overrides the service endpoint. Empty uses the default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is the authentication key for the service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Concurrency caps in-flight calls to the service (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Timeout bounds each individual call (default 2m). A timed-out call is
	// treated as a failure, never left hanging.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// OCR, Extraction, and Evaluation tune the three tasks independently.
	OCR        TaskParams `json:"ocr" yaml:"ocr"`
	Extraction TaskParams `json:"extraction" yaml:"extraction"`
	Evaluation TaskParams `json:"evaluation" yaml:"evaluation"`
}

// ConversionConfig holds settings for document normalization.
type ConversionConfig struct {
	// MinCharsPerPage is the text-density threshold below which a PDF's
	// native text layer is considered unusable (default 64).
	MinCharsPerPage int `json:"min_chars_per_page" yaml:"min_chars_per_page"`

	// ProbePages is how many leading pages the classifier samples (default 3).
	ProbePages int `json:"probe_pages" yaml:"probe_pages"`

	// Concurrency caps parallel document conversions and parallel per-page
	// OCR calls (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// CoverageConfig holds run-level directories.
type CoverageConfig struct {
	// CoursesDir is the base directory containing one subdirectory per course.
	CoursesDir string `json:"courses_dir" yaml:"courses_dir"`

	// ReportsDir is where coverage reports are written.
	ReportsDir string `json:"reports_dir" yaml:"reports_dir"`

	// HistoryDir is where the run-history database lives.
	HistoryDir string `json:"history_dir" yaml:"history_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Reasoning  ReasoningConfig  `json:"reasoning" yaml:"reasoning"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Coverage   CoverageConfig   `json:"coverage" yaml:"coverage"`
}

// Defaults used when a config value is unset.
const (
	DefaultMaxRetries      = 3
	DefaultConcurrency     = 4
	DefaultTimeout         = 2 * time.Minute
	DefaultMinCharsPerPage = 64
	DefaultProbePages      = 3
)

// Normalize fills zero values with defaults.
func (c *ReasoningConfig) Normalize() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Normalize fills zero values with defaults.
func (c *ConversionConfig) Normalize() {
	if c.MinCharsPerPage <= 0 {
		c.MinCharsPerPage = DefaultMinCharsPerPage
	}
	if c.ProbePages <= 0 {
		c.ProbePages = DefaultProbePages
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
}
