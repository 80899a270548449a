// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

// defaultModel is used for any task whose model is not configured. It must
// accept both text and image input, since the OCR task sends page images.
const defaultModel = "gpt-4o-mini"

// pipelineConfig assembles the run configuration. Precedence per value:
// command flag, then config file / environment, then .secrets/, then default.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.PipelineConfig{
		Reasoning: types.ReasoningConfig{
			BaseURL:     secretDefault("openai-base-url", viper.GetString("reasoning.base_url")),
			APIKey:      secretDefault("openai-api-key", viper.GetString("reasoning.api_key")),
			MaxRetries:  viper.GetInt("reasoning.max_retries"),
			Concurrency: viper.GetInt("reasoning.concurrency"),
			Timeout:     viper.GetDuration("reasoning.timeout"),
			OCR:         taskParams("reasoning.ocr"),
			Extraction:  taskParams("reasoning.extraction"),
			Evaluation:  taskParams("reasoning.evaluation"),
		},
		Conversion: types.ConversionConfig{
			MinCharsPerPage: viper.GetInt("conversion.min_chars_per_page"),
			ProbePages:      viper.GetInt("conversion.probe_pages"),
			Concurrency:     viper.GetInt("conversion.concurrency"),
		},
		Coverage: types.CoverageConfig{
			CoursesDir: flagOrViper(cmd, "courses-dir", "coverage.courses_dir", "courses"),
			ReportsDir: flagOrViper(cmd, "reports-dir", "coverage.reports_dir", "reports"),
			HistoryDir: flagOrViper(cmd, "history-dir", "coverage.history_dir", "history"),
		},
	}

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Reasoning.OCR.Model = model
		cfg.Reasoning.Extraction.Model = model
		cfg.Reasoning.Evaluation.Model = model
	}

	cfg.Reasoning.Normalize()
	cfg.Conversion.Normalize()
	return cfg
}

func taskParams(prefix string) types.TaskParams {
	p := types.TaskParams{
		Model:       viper.GetString(prefix + ".model"),
		Temperature: float32(viper.GetFloat64(prefix + ".temperature")),
		MaxTokens:   viper.GetInt(prefix + ".max_tokens"),
	}
	if p.Model == "" {
		p.Model = defaultModel
	}
	return p
}

func flagOrViper(cmd *cobra.Command, flag, key, fallback string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return fallback
}
