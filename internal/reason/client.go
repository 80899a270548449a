// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reason wraps the external reasoning service behind a strict
// request/response contract. The service is never trusted as a pure
// function: every consumer validates responses and treats malformed or
// empty output as a first-class failure.
package reason

import (
	"encoding/base64"
	"fmt"
	"log/slog"

	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

// ocrPrompt is the fixed instruction for the vision OCR task. Markdown output
// keeps downstream consumers on a single normalized format.
const ocrPrompt = "You are extracting text from a scanned lecture slide or exam page.\n\n" +
	"Return the visible text as clean Markdown, preserving headings and " +
	"bullet points where obvious. Do not add commentary beyond what is " +
	"visible in the image."

// Client calls an OpenAI-compatible API for the three reasoning tasks:
// OCR, unit extraction, and coverage evaluation.
type Client struct {
	api *openai.Client
	cfg types.ReasoningConfig
}

// New creates a reasoning-service client. Zero config values are normalized
// to defaults.
func New(cfg types.ReasoningConfig) *Client {
	cfg.Normalize()
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api: openai.NewClientWithConfig(apiCfg),
		cfg: cfg,
	}
}

// TaskClient binds the client to one task's model and parameters so that
// consumers depend only on a prompt-in, text-out surface.
type TaskClient struct {
	c      *Client
	params types.TaskParams
}

// Task returns a TaskClient for the given parameter block.
func (c *Client) Task(params types.TaskParams) *TaskClient {
	return &TaskClient{c: c, params: params}
}

// Complete sends one prompt and returns the raw JSON-mode response text.
func (t *TaskClient) Complete(ctx context.Context, prompt string) (string, error) {
	return t.c.completeJSON(ctx, t.params, prompt)
}

// Recognize performs OCR on one PNG page image via the vision endpoint,
// returning the recognized Markdown text.
func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	p := c.cfg.OCR
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	req := openai.ChatCompletionRequest{
		Model:       p.Model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: ocrPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	}

	return c.do(ctx, req)
}

// completeJSON sends a prompt with the JSON-object response format enforced.
func (c *Client) completeJSON(ctx context.Context, p types.TaskParams, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.Model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	return c.do(ctx, req)
}

// do executes one chat completion under the per-call timeout, with backoff
// retries for rate limiting and transient upstream errors.
func (c *Client) do(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	var out string
	err := withRetry(ctx, c.cfg.MaxRetries, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(callCtx, req)
		if err != nil {
			return classifyErr(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("service returned no choices")
		}
		out = resp.Choices[0].Message.Content
		slog.Debug("reasoning response", "model", req.Model, "raw", out)
		return nil
	})
	return out, err
}
