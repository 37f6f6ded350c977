// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm is the optional narrative collaborator.
//
// The collaborator is invoked synchronously with a bounded timeout,
// strictly after all numeric and structural report fields are finalized.
// On timeout, error, or an unreachable backend it returns an explicit
// absence signal (Drafted.OK == false) — never an error that reaches the
// deliberation engine.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultTimeout bounds a single draft call.
const DefaultTimeout = 30 * time.Second

// Drafted is the collaborator's result. OK is false whenever no drafted
// text is available, for any reason.
type Drafted struct {
	Text string
	OK   bool
}

// Absent is the explicit no-text-available signal.
func Absent() Drafted { return Drafted{} }

// Narrator drafts prose from a bounded prompt.
type Narrator interface {
	Draft(ctx context.Context, prompt string) Drafted
}

// NopNarrator always signals absence. Used when narrative enrichment is
// disabled or no backend is configured.
type NopNarrator struct{}

// Draft signals absence.
func (NopNarrator) Draft(context.Context, string) Drafted { return Absent() }

// OpenAINarrator drafts prose through the OpenAI chat API.
type OpenAINarrator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewFromEnv builds a narrator from OPENAI_API_KEY and OPENAI_MODEL.
func NewFromEnv() (*OpenAINarrator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	slog.Info("initializing narrative collaborator", "model", model)
	return &OpenAINarrator{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

// Draft requests a completion with a bounded timeout. Every failure mode
// collapses into the absence signal.
func (n *OpenAINarrator) Draft(ctx context.Context, prompt string) Drafted {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       n.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You restyle audit verdict summaries. Never change scores, tables, or conclusions; only improve the prose.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		slog.Warn("narrative collaborator unavailable", "error", err)
		return Absent()
	}
	if len(resp.Choices) == 0 {
		slog.Warn("narrative collaborator returned no choices")
		return Absent()
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Absent()
	}
	return Drafted{Text: text, OK: true}
}
