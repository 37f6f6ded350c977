// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gitforensics reads commit history from a local repository and
// classifies the development style, and clones audit targets into
// sandboxed temporary directories.
//
// History reading never raises: any failure (non-repository, timeout,
// corrupted history) is captured in the History.Err field with a zero
// commit count and an unset style. Callers check the error field.
package gitforensics

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Style classifies how a repository's history was developed.
type Style string

const (
	// StyleUnknown is the unset style used when history could not be read.
	StyleUnknown Style = ""
	// StyleMonolithic is a single-commit (or empty) history.
	StyleMonolithic Style = "monolithic"
	// StyleWeaklyAtomic is a two-to-three commit history.
	StyleWeaklyAtomic Style = "weakly atomic"
	// StyleAtomicIterative is a four-or-more commit history.
	StyleAtomicIterative Style = "atomic iterative"
)

const (
	historyTimeout = 20 * time.Second
	cloneTimeout   = 60 * time.Second
	cloneDepth     = 50
	maxLogEntries  = 200
)

// Commit is one entry of the chronologically ascending log.
type Commit struct {
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"`
	Subject   string `json:"subject"`
}

// History is the bounded, ordered commit list plus its classification.
type History struct {
	CommitCount int      `json:"commit_count"`
	Commits     []Commit `json:"commits"`
	Style       Style    `json:"development_style,omitempty"`
	Err         string   `json:"error,omitempty"`
}

// Failed reports whether history extraction hit an error.
func (h History) Failed() bool { return h.Err != "" }

// ReadHistory extracts a bounded, chronologically ascending commit list
// from the repository at path and classifies its development style.
//
// The git invocation runs with a bounded timeout. On any failure the
// returned History carries a structured error string, a zero commit
// count, and StyleUnknown; no error is ever returned out of band.
func ReadHistory(ctx context.Context, path string) History {
	ctx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git",
		"-C", path,
		"log",
		"--reverse",
		fmt.Sprintf("--max-count=%d", maxLogEntries),
		"--pretty=format:%h|%ad|%s",
		"--date=iso",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		slog.Warn("git history extraction failed",
			slog.String("path", path),
			slog.String("error", msg))
		return History{Err: msg}
	}

	h := History{}
	for _, line := range strings.Split(stdout.String(), "\n") {
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			continue
		}
		h.Commits = append(h.Commits, Commit{
			Hash:      parts[0],
			Timestamp: parts[1],
			Subject:   parts[2],
		})
	}
	h.CommitCount = len(h.Commits)
	h.Style = classifyStyle(h.CommitCount)
	return h
}

// classifyStyle maps a commit count to a development style.
//
// Boundaries: c<=1 monolithic, 2<=c<=3 weakly atomic, c>=4 atomic
// iterative.
func classifyStyle(count int) Style {
	switch {
	case count <= 1:
		return StyleMonolithic
	case count <= 3:
		return StyleWeaklyAtomic
	default:
		return StyleAtomicIterative
	}
}

// Narrative renders the history as forensic summary lines.
func (h History) Narrative() string {
	var lines []string
	lines = append(lines, "[Git History]")
	if h.Failed() {
		lines = append(lines, fmt.Sprintf("- Error reading history: %s", h.Err))
		return strings.Join(lines, "\n")
	}
	lines = append(lines, fmt.Sprintf("- Commit count: %d", h.CommitCount))
	lines = append(lines, fmt.Sprintf("- Development style: %s", h.Style))
	if len(h.Commits) > 0 {
		lines = append(lines, "- First commits:")
		for i, c := range h.Commits {
			if i >= 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("  - %s @ %s: %q", c.Hash, c.Timestamp, c.Subject))
		}
	}
	return strings.Join(lines, "\n")
}

// CloneSandbox clones a repository reference into a fresh temporary
// directory with bounded depth and timeout.
//
// The caller owns the returned directory and should remove it when the
// run completes. Auth and network failures surface as a single error;
// there are no retries.
func CloneSandbox(ctx context.Context, repoURL string) (string, error) {
	dir, err := os.MkdirTemp("", "tribunal_repo_")
	if err != nil {
		return "", fmt.Errorf("create sandbox dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cloneTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "clone",
		"--depth", fmt.Sprintf("%d", cloneDepth),
		repoURL, dir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(dir)
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git clone failed (auth/network error): %s", msg)
	}

	slog.Info("cloned repository into sandbox",
		slog.String("url", repoURL),
		slog.String("dir", dir))
	return dir, nil
}
