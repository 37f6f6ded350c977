// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package docs reads and segments the textual audit report.
//
// PDF and image extraction are external collaborators; this package
// handles the pre-extracted text surface (markdown or plain text),
// paragraph chunking for bounded prompts, and keyword scanning used by
// the judges' signal families. A missing or unreadable report degrades
// to an error the caller records as negative evidence.
package docs

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// DefaultChunkSize is the character budget per chunk.
const DefaultChunkSize = 1200

// DefaultChunkOverlap keeps ideas visible across chunk boundaries.
const DefaultChunkOverlap = 200

// ReadReport reads a markdown or plain-text report file.
func ReadReport(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("docs: read report %s: %w", path, err)
	}
	return string(raw), nil
}

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphSplit.Split(text, -1) {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ChunkText packs paragraphs into overlapping character windows.
//
// Chunks start from paragraph boundaries; when a paragraph would push a
// chunk past maxChars the chunk is sealed and the trailing overlap
// characters seed the next one.
func ChunkText(text string, maxChars, overlap int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	paragraphs := splitParagraphs(text)
	var chunks []string
	var current []string
	currentLen := 0

	for _, para := range paragraphs {
		if len(current) > 0 && currentLen+len(para)+2 > maxChars {
			sealed := strings.Join(current, "\n\n")
			chunks = append(chunks, sealed)

			if overlap > 0 {
				start := len(sealed) - overlap
				if start < 0 {
					start = 0
				}
				tail := sealed[start:]
				current = []string{tail}
				currentLen = len(tail)
			} else {
				current = nil
				currentLen = 0
			}
		}
		current = append(current, para)
		currentLen += len(para) + 2
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}
	return chunks
}

// FindKeywords returns the subset of markers present in text,
// case-insensitively, preserving marker order.
func FindKeywords(text string, markers []string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, m := range markers {
		if strings.Contains(lower, strings.ToLower(m)) {
			hits = append(hits, m)
		}
	}
	return hits
}

// Truncate shortens text to at most maxChars, appending an ellipsis
// when anything was cut. A non-positive maxChars yields the empty
// string.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if len(text) <= maxChars {
		return text
	}
	if maxChars <= 3 {
		return text[:maxChars]
	}
	return text[:maxChars-3] + "..."
}
