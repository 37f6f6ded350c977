// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package docs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, os.WriteFile(path, []byte("# Findings\n\nAll good."), 0o644))

	text, err := ReadReport(path)
	require.NoError(t, err)
	assert.Contains(t, text, "# Findings")
}

func TestReadReportMissingFile(t *testing.T) {
	_, err := ReadReport(filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestChunkTextSingleChunk(t *testing.T) {
	chunks := ChunkText("short paragraph", 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short paragraph", chunks[0])
}

func TestChunkTextSplitsOnParagraphs(t *testing.T) {
	a := strings.Repeat("a", 60)
	b := strings.Repeat("b", 60)
	c := strings.Repeat("c", 60)
	text := a + "\n\n" + b + "\n\n" + c

	chunks := ChunkText(text, 80, 0)
	require.Len(t, chunks, 3)
	assert.Equal(t, a, chunks[0])
	assert.Equal(t, b, chunks[1])
	assert.Equal(t, c, chunks[2])
}

func TestChunkTextOverlapSeedsNextChunk(t *testing.T) {
	a := strings.Repeat("a", 60)
	b := strings.Repeat("b", 60)
	text := a + "\n\n" + b

	chunks := ChunkText(text, 80, 20)
	require.Len(t, chunks, 2)
	// The second chunk opens with the tail of the first.
	assert.True(t, strings.HasPrefix(chunks[1], strings.Repeat("a", 20)))
	assert.Contains(t, chunks[1], b)
}

func TestChunkTextEmptyInput(t *testing.T) {
	assert.Empty(t, ChunkText("", 100, 10))
	assert.Empty(t, ChunkText("\n\n  \n\n", 100, 10))
}

func TestFindKeywords(t *testing.T) {
	text := "We followed an ITERATIVE process with atomic commits."
	hits := FindKeywords(text, []string{"iterative", "atomic", "fan-out"})
	assert.Equal(t, []string{"iterative", "atomic"}, hits)
}

func TestFindKeywordsNoMatches(t *testing.T) {
	assert.Empty(t, FindKeywords("nothing relevant here", []string{"reducer"}))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		want     string
	}{
		{name: "under limit", text: "short", maxChars: 10, want: "short"},
		{name: "exact limit", text: "short", maxChars: 5, want: "short"},
		{name: "cut with ellipsis", text: "abcdefghij", maxChars: 8, want: "abcde..."},
		{name: "tiny limit", text: "abcdef", maxChars: 2, want: "ab"},
		{name: "zero limit", text: "abcdef", maxChars: 0, want: ""},
		{name: "negative limit", text: "abcdef", maxChars: -5, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.text, tt.maxChars))
		})
	}
}
