// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gitforensics

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStyle(t *testing.T) {
	tests := []struct {
		count int
		want  Style
	}{
		{count: 0, want: StyleMonolithic},
		{count: 1, want: StyleMonolithic},
		{count: 2, want: StyleWeaklyAtomic},
		{count: 3, want: StyleWeaklyAtomic},
		{count: 4, want: StyleAtomicIterative},
		{count: 50, want: StyleAtomicIterative},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("count_%d", tt.count), func(t *testing.T) {
			assert.Equal(t, tt.want, classifyStyle(tt.count))
		})
	}
}

// initTestRepo builds a throwaway git repository with n commits.
func initTestRepo(t *testing.T, n int) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init")
	for i := 1; i <= n; i++ {
		file := filepath.Join(dir, fmt.Sprintf("file%d.txt", i))
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		run("add", ".")
		run("commit", "-m", fmt.Sprintf("step %d", i))
	}
	return dir
}

func TestReadHistory(t *testing.T) {
	dir := initTestRepo(t, 4)

	h := ReadHistory(context.Background(), dir)

	require.False(t, h.Failed(), "unexpected error: %s", h.Err)
	assert.Equal(t, 4, h.CommitCount)
	assert.Equal(t, StyleAtomicIterative, h.Style)
	require.Len(t, h.Commits, 4)
	// --reverse puts the oldest commit first.
	assert.Equal(t, "step 1", h.Commits[0].Subject)
	assert.Equal(t, "step 4", h.Commits[3].Subject)
	assert.NotEmpty(t, h.Commits[0].Hash)
	assert.NotEmpty(t, h.Commits[0].Timestamp)
}

func TestReadHistorySingleCommit(t *testing.T) {
	dir := initTestRepo(t, 1)

	h := ReadHistory(context.Background(), dir)

	require.False(t, h.Failed())
	assert.Equal(t, 1, h.CommitCount)
	assert.Equal(t, StyleMonolithic, h.Style)
}

func TestReadHistoryNotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	h := ReadHistory(context.Background(), t.TempDir())

	assert.True(t, h.Failed())
	assert.NotEmpty(t, h.Err)
	assert.Zero(t, h.CommitCount)
	assert.Equal(t, StyleUnknown, h.Style)
}

func TestHistoryNarrative(t *testing.T) {
	h := History{
		CommitCount: 2,
		Style:       StyleWeaklyAtomic,
		Commits: []Commit{
			{Hash: "abc1234", Timestamp: "2025-01-01 10:00:00 +0000", Subject: "initial"},
			{Hash: "def5678", Timestamp: "2025-01-02 10:00:00 +0000", Subject: "follow-up"},
		},
	}

	text := h.Narrative()
	assert.Contains(t, text, "[Git History]")
	assert.Contains(t, text, "- Commit count: 2")
	assert.Contains(t, text, "- Development style: weakly atomic")
	assert.Contains(t, text, `"initial"`)
}

func TestHistoryNarrativeOnFailure(t *testing.T) {
	h := History{Err: "not a git repository"}
	text := h.Narrative()
	assert.Contains(t, text, "- Error reading history: not a git repository")
	assert.NotContains(t, text, "Commit count")
}

func TestCloneSandboxBadURL(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	_, err := CloneSandbox(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git clone failed")
}
