// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopNarratorSignalsAbsence(t *testing.T) {
	d := NopNarrator{}.Draft(context.Background(), "anything")
	assert.False(t, d.OK)
	assert.Empty(t, d.Text)
}

func TestNewFromEnvRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewFromEnv()
	assert.Error(t, err)
}

func TestNewFromEnvDefaultsModel(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_MODEL", "")

	n, err := NewFromEnv()
	assert.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", n.model)
}
