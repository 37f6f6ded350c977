// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package evidence defines the atomic finding type produced by detective
// collectors and the append-only ledger that stores findings per collector.
//
// Evidence items are immutable once created. Collectors never write to the
// ledger directly while running; each collector fills a local Buffer that is
// merged into the shared Ledger at the pipeline's synchronization barrier.
package evidence

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Canonical collector names. Each detective appends under its own key
// only and never touches another collector's entries.
const (
	CollectorRepo       = "RepoInvestigator"
	CollectorDocs       = "DocAnalyst"
	CollectorVision     = "VisionInspector"
	CollectorAggregator = "EvidenceAggregator"
)

// Evidence is one attributed finding about whether a specific audit goal
// was satisfied.
//
// Found is the collector's boolean judgment of goal satisfaction. Content
// is free-form supporting narrative and may be empty even when Found is
// true. Confidence expresses the collector's certainty in [0,1].
type Evidence struct {
	Goal       string  `json:"goal" validate:"required"`
	Found      bool    `json:"found"`
	Content    string  `json:"content,omitempty"`
	Location   string  `json:"location" validate:"required"`
	Rationale  string  `json:"rationale" validate:"required"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural integrity of an Evidence item.
func (e Evidence) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid evidence %q: %w", e.Goal, err)
	}
	return nil
}
