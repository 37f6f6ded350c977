// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rubric loads and validates the scoring rubric that drives an
// audit run.
//
// A rubric is a list of dimensions, each tagged to a target artifact
// (repository, textual report, or extracted report images), plus free-form
// synthesis rules. A rubric is loaded once per run and treated as
// immutable afterwards. Dimension ids must be unique across the whole
// rubric; loading fails loudly on duplicates rather than silently
// shadowing one dimension with another.
package rubric

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// TargetArtifact names the artifact category a dimension scores.
type TargetArtifact string

const (
	// ArtifactRepository targets the audited source tree.
	ArtifactRepository TargetArtifact = "repository"
	// ArtifactTextReport targets the accompanying textual report.
	ArtifactTextReport TargetArtifact = "textual-report"
	// ArtifactReportImages targets images extracted from the report.
	ArtifactReportImages TargetArtifact = "report-images"
)

// ErrDuplicateDimensionID is returned when two dimensions share an id.
var ErrDuplicateDimensionID = errors.New("rubric: duplicate dimension id")

// ErrEmptyRubric is returned when a rubric file declares no dimensions.
var ErrEmptyRubric = errors.New("rubric: no dimensions declared")

// Dimension is one scored axis of the audit.
type Dimension struct {
	ID          string         `json:"id" yaml:"id" validate:"required"`
	Name        string         `json:"name" yaml:"name" validate:"required"`
	Target      TargetArtifact `json:"target_artifact" yaml:"target_artifact" validate:"required,oneof=repository textual-report report-images"`
	Instruction string         `json:"forensic_instruction" yaml:"forensic_instruction"`
}

// Rubric is the full set of dimensions plus synthesis rules.
type Rubric struct {
	Dimensions []Dimension       `json:"dimensions" yaml:"dimensions"`
	Synthesis  map[string]string `json:"synthesis_rules,omitempty" yaml:"synthesis_rules,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a rubric file.
//
// Files ending in .json are decoded as JSON; everything else is decoded
// as YAML. Every dimension is structurally validated and ids are checked
// for global uniqueness.
func Load(path string) (*Rubric, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rubric: read %s: %w", path, err)
	}

	var r Rubric
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &r)
	} else {
		err = yaml.Unmarshal(raw, &r)
	}
	if err != nil {
		return nil, fmt.Errorf("rubric: decode %s: %w", path, err)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks every dimension and enforces id uniqueness.
func (r *Rubric) Validate() error {
	if len(r.Dimensions) == 0 {
		return ErrEmptyRubric
	}
	seen := make(map[string]bool, len(r.Dimensions))
	for i, dim := range r.Dimensions {
		if err := validate.Struct(dim); err != nil {
			return fmt.Errorf("rubric: dimension %d (%q): %w", i, dim.ID, err)
		}
		if seen[dim.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateDimensionID, dim.ID)
		}
		seen[dim.ID] = true
	}
	return nil
}

// ByArtifact returns the dimensions targeting one artifact category,
// preserving declaration order.
func (r *Rubric) ByArtifact(target TargetArtifact) []Dimension {
	var out []Dimension
	for _, dim := range r.Dimensions {
		if dim.Target == target {
			out = append(out, dim)
		}
	}
	return out
}

// NameByID maps dimension ids to display names.
func (r *Rubric) NameByID() map[string]string {
	out := make(map[string]string, len(r.Dimensions))
	for _, dim := range r.Dimensions {
		out[dim.ID] = dim.Name
	}
	return out
}
