// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package judges implements the biased opinion generators.
//
// Three roles — Prosecutor (adversarial), Defense (lenient), and TechLead
// (architecture-weighted) — consume the same evidence ledger and rubric
// dimensions and emit one Opinion per dimension. The roles share one
// Generator contract and are dispatched through a strategy table keyed by
// role rather than an inheritance chain.
package judges

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/tribunal/services/auditor/ast"
	"github.com/AleutianAI/tribunal/services/auditor/evidence"
	"github.com/AleutianAI/tribunal/services/auditor/gitforensics"
	"github.com/AleutianAI/tribunal/services/auditor/rubric"
)

// Role identifies a judge.
type Role string

const (
	// RoleProsecutor argues adversarially from a baseline score of 2.
	RoleProsecutor Role = "Prosecutor"
	// RoleDefense argues leniently from a baseline score of 4.
	RoleDefense Role = "Defense"
	// RoleTechLead carries the highest weight on architecture criteria.
	RoleTechLead Role = "TechLead"
)

// Opinion is one judge's score and argument for one criterion, grounded
// in cited evidence locations. Created at most once per (role, criterion)
// per run and never mutated afterwards.
type Opinion struct {
	Judge         Role     `json:"judge_role" validate:"required,oneof=Prosecutor Defense TechLead"`
	CriterionID   string   `json:"criterion_id" validate:"required"`
	Score         int      `json:"score" validate:"required,gte=1,lte=5"`
	Argument      string   `json:"argument" validate:"required"`
	CitedEvidence []string `json:"cited_evidence"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural integrity of an Opinion.
func (o Opinion) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid opinion (%s/%s): %w", o.Judge, o.CriterionID, err)
	}
	return nil
}

// Context is the evidence view shared by every judge for one run.
type Context struct {
	Ledger   *evidence.Ledger
	Findings *ast.Findings
	History  gitforensics.History

	// PriorOpinions is the run's opinion set visible to the Prosecutor's
	// structured-output integrity check.
	PriorOpinions []Opinion
}

// citedLocations returns the full distinct evidence location set visible
// to a judge, not merely the subset that drove the score. This preserves
// traceability for audit.
func (c Context) citedLocations() []string {
	if c.Ledger == nil {
		return nil
	}
	return c.Ledger.Locations()
}

// collectorNarrative concatenates content and rationale of one
// collector's evidence into a single searchable narrative.
func (c Context) collectorNarrative(collector string) string {
	if c.Ledger == nil {
		return ""
	}
	var parts []string
	for _, ev := range c.Ledger.ByCollector(collector) {
		if ev.Content != "" {
			parts = append(parts, ev.Content)
		}
		if ev.Rationale != "" {
			parts = append(parts, ev.Rationale)
		}
	}
	return strings.Join(parts, "\n")
}

// Generator maps one rubric dimension plus the shared evidence context to
// an Opinion.
type Generator func(ctx Context, dim rubric.Dimension) Opinion

// Bench returns the strategy table of all three roles.
//
// The TechLead entry may be replaced via WithTechLead when an external
// scoring policy is available; its aggregation weight is unaffected.
func Bench(opts ...BenchOption) map[Role]Generator {
	bench := map[Role]Generator{
		RoleProsecutor: Prosecutor,
		RoleDefense:    Defense,
		RoleTechLead:   TechLead,
	}
	for _, opt := range opts {
		opt(bench)
	}
	return bench
}

// BenchOption customizes the strategy table.
type BenchOption func(map[Role]Generator)

// WithTechLead swaps in an externally supplied TechLead policy.
func WithTechLead(g Generator) BenchOption {
	return func(bench map[Role]Generator) {
		if g != nil {
			bench[RoleTechLead] = g
		}
	}
}

func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func dimensionText(dim rubric.Dimension) string {
	return strings.ToLower(dim.Name + " " + dim.Instruction)
}
