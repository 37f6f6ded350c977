// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package judges

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/tribunal/services/auditor/evidence"
	"github.com/AleutianAI/tribunal/services/auditor/rubric"
)

// parallelismCriterionMarkers tag criteria that concern parallel
// fan-out/fan-in orchestration.
var parallelismCriterionMarkers = []string{"fan-out", "fan-in", "parallel"}

// structuredOutputMarkers tag the structured output enforcement criterion.
var structuredOutputMarkers = []string{"structured output"}

// Prosecutor generates the adversarial opinion: baseline score 2, with
// targeted downgrades when the structural findings contradict the
// artifact's claims.
func Prosecutor(ctx Context, dim rubric.Dimension) Opinion {
	score := 2
	var charges []string

	text := dimensionText(dim)
	switch {
	case containsAny(text, parallelismCriterionMarkers):
		score, charges = prosecuteParallelism(ctx, charges)
	case containsAny(text, structuredOutputMarkers):
		score, charges = prosecuteStructuredOutput(ctx, charges)
	default:
		charges = append(charges,
			"Unverified claims are not fully credited; the evidence on record does not independently confirm this criterion.")
	}

	if dim.Target == rubric.ArtifactRepository {
		if charge := securityCharge(ctx); charge != "" {
			charges = append(charges, charge)
		}
	}

	return Opinion{
		Judge:         RoleProsecutor,
		CriterionID:   dim.ID,
		Score:         clampScore(score),
		Argument:      strings.Join(charges, " "),
		CitedEvidence: ctx.citedLocations(),
	}
}

// prosecuteParallelism downgrades to 1 when the structural findings show
// no fan-out or no edges at all, and appends a misleading-visual charge
// when any visual evidence item is marked not-found.
func prosecuteParallelism(ctx Context, charges []string) (int, []string) {
	score := 2
	f := ctx.Findings

	switch {
	case f == nil || len(f.Edges) == 0:
		score = 1
		charges = append(charges,
			"The claimed orchestration is unsubstantiated: structural analysis recorded no graph edges whatsoever.")
	case !f.FanOutDetected:
		score = 1
		charges = append(charges,
			"The claimed parallel fan-out does not exist: every recorded node has at most one outgoing edge.")
	default:
		charges = append(charges,
			"Fan-out is present structurally, but parallel execution semantics cannot be credited beyond what the syntax shows.")
	}

	if hasUnfoundVisualEvidence(ctx) {
		score = 1
		charges = append(charges,
			"Furthermore, the report presents a misleading visual: the diagrammed topology was not found in the extracted images.")
	}
	return score, charges
}

// prosecuteStructuredOutput is the self-referential integrity check: the
// run's own opinion set must consist of well-formed Opinion objects.
func prosecuteStructuredOutput(ctx Context, charges []string) (int, []string) {
	if len(ctx.PriorOpinions) == 0 {
		return 1, append(charges,
			"Structured output enforcement fails by its own standard: no well-formed opinion objects exist in this run.")
	}
	for _, op := range ctx.PriorOpinions {
		if err := op.Validate(); err != nil {
			return 1, append(charges, fmt.Sprintf(
				"Structured output enforcement fails by its own standard: an opinion-shaped payload is invalid (%v).", err))
		}
	}
	return 2, append(charges,
		"Opinion payloads validate, but schema conformance alone does not demonstrate enforcement at the boundaries.")
}

// securityCharge converts recorded dangerous call sites into an explicit
// security accusation. The deliberation engine's security override keys
// off this argument text.
func securityCharge(ctx Context) string {
	if ctx.Findings == nil || len(ctx.Findings.DangerousCalls) == 0 {
		return ""
	}
	return fmt.Sprintf(
		"The code shells out via %s, a dangerous subprocess invocation with unsanitized input and command injection exposure.",
		strings.Join(ctx.Findings.DangerousCalls, ", "))
}

func hasUnfoundVisualEvidence(ctx Context) bool {
	if ctx.Ledger == nil {
		return false
	}
	for _, ev := range ctx.Ledger.ByCollector(evidence.CollectorVision) {
		if !ev.Found {
			return true
		}
	}
	return false
}

func clampScore(s int) int {
	if s < 1 {
		return 1
	}
	if s > 5 {
		return 5
	}
	return s
}
