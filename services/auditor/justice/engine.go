// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package justice

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/AleutianAI/tribunal/services/auditor/docs"
	"github.com/AleutianAI/tribunal/services/auditor/judges"
	"github.com/AleutianAI/tribunal/services/auditor/rubric"
)

// SecurityMarkers are the fixed security-risk phrases. A Prosecutor
// argument containing any of them caps that criterion's final score at 3.
var SecurityMarkers = []string{
	"os.system",
	"unsanitized",
	"injection",
	"security vulnerability",
	"security flaw",
	"command injection",
	"subprocess",
}

// architectureCriterionIDs are rubric ids always treated as
// architecture-tagged.
var architectureCriterionIDs = map[string]bool{
	"graph_orchestration":    true,
	"state_management_rigor": true,
	"architecture":           true,
}

// dissentSpreadThreshold: a conflict narrative is produced only when the
// stated score spread exceeds this.
const dissentSpreadThreshold = 2

const neutralScore = 3

// CriterionVerdict is the deliberated outcome for one rubric dimension.
//
// Dissent is nil, not empty, when the judges did not meaningfully
// conflict.
type CriterionVerdict struct {
	DimensionID   string           `json:"dimension_id"`
	DimensionName string           `json:"dimension_name"`
	FinalScore    int              `json:"final_score"`
	Opinions      []judges.Opinion `json:"opinions"`
	Dissent       *string          `json:"dissent,omitempty"`
	Remediation   string           `json:"remediation"`
}

// AuditReport is the terminal artifact of one run, produced exactly once
// after deliberation completes in full and never mutated afterwards
// (the narrative collaborator may only append prose via AppendNarrative).
type AuditReport struct {
	RepoIdentifier   string             `json:"repo_identifier"`
	ExecutiveSummary string             `json:"executive_summary"`
	OverallScore     float64            `json:"overall_score"`
	Criteria         []CriterionVerdict `json:"criteria"`
	RemediationPlan  string             `json:"remediation_plan"`
}

// Input bundles the already-materialized inputs to deliberation.
type Input struct {
	RepoIdentifier string
	Dimensions     []rubric.Dimension
	Opinions       []judges.Opinion

	// Narrative is the structural findings narrative the hallucination
	// guard cross-checks claims against.
	Narrative string
}

// Engine deliberates guarded opinions into an AuditReport.
//
// Single pass: per-criterion aggregation, then report synthesis. There
// are no intermediate states and no side effects; the same input always
// yields the same report.
type Engine struct{}

// NewEngine creates a deliberation engine.
func NewEngine() *Engine { return &Engine{} }

// Deliberate aggregates opinions per criterion and synthesizes the
// report. Criteria with no opinions fall back to the neutral score with
// absent dissent, so a complete report is always produced.
func (e *Engine) Deliberate(input Input) *AuditReport {
	byCriterion := make(map[string][]judges.Opinion)
	for _, op := range input.Opinions {
		byCriterion[op.CriterionID] = append(byCriterion[op.CriterionID], op)
	}

	dims := make([]rubric.Dimension, len(input.Dimensions))
	copy(dims, input.Dimensions)
	known := make(map[string]bool, len(dims))
	for _, d := range dims {
		known[d.ID] = true
	}
	// Opinions citing a criterion outside the rubric still get a verdict
	// row rather than being dropped silently.
	var orphans []string
	for cid := range byCriterion {
		if !known[cid] {
			orphans = append(orphans, cid)
		}
	}
	sort.Strings(orphans)
	for _, cid := range orphans {
		dims = append(dims, rubric.Dimension{ID: cid, Name: cid})
	}

	var verdicts []CriterionVerdict
	for _, dim := range dims {
		verdicts = append(verdicts, e.deliberateCriterion(dim, byCriterion[dim.ID], input.Narrative))
	}

	report := e.synthesize(input.RepoIdentifier, verdicts)
	slog.Info("deliberation complete",
		slog.String("repo", input.RepoIdentifier),
		slog.Int("criteria", len(report.Criteria)),
		slog.Float64("overall_score", report.OverallScore))
	return report
}

// deliberateCriterion applies the aggregation and override rules for one
// dimension.
func (e *Engine) deliberateCriterion(dim rubric.Dimension, present []judges.Opinion, narrative string) CriterionVerdict {
	verdict := CriterionVerdict{
		DimensionID:   dim.ID,
		DimensionName: dim.Name,
		Opinions:      present,
	}

	if len(present) == 0 {
		verdict.FinalScore = neutralScore
		verdict.Remediation = "No judge opinions were recorded for this criterion; review the evidence ledger and re-run the audit."
		return verdict
	}

	adjusted := make(map[judges.Role]int, len(present))
	hallucinated := make(map[judges.Role]bool, len(present))
	byRole := make(map[judges.Role]judges.Opinion, len(present))
	for _, op := range present {
		adj, flagged := AdjustedScore(op, narrative)
		adjusted[op.Judge] = adj
		hallucinated[op.Judge] = flagged
		byRole[op.Judge] = op
		if flagged {
			slog.Debug("unsupported claim capped",
				slog.String("judge", string(op.Judge)),
				slog.String("criterion", op.CriterionID),
				slog.Int("stated", op.Score),
				slog.Int("adjusted", adj))
		}
	}

	tl, hasTL := byRole[judges.RoleTechLead]
	aggregate := 0
	if isArchitectureTagged(dim) && hasTL && !hallucinated[judges.RoleTechLead] {
		var others []int
		for role, score := range adjusted {
			if role != judges.RoleTechLead {
				others = append(others, score)
			}
		}
		if len(others) == 0 {
			aggregate = adjusted[judges.RoleTechLead]
		} else {
			aggregate = roundHalfUp(0.5*float64(adjusted[judges.RoleTechLead]) + 0.5*mean(others))
		}
	} else {
		var all []int
		for _, score := range adjusted {
			all = append(all, score)
		}
		aggregate = roundHalfUp(mean(all))
	}

	// Security override, applied last, always.
	if pros, ok := byRole[judges.RoleProsecutor]; ok {
		if containsAny(strings.ToLower(pros.Argument), SecurityMarkers) && aggregate > 3 {
			aggregate = 3
		}
	}

	verdict.FinalScore = clamp(aggregate, 1, 5)
	verdict.Dissent = dissent(present)
	verdict.Remediation = remediation(byRole, tl, hasTL, verdict.FinalScore, present)
	return verdict
}

// dissent produces the conflict narrative when the stated score spread
// exceeds the threshold, and nil otherwise.
func dissent(present []judges.Opinion) *string {
	if len(present) == 0 {
		return nil
	}
	lo, hi := present[0].Score, present[0].Score
	for _, op := range present[1:] {
		if op.Score < lo {
			lo = op.Score
		}
		if op.Score > hi {
			hi = op.Score
		}
	}
	if hi-lo <= dissentSpreadThreshold {
		return nil
	}

	ordered := orderedByWeight(present)
	var parts []string
	for _, op := range ordered {
		parts = append(parts, fmt.Sprintf("The %s scored %d and argued: %s",
			op.Judge, op.Score, docs.Truncate(strings.TrimSpace(op.Argument), 200)))
	}
	text := strings.Join(parts, " ")
	return &text
}

// remediation prefers the highest-weighted judge's argument; for low
// final scores it appends the most adversarial argument's gaps.
func remediation(byRole map[judges.Role]judges.Opinion, tl judges.Opinion, hasTL bool, finalScore int, present []judges.Opinion) string {
	var instructions []string

	switch {
	case hasTL && strings.TrimSpace(tl.Argument) != "":
		instructions = append(instructions, strings.TrimSpace(tl.Argument))
	default:
		if def, ok := byRole[judges.RoleDefense]; ok && strings.TrimSpace(def.Argument) != "" {
			instructions = append(instructions, strings.TrimSpace(def.Argument))
		} else if pros, ok := byRole[judges.RoleProsecutor]; ok && strings.TrimSpace(pros.Argument) != "" {
			instructions = append(instructions, strings.TrimSpace(pros.Argument))
		}
	}

	if finalScore <= 2 {
		if harshest, ok := mostAdversarial(present); ok {
			instructions = append(instructions,
				"Address the gaps noted by the most adversarial assessment: "+
					docs.Truncate(strings.TrimSpace(harshest.Argument), 500))
		}
	}

	if len(instructions) == 0 {
		return "Review judge opinions and evidence; apply fixes to code or documentation as indicated."
	}
	return docs.Truncate(strings.Join(instructions, " "), 2000)
}

// mostAdversarial returns the lowest-scoring opinion.
func mostAdversarial(present []judges.Opinion) (judges.Opinion, bool) {
	if len(present) == 0 {
		return judges.Opinion{}, false
	}
	harshest := present[0]
	for _, op := range present[1:] {
		if op.Score < harshest.Score {
			harshest = op
		}
	}
	return harshest, true
}

// orderedByWeight sorts opinions Prosecutor, Defense, TechLead for
// stable narrative output.
func orderedByWeight(present []judges.Opinion) []judges.Opinion {
	rank := map[judges.Role]int{
		judges.RoleProsecutor: 0,
		judges.RoleDefense:    1,
		judges.RoleTechLead:   2,
	}
	out := make([]judges.Opinion, len(present))
	copy(out, present)
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Judge] < rank[out[j].Judge]
	})
	return out
}

// isArchitectureTagged reports whether a dimension gets the TechLead
// weighting.
func isArchitectureTagged(dim rubric.Dimension) bool {
	if architectureCriterionIDs[dim.ID] {
		return true
	}
	text := strings.ToLower(dim.Name + " " + dim.Instruction)
	return strings.Contains(text, "architecture") ||
		strings.Contains(text, "orchestration") ||
		strings.Contains(text, "state management")
}

// roundHalfUp rounds to the nearest integer with halves going up. This
// bias is a deliberate reproducibility choice; do not substitute
// round-half-to-even or truncation.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func mean(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	return float64(total) / float64(len(scores))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
