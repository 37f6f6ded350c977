// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package judges

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/tribunal/services/auditor/ast"
	"github.com/AleutianAI/tribunal/services/auditor/evidence"
	"github.com/AleutianAI/tribunal/services/auditor/gitforensics"
	"github.com/AleutianAI/tribunal/services/auditor/rubric"
)

func repoDim() rubric.Dimension {
	return rubric.Dimension{
		ID:          "graph_orchestration",
		Name:        "Graph Orchestration",
		Target:      rubric.ArtifactRepository,
		Instruction: "Verify parallel fan-out and fan-in in the compiled graph.",
	}
}

func plainDim() rubric.Dimension {
	return rubric.Dimension{
		ID:          "report_quality",
		Name:        "Report Quality",
		Target:      rubric.ArtifactTextReport,
		Instruction: "Check the report prose.",
	}
}

func fullFindings() *ast.Findings {
	return &ast.Findings{
		TypedStateDetected:   true,
		GraphBuilderDetected: true,
		ReducerHints:         true,
		Edges: []ast.Edge{
			{From: "start", To: "a"},
			{From: "start", To: "b"},
			{From: "a", To: "join"},
			{From: "b", To: "join"},
		},
		FanOutDetected: true,
		FanInDetected:  true,
	}
}

func ledgerWith(t *testing.T, collector string, items ...evidence.Evidence) *evidence.Ledger {
	t.Helper()
	l := evidence.NewLedger()
	l.Append(collector, items...)
	return l
}

func TestOpinionValidate(t *testing.T) {
	op := Opinion{
		Judge:       RoleProsecutor,
		CriterionID: "x",
		Score:       3,
		Argument:    "reasoned",
	}
	require.NoError(t, op.Validate())

	op.Score = 0
	assert.Error(t, op.Validate())
	op.Score = 6
	assert.Error(t, op.Validate())
	op.Score = 3

	op.Judge = "Bailiff"
	assert.Error(t, op.Validate())
}

func TestProsecutorBaseline(t *testing.T) {
	op := Prosecutor(Context{Findings: fullFindings()}, plainDim())
	assert.Equal(t, RoleProsecutor, op.Judge)
	assert.Equal(t, 2, op.Score)
	require.NoError(t, op.Validate())
}

func TestProsecutorParallelismDowngrades(t *testing.T) {
	dim := repoDim()

	tests := []struct {
		name     string
		findings *ast.Findings
		want     int
	}{
		{name: "no findings at all", findings: nil, want: 1},
		{name: "no edges", findings: &ast.Findings{GraphBuilderDetected: true}, want: 1},
		{
			name: "edges but no fan-out",
			findings: &ast.Findings{Edges: []ast.Edge{
				{From: "a", To: "b"},
				{From: "b", To: "c"},
			}},
			want: 1,
		},
		{name: "genuine fan-out", findings: fullFindings(), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := Prosecutor(Context{Findings: tt.findings}, dim)
			assert.Equal(t, tt.want, op.Score)
		})
	}
}

func TestProsecutorMisleadingVisual(t *testing.T) {
	l := ledgerWith(t, evidence.CollectorVision, evidence.Evidence{
		Goal:       "Diagram Fidelity",
		Found:      false,
		Location:   "report-images:diagram_fidelity",
		Rationale:  "image extraction unavailable",
		Confidence: 0.3,
	})

	op := Prosecutor(Context{Ledger: l, Findings: fullFindings()}, repoDim())

	assert.Equal(t, 1, op.Score)
	assert.Contains(t, op.Argument, "misleading visual")
}

func TestProsecutorStructuredOutputCheck(t *testing.T) {
	dim := rubric.Dimension{
		ID:          "structured_output",
		Name:        "Structured Output Enforcement",
		Target:      rubric.ArtifactRepository,
		Instruction: "Verify structured output boundaries.",
	}

	op := Prosecutor(Context{}, dim)
	assert.Equal(t, 1, op.Score, "empty opinion set fails its own standard")

	valid := Opinion{Judge: RoleDefense, CriterionID: "x", Score: 4, Argument: "fine"}
	op = Prosecutor(Context{PriorOpinions: []Opinion{valid}}, dim)
	assert.Equal(t, 2, op.Score)

	invalid := valid
	invalid.Score = 9
	op = Prosecutor(Context{PriorOpinions: []Opinion{valid, invalid}}, dim)
	assert.Equal(t, 1, op.Score)
}

func TestProsecutorSecurityCharge(t *testing.T) {
	f := fullFindings()
	f.DangerousCalls = []string{"os.system"}

	op := Prosecutor(Context{Findings: f}, repoDim())
	assert.Contains(t, op.Argument, "os.system")
	assert.Contains(t, op.Argument, "command injection")

	// The charge only attaches to repository-targeted criteria.
	op = Prosecutor(Context{Findings: f}, plainDim())
	assert.NotContains(t, op.Argument, "command injection")
}

func TestDefenseBaseline(t *testing.T) {
	op := Defense(Context{}, plainDim())
	assert.Equal(t, RoleDefense, op.Judge)
	assert.Equal(t, 4, op.Score)
	require.NoError(t, op.Validate())
}

func TestDefenseFullCredit(t *testing.T) {
	l := evidence.NewLedger()
	l.Append(evidence.CollectorRepo, evidence.Evidence{
		Goal:       "history",
		Found:      true,
		Content:    "Development style: atomic iterative",
		Location:   ".git",
		Rationale:  "commit metadata",
		Confidence: 0.8,
	})
	l.Append(evidence.CollectorDocs, evidence.Evidence{
		Goal:       "report",
		Found:      true,
		Content:    "The report explains the orchestration and state management in depth.",
		Location:   "report.md",
		Rationale:  "report text",
		Confidence: 0.8,
	})

	op := Defense(Context{Ledger: l}, plainDim())
	assert.Equal(t, 5, op.Score)
}

func TestDefenseSingleSignalFamilyStaysAtFour(t *testing.T) {
	l := ledgerWith(t, evidence.CollectorRepo, evidence.Evidence{
		Goal:       "history",
		Found:      true,
		Content:    "Development style: atomic iterative",
		Location:   ".git",
		Rationale:  "commit metadata",
		Confidence: 0.8,
	})

	op := Defense(Context{Ledger: l}, plainDim())
	assert.Equal(t, 4, op.Score)
}

func TestDefenseReadsHistoryDirectly(t *testing.T) {
	history := gitforensics.History{CommitCount: 12, Style: gitforensics.StyleAtomicIterative}

	// History alone is one signal family: still 4.
	op := Defense(Context{History: history}, plainDim())
	assert.Equal(t, 4, op.Score)
	assert.Contains(t, op.Argument, "atomic iterative style")

	// Pairing the history signal with documented depth earns full credit
	// even when no repository narrative reached the ledger.
	l := ledgerWith(t, evidence.CollectorDocs, evidence.Evidence{
		Goal:       "report",
		Found:      true,
		Content:    "The report explains the orchestration design.",
		Location:   "report.md",
		Rationale:  "report text",
		Confidence: 0.8,
	})
	op = Defense(Context{Ledger: l, History: history}, plainDim())
	assert.Equal(t, 5, op.Score)
}

func TestTechLeadScoring(t *testing.T) {
	tests := []struct {
		name     string
		findings *ast.Findings
		want     int
	}{
		{name: "no findings", findings: nil, want: 2},
		{name: "nothing detected", findings: &ast.Findings{}, want: 2},
		{name: "typed state only", findings: &ast.Findings{TypedStateDetected: true}, want: 3},
		{
			name:     "typed state and builder",
			findings: &ast.Findings{TypedStateDetected: true, GraphBuilderDetected: true},
			want:     4,
		},
		{name: "full architecture", findings: fullFindings(), want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := TechLead(Context{Findings: tt.findings}, repoDim())
			assert.Equal(t, tt.want, op.Score)
			require.NoError(t, op.Validate())
		})
	}
}

func TestTechLeadArgumentTracksFindings(t *testing.T) {
	op := TechLead(Context{Findings: &ast.Findings{}}, repoDim())
	assert.NotContains(t, op.Argument, "fan-out")

	op = TechLead(Context{Findings: fullFindings()}, repoDim())
	assert.Contains(t, op.Argument, "parallel fan-out with a matching fan-in barrier")
	assert.Contains(t, op.Argument, "reducer")
}

func TestBenchRoles(t *testing.T) {
	bench := Bench()
	require.Len(t, bench, 3)
	for _, role := range []Role{RoleProsecutor, RoleDefense, RoleTechLead} {
		require.Contains(t, bench, role)
		op := bench[role](Context{Findings: fullFindings(), PriorOpinions: []Opinion{
			{Judge: RoleDefense, CriterionID: "x", Score: 4, Argument: "ok"},
		}}, repoDim())
		assert.Equal(t, role, op.Judge)
		assert.NoError(t, op.Validate())
	}
}

func TestWithTechLeadOverride(t *testing.T) {
	custom := func(ctx Context, dim rubric.Dimension) Opinion {
		return Opinion{Judge: RoleTechLead, CriterionID: dim.ID, Score: 5, Argument: "external policy"}
	}
	bench := Bench(WithTechLead(custom))
	op := bench[RoleTechLead](Context{}, repoDim())
	assert.Equal(t, 5, op.Score)
	assert.Equal(t, "external policy", op.Argument)

	bench = Bench(WithTechLead(nil))
	op = bench[RoleTechLead](Context{}, repoDim())
	assert.Equal(t, 2, op.Score, "nil override keeps the built-in policy")
}
