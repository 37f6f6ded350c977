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

	"github.com/AleutianAI/tribunal/services/auditor/docs"
	"github.com/AleutianAI/tribunal/services/auditor/evidence"
	"github.com/AleutianAI/tribunal/services/auditor/gitforensics"
	"github.com/AleutianAI/tribunal/services/auditor/rubric"
)

// processIterationMarkers reward disciplined engineering process signals
// in the repository evidence narrative.
var processIterationMarkers = []string{
	"iterative",
	"incremental",
	"atomic",
	"refactor",
	"test-driven",
	"engineering process",
}

// architectureDepthMarkers reward architectural depth signals in the
// document evidence narrative.
var architectureDepthMarkers = []string{
	"deep metacognition",
	"deep understanding",
	"spirit of the law",
	"orchestration",
	"state management",
	"reducer",
	"fan-out",
}

// Defense generates the lenient opinion: baseline score 4, escalating to
// 5 only when both signal families are present simultaneously. The
// Defense rewards and never penalizes.
func Defense(ctx Context, dim rubric.Dimension) Opinion {
	repoNarrative := ctx.collectorNarrative(evidence.CollectorRepo)
	docNarrative := ctx.collectorNarrative(evidence.CollectorDocs)

	processHits := docs.FindKeywords(repoNarrative, processIterationMarkers)
	depthHits := docs.FindKeywords(docNarrative, architectureDepthMarkers)

	score := 4
	var praise []string
	praise = append(praise,
		"The work product deserves the benefit of the doubt; the recorded evidence is consistent with a good-faith effort on this criterion.")

	// Classified history is a process signal in its own right, whether
	// or not the narrative made it into the ledger.
	if ctx.History.Style == gitforensics.StyleAtomicIterative {
		praise = append(praise, fmt.Sprintf(
			"The commit history itself testifies to discipline: %d commits in an atomic iterative style.",
			ctx.History.CommitCount))
		processHits = append(processHits, "atomic iterative history")
	}

	if len(processHits) > 0 {
		praise = append(praise, fmt.Sprintf(
			"The repository narrative shows a deliberate engineering process (%s).",
			strings.Join(processHits, ", ")))
	}
	if len(depthHits) > 0 {
		praise = append(praise, fmt.Sprintf(
			"The report demonstrates architectural depth (%s).",
			strings.Join(depthHits, ", ")))
	}
	if len(processHits) > 0 && len(depthHits) > 0 {
		score = 5
		praise = append(praise,
			"Process discipline and architectural depth are both in evidence; this merits full credit.")
	}

	return Opinion{
		Judge:         RoleDefense,
		CriterionID:   dim.ID,
		Score:         score,
		Argument:      strings.Join(praise, " "),
		CitedEvidence: ctx.citedLocations(),
	}
}
