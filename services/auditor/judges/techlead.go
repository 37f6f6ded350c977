// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package judges

import (
	"strings"

	"github.com/AleutianAI/tribunal/services/auditor/rubric"
)

// TechLead generates the architecture-weighted opinion.
//
// The scoring policy here is the built-in deterministic fallback; an
// external collaborator may replace it through WithTechLead. Either way
// the TechLead opinion receives the highest aggregation weight on
// architecture-tagged criteria — that weighting lives in the
// deliberation engine, not here.
//
// The argument only asserts what the structural findings support, so a
// truthful TechLead never trips the hallucination guard.
func TechLead(ctx Context, dim rubric.Dimension) Opinion {
	f := ctx.Findings

	score := 2
	var assessment []string

	if f == nil {
		assessment = append(assessment,
			"No structural findings are available; the architecture cannot be confirmed beyond the written claims.")
	} else {
		if f.TypedStateDetected {
			score++
			assessment = append(assessment, "The state schema is typed and validated at the model boundary.")
		} else {
			assessment = append(assessment, "No typed state schema was detected; state flows through untyped dictionaries.")
		}

		if f.GraphBuilderDetected {
			score++
			assessment = append(assessment, "Orchestration is expressed through an explicit graph builder rather than ad-hoc control flow.")
		} else {
			assessment = append(assessment, "No graph builder instantiation was found.")
		}

		if f.FanOutDetected && f.FanInDetected {
			score++
			assessment = append(assessment,
				"The wiring shows genuine parallel fan-out with a matching fan-in barrier.")
		}
		if f.ReducerHints {
			assessment = append(assessment,
				"State-merge reducer annotations are present on the schema.")
		}
	}

	if score >= 4 {
		assessment = append(assessment, "Overall the architecture is modular and sound.")
	} else if score <= 2 {
		assessment = append(assessment, "The architecture needs structural work before it is workable.")
	}

	return Opinion{
		Judge:         RoleTechLead,
		CriterionID:   dim.ID,
		Score:         clampScore(score),
		Argument:      strings.Join(assessment, " "),
		CitedEvidence: ctx.citedLocations(),
	}
}
