// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package justice

import (
	"fmt"
	"math"
	"strings"
)

// synthesize assembles the final report from deliberated verdicts.
func (e *Engine) synthesize(repoIdentifier string, verdicts []CriterionVerdict) *AuditReport {
	overall := float64(neutralScore)
	if len(verdicts) > 0 {
		total := 0
		for _, v := range verdicts {
			total += v.FinalScore
		}
		overall = round2(float64(total) / float64(len(verdicts)))
	}

	var remediationSections []string
	for _, v := range verdicts {
		remediationSections = append(remediationSections,
			fmt.Sprintf("## %s (%s)\n%s", v.DimensionName, v.DimensionID, v.Remediation))
	}
	remediationPlan := strings.Join(remediationSections, "\n\n")

	report := &AuditReport{
		RepoIdentifier:  repoIdentifier,
		OverallScore:    overall,
		Criteria:        verdicts,
		RemediationPlan: remediationPlan,
	}
	report.ExecutiveSummary = renderSummary(report)
	return report
}

// renderSummary produces the markdown executive summary: the verdict
// table, the dissent section, and the remediation plan.
func renderSummary(report *AuditReport) string {
	var b strings.Builder

	b.WriteString("# The Verdict\n\n")
	b.WriteString("| Criterion | Final Score |\n")
	b.WriteString("|-----------|-------------|\n")
	for _, v := range report.Criteria {
		fmt.Fprintf(&b, "| %s | %d |\n", v.DimensionName, v.FinalScore)
	}
	fmt.Fprintf(&b, "\nOverall score: %.2f\n", report.OverallScore)

	b.WriteString("\n# The Dissent\n")
	for _, v := range report.Criteria {
		fmt.Fprintf(&b, "\n## %s\n\n", v.DimensionName)
		if v.Dissent != nil {
			b.WriteString(*v.Dissent)
			b.WriteString("\n")
		} else {
			b.WriteString("The judges did not meaningfully conflict on this criterion.\n")
		}
	}

	b.WriteString("\n# The Remediation Plan\n\n")
	b.WriteString(report.RemediationPlan)
	b.WriteString("\n")

	return b.String()
}

// AppendNarrative attaches collaborator-drafted prose to the executive
// summary.
//
// This is the only mutation permitted after synthesis: it appends text
// and can never alter a computed score or a dissent decision.
func (r *AuditReport) AppendNarrative(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	r.ExecutiveSummary += "\n# Narrative Summary\n\n" + text + "\n"
}

// round2 rounds to two decimals, halves up.
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
