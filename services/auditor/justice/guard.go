// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package justice aggregates guarded judge opinions into per-criterion
// verdicts and synthesizes the final audit report.
//
// The deliberation engine is a pure function of its already-materialized
// inputs: scores, dissent, and remediation are computed before any
// optional narrative collaborator runs, and that collaborator can only
// append prose afterwards. This keeps the verdict's numeric core
// reproducible and auditable.
package justice

import (
	"strings"

	"github.com/AleutianAI/tribunal/services/auditor/judges"
)

// GuardCap is the maximum adjusted score of an opinion that makes an
// unsupported claim.
const GuardCap = 2

// ClaimFamily is a category of checkable assertion in an argument.
type ClaimFamily string

const (
	// ClaimParallelism covers parallel execution and fan-out assertions.
	ClaimParallelism ClaimFamily = "parallelism"
	// ClaimReducer covers reducer/state-merge mechanics assertions.
	ClaimReducer ClaimFamily = "reducer"
)

var parallelismClaimMarkers = []string{"parallel", "fan-out", "fanout", "fan out", "concurrent"}

var reducerClaimMarkers = []string{"reducer", "state merge", "state-merge", "merge state"}

// DetectClaims scans an argument for checkable claim families.
func DetectClaims(argument string) []ClaimFamily {
	lower := strings.ToLower(argument)
	var claims []ClaimFamily
	if containsAny(lower, parallelismClaimMarkers) {
		claims = append(claims, ClaimParallelism)
	}
	if containsAny(lower, reducerClaimMarkers) {
		claims = append(claims, ClaimReducer)
	}
	return claims
}

// claimUnsupported cross-checks one claim family against the structural
// findings narrative.
//
// A parallelism claim is unsupported when the narrative explicitly
// states no fan-out (or no edges). A reducer claim is unsupported unless
// the narrative carries the reducer-detected marker.
func claimUnsupported(family ClaimFamily, narrative string) bool {
	lower := strings.ToLower(narrative)
	switch family {
	case ClaimParallelism:
		return strings.Contains(lower, "fan-out: not detected") ||
			strings.Contains(lower, "edges: none")
	case ClaimReducer:
		return !strings.Contains(lower, "reducers: detected")
	default:
		return false
	}
}

// AdjustedScore returns the opinion's contribution to aggregation after
// the hallucination check, and whether any unsupported claim was found.
//
// The original opinion is never modified; only its aggregation weight is
// capped. An opinion making any unsupported claim contributes at most
// GuardCap regardless of its stated score.
func AdjustedScore(op judges.Opinion, narrative string) (int, bool) {
	for _, family := range DetectClaims(op.Argument) {
		if claimUnsupported(family, narrative) {
			if op.Score > GuardCap {
				return GuardCap, true
			}
			return op.Score, true
		}
	}
	return op.Score, false
}

func containsAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
