// Package ast implements the structural forensics analyzer.
//
// The analyzer walks an already-acquired local source tree, parses each
// Python file with tree-sitter, and detects architectural patterns without
// executing any audited code: typed-state schema classes, graph-builder
// instantiation, and directed edge registrations. Topology flags
// (fan-out/fan-in) are derived from the recorded edges across all files.
package ast

import (
	"fmt"
	"sort"
	"strings"
)

// Edge is a directed connection between two statically determinable
// node names.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Findings is the aggregate result of one tree scan.
//
// Partial results are the norm: a file that fails to parse is recorded in
// ParseErrors and the scan proceeds, so every other field reflects only
// the files that parsed cleanly.
type Findings struct {
	FilesAnalyzed []string          `json:"files_analyzed"`
	ParseErrors   map[string]string `json:"parse_errors,omitempty"`

	TypedStateDetected   bool   `json:"typed_state_detected"`
	GraphBuilderDetected bool   `json:"graph_builder_detected"`
	Edges                []Edge `json:"edges"`

	FanOutDetected bool `json:"fan_out_detected"`
	FanInDetected  bool `json:"fan_in_detected"`

	// StateFilesFound reports whether the canonical state/graph modules
	// exist at their conventional paths.
	StateFilesFound bool `json:"state_files_found"`

	// SrcDirFound, TestsDirFound, and ReadmeFound record the canonical
	// project layout artifacts.
	SrcDirFound   bool `json:"src_dir_found"`
	TestsDirFound bool `json:"tests_dir_found"`
	ReadmeFound   bool `json:"readme_found"`

	// ReducerHints reports Annotated state fields on a detected schema
	// class, the static signature of state-merge reducers.
	ReducerHints bool `json:"reducer_hints"`

	// DangerousCalls lists qualified call sites that shell out from the
	// audited code (os.system, subprocess.*). Distinct, in first-seen order.
	DangerousCalls []string `json:"dangerous_calls,omitempty"`
}

// addDangerousCall records a shell-out call site once.
func (f *Findings) addDangerousCall(site string) {
	for _, existing := range f.DangerousCalls {
		if existing == site {
			return
		}
	}
	f.DangerousCalls = append(f.DangerousCalls, site)
}

// computeTopology derives the fan-out and fan-in flags from the recorded
// edge set. The result is invariant under edge reordering.
func (f *Findings) computeTopology() {
	forward := make(map[string]int)
	reverse := make(map[string]int)
	for _, e := range f.Edges {
		forward[e.From]++
		reverse[e.To]++
	}
	f.FanOutDetected = false
	f.FanInDetected = false
	for _, n := range forward {
		if n > 1 {
			f.FanOutDetected = true
			break
		}
	}
	for _, n := range reverse {
		if n > 1 {
			f.FanInDetected = true
			break
		}
	}
}

// Narrative renders the findings as a human-readable forensic summary.
//
// The hallucination guard cross-checks judge claims against the exact
// markers emitted here ("Fan-out: not detected", "Edges: none",
// "State reducers: detected"), so the phrasing is load-bearing.
func (f *Findings) Narrative() string {
	var lines []string
	lines = append(lines, "Repository Forensic Summary:")

	lines = append(lines, "", "[Structure]")
	if f.StateFilesFound {
		lines = append(lines, "- canonical state/graph modules: present")
	} else {
		lines = append(lines, "- canonical state/graph modules: missing")
	}
	lines = append(lines, presentLine("src/ directory", f.SrcDirFound))
	lines = append(lines, presentLine("tests/ directory", f.TestsDirFound))
	lines = append(lines, presentLine("README", f.ReadmeFound))
	lines = append(lines, fmt.Sprintf("- files analyzed: %d", len(f.FilesAnalyzed)))
	if len(f.ParseErrors) > 0 {
		lines = append(lines, fmt.Sprintf("- parse errors: %d", len(f.ParseErrors)))
		for _, file := range sortedKeys(f.ParseErrors) {
			lines = append(lines, fmt.Sprintf("  - %s: %s", file, f.ParseErrors[file]))
		}
	}

	lines = append(lines, "", "[Graph Structure]")
	lines = append(lines, detectedLine("Graph builder", f.GraphBuilderDetected))
	lines = append(lines, detectedLine("Typed state model", f.TypedStateDetected))
	if f.ReducerHints {
		lines = append(lines, "- State reducers: detected (Annotated state fields)")
	} else {
		lines = append(lines, "- State reducers: not detected")
	}
	if len(f.Edges) == 0 {
		lines = append(lines, "- Edges: none")
	} else {
		lines = append(lines, "- Edges:")
		for _, e := range f.Edges {
			lines = append(lines, fmt.Sprintf("  - %s -> %s", e.From, e.To))
		}
	}
	lines = append(lines, detectedLine("Fan-out", f.FanOutDetected))
	lines = append(lines, detectedLine("Fan-in", f.FanInDetected))
	if len(f.DangerousCalls) > 0 {
		lines = append(lines, fmt.Sprintf("- Dangerous subprocess invocations: %s",
			strings.Join(f.DangerousCalls, ", ")))
	}

	return strings.Join(lines, "\n")
}

func presentLine(label string, present bool) string {
	if present {
		return fmt.Sprintf("- %s: present", label)
	}
	return fmt.Sprintf("- %s: missing", label)
}

func detectedLine(label string, detected bool) string {
	if detected {
		return fmt.Sprintf("- %s: detected", label)
	}
	return fmt.Sprintf("- %s: not detected", label)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
