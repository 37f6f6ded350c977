// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline orchestrates a full audit run.
//
// Detective tasks (structural forensics, history, document and vision
// collectors) read disjoint inputs and run as independent parallel
// tasks. Each owns a local evidence buffer; the buffers are merged into
// the shared ledger only at the errgroup join barrier, so there are no
// concurrent writes by construction. Deliberation starts strictly after
// that barrier. Every failure downstream of rubric loading degrades to
// negative evidence; the run always completes with a verdict.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/tribunal/pkg/logging"
	"github.com/AleutianAI/tribunal/services/auditor/ast"
	"github.com/AleutianAI/tribunal/services/auditor/docs"
	"github.com/AleutianAI/tribunal/services/auditor/evidence"
	"github.com/AleutianAI/tribunal/services/auditor/gitforensics"
	"github.com/AleutianAI/tribunal/services/auditor/judges"
	"github.com/AleutianAI/tribunal/services/auditor/justice"
	"github.com/AleutianAI/tribunal/services/auditor/llm"
	"github.com/AleutianAI/tribunal/services/auditor/rubric"
)

// VisionCollector supplies visual evidence for report-image dimensions.
// External collaborator hook; when nil, image dimensions degrade to
// not-found evidence.
type VisionCollector func(ctx context.Context, reportPath string, dims []rubric.Dimension) []evidence.Evidence

// Options configures one audit run.
type Options struct {
	// RepoURL is cloned into a sandbox when RepoPath is empty.
	RepoURL string
	// RepoPath is a pre-acquired local source tree.
	RepoPath string
	// ReportPath is the optional pre-acquired textual report.
	ReportPath string
	// RubricPath locates the rubric file. Loading fails loudly.
	RubricPath string

	// Narrator optionally restyles the finished report's prose.
	Narrator llm.Narrator
	// Vision optionally collects visual evidence.
	Vision VisionCollector

	Logger *logging.Logger
}

// Runner executes audit runs.
type Runner struct {
	opts     Options
	analyzer *ast.Analyzer
	engine   *justice.Engine
	logger   *logging.Logger
}

// NewRunner creates a Runner. A nil logger falls back to the default.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		opts:     opts,
		analyzer: ast.NewAnalyzer(),
		engine:   justice.NewEngine(),
		logger:   logger,
	}
}

// Run performs one complete audit and returns the report.
//
// Only rubric loading and context cancellation can fail the run; every
// other failure is recorded as evidence and deliberation proceeds on
// neutral priors.
func (r *Runner) Run(ctx context.Context) (*justice.AuditReport, error) {
	rub, err := rubric.Load(r.opts.RubricPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	ledger := evidence.NewLedger()
	logger := r.logger.With("run_id", ledger.RunID())
	logger.Info("audit run starting",
		"repo_url", r.opts.RepoURL,
		"repo_path", r.opts.RepoPath,
		"dimensions", len(rub.Dimensions))

	repoPath, acquireErr := r.acquire(ctx)
	if acquireErr == nil && r.opts.RepoPath == "" && repoPath != "" {
		defer os.RemoveAll(repoPath)
	}

	// Detective fan-out. Each task owns its buffer and result slot;
	// nothing mutable is shared until the Wait barrier below.
	repo := &repoDetective{path: repoPath, acquireErr: acquireErr, repoURL: r.opts.RepoURL, analyzer: r.analyzer}
	doc := &docDetective{reportPath: r.opts.ReportPath}
	vision := &visionDetective{
		reportPath: r.opts.ReportPath,
		dims:       rub.ByArtifact(rubric.ArtifactReportImages),
		collect:    r.opts.Vision,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { repo.run(gctx); return nil })
	g.Go(func() error { doc.run(gctx); return nil })
	g.Go(func() error { vision.run(gctx); return nil })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pipeline: detective phase: %w", err)
	}

	// Fan-in barrier crossed: merge collector buffers into the ledger.
	ledger.Merge(repo.buf)
	ledger.Merge(doc.buf)
	ledger.Merge(vision.buf)
	ledger.Append(evidence.CollectorAggregator, evidence.Evidence{
		Goal:       "All detective evidence aggregated",
		Found:      ledger.Len() > 0,
		Location:   evidence.CollectorAggregator,
		Rationale:  "Synchronization point after the repository, document, and vision detectives complete; all buffers are merged into the shared ledger.",
		Confidence: 0.9,
	})
	logger.Info("evidence aggregated",
		"collectors", len(ledger.Collectors()),
		"items", ledger.Len())

	opinions := r.generateOpinions(ledger, repo, rub)
	logger.Info("opinions generated", "count", len(opinions))

	report := r.engine.Deliberate(justice.Input{
		RepoIdentifier: r.repoIdentifier(),
		Dimensions:     rub.Dimensions,
		Opinions:       opinions,
		Narrative:      repo.narrative,
	})

	r.enrich(ctx, report, logger)
	return report, nil
}

// acquire resolves the audited source tree: a pre-acquired path wins,
// otherwise the URL is cloned into a sandbox.
func (r *Runner) acquire(ctx context.Context) (string, error) {
	if r.opts.RepoPath != "" {
		return r.opts.RepoPath, nil
	}
	if r.opts.RepoURL == "" {
		return "", fmt.Errorf("no repository path or URL supplied")
	}
	return gitforensics.CloneSandbox(ctx, r.opts.RepoURL)
}

// generateOpinions runs the bench over every rubric dimension.
//
// The Defense and TechLead go first; the Prosecutor runs last so its
// structured-output integrity check can inspect the opinions already on
// record.
func (r *Runner) generateOpinions(ledger *evidence.Ledger, repo *repoDetective, rub *rubric.Rubric) []judges.Opinion {
	bench := judges.Bench()
	jctx := judges.Context{
		Ledger:   ledger,
		Findings: repo.findings,
		History:  repo.history,
	}

	var opinions []judges.Opinion
	for _, role := range []judges.Role{judges.RoleDefense, judges.RoleTechLead} {
		generate := bench[role]
		for _, dim := range rub.Dimensions {
			opinions = appendValid(opinions, generate(jctx, dim), r.logger)
		}
	}

	jctx.PriorOpinions = opinions
	prosecute := bench[judges.RoleProsecutor]
	for _, dim := range rub.Dimensions {
		opinions = appendValid(opinions, prosecute(jctx, dim), r.logger)
	}
	return opinions
}

func appendValid(opinions []judges.Opinion, op judges.Opinion, logger *logging.Logger) []judges.Opinion {
	if err := op.Validate(); err != nil {
		logger.Error("dropping malformed opinion", "error", err)
		return opinions
	}
	return append(opinions, op)
}

// enrich invokes the optional narrative collaborator on the finished
// report. Absence is not an error; the report stands on its own.
func (r *Runner) enrich(ctx context.Context, report *justice.AuditReport, logger *logging.Logger) {
	if r.opts.Narrator == nil {
		return
	}
	prompt := "Restyle the following audit verdict summary for an executive reader. " +
		"Do not change any score, table value, or conclusion.\n\n" +
		docs.Truncate(report.ExecutiveSummary, 6000)
	drafted := r.opts.Narrator.Draft(ctx, prompt)
	if !drafted.OK {
		logger.Info("no drafted narrative available; keeping computed summary")
		return
	}
	report.AppendNarrative(drafted.Text)
}

func (r *Runner) repoIdentifier() string {
	if r.opts.RepoURL != "" {
		return r.opts.RepoURL
	}
	return r.opts.RepoPath
}
