// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tribunal/pkg/logging"
	"github.com/AleutianAI/tribunal/services/auditor/llm"
	"github.com/AleutianAI/tribunal/services/auditor/pipeline"
)

var (
	repoURL     string
	repoPath    string
	reportPath  string
	rubricPath  string
	outputPath  string
	debugMode   bool
	jsonLogs    bool
	noNarrative bool

	rootCmd = &cobra.Command{
		Use:   "tribunal",
		Short: "An evidence-first repository audit tribunal",
		Long: `Tribunal statically inspects a repository and its accompanying
report, gathers evidence into an append-only ledger, argues the case
before an adversarial bench of judges, and renders a markdown verdict.`,
	}

	auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Run a full audit and print the verdict",
		RunE:  runAudit, // Defined below.
	}
)

func init() {
	auditCmd.Flags().StringVar(&repoURL, "repo-url", "", "Repository URL to clone into a sandbox")
	auditCmd.Flags().StringVar(&repoPath, "repo-path", "", "Pre-acquired local repository path (takes precedence over --repo-url)")
	auditCmd.Flags().StringVar(&reportPath, "report", "", "Path to the textual audit report")
	auditCmd.Flags().StringVar(&rubricPath, "rubric", "configs/rubric.yaml", "Path to the rubric file (.yaml or .json)")
	auditCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the verdict to this file instead of stdout")
	auditCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	auditCmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	auditCmd.Flags().BoolVar(&noNarrative, "no-narrative", false, "Skip the optional LLM narrative pass")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	if repoURL == "" && repoPath == "" {
		return fmt.Errorf("one of --repo-url or --repo-path is required")
	}

	level := logging.LevelInfo
	if debugMode {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Service: "tribunal",
		JSON:    jsonLogs,
	})
	defer logger.Close()
	logger.InstallAsDefault()

	var narrator llm.Narrator
	if !noNarrative {
		if n, err := llm.NewFromEnv(); err != nil {
			logger.Info("narrative collaborator unavailable; verdict will use the computed summary", "reason", err)
		} else {
			narrator = n
		}
	}

	runner := pipeline.NewRunner(pipeline.Options{
		RepoURL:    repoURL,
		RepoPath:   repoPath,
		ReportPath: reportPath,
		RubricPath: rubricPath,
		Narrator:   narrator,
		Logger:     logger,
	})

	report, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(report.ExecutiveSummary), 0o644); err != nil {
			return fmt.Errorf("writing verdict to %s: %w", outputPath, err)
		}
		logger.Info("verdict written", "path", outputPath, "overall_score", report.OverallScore)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.ExecutiveSummary)
	return nil
}
