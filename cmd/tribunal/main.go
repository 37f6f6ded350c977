// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command tribunal audits a repository against a forensic rubric and
// prints a markdown verdict.
//
// Usage:
//
//	tribunal audit --repo-url https://github.com/acme/agent --rubric rubric.yaml
//	tribunal audit --repo-path ./checkout --report report.md --output verdict.md
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
