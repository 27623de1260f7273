package main

// ---------------------------------------------------------------------------
// cmd_analyze.go — read-only security analysis of a service configuration
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"
)

// analysisIssue mirrors the API's issue shape for rendering.
type analysisIssue struct {
	RuleID      string `json:"id"`
	IssueType   string `json:"issue_type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Current     string `json:"current,omitempty"`
	Fix         string `json:"fix"`
}

type analysisResponse struct {
	Success bool            `json:"success"`
	Service string          `json:"service"`
	Path    string          `json:"file_path"`
	Issues  []analysisIssue `json:"issues"`
	Message string          `json:"message"`
}

func cmdAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "configs/default.yaml", "Config file path")
	host := fs.String("host", "", "API host override")
	port := fs.Int("port", 0, "API port override")
	apiKeyFlag := fs.String("api-key", "", "API key for authentication")
	service := fs.String("service", "", "Service to analyze (required)")
	path := fs.String("path", "", "Config file path override")
	format := fs.String("format", "table", "Output format: table, json, csv")
	output := fs.String("output", "", "Write output to file")
	fs.Parse(args)

	if *service == "" {
		errorf("--service is required (try: jano services)")
	}

	*configPath = envConfig(*configPath)
	base := apiBase(*configPath, envHost(*host), envPort(*port))
	apiKey := resolveAPIKey(*apiKeyFlag, *configPath)

	payload, _ := json.Marshal(map[string]string{"service": *service, "path": *path})
	body, err := apiPost(base+"/api/v1/fix/analyze", payload, apiKey, 15*time.Second)
	if err != nil {
		errorf("%v", err)
	}

	w, cleanup := outputWriter(*output)
	defer cleanup()

	outFmt := parseFormat(*format)
	if outFmt == FormatJSON {
		fmt.Fprintln(w, string(body))
		return
	}

	var analysis analysisResponse
	if err := json.Unmarshal(body, &analysis); err != nil {
		errorf("parsing response: %v", err)
	}

	if outFmt == FormatCSV {
		rows := make([][]string, 0, len(analysis.Issues))
		for _, issue := range analysis.Issues {
			rows = append(rows, []string{issue.RuleID, issue.Severity, issue.IssueType, issue.Description, issue.Fix})
		}
		writeCSV(w, []string{"rule", "severity", "type", "description", "fix"}, rows)
		return
	}

	fmt.Fprintf(w, "%s %s\n", bold("●"), analysis.Message)
	fmt.Fprintf(w, "  %s %s\n\n", dim("file:"), analysis.Path)
	if len(analysis.Issues) == 0 {
		fmt.Fprintf(w, "  %s\n", green("no issues found"))
		return
	}
	for i, issue := range analysis.Issues {
		fmt.Fprintf(w, "  %d. [%s] %s %s\n", i+1, severityColor(issue.Severity), issue.Description, dim("("+issue.RuleID+")"))
		if issue.Current != "" {
			fmt.Fprintf(w, "     current: %s\n", issue.Current)
		}
		fmt.Fprintf(w, "     fix:     %s\n", issue.Fix)
	}
	fmt.Fprintf(w, "\n  %s jano fix --service %s\n", dim("apply with:"), *service)
}
