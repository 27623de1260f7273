package main

// ---------------------------------------------------------------------------
// cmd_auto.go — analyze, fix, and restart in one shot
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"
)

func cmdAuto(args []string) {
	fs := flag.NewFlagSet("auto", flag.ExitOnError)
	configPath := fs.String("config", "configs/default.yaml", "Config file path")
	host := fs.String("host", "", "API host override")
	port := fs.Int("port", 0, "API port override")
	apiKeyFlag := fs.String("api-key", "", "API key for authentication")
	service := fs.String("service", "", "Service to secure (required)")
	path := fs.String("path", "", "Config file path override")
	format := fs.String("format", "table", "Output format: table, json")
	fs.Parse(args)

	if *service == "" {
		errorf("--service is required (try: jano services)")
	}

	*configPath = envConfig(*configPath)
	base := apiBase(*configPath, envHost(*host), envPort(*port))
	apiKey := resolveAPIKey(*apiKeyFlag, *configPath)

	payload, _ := json.Marshal(map[string]string{"service": *service, "path": *path})
	body, err := apiPost(base+"/api/v1/fix/auto", payload, apiKey, 90*time.Second)
	if err != nil {
		errorf("%v", err)
	}

	if parseFormat(*format) == FormatJSON {
		fmt.Println(string(body))
		return
	}

	var resp struct {
		Analysis analysisResponse    `json:"analysis"`
		Outcome  *fixOutcomeResponse `json:"outcome"`
		Message  string              `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		errorf("parsing response: %v", err)
	}

	fmt.Printf("%s %s\n", bold("●"), resp.Analysis.Message)
	for i, issue := range resp.Analysis.Issues {
		fmt.Printf("  %d. [%s] %s\n", i+1, severityColor(issue.Severity), issue.Description)
	}
	fmt.Println()
	if resp.Outcome == nil {
		fmt.Printf("%s %s\n", green("✓"), resp.Message)
		return
	}
	printFixOutcome(*resp.Outcome)
}
