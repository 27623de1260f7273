package main

// ---------------------------------------------------------------------------
// cmd_fix.go — apply security fixes to a service configuration
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"time"
)

type fixOutcomeResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Applied int      `json:"applied"`
	Changes []string `json:"changes,omitempty"`
	Restart *struct {
		Success  bool   `json:"success"`
		Message  string `json:"message"`
		Strategy string `json:"strategy,omitempty"`
	} `json:"restart,omitempty"`
}

func printFixOutcome(outcome fixOutcomeResponse) {
	marker := green("✓")
	if !outcome.Success {
		marker = yellow("–")
	}
	fmt.Printf("%s %s\n", marker, outcome.Message)
	for _, change := range outcome.Changes {
		fmt.Printf("    %s %s\n", dim("·"), change)
	}
	if outcome.Restart != nil {
		marker = green("✓")
		if !outcome.Restart.Success {
			marker = red("✗")
		}
		fmt.Printf("%s %s\n", marker, outcome.Restart.Message)
	}
}

func cmdFix(args []string) {
	fs := flag.NewFlagSet("fix", flag.ExitOnError)
	configPath := fs.String("config", "configs/default.yaml", "Config file path")
	host := fs.String("host", "", "API host override")
	port := fs.Int("port", 0, "API port override")
	apiKeyFlag := fs.String("api-key", "", "API key for authentication")
	service := fs.String("service", "", "Service to fix (required)")
	path := fs.String("path", "", "Config file path override")
	rules := fs.String("rules", "", "Comma-separated rule ids to apply (default: all found)")
	noBackup := fs.Bool("no-backup", false, "Skip the timestamped backup")
	restart := fs.Bool("restart", false, "Restart the service after fixing")
	format := fs.String("format", "table", "Output format: table, json")
	fs.Parse(args)

	if *service == "" {
		errorf("--service is required (try: jano services)")
	}

	*configPath = envConfig(*configPath)
	base := apiBase(*configPath, envHost(*host), envPort(*port))
	apiKey := resolveAPIKey(*apiKeyFlag, *configPath)

	req := map[string]any{
		"service": *service,
		"path":    *path,
		"backup":  !*noBackup,
		"restart": *restart,
	}
	if *rules != "" {
		var ids []string
		for _, id := range strings.Split(*rules, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		req["rule_ids"] = ids
	}

	payload, _ := json.Marshal(req)
	body, err := apiPost(base+"/api/v1/fix/apply", payload, apiKey, 60*time.Second)
	if err != nil {
		errorf("%v", err)
	}

	if parseFormat(*format) == FormatJSON {
		fmt.Println(string(body))
		return
	}

	var outcome fixOutcomeResponse
	if err := json.Unmarshal(body, &outcome); err != nil {
		errorf("parsing response: %v", err)
	}
	printFixOutcome(outcome)
}
