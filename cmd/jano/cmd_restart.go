package main

// ---------------------------------------------------------------------------
// cmd_restart.go — validate and restart a service
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"
)

func cmdRestart(args []string) {
	fs := flag.NewFlagSet("restart", flag.ExitOnError)
	configPath := fs.String("config", "configs/default.yaml", "Config file path")
	host := fs.String("host", "", "API host override")
	port := fs.Int("port", 0, "API port override")
	apiKeyFlag := fs.String("api-key", "", "API key for authentication")
	service := fs.String("service", "", "Service to restart (required)")
	format := fs.String("format", "table", "Output format: table, json")
	fs.Parse(args)

	if *service == "" {
		errorf("--service is required (try: jano services)")
	}

	*configPath = envConfig(*configPath)
	base := apiBase(*configPath, envHost(*host), envPort(*port))
	apiKey := resolveAPIKey(*apiKeyFlag, *configPath)

	payload, _ := json.Marshal(map[string]string{"service": *service})
	body, err := apiPost(base+"/api/v1/fix/restart", payload, apiKey, 60*time.Second)
	if err != nil {
		errorf("%v", err)
	}

	if parseFormat(*format) == FormatJSON {
		fmt.Println(string(body))
		return
	}

	var outcome struct {
		Success  bool   `json:"success"`
		Message  string `json:"message"`
		Strategy string `json:"strategy,omitempty"`
	}
	if err := json.Unmarshal(body, &outcome); err != nil {
		errorf("parsing response: %v", err)
	}

	marker := green("✓")
	if !outcome.Success {
		marker = red("✗")
	}
	fmt.Printf("%s %s\n", marker, outcome.Message)
	if outcome.Strategy != "" {
		fmt.Printf("  %s %s\n", dim("strategy:"), outcome.Strategy)
	}
}
