package main

// ---------------------------------------------------------------------------
// cmd_attack.go — run an attack simulation against an authorized target
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"
)

func cmdAttack(args []string) {
	fs := flag.NewFlagSet("attack", flag.ExitOnError)
	configPath := fs.String("config", "configs/default.yaml", "Config file path")
	host := fs.String("host", "", "API host override")
	port := fs.Int("port", 0, "API port override")
	apiKeyFlag := fs.String("api-key", "", "API key for authentication")
	plugin := fs.String("plugin", "weak_ssh", "Attack plugin to run")
	target := fs.String("target", "", "Target host (required, authorized hosts only)")
	targetPort := fs.Int("target-port", 0, "Target port override")
	format := fs.String("format", "table", "Output format: table, json")
	timeoutStr := fs.String("timeout", "120s", "Request timeout")
	fs.Parse(args)

	if *target == "" {
		errorf("--target is required")
	}
	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		errorf("invalid timeout %q: %v", *timeoutStr, err)
	}

	*configPath = envConfig(*configPath)
	base := apiBase(*configPath, envHost(*host), envPort(*port))
	apiKey := resolveAPIKey(*apiKeyFlag, *configPath)

	req := map[string]any{"target": *target}
	if *targetPort != 0 {
		req["options"] = map[string]any{"port": *targetPort}
	}
	payload, _ := json.Marshal(req)
	body, err := apiPost(base+"/api/v1/attack/"+*plugin, payload, apiKey, timeout)
	if err != nil {
		errorf("%v", err)
	}

	if parseFormat(*format) == FormatJSON {
		fmt.Println(string(body))
		return
	}

	var result struct {
		Success         bool     `json:"success"`
		Severity        string   `json:"severity"`
		Details         string   `json:"details"`
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		errorf("parsing response: %v", err)
	}

	marker := green("✓")
	if result.Success {
		// Success for an attack means the path exists, which is bad news.
		marker = red("!")
	}
	fmt.Printf("%s [%s] %s\n", marker, severityColor(result.Severity), result.Details)
	if len(result.Recommendations) > 0 {
		fmt.Printf("\n%s\n", bold("RECOMMENDATIONS"))
		for _, rec := range result.Recommendations {
			fmt.Printf("  %s %s\n", dim("·"), rec)
		}
	}
}
