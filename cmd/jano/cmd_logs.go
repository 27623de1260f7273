package main

// ---------------------------------------------------------------------------
// cmd_logs.go — fetch recent logs from a running instance
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"
)

func cmdLogs(args []string) {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	configPath := fs.String("config", "configs/default.yaml", "Config file path")
	host := fs.String("host", "", "API host override")
	port := fs.Int("port", 0, "API port override")
	apiKeyFlag := fs.String("api-key", "", "API key for authentication")
	limit := fs.Int("limit", 50, "Number of log lines to fetch")
	format := fs.String("format", "table", "Output format: table, json")
	fs.Parse(args)

	*configPath = envConfig(*configPath)
	base := apiBase(*configPath, envHost(*host), envPort(*port))
	apiKey := resolveAPIKey(*apiKeyFlag, *configPath)

	body, err := apiGet(fmt.Sprintf("%s/api/v1/logs?limit=%d", base, *limit), apiKey, 5*time.Second)
	if err != nil {
		errorf("%v", err)
	}

	if parseFormat(*format) == FormatJSON {
		fmt.Println(string(body))
		return
	}

	var resp struct {
		Logs []struct {
			Timestamp time.Time `json:"timestamp"`
			Level     string    `json:"level"`
			Component string    `json:"component"`
			Message   string    `json:"message"`
		} `json:"logs"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		errorf("parsing response: %v", err)
	}

	for _, entry := range resp.Logs {
		component := entry.Component
		if component == "" {
			component = "-"
		}
		fmt.Printf("%s %-5s %-16s %s\n",
			dim(entry.Timestamp.Format("15:04:05")),
			severityColor(entry.Level),
			cyan(component),
			entry.Message)
	}
}
