package main

// ---------------------------------------------------------------------------
// cmd_status.go — fetch status from a running instance
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"
)

func cmdStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "configs/default.yaml", "Config file path")
	host := fs.String("host", "", "API host override")
	port := fs.Int("port", 0, "API port override")
	apiKeyFlag := fs.String("api-key", "", "API key for authentication")
	format := fs.String("format", "table", "Output format: table, json, csv")
	output := fs.String("output", "", "Write output to file")
	timeoutStr := fs.String("timeout", "5s", "Request timeout")
	fs.Parse(args)

	*configPath = envConfig(*configPath)
	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		errorf("invalid timeout %q: %v", *timeoutStr, err)
	}

	base := apiBase(*configPath, envHost(*host), envPort(*port))
	apiKey := resolveAPIKey(*apiKeyFlag, *configPath)
	body, err := apiGet(base+"/api/v1/status", apiKey, timeout)
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

	var status map[string]any
	if err := json.Unmarshal(body, &status); err != nil {
		errorf("parsing response: %v", err)
	}

	if outFmt == FormatCSV {
		writeCSV(w, []string{"field", "value"}, [][]string{
			{"version", fmt.Sprintf("%v", status["version"])},
			{"status", fmt.Sprintf("%v", status["status"])},
			{"bus_connected", fmt.Sprintf("%v", status["bus_connected"])},
			{"llm_plugin", fmt.Sprintf("%v", status["llm_plugin"])},
			{"timestamp", fmt.Sprintf("%v", status["timestamp"])},
		})
		return
	}

	fmt.Fprintf(w, "%s Jano Status\n\n", bold("●"))
	fmt.Fprintf(w, "  %-16s %s\n", "Version:", green(fmt.Sprintf("%v", status["version"])))
	fmt.Fprintf(w, "  %-16s %s\n", "Status:", green(fmt.Sprintf("%v", status["status"])))
	fmt.Fprintf(w, "  %-16s %v\n", "Bus Connected:", status["bus_connected"])
	fmt.Fprintf(w, "  %-16s %v\n", "LLM Plugin:", status["llm_plugin"])
	if attacks, ok := status["attacks"].([]any); ok {
		fmt.Fprintf(w, "  %-16s %d\n", "Attack Plugins:", len(attacks))
	}
	if services, ok := status["fix_services"].(map[string]any); ok {
		fmt.Fprintf(w, "  %-16s %d\n", "Fixer Plugins:", len(services))
	}
}
