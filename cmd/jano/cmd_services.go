package main

// ---------------------------------------------------------------------------
// cmd_services.go — list fixer plugins and the services they handle
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"
)

func cmdServices(args []string) {
	fs := flag.NewFlagSet("services", flag.ExitOnError)
	configPath := fs.String("config", "configs/default.yaml", "Config file path")
	host := fs.String("host", "", "API host override")
	port := fs.Int("port", 0, "API port override")
	apiKeyFlag := fs.String("api-key", "", "API key for authentication")
	format := fs.String("format", "table", "Output format: table, json, csv")
	output := fs.String("output", "", "Write output to file")
	fs.Parse(args)

	*configPath = envConfig(*configPath)
	base := apiBase(*configPath, envHost(*host), envPort(*port))
	apiKey := resolveAPIKey(*apiKeyFlag, *configPath)
	body, err := apiGet(base+"/api/v1/fix/services", apiKey, 5*time.Second)
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

	var resp struct {
		Services map[string][]string `json:"services"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		errorf("parsing response: %v", err)
	}

	plugins := make([]string, 0, len(resp.Services))
	for name := range resp.Services {
		plugins = append(plugins, name)
	}
	sort.Strings(plugins)

	if outFmt == FormatCSV {
		rows := make([][]string, 0, len(plugins))
		for _, name := range plugins {
			rows = append(rows, []string{name, strings.Join(resp.Services[name], " ")})
		}
		writeCSV(w, []string{"plugin", "services"}, rows)
		return
	}

	table := NewTable(w, "PLUGIN", "SERVICES")
	for _, name := range plugins {
		table.AddRow(name, strings.Join(resp.Services[name], ", "))
	}
	table.Render()
}
