package main

// ---------------------------------------------------------------------------
// cmd_config.go — show or generate configuration
// ---------------------------------------------------------------------------

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jano-project/jano/internal/core"
)

func cmdConfig(args []string) {
	sub := "show"
	if len(args) > 0 && !flagLike(args[0]) {
		sub = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", "configs/default.yaml", "Config file path")
	fs.Parse(args)
	*configPath = envConfig(*configPath)

	switch sub {
	case "show":
		cfg, err := core.LoadConfig(*configPath)
		if err != nil {
			errorf("loading config: %v", err)
		}
		// Never print credentials.
		cfg.Server.APIKeys = nil
		cfg.LLM.APIKey = ""
		data, err := yaml.Marshal(cfg)
		if err != nil {
			errorf("rendering config: %v", err)
		}
		fmt.Print(string(data))

	case "init":
		if _, err := os.Stat(*configPath); err == nil {
			errorf("%s already exists, refusing to overwrite", *configPath)
		}
		if dir := filepath.Dir(*configPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errorf("creating %s: %v", dir, err)
			}
		}
		if err := core.SaveConfig(core.DefaultConfig(), *configPath); err != nil {
			errorf("writing config: %v", err)
		}
		fmt.Printf("%s wrote %s\n", green("✓"), *configPath)

	default:
		errorf("unknown config subcommand %q (use show or init)", sub)
	}
}

func flagLike(s string) bool {
	return len(s) > 0 && s[0] == '-'
}
