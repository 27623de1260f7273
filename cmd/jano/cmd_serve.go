package main

// ---------------------------------------------------------------------------
// cmd_serve.go — start the API server with the full engine wired
// ---------------------------------------------------------------------------

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jano-project/jano/internal/api"
	"github.com/jano-project/jano/internal/app"
	"github.com/jano-project/jano/internal/core"
)

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "configs/default.yaml", "Config file path")
	host := fs.String("host", "", "Bind host override")
	port := fs.Int("port", 0, "Bind port override")
	quiet := fs.Bool("quiet", false, "Suppress the startup banner")
	fs.Parse(args)

	cfg, err := core.LoadConfig(envConfig(*configPath))
	if err != nil {
		errorf("loading config: %v", err)
	}
	if h := envHost(*host); h != "" {
		cfg.Server.Host = h
	}
	if p := envPort(*port); p != 0 {
		cfg.Server.Port = p
	}

	if !*quiet {
		fmt.Print(bannerText())
		fmt.Printf("  %s\n\n", dim("v"+version))
	}

	a, err := app.New(cfg)
	if err != nil {
		errorf("starting engine: %v", err)
	}
	defer a.Close()

	server := api.NewServer(api.Deps{
		Config:   cfg,
		Fixers:   a.Fixers,
		Attacks:  a.Attacks,
		Workflow: a.Workflow,
		Store:    a.Store,
		Bus:      a.Bus,
		Logs:     a.Logs,
		Logger:   a.Logger,
	})
	if err := server.Start(); err != nil {
		errorf("starting API server: %v", err)
	}

	fmt.Printf("%s listening on %s:%d — press Ctrl+C to stop\n",
		green("●"), cfg.Server.Host, cfg.Server.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Println("\nshutting down...")
	if err := server.Stop(); err != nil {
		warnf("stopping API server: %v", err)
	}
}
