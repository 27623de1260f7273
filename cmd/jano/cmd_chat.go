package main

// ---------------------------------------------------------------------------
// cmd_chat.go — interactive assistant REPL
// ---------------------------------------------------------------------------

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jano-project/jano/internal/app"
	"github.com/jano-project/jano/internal/chat"
	"github.com/jano-project/jano/internal/core"
)

func cmdChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", "configs/default.yaml", "Config file path")
	host := fs.String("host", "", "API host override")
	port := fs.Int("port", 0, "API port override")
	apiKeyFlag := fs.String("api-key", "", "API key for authentication")
	session := fs.String("session", "", "Session id to resume")
	local := fs.Bool("local", false, "Run against an in-process engine instead of the API")
	fs.Parse(args)

	*configPath = envConfig(*configPath)
	sessionID := *session
	if sessionID == "" {
		sessionID = chat.NewSessionID()
	}

	var turn func(text string) (string, error)
	var clear func() error
	if *local {
		cfg, err := core.LoadConfig(*configPath)
		if err != nil {
			errorf("loading config: %v", err)
		}
		a, err := app.New(cfg)
		if err != nil {
			errorf("starting engine: %v", err)
		}
		defer a.Close()
		turn = func(text string) (string, error) {
			return a.Workflow.HandleTurn(context.Background(), sessionID, text)
		}
		clear = func() error {
			return a.Store.Clear(sessionID)
		}
	} else {
		base := apiBase(*configPath, envHost(*host), envPort(*port))
		apiKey := resolveAPIKey(*apiKeyFlag, *configPath)
		turn = func(text string) (string, error) {
			payload, _ := json.Marshal(map[string]string{"session_id": sessionID, "query": text})
			body, err := apiPost(base+"/api/v1/chat/query", payload, apiKey, 120*time.Second)
			if err != nil {
				return "", err
			}
			var resp struct {
				Response string `json:"response"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return "", fmt.Errorf("parsing response: %w", err)
			}
			return resp.Response, nil
		}
		clear = func() error {
			_, err := apiDelete(base+"/api/v1/chat/sessions/"+sessionID, apiKey, 15*time.Second)
			return err
		}
	}

	fmt.Printf("%s Jano security assistant %s\n", bold("●"), dim("(session "+sessionID+")"))
	fmt.Printf("  %s\n\n", dim(`type "fix help" for commands, "exit" to quit`))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(cyan("you> "))
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			return
		}
		if text == "/clear" {
			if err := clear(); err != nil {
				warnf("clearing session: %v", err)
			} else {
				fmt.Printf("%s session cleared\n\n", dim("·"))
			}
			continue
		}

		reply, err := turn(text)
		if err != nil {
			warnf("%v", err)
			continue
		}
		fmt.Printf("%s %s\n\n", green("jano>"), reply)
	}
}
