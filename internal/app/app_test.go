package app

import (
	"context"
	"strings"
	"testing"

	"github.com/jano-project/jano/internal/core"
)

func TestNew_Defaults(t *testing.T) {
	cfg := core.DefaultConfig()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Bus != nil {
		t.Error("bus should stay nil when disabled")
	}

	// Default config enables all three fixers but only the simulated attack.
	services := a.Fixers.SupportedServices()
	if len(services) != 3 {
		t.Errorf("fixers = %d, want 3", len(services))
	}
	attacks := a.Attacks.Names()
	if len(attacks) != 1 || attacks[0] != "weak_ssh" {
		t.Errorf("attacks = %v, want only weak_ssh", attacks)
	}
}

func TestNew_DisabledFixerNotRegistered(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Fixers["nginx_config_fixer"] = core.PluginConfig{Enabled: false}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, ok := a.Fixers.SupportedServices()["nginx_config_fixer"]; ok {
		t.Error("disabled fixer must not be registered")
	}
}

func TestNew_MissingLLMKeyDegrades(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.LLM.APIKey = ""

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	// Free text lands on the degraded responder instead of erroring out.
	reply, err := a.Workflow.HandleTurn(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if !strings.Contains(reply, "not configured") {
		t.Errorf("reply = %q, want the degraded-backend notice", reply)
	}
}

func TestNew_BadgerStore(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Chat.Store = "badger"
	cfg.Chat.DataDir = t.TempDir()

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, err := a.Workflow.HandleTurn(context.Background(), "s1", "fix help"); err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	msgs, err := a.Store.List("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Errorf("messages = %d, want user turn plus reply", len(msgs))
	}
}
