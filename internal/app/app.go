// Package app wires configuration, plugins, and services into one runnable
// application. Both the serve command and the local chat REPL build an App.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jano-project/jano/internal/attack"
	"github.com/jano-project/jano/internal/chat"
	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/fixer"
	"github.com/jano-project/jano/internal/fixer/apache"
	"github.com/jano-project/jano/internal/fixer/nginx"
	"github.com/jano-project/jano/internal/fixer/ssh"
	"github.com/jano-project/jano/internal/llm"
	"github.com/jano-project/jano/internal/plugin"
	"github.com/jano-project/jano/internal/svcctl"
)

// App holds the wired services.
type App struct {
	Config   *core.Config
	Logger   zerolog.Logger
	Logs     *core.LogRingBuffer
	Bus      *core.EventBus
	Fixers   *fixer.Service
	Attacks  *attack.Service
	Store    chat.Store
	Workflow *chat.Workflow
}

// logBufferSize is how many recent log lines the API can serve back.
const logBufferSize = 500

// fixerFactories maps plugin names to constructors. Only plugins enabled in
// config get registered.
var fixerFactories = map[string]func() fixer.Fixer{
	"ssh_config_fixer":    func() fixer.Fixer { return ssh.New() },
	"nginx_config_fixer":  func() fixer.Fixer { return nginx.New() },
	"apache_config_fixer": func() fixer.Fixer { return apache.New() },
}

var attackFactories = map[string]func() attack.Simulator{
	"weak_ssh":  func() attack.Simulator { return attack.NewWeakSSH() },
	"ssh_login": func() attack.Simulator { return attack.NewSSHLogin() },
}

// New builds the application from config. A failed LLM backend does not
// fail startup; the chat workflow degrades to fixer commands only.
func New(cfg *core.Config) (*App, error) {
	logs := core.NewLogRingBuffer(logBufferSize)
	logger := core.NewLoggerWithCapture(cfg.Logging.Format, cfg.Logging.Level, logs)
	a := &App{Config: cfg, Logger: logger, Logs: logs}

	if cfg.Bus.Enabled {
		bus, err := core.NewEventBus(&cfg.Bus, logger)
		if err != nil {
			return nil, fmt.Errorf("starting audit bus: %w", err)
		}
		a.Bus = bus
	}

	fixReg := plugin.NewRegistry[fixer.Fixer]("fixer", logger)
	for name, factory := range fixerFactories {
		if !cfg.IsFixerEnabled(name) {
			logger.Debug().Str("plugin", name).Msg("fixer disabled in config")
			continue
		}
		if err := fixReg.Register(factory); err != nil {
			return nil, fmt.Errorf("registering fixer %s: %w", name, err)
		}
	}

	atkReg := plugin.NewRegistry[attack.Simulator]("attack", logger)
	for name, factory := range attackFactories {
		if !cfg.IsAttackEnabled(name) {
			logger.Debug().Str("plugin", name).Msg("attack simulator disabled in config")
			continue
		}
		if err := atkReg.Register(factory); err != nil {
			return nil, fmt.Errorf("registering attack simulator %s: %w", name, err)
		}
	}

	ctl := svcctl.NewController(30*time.Second, logger)
	a.Fixers = fixer.NewService(fixReg, cfg, ctl, a.Bus, logger)
	a.Attacks = attack.NewService(atkReg, cfg, a.Bus, logger)

	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening chat store: %w", err)
	}
	a.Store = store

	responder := newResponder(cfg, logger)
	a.Workflow = chat.NewWorkflow(store, a.Fixers, responder, cfg.Chat.HistoryLimit, logger)

	return a, nil
}

func newStore(cfg *core.Config) (chat.Store, error) {
	if cfg.Chat.Store == "badger" {
		return chat.NewBadgerStore(cfg.Chat.DataDir)
	}
	return chat.NewMemoryStore(), nil
}

// newResponder resolves the configured LLM backend. Initialization failures
// (typically a missing API key) degrade to a stub that tells the user the
// backend is unavailable.
func newResponder(cfg *core.Config, logger zerolog.Logger) chat.Responder {
	reg := plugin.NewRegistry[llm.Plugin]("llm", logger)
	_ = reg.Register(func() llm.Plugin { return llm.NewGemini() })
	_ = reg.Register(func() llm.Plugin { return llm.NewOpenAI() })

	backend, err := reg.Get(cfg.LLM.Plugin, cfg.LLMSettings())
	if err != nil {
		logger.Warn().Err(err).Str("plugin", cfg.LLM.Plugin).Msg("LLM backend unavailable, chat degrades to fix commands")
		return unavailableLLM{name: cfg.LLM.Plugin}
	}
	return backend
}

type unavailableLLM struct{ name string }

func (u unavailableLLM) Generate(ctx context.Context, prompt string, history []chat.Message) (string, error) {
	return fmt.Sprintf("The %s language model is not configured (set its api_key in config or the environment). "+
		"Config-fixing commands still work: try \"fix help\".", u.name), nil
}

// Close shuts down the stateful pieces.
func (a *App) Close() error {
	var firstErr error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
