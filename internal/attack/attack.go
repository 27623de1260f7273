// Package attack holds the attack-simulator plugins. Simulators probe a
// target the operator is authorized to test and report what an attacker
// would find, so the fixers' recommendations can be verified from the
// outside.
package attack

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/plugin"
)

// Simulator is the contract an attack plugin satisfies.
type Simulator interface {
	plugin.Plugin

	// Run executes the simulation against target. Options are per-run
	// overrides of the plugin's configured defaults.
	Run(ctx context.Context, target string, opts map[string]any) (*Result, error)

	// Capabilities advertises what the simulator tests.
	Capabilities() []string
}

// Result is the outcome of one simulation run. Success means the attack
// path exists, not that anything broke.
type Result struct {
	Success         bool           `json:"success"`
	Severity        core.Severity  `json:"severity"`
	Details         string         `json:"details"`
	Recommendations []string       `json:"recommendations"`
	Extended        map[string]any `json:"details_extended,omitempty"`
}

// Service resolves attack plugins from the registry and publishes an audit
// event for every run.
type Service struct {
	registry *plugin.Registry[Simulator]
	cfg      *core.Config
	bus      *core.EventBus
	logger   zerolog.Logger
}

func NewService(registry *plugin.Registry[Simulator], cfg *core.Config, bus *core.EventBus, logger zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		cfg:      cfg,
		bus:      bus,
		logger:   logger.With().Str("component", "attack_service").Logger(),
	}
}

// Names lists the registered simulators.
func (s *Service) Names() []string { return s.registry.Names() }

// Run executes the named simulator against target.
func (s *Service) Run(ctx context.Context, name, target string, opts map[string]any) (*Result, error) {
	sim, err := s.registry.Get(name, s.cfg.AttackSettings(name))
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("plugin", name).Str("target", target).Msg("running attack simulation")
	result, err := sim.Run(ctx, target, opts)
	if err != nil {
		return nil, fmt.Errorf("running %s against %s: %w", name, target, err)
	}

	ev := core.NewAuditEvent("attack_simulation", name, result.Severity, result.Details)
	ev.Details["target"] = target
	ev.Details["success"] = result.Success
	if pubErr := s.bus.PublishAudit(ev); pubErr != nil {
		s.logger.Warn().Err(pubErr).Msg("failed to publish audit event")
	}
	return result, nil
}

// probePort reports whether a TCP connect to host:port succeeds within
// timeout.
func probePort(host string, port int, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, fmt.Sprint(port)), timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func optInt(opts map[string]any, key string, fallback int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func optStrings(opts map[string]any, key string, fallback []string) []string {
	switch v := opts[key].(type) {
	case []string:
		if len(v) > 0 {
			return v
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
