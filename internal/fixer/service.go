package fixer

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/plugin"
	"github.com/jano-project/jano/internal/svcctl"
)

// Service is the entry point for config fixing: it resolves the right fixer
// plugin for a service name, drives analyze/apply/restart, and publishes
// audit events for every mutation.
type Service struct {
	registry *plugin.Registry[Fixer]
	cfg      *core.Config
	ctl      *svcctl.Controller
	bus      *core.EventBus
	logger   zerolog.Logger
}

// NewService builds the fixer service over an already-populated registry.
func NewService(registry *plugin.Registry[Fixer], cfg *core.Config, ctl *svcctl.Controller, bus *core.EventBus, logger zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		cfg:      cfg,
		ctl:      ctl,
		bus:      bus,
		logger:   logger.With().Str("component", "fixer_service").Logger(),
	}
}

func (s *Service) settingsFor(name string) map[string]any {
	return s.cfg.FixerSettings(name)
}

// SupportedServices maps each available fixer plugin to the services it
// handles. Plugins that fail to initialize are omitted.
func (s *Service) SupportedServices() map[string][]string {
	out := make(map[string][]string)
	for _, name := range s.registry.Names() {
		fx, err := s.registry.Get(name, s.settingsFor(name))
		if err != nil {
			s.logger.Warn().Err(err).Str("plugin", name).Msg("skipping plugin in service listing")
			continue
		}
		out[fx.Name()] = fx.Services()
	}
	return out
}

// ForService resolves the fixer plugin handling the given service name,
// case-folded.
func (s *Service) ForService(service string) (Fixer, error) {
	want := strings.ToLower(service)
	return s.registry.Find(s.settingsFor, func(fx Fixer) bool {
		for _, svc := range fx.Services() {
			if strings.ToLower(svc) == want {
				return true
			}
		}
		return false
	})
}

// Analyze runs the owning plugin's analysis for a service.
func (s *Service) Analyze(service, path string) (*Analysis, error) {
	fx, err := s.ForService(service)
	if err != nil {
		return nil, err
	}

	analysis, err := fx.Analyze(path)
	if err != nil {
		return nil, err
	}
	analysis.Service = service

	ev := core.NewAuditEvent("config_analyze", service, maxSeverity(analysis.Issues), analysis.Message)
	ev.Details["path"] = analysis.Path
	ev.Details["issues"] = len(analysis.Issues)
	if err := s.bus.PublishAudit(ev); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish audit event")
	}
	return analysis, nil
}

// Apply patches the service's config file and optionally restarts the
// service afterwards. A restart failure does not undo the applied fixes; it
// is reported in the outcome.
func (s *Service) Apply(ctx context.Context, service, path string, issues []Issue, backup, restart bool) (*FixOutcome, error) {
	fx, err := s.ForService(service)
	if err != nil {
		return nil, err
	}

	outcome, err := fx.Apply(path, issues, backup)
	if err != nil {
		return nil, err
	}

	ev := core.NewAuditEvent("config_fix", service, maxSeverity(issues), outcome.Message)
	ev.Details["applied"] = outcome.Applied
	ev.Details["backup"] = backup
	if err := s.bus.PublishAudit(ev); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish audit event")
	}

	if restart && outcome.Success {
		restartOutcome, restartErr := s.ctl.Restart(ctx, fx.RestartPlan(service))
		outcome.Restart = restartOutcome
		if restartErr != nil {
			s.logger.Error().Err(restartErr).Str("service", service).Msg("post-fix restart failed")
		}
	}
	return outcome, nil
}

// Restart validates and restarts a service using its owning plugin's plan.
func (s *Service) Restart(ctx context.Context, service string) (*svcctl.Outcome, error) {
	fx, err := s.ForService(service)
	if err != nil {
		return nil, err
	}

	outcome, err := s.ctl.Restart(ctx, fx.RestartPlan(service))

	sev := core.SeverityInfo
	if outcome != nil && !outcome.Success {
		sev = core.SeverityMedium
	}
	msg := ""
	if outcome != nil {
		msg = outcome.Message
	}
	ev := core.NewAuditEvent("service_restart", service, sev, msg)
	if pubErr := s.bus.PublishAudit(ev); pubErr != nil {
		s.logger.Warn().Err(pubErr).Msg("failed to publish audit event")
	}
	return outcome, err
}

func maxSeverity(issues []Issue) core.Severity {
	max := core.SeverityInfo
	for _, issue := range issues {
		if issue.Severity > max {
			max = issue.Severity
		}
	}
	return max
}
