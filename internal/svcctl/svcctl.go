// Package svcctl restarts system services after a config change. Each
// service carries a restart plan: an optional validation command that must
// pass before anything is touched, then an ordered chain of restart
// strategies tried until one succeeds.
package svcctl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jano-project/jano/internal/core"
)

// Runner executes one external command and returns its output streams.
// The exec-backed implementation is the default; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// Plan describes how to restart one service. Validate runs first and gates
// the whole operation; Strategies run in order until one succeeds.
type Plan struct {
	Service    string
	Validate   []string
	Strategies [][]string
}

// Outcome reports the result of a restart attempt.
type Outcome struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Strategy string `json:"strategy,omitempty"`
}

// Controller runs restart plans with a per-command timeout.
type Controller struct {
	runner  Runner
	timeout time.Duration
	logger  zerolog.Logger
}

// NewController builds a Controller using the real exec runner.
func NewController(timeout time.Duration, logger zerolog.Logger) *Controller {
	return NewControllerWithRunner(execRunner{}, timeout, logger)
}

// NewControllerWithRunner builds a Controller with a custom Runner.
func NewControllerWithRunner(runner Runner, timeout time.Duration, logger zerolog.Logger) *Controller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Controller{
		runner:  runner,
		timeout: timeout,
		logger:  logger.With().Str("component", "svcctl").Logger(),
	}
}

// Restart executes the plan. The validation command, when present, must
// succeed or no strategy runs and the error wraps core.ErrValidationFailed.
// Strategies then run in order; the first success wins. If every strategy
// fails, the error wraps core.ErrRestartExhausted and carries the most
// specific diagnostic seen (a real command failure over a missing binary).
func (c *Controller) Restart(ctx context.Context, plan Plan) (*Outcome, error) {
	if len(plan.Validate) > 0 {
		stderr, err := c.run(ctx, plan.Validate)
		switch {
		case err == nil:
			c.logger.Debug().Str("service", plan.Service).Msg("config validation passed")
		case isCommandNotFound(err):
			// No validator on this host: proceed without the safety check.
			c.logger.Warn().Str("service", plan.Service).Msg("validator binary not found, skipping config test")
		default:
			c.logger.Error().Err(err).Str("service", plan.Service).Msg("config validation failed, refusing restart")
			detail := strings.TrimSpace(stderr)
			if detail == "" {
				detail = err.Error()
			}
			return &Outcome{
				Success: false,
				Message: fmt.Sprintf("configuration test for %s failed: %s", plan.Service, detail),
			}, fmt.Errorf("%w for %s: %s", core.ErrValidationFailed, plan.Service, detail)
		}
	}

	var lastErr error
	for _, strategy := range plan.Strategies {
		if len(strategy) == 0 {
			continue
		}
		label := strings.Join(strategy, " ")

		stderr, err := c.run(ctx, strategy)
		if err == nil {
			c.logger.Info().Str("service", plan.Service).Str("strategy", label).Msg("service restarted")
			return &Outcome{
				Success:  true,
				Message:  fmt.Sprintf("%s restarted via %q", plan.Service, label),
				Strategy: label,
			}, nil
		}

		c.logger.Warn().Err(err).Str("service", plan.Service).Str("strategy", label).Msg("restart strategy failed")

		// A missing binary only means this strategy does not apply here.
		// Keep the most informative failure for the final error.
		if lastErr == nil || !isCommandNotFound(err) {
			detail := strings.TrimSpace(stderr)
			if detail != "" {
				lastErr = fmt.Errorf("%q: %s", label, detail)
			} else {
				lastErr = fmt.Errorf("%q: %v", label, err)
			}
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no restart strategies configured")
	}
	return &Outcome{
		Success: false,
		Message: fmt.Sprintf("could not restart %s: %v", plan.Service, lastErr),
	}, fmt.Errorf("%w for %s: %v", core.ErrRestartExhausted, plan.Service, lastErr)
}

func (c *Controller) run(ctx context.Context, argv []string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, stderr, err := c.runner.Run(runCtx, argv[0], argv[1:]...)
	return stderr, err
}

func isCommandNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}
