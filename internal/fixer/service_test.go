package fixer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/fixer"
	"github.com/jano-project/jano/internal/fixer/nginx"
	"github.com/jano-project/jano/internal/fixer/ssh"
	"github.com/jano-project/jano/internal/plugin"
	"github.com/jano-project/jano/internal/svcctl"
)

type scriptedRunner struct {
	calls []string
}

func (r *scriptedRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	r.calls = append(r.calls, strings.Join(append([]string{name}, args...), " "))
	return "", "", nil
}

func newFixerService(t *testing.T, sshConfigPath string) (*fixer.Service, *scriptedRunner) {
	t.Helper()

	reg := plugin.NewRegistry[fixer.Fixer]("fixer", zerolog.Nop())
	if err := reg.Register(func() fixer.Fixer { return ssh.New() }); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(func() fixer.Fixer { return nginx.New() }); err != nil {
		t.Fatal(err)
	}

	cfg := core.DefaultConfig()
	cfg.Fixers["ssh_config_fixer"] = core.PluginConfig{
		Enabled:  true,
		Settings: map[string]any{"config_path": sshConfigPath},
	}

	runner := &scriptedRunner{}
	ctl := svcctl.NewControllerWithRunner(runner, 5*time.Second, zerolog.Nop())
	return fixer.NewService(reg, cfg, ctl, nil, zerolog.Nop()), runner
}

func writeSSHConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sshd_config")
	if err := os.WriteFile(path, []byte("PasswordAuthentication yes\nPermitRootLogin yes\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestService_ForServiceCaseInsensitive(t *testing.T) {
	svc, _ := newFixerService(t, writeSSHConfig(t))

	lower, err := svc.ForService("sshd")
	if err != nil {
		t.Fatalf("ForService(sshd): %v", err)
	}
	upper, err := svc.ForService("SSHD")
	if err != nil {
		t.Fatalf("ForService(SSHD): %v", err)
	}
	if lower != upper {
		t.Error("case variants should resolve to the identical cached instance")
	}
	if lower.Name() != "ssh_config_fixer" {
		t.Errorf("resolved plugin = %q, want ssh_config_fixer", lower.Name())
	}
}

func TestService_ForServiceUnknown(t *testing.T) {
	svc, _ := newFixerService(t, writeSSHConfig(t))
	_, err := svc.ForService("postgres")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestService_SupportedServices(t *testing.T) {
	svc, _ := newFixerService(t, writeSSHConfig(t))

	supported := svc.SupportedServices()
	if len(supported["ssh_config_fixer"]) == 0 {
		t.Error("ssh_config_fixer should advertise services")
	}
	if len(supported["nginx_config_fixer"]) == 0 {
		t.Error("nginx_config_fixer should advertise services")
	}
}

func TestService_AnalyzeTagsService(t *testing.T) {
	path := writeSSHConfig(t)
	svc, _ := newFixerService(t, path)

	analysis, err := svc.Analyze("ssh", "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Service != "ssh" {
		t.Errorf("Service = %q, want ssh", analysis.Service)
	}
	if analysis.Path != path {
		t.Errorf("Path = %q, want %q (custom path from settings)", analysis.Path, path)
	}
	if len(analysis.Issues) == 0 {
		t.Error("expected issues in the weak config")
	}
}

func TestService_ApplyWithRestart(t *testing.T) {
	svc, runner := newFixerService(t, writeSSHConfig(t))

	outcome, err := svc.Apply(context.Background(), "ssh", "", nil, false, true)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Restart == nil || !outcome.Restart.Success {
		t.Fatalf("restart outcome = %+v, want success", outcome.Restart)
	}

	// The plan validates first, then restarts.
	if len(runner.calls) < 2 || runner.calls[0] != "sshd -t" {
		t.Errorf("runner calls = %v, want validation first", runner.calls)
	}
	if runner.calls[1] != "systemctl restart ssh" {
		t.Errorf("second call = %q, want systemctl restart ssh", runner.calls[1])
	}
}

func TestService_ApplyWithoutRestart(t *testing.T) {
	svc, runner := newFixerService(t, writeSSHConfig(t))

	if _, err := svc.Apply(context.Background(), "ssh", "", nil, false, false); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("no commands should run without restart, got %v", runner.calls)
	}
}

func TestService_Restart(t *testing.T) {
	svc, runner := newFixerService(t, writeSSHConfig(t))

	outcome, err := svc.Restart(context.Background(), "ssh")
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if !outcome.Success {
		t.Errorf("outcome = %+v", outcome)
	}
	if runner.calls[0] != "sshd -t" {
		t.Errorf("calls = %v, want validation first", runner.calls)
	}
}
