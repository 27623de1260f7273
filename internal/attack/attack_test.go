package attack

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/plugin"
)

// listen opens a TCP listener on a loopback port and returns its port.
func listen(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })
	return ln, ln.Addr().(*net.TCPAddr).Port
}

// closedPort returns a loopback port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, port := listen(t)
	ln.Close()
	return port
}

// ─── WeakSSH ───

func TestWeakSSH_ClosedPort(t *testing.T) {
	w := NewWeakSSH()
	if err := w.Initialize(map[string]any{"timeout": 1}); err != nil {
		t.Fatal(err)
	}

	res, err := w.Run(context.Background(), "127.0.0.1", map[string]any{"port": closedPort(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success {
		t.Error("a closed port must not report an attack path")
	}
	if res.Severity != core.SeverityInfo {
		t.Errorf("severity = %v, want info", res.Severity)
	}
	if !strings.Contains(res.Details, "closed or filtered") {
		t.Errorf("details = %q", res.Details)
	}
}

func TestWeakSSH_OpenPort(t *testing.T) {
	_, port := listen(t)

	w := NewWeakSSH()
	if err := w.Initialize(map[string]any{
		"common_usernames": []any{"admin"},
		"common_passwords": []any{"hunter2"},
	}); err != nil {
		t.Fatal(err)
	}

	res, err := w.Run(context.Background(), "127.0.0.1", map[string]any{"port": port})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success {
		t.Fatal("an open port should report the simulated attack path")
	}
	if res.Severity != core.SeverityMedium {
		t.Errorf("severity = %v, want medium", res.Severity)
	}
	if len(res.Recommendations) == 0 {
		t.Error("open-port result should carry hardening recommendations")
	}
	users, ok := res.Extended["simulated_usernames"].([]string)
	if !ok || len(users) != 1 || users[0] != "admin" {
		t.Errorf("simulated_usernames = %v, want the configured list", res.Extended["simulated_usernames"])
	}
}

// ─── SSHLogin ───

func TestSSHLogin_ClosedPort(t *testing.T) {
	a := NewSSHLogin()
	if err := a.Initialize(map[string]any{"timeout": 1}); err != nil {
		t.Fatal(err)
	}

	res, err := a.Run(context.Background(), "127.0.0.1", map[string]any{"port": closedPort(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success {
		t.Error("a closed port must not report success")
	}
	if res.Severity != core.SeverityInfo {
		t.Errorf("severity = %v, want info", res.Severity)
	}
}

func TestSSHLogin_CancelledContextStopsAudit(t *testing.T) {
	_, port := listen(t)

	a := NewSSHLogin()
	if err := a.Initialize(nil); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Run(ctx, "127.0.0.1", map[string]any{"port": port}); err == nil {
		t.Error("a cancelled context must abort the audit")
	}
}

func TestSSHLogin_SettingsOverrideDefaults(t *testing.T) {
	a := NewSSHLogin()
	err := a.Initialize(map[string]any{
		"common_usernames":       []any{"svc"},
		"common_passwords":       []string{"letmein"},
		"max_attempts":           3,
		"delay_between_attempts": 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(a.usernames) != 1 || a.usernames[0] != "svc" {
		t.Errorf("usernames = %v", a.usernames)
	}
	if len(a.passwords) != 1 || a.passwords[0] != "letmein" {
		t.Errorf("passwords = %v", a.passwords)
	}
	if a.maxAttempts != 3 {
		t.Errorf("maxAttempts = %d", a.maxAttempts)
	}
	if a.delay != 2*time.Second {
		t.Errorf("delay = %v", a.delay)
	}
}

// ─── Service ───

func TestService_RunPublishesNothingWithoutBus(t *testing.T) {
	reg := plugin.NewRegistry[Simulator]("attack", zerolog.Nop())
	if err := reg.Register(func() Simulator { return NewWeakSSH() }); err != nil {
		t.Fatal(err)
	}

	cfg := core.DefaultConfig()
	svc := NewService(reg, cfg, nil, zerolog.Nop())

	res, err := svc.Run(context.Background(), "weak_ssh", "127.0.0.1", map[string]any{"port": closedPort(t)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success {
		t.Error("closed port should not succeed")
	}
}

func TestService_UnknownPlugin(t *testing.T) {
	reg := plugin.NewRegistry[Simulator]("attack", zerolog.Nop())
	svc := NewService(reg, core.DefaultConfig(), nil, zerolog.Nop())

	if _, err := svc.Run(context.Background(), "nope", "127.0.0.1", nil); err == nil {
		t.Error("unknown plugin should error")
	}
}

// ─── option parsing ───

func TestOptHelpers(t *testing.T) {
	opts := map[string]any{
		"port":  float64(2222), // decoded JSON numbers arrive as float64
		"users": []any{"a", "", "b"},
	}
	if got := optInt(opts, "port", 22); got != 2222 {
		t.Errorf("optInt = %d", got)
	}
	if got := optInt(opts, "missing", 22); got != 22 {
		t.Errorf("optInt fallback = %d", got)
	}
	got := optStrings(opts, "users", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("optStrings = %v", got)
	}
	if got := optStrings(opts, "missing", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Errorf("optStrings fallback = %v", got)
	}
}
