package attack

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jano-project/jano/internal/core"
)

// WeakSSH is a simulation-only check for weak SSH credentials. It never
// authenticates; it only probes the port and reports what a brute-force
// attacker would try.
type WeakSSH struct {
	usernames []string
	passwords []string
	timeout   time.Duration
	logger    zerolog.Logger
}

func NewWeakSSH() *WeakSSH {
	return &WeakSSH{
		usernames: []string{"admin", "root", "user", "test"},
		passwords: []string{"password", "admin", "root", "123456", "qwerty"},
		timeout:   5 * time.Second,
		logger:    zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("attack", "weak_ssh").Logger(),
	}
}

func (w *WeakSSH) Name() string { return "weak_ssh" }

func (w *WeakSSH) Description() string {
	return "Simulated weak-credential check against an SSH service (no authentication attempts)"
}

func (w *WeakSSH) Capabilities() []string {
	return []string{"ssh_weak_credentials_simulation", "port_check"}
}

func (w *WeakSSH) Initialize(settings map[string]any) error {
	w.usernames = optStrings(settings, "common_usernames", w.usernames)
	w.passwords = optStrings(settings, "common_passwords", w.passwords)
	if secs := optInt(settings, "timeout", 0); secs > 0 {
		w.timeout = time.Duration(secs) * time.Second
	}
	return nil
}

func (w *WeakSSH) Run(ctx context.Context, target string, opts map[string]any) (*Result, error) {
	port := optInt(opts, "port", 22)

	if !probePort(target, port, w.timeout) {
		return &Result{
			Success:         false,
			Severity:        core.SeverityInfo,
			Details:         fmt.Sprintf("SSH port %d is closed or filtered on %s", port, target),
			Recommendations: []string{"No action needed as the service is not accessible."},
		}, nil
	}

	w.logger.Info().Str("target", target).Int("port", port).Msg("ssh service detected")
	return &Result{
		Success:  true,
		Severity: core.SeverityMedium,
		Details: fmt.Sprintf("SSH service detected on %s:%d. This is a simulated result showing what "+
			"would happen if weak credentials were used. Real attackers could try common "+
			"username/password combinations.", target, port),
		Recommendations: []string{
			"Use strong, unique passwords for all SSH accounts",
			"Implement SSH key-based authentication instead of password authentication",
			"Consider using fail2ban to prevent brute force attacks",
			"Restrict SSH access to specific IP addresses if possible",
			"Change the default SSH port to reduce automated scanning",
		},
		Extended: map[string]any{
			"simulated_usernames": w.usernames,
			"simulated_passwords": w.passwords,
			"educational_note":    "This plugin does not attempt actual authentication. It only checks for open ports.",
		},
	}, nil
}
