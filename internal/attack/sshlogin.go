package attack

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/jano-project/jano/internal/core"
)

// SSHLogin performs a real credential audit: it attempts to authenticate to
// an SSH server with a short list of weak credentials. Attempts are capped
// and spaced out so the audit does not trip account lockouts. Only run this
// against hosts you are authorized to test; it is disabled by default.
type SSHLogin struct {
	usernames   []string
	passwords   []string
	timeout     time.Duration
	maxAttempts int
	delay       time.Duration
	logger      zerolog.Logger
}

func NewSSHLogin() *SSHLogin {
	return &SSHLogin{
		usernames:   []string{"admin", "root"},
		passwords:   []string{"password", "admin", "123456"},
		timeout:     5 * time.Second,
		maxAttempts: 10,
		delay:       time.Second,
		logger:      zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("attack", "ssh_login").Logger(),
	}
}

func (a *SSHLogin) Name() string { return "ssh_login" }

func (a *SSHLogin) Description() string {
	return "Authorized SSH credential audit using a short weak-credential list"
}

func (a *SSHLogin) Capabilities() []string {
	return []string{"ssh_weak_credentials", "port_check", "credential_audit"}
}

func (a *SSHLogin) Initialize(settings map[string]any) error {
	a.usernames = optStrings(settings, "common_usernames", a.usernames)
	a.passwords = optStrings(settings, "common_passwords", a.passwords)
	if secs := optInt(settings, "timeout", 0); secs > 0 {
		a.timeout = time.Duration(secs) * time.Second
	}
	if n := optInt(settings, "max_attempts", 0); n > 0 {
		a.maxAttempts = n
	}
	if secs := optInt(settings, "delay_between_attempts", 0); secs > 0 {
		a.delay = time.Duration(secs) * time.Second
	}
	return nil
}

func (a *SSHLogin) attemptLogin(target string, port int, username, password string) bool {
	cfg := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         a.timeout,
	}
	client, err := ssh.Dial("tcp", net.JoinHostPort(target, fmt.Sprint(port)), cfg)
	if err != nil {
		return false
	}
	client.Close()
	return true
}

func (a *SSHLogin) Run(ctx context.Context, target string, opts map[string]any) (*Result, error) {
	port := optInt(opts, "port", 22)
	maxAttempts := optInt(opts, "max_attempts", a.maxAttempts)
	usernames := optStrings(opts, "usernames", a.usernames)
	passwords := optStrings(opts, "passwords", a.passwords)

	if !probePort(target, port, a.timeout) {
		return &Result{
			Success:         false,
			Severity:        core.SeverityInfo,
			Details:         fmt.Sprintf("SSH port %d is closed or filtered on %s", port, target),
			Recommendations: []string{"No action needed as the service is not accessible."},
		}, nil
	}

	attempts := 0
	var attempted []map[string]string

	for _, username := range usernames {
		for _, password := range passwords {
			if attempts >= maxAttempts {
				break
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			attempts++
			attempted = append(attempted, map[string]string{"username": username, "password": password})
			a.logger.Info().Str("target", target).Int("port", port).Str("username", username).Msg("attempting ssh login")

			if a.attemptLogin(target, port, username, password) {
				a.logger.Warn().Str("target", target).Str("username", username).Msg("weak ssh credentials accepted")
				return &Result{
					Success:  true,
					Severity: core.SeverityCritical,
					Details: fmt.Sprintf("Successfully authenticated to SSH server on %s:%d using weak credentials",
						target, port),
					Recommendations: []string{
						"Change the password for the compromised account immediately",
						"Implement a strong password policy",
						"Configure SSH to use key-based authentication only (disable password authentication)",
						"Set up fail2ban to prevent brute force attacks",
						"Restrict SSH access to specific IP addresses if possible",
						"Consider changing the default SSH port",
					},
					Extended: map[string]any{
						"successful_credentials": map[string]string{"username": username, "password": password},
						"attempts":               attempts,
						"attempted_combinations": attempted,
					},
				}, nil
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.delay):
			}
		}
		if attempts >= maxAttempts {
			break
		}
	}

	return &Result{
		Success:  false,
		Severity: core.SeverityLow,
		Details: fmt.Sprintf("Could not authenticate to SSH server on %s:%d using common credentials (attempted %d combinations)",
			target, port, attempts),
		Recommendations: []string{
			"Continue to maintain strong password policies",
			"Consider implementing key-based authentication for SSH",
			"Set up fail2ban to prevent brute force attacks",
			"Consider restricting SSH access to specific IP addresses",
		},
		Extended: map[string]any{
			"attempts":               attempts,
			"attempted_combinations": attempted,
		},
	}, nil
}
