// Package ssh provides the config fixer for OpenSSH server hardening.
package ssh

import (
	"regexp"

	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/fixer"
	"github.com/jano-project/jano/internal/svcctl"
)

// New builds the SSH config fixer. The sshd_config grammar is flat, so
// missing directives are appended at the end of the file.
func New() *fixer.Engine {
	return fixer.NewEngine(fixer.EngineConfig{
		Name:        "ssh_config_fixer",
		Description: "Analyzes and hardens OpenSSH server configuration",
		Services:    []string{"ssh", "sshd", "openssh", "openssh-server"},
		Paths: []string{
			"/etc/ssh/sshd_config",
			"/etc/sshd_config",
		},
		Rules: []fixer.Rule{
			{
				ID:          "disable_password_auth",
				Pattern:     regexp.MustCompile(`^[#\s]*(PasswordAuthentication)\s+(yes|no)`),
				Replacement: "PasswordAuthentication no",
				Description: "Disable password authentication",
				Severity:    core.SeverityHigh,
				Required:    true,
			},
			{
				ID:          "disable_root_login",
				Pattern:     regexp.MustCompile(`^[#\s]*(PermitRootLogin)\s+(yes|no|prohibit-password)`),
				Replacement: "PermitRootLogin no",
				Description: "Disable root login",
				Severity:    core.SeverityHigh,
				Required:    true,
			},
			{
				ID:          "use_protocol_2",
				Pattern:     regexp.MustCompile(`^[#\s]*(Protocol)\s+([12])`),
				Replacement: "Protocol 2",
				Description: "Use SSH Protocol 2",
				Severity:    core.SeverityHigh,
				Required:    true,
			},
			{
				ID:          "max_auth_tries",
				Pattern:     regexp.MustCompile(`^[#\s]*(MaxAuthTries)\s+(\d+)`),
				Replacement: "MaxAuthTries 3",
				Description: "Limit authentication attempts",
				Severity:    core.SeverityMedium,
				Required:    true,
			},
			{
				ID:          "client_alive_interval",
				Pattern:     regexp.MustCompile(`^[#\s]*(ClientAliveInterval)\s+(\d+)`),
				Replacement: "ClientAliveInterval 300",
				Description: "Set client alive interval",
				Severity:    core.SeverityMedium,
				Required:    true,
			},
			{
				ID:          "client_alive_count_max",
				Pattern:     regexp.MustCompile(`^[#\s]*(ClientAliveCountMax)\s+(\d+)`),
				Replacement: "ClientAliveCountMax 3",
				Description: "Set maximum client alive count",
				Severity:    core.SeverityMedium,
				Required:    true,
			},
			{
				ID:          "disable_empty_passwords",
				Pattern:     regexp.MustCompile(`^[#\s]*(PermitEmptyPasswords)\s+(yes|no)`),
				Replacement: "PermitEmptyPasswords no",
				Description: "Disable empty passwords",
				Severity:    core.SeverityHigh,
				Required:    true,
			},
		},
		Restart: func(service string) svcctl.Plan {
			return svcctl.Plan{
				Service:  service,
				Validate: []string{"sshd", "-t"},
				Strategies: [][]string{
					{"systemctl", "restart", service},
					{"service", service, "restart"},
				},
			}
		},
	})
}
