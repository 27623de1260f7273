// Package apache provides the config fixer for Apache httpd hardening.
package apache

import (
	"regexp"

	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/fixer"
	"github.com/jano-project/jano/internal/svcctl"
)

// New builds the Apache config fixer. Apache directives are matched
// case-insensitively; the flat top-level grammar takes appended directives.
func New() *fixer.Engine {
	return fixer.NewEngine(fixer.EngineConfig{
		Name:        "apache_config_fixer",
		Description: "Analyzes and hardens Apache httpd configuration",
		Services:    []string{"apache2", "httpd", "apache"},
		Paths: []string{
			"/etc/apache2/apache2.conf",
			"/etc/httpd/conf/httpd.conf",
			"/usr/local/apache2/conf/httpd.conf",
		},
		Rules: []fixer.Rule{
			{
				ID:          "server_tokens",
				Pattern:     regexp.MustCompile(`(?i)^\s*ServerTokens\s+(\w+)`),
				Replacement: "ServerTokens Prod",
				Description: "Hide detailed server information",
				Severity:    core.SeverityMedium,
				Required:    true,
			},
			{
				ID:          "server_signature",
				Pattern:     regexp.MustCompile(`(?i)^\s*ServerSignature\s+(\w+)`),
				Replacement: "ServerSignature Off",
				Description: "Disable server signature in error pages",
				Severity:    core.SeverityMedium,
				Required:    true,
			},
			{
				ID:          "directory_browsing",
				Pattern:     regexp.MustCompile(`(?i)^\s*Options\s+.*Indexes`),
				Replacement: "Options -Indexes",
				Description: "Disable directory browsing",
				Severity:    core.SeverityHigh,
				Required:    false,
			},
		},
		Restart: func(service string) svcctl.Plan {
			validate := []string{"apache2ctl", "configtest"}
			direct := []string{"apache2ctl", "restart"}
			if service == "httpd" {
				validate = []string{"httpd", "-t"}
				direct = []string{"httpd", "-k", "restart"}
			}
			return svcctl.Plan{
				Service:  service,
				Validate: validate,
				Strategies: [][]string{
					{"systemctl", "restart", service},
					{"service", service, "restart"},
					direct,
				},
			}
		},
	})
}
