// Package nginx provides the config fixer for nginx server hardening.
// The nginx grammar is block-aware: missing directives are inserted into
// the first http or server block rather than appended to the file.
package nginx

import (
	"regexp"

	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/fixer"
	"github.com/jano-project/jano/internal/svcctl"
)

// New builds the nginx config fixer.
func New() *fixer.Engine {
	return fixer.NewEngine(fixer.EngineConfig{
		Name:        "nginx_config_fixer",
		Description: "Analyzes and hardens nginx server configuration",
		Services:    []string{"nginx", "nginx-service"},
		Paths: []string{
			"/etc/nginx/nginx.conf",
			"/etc/nginx/conf.d/default.conf",
			"/usr/local/nginx/conf/nginx.conf",
			"/usr/local/etc/nginx/nginx.conf",
		},
		BlockTypes: []string{"http", "server", "location"},
		Rules: []fixer.Rule{
			{
				ID:          "server_tokens",
				Pattern:     regexp.MustCompile(`^\s*server_tokens\s+(on|off);`),
				Replacement: "server_tokens off;",
				Description: "Hide nginx version in headers",
				Severity:    core.SeverityMedium,
				Required:    true,
				Block:       "http",
			},
			{
				ID:          "x_frame_options",
				Pattern:     regexp.MustCompile(`^\s*add_header\s+X-Frame-Options\s+.*;`),
				Replacement: "add_header X-Frame-Options SAMEORIGIN;",
				Description: "Set X-Frame-Options header to prevent clickjacking",
				Severity:    core.SeverityMedium,
				Required:    true,
				Block:       "server",
			},
			{
				ID:          "x_content_type_options",
				Pattern:     regexp.MustCompile(`^\s*add_header\s+X-Content-Type-Options\s+.*;`),
				Replacement: "add_header X-Content-Type-Options nosniff;",
				Description: "Set X-Content-Type-Options header to prevent MIME sniffing",
				Severity:    core.SeverityMedium,
				Required:    true,
				Block:       "server",
			},
			{
				ID:          "strict_transport_security",
				Pattern:     regexp.MustCompile(`^\s*add_header\s+Strict-Transport-Security\s+.*;`),
				Replacement: `add_header Strict-Transport-Security "max-age=31536000; includeSubDomains";`,
				Description: "Enable HSTS to enforce HTTPS",
				Severity:    core.SeverityHigh,
				Required:    true,
				Block:       "server",
			},
			{
				ID:          "ssl_protocols",
				Pattern:     regexp.MustCompile(`^\s*ssl_protocols\s+.*;`),
				Replacement: "ssl_protocols TLSv1.2 TLSv1.3;",
				Description: "Use only secure SSL/TLS protocols",
				Severity:    core.SeverityHigh,
				Required:    true,
				Block:       "server",
			},
			{
				ID:          "ssl_ciphers",
				Pattern:     regexp.MustCompile(`^\s*ssl_ciphers\s+.*;`),
				Replacement: "ssl_ciphers 'ECDHE-ECDSA-AES128-GCM-SHA256:ECDHE-RSA-AES128-GCM-SHA256:ECDHE-ECDSA-AES256-GCM-SHA384:ECDHE-RSA-AES256-GCM-SHA384:DHE-RSA-AES128-GCM-SHA256:DHE-RSA-AES256-GCM-SHA384';",
				Description: "Use only secure ciphers",
				Severity:    core.SeverityHigh,
				Required:    true,
				Block:       "server",
			},
			{
				ID:          "ssl_prefer_server_ciphers",
				Pattern:     regexp.MustCompile(`^\s*ssl_prefer_server_ciphers\s+(on|off);`),
				Replacement: "ssl_prefer_server_ciphers on;",
				Description: "Prefer server ciphers over client ciphers",
				Severity:    core.SeverityMedium,
				Required:    true,
				Block:       "server",
			},
		},
		Restart: func(service string) svcctl.Plan {
			return svcctl.Plan{
				Service:  service,
				Validate: []string{"nginx", "-t"},
				Strategies: [][]string{
					{"systemctl", "restart", service},
					{"service", service, "restart"},
					{"nginx", "-s", "reload"},
				},
			}
		},
	})
}
