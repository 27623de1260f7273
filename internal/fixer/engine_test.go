package fixer_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jano-project/jano/internal/core"
	"github.com/jano-project/jano/internal/fixer"
	"github.com/jano-project/jano/internal/fixer/apache"
	"github.com/jano-project/jano/internal/fixer/nginx"
	"github.com/jano-project/jano/internal/fixer/ssh"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func issueByRule(issues []fixer.Issue, ruleID string) (fixer.Issue, bool) {
	for _, issue := range issues {
		if issue.RuleID == ruleID {
			return issue, true
		}
	}
	return fixer.Issue{}, false
}

// ─── Flat grammar (sshd_config) ─────────────────────────────────────────────

const weakSSHConfig = `# sshd_config
Port 22
PasswordAuthentication yes
PermitRootLogin yes
Protocol 2
MaxAuthTries 3
ClientAliveInterval 300
ClientAliveCountMax 3
PermitEmptyPasswords no
`

func TestSSHAnalyze_DetectsIncorrectValues(t *testing.T) {
	path := writeConfig(t, "sshd_config", weakSSHConfig)
	fx := ssh.New()

	analysis, err := fx.Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !analysis.Success {
		t.Fatal("analysis should succeed")
	}
	if len(analysis.Issues) != 2 {
		t.Fatalf("issues = %d, want 2 (%v)", len(analysis.Issues), analysis.Issues)
	}

	pw, ok := issueByRule(analysis.Issues, "disable_password_auth")
	if !ok {
		t.Fatal("expected disable_password_auth issue")
	}
	if pw.Type != fixer.IssueIncorrect {
		t.Errorf("issue type = %q, want incorrect", pw.Type)
	}
	if pw.Current != "PasswordAuthentication yes" {
		t.Errorf("Current = %q", pw.Current)
	}
	if pw.Fix != "PasswordAuthentication no" {
		t.Errorf("Fix = %q", pw.Fix)
	}
}

func TestSSHAnalyze_DetectsMissingDirectives(t *testing.T) {
	path := writeConfig(t, "sshd_config", "Port 22\n")
	fx := ssh.New()

	analysis, err := fx.Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// All seven rules are required and absent.
	if len(analysis.Issues) != 7 {
		t.Fatalf("issues = %d, want 7", len(analysis.Issues))
	}
	for _, issue := range analysis.Issues {
		if issue.Type != fixer.IssueMissing {
			t.Errorf("issue %s type = %q, want missing", issue.RuleID, issue.Type)
		}
	}
}

func TestSSHAnalyze_CleanConfigHasNoIssues(t *testing.T) {
	clean := `PasswordAuthentication no
PermitRootLogin no
Protocol 2
MaxAuthTries 3
ClientAliveInterval 300
ClientAliveCountMax 3
PermitEmptyPasswords no
`
	path := writeConfig(t, "sshd_config", clean)
	analysis, err := ssh.New().Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(analysis.Issues) != 0 {
		t.Errorf("clean config issues = %v, want none", analysis.Issues)
	}
}

func TestSSHApply_IsIdempotent(t *testing.T) {
	path := writeConfig(t, "sshd_config", weakSSHConfig)
	fx := ssh.New()

	outcome, err := fx.Apply(path, nil, false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !outcome.Success || outcome.Applied != 2 {
		t.Fatalf("outcome = %+v, want success with 2 applied", outcome)
	}

	analysis, err := fx.Analyze(path)
	if err != nil {
		t.Fatalf("re-Analyze: %v", err)
	}
	if len(analysis.Issues) != 0 {
		t.Errorf("issues after apply = %v, want none", analysis.Issues)
	}
}

func TestApply_MissingDirectiveAppended(t *testing.T) {
	path := writeConfig(t, "sshd_config", "Port 22\n")
	fx := ssh.New()

	if _, err := fx.Apply(path, nil, false); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"PasswordAuthentication no", "PermitRootLogin no", "PermitEmptyPasswords no"} {
		if !strings.Contains(content, want) {
			t.Errorf("config missing appended directive %q", want)
		}
	}
}

func TestApply_BackupRoundTrip(t *testing.T) {
	path := writeConfig(t, "sshd_config", weakSSHConfig)
	fx := ssh.New()

	if _, err := fx.Apply(path, nil, true); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	matches, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("backup files = %v, want exactly one", matches)
	}
	backup, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(backup) != weakSSHConfig {
		t.Error("backup content should equal the pre-apply file content")
	}
}

func TestApply_SubsetOfIssues(t *testing.T) {
	path := writeConfig(t, "sshd_config", weakSSHConfig)
	fx := ssh.New()

	analysis, err := fx.Analyze(path)
	if err != nil {
		t.Fatal(err)
	}
	pw, ok := issueByRule(analysis.Issues, "disable_password_auth")
	if !ok {
		t.Fatal("expected disable_password_auth issue")
	}

	outcome, err := fx.Apply(path, []fixer.Issue{pw}, false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if outcome.Applied != 1 {
		t.Errorf("Applied = %d, want 1", outcome.Applied)
	}

	after, err := fx.Analyze(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Issues) != 1 {
		t.Fatalf("remaining issues = %v, want just the root-login one", after.Issues)
	}
	if after.Issues[0].RuleID != "disable_root_login" {
		t.Errorf("remaining issue = %q, want disable_root_login", after.Issues[0].RuleID)
	}
}

func TestApply_UnknownRuleIDIgnored(t *testing.T) {
	path := writeConfig(t, "sshd_config", weakSSHConfig)
	fx := ssh.New()

	bogus := fixer.Issue{RuleID: "no_such_rule", Type: fixer.IssueMissing, Fix: "Nonsense yes"}
	outcome, err := fx.Apply(path, []fixer.Issue{bogus}, false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if outcome.Success {
		t.Error("applying only an unknown rule should report no fixes applied")
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "Nonsense") {
		t.Error("unknown rule must not mutate the file")
	}
}

func TestAnalyze_NoConfigFile(t *testing.T) {
	fx := ssh.New()
	if err := fx.Initialize(map[string]any{"config_path": filepath.Join(t.TempDir(), "absent")}); err != nil {
		t.Fatal(err)
	}
	// The custom path does not exist and neither do the system defaults in
	// this environment, so resolution must fail.
	_, err := fx.Analyze(filepath.Join(t.TempDir(), "also-absent"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestInitialize_CustomPathTakesPriority(t *testing.T) {
	path := writeConfig(t, "sshd_config", "Port 22\n")
	fx := ssh.New()
	if err := fx.Initialize(map[string]any{"config_path": path}); err != nil {
		t.Fatal(err)
	}

	analysis, err := fx.Analyze("")
	if err != nil {
		t.Fatalf("Analyze with auto-detect: %v", err)
	}
	if analysis.Path != path {
		t.Errorf("resolved path = %q, want %q", analysis.Path, path)
	}
}

// ─── Block-aware grammar (nginx.conf) ───────────────────────────────────────

const weakNginxConfig = `user www-data;

http {
    server_tokens on;

    server {
        listen 80;
        ssl_protocols TLSv1 TLSv1.1;
    }
}
`

func TestNginxAnalyze_BlockAware(t *testing.T) {
	path := writeConfig(t, "nginx.conf", weakNginxConfig)
	fx := nginx.New()

	analysis, err := fx.Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	tokens, ok := issueByRule(analysis.Issues, "server_tokens")
	if !ok || tokens.Type != fixer.IssueIncorrect {
		t.Errorf("server_tokens issue = %+v, want incorrect", tokens)
	}
	protocols, ok := issueByRule(analysis.Issues, "ssl_protocols")
	if !ok || protocols.Type != fixer.IssueIncorrect {
		t.Errorf("ssl_protocols issue = %+v, want incorrect", protocols)
	}

	hsts, ok := issueByRule(analysis.Issues, "strict_transport_security")
	if !ok {
		t.Fatal("expected missing HSTS issue")
	}
	if hsts.Type != fixer.IssueMissing || hsts.Block != "server" {
		t.Errorf("HSTS issue = %+v, want missing in server block", hsts)
	}

	if len(analysis.Blocks) == 0 {
		t.Error("block-aware analysis should carry block spans")
	}
}

func TestNginxAnalyze_MissingBlockSuppressesIssue(t *testing.T) {
	// No server block at all: server-scoped rules cannot be inserted, so
	// they are not reported.
	path := writeConfig(t, "nginx.conf", "http {\n    include mime.types;\n}\n")
	fx := nginx.New()

	analysis, err := fx.Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, ok := issueByRule(analysis.Issues, "x_frame_options"); ok {
		t.Error("server-scoped rule should not fire without a server block")
	}
	if _, ok := issueByRule(analysis.Issues, "server_tokens"); !ok {
		t.Error("http-scoped rule should still fire")
	}
}

func TestNginxApply_InsertsIntoBlocks(t *testing.T) {
	path := writeConfig(t, "nginx.conf", weakNginxConfig)
	fx := nginx.New()

	outcome, err := fx.Apply(path, nil, false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("outcome = %+v", outcome)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(data), "\n")

	// Inserted directives land right after the server block opening line
	// with the block indent extended by four spaces.
	serverLine := -1
	for i, line := range lines {
		if strings.Contains(line, "server {") {
			serverLine = i
			break
		}
	}
	if serverLine < 0 {
		t.Fatal("server block disappeared")
	}
	next := lines[serverLine+1]
	if !strings.HasPrefix(next, "        ") {
		t.Errorf("inserted line %q should extend the block indent", next)
	}

	// Idempotence across the block-aware path too.
	after, err := fx.Analyze(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Issues) != 0 {
		t.Errorf("issues after apply = %v, want none", after.Issues)
	}

	// Braces stay balanced after all insertions.
	content := string(data)
	if strings.Count(content, "{") != strings.Count(content, "}") {
		t.Error("braces unbalanced after apply")
	}
}

// ─── Case-insensitive grammar (apache) ──────────────────────────────────────

func TestApacheAnalyze_CaseInsensitive(t *testing.T) {
	path := writeConfig(t, "apache2.conf", "servertokens Full\nServerSignature On\n")
	fx := apache.New()

	analysis, err := fx.Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	tokens, ok := issueByRule(analysis.Issues, "server_tokens")
	if !ok || tokens.Type != fixer.IssueIncorrect {
		t.Errorf("server_tokens = %+v, want incorrect despite lowercase directive", tokens)
	}
	sig, ok := issueByRule(analysis.Issues, "server_signature")
	if !ok || sig.Type != fixer.IssueIncorrect {
		t.Errorf("server_signature = %+v, want incorrect", sig)
	}
}

func TestApacheAnalyze_OptionalRuleNotRequiredWhenAbsent(t *testing.T) {
	path := writeConfig(t, "apache2.conf", "ServerTokens Prod\nServerSignature Off\n")
	analysis, err := apache.New().Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// directory_browsing is not a required rule, so its absence is fine.
	if len(analysis.Issues) != 0 {
		t.Errorf("issues = %v, want none", analysis.Issues)
	}
}

func TestSeverityValues(t *testing.T) {
	path := writeConfig(t, "sshd_config", "Port 22\n")
	analysis, err := ssh.New().Analyze(path)
	if err != nil {
		t.Fatal(err)
	}
	pw, _ := issueByRule(analysis.Issues, "disable_password_auth")
	if pw.Severity != core.SeverityHigh {
		t.Errorf("disable_password_auth severity = %v, want high", pw.Severity)
	}
	tries, _ := issueByRule(analysis.Issues, "max_auth_tries")
	if tries.Severity != core.SeverityMedium {
		t.Errorf("max_auth_tries severity = %v, want medium", tries.Severity)
	}
}

func TestAnalyzeError_IsNotFound(t *testing.T) {
	fx := nginx.New()
	_, err := fx.Analyze(filepath.Join(t.TempDir(), "nope.conf"))
	if err == nil {
		t.Fatal("expected error")
	}
	// A caller-supplied path that cannot be read is an I/O failure, not a
	// resolution failure.
	if errors.Is(err, core.ErrNotFound) {
		t.Error("explicit path read failure should not map to ErrNotFound")
	}
}
