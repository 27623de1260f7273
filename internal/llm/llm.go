// Package llm holds the language-model backend plugins. Backends satisfy
// the generic plugin contract plus text generation over a conversation
// history, which is all the chat workflow needs from them.
package llm

import (
	"context"
	"regexp"

	"github.com/jano-project/jano/internal/chat"
	"github.com/jano-project/jano/internal/plugin"
)

// Plugin is the contract an LLM backend satisfies.
type Plugin interface {
	plugin.Plugin

	// Generate answers prompt given the prior visible transcript.
	Generate(ctx context.Context, prompt string, history []chat.Message) (string, error)

	// Capabilities advertises what the backend is good for.
	Capabilities() []string
}

// advancedTaskPatterns flag prompts that deserve the advanced model:
// security assessments, audits, and report generation.
var advancedTaskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)evaluat(e|ing|ion)`),
	regexp.MustCompile(`(?i)analy(ze|sis|zing)`),
	regexp.MustCompile(`(?i)secur(e|ity) (audit|assessment)`),
	regexp.MustCompile(`(?i)vulnerabilit(y|ies)`),
	regexp.MustCompile(`(?i)penetration test`),
	regexp.MustCompile(`(?i)threat model`),
	regexp.MustCompile(`(?i)comprehensive`),
	regexp.MustCompile(`(?i)in-depth`),
	regexp.MustCompile(`(?i)detailed (review|analysis|report)`),
	regexp.MustCompile(`(?i)generate (a|full|complete) (report|assessment)`),
	regexp.MustCompile(`(?i)scan (my|the|this) (system|server|service|configuration)`),
}

const longPromptThreshold = 2000

// wantsAdvancedModel reports whether a prompt looks like an advanced task,
// either by topic or by sheer length.
func wantsAdvancedModel(prompt string) bool {
	for _, re := range advancedTaskPatterns {
		if re.MatchString(prompt) {
			return true
		}
	}
	return len(prompt) > longPromptThreshold
}

func settingString(settings map[string]any, key, fallback string) string {
	if v, ok := settings[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
