package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jano-project/jano/internal/fixer"
)

// SentinelPrefix marks a system-role transcript entry that carries a
// pending analysis across turns. The workflow has no state store of its
// own: "what is pending" is always the newest sentinel found when scanning
// the transcript backward.
const SentinelPrefix = "ANALYSIS_RESULT:"

// Responder generates free-form replies for messages the workflow does not
// handle itself. LLM backend plugins satisfy this.
type Responder interface {
	Generate(ctx context.Context, prompt string, history []Message) (string, error)
}

// Workflow interprets chat turns as commands against the fixer service.
// Commands it does not recognize are forwarded to the Responder.
type Workflow struct {
	store        Store
	fixers       *fixer.Service
	llm          Responder
	historyLimit int
	logger       zerolog.Logger
}

// NewWorkflow wires the workflow. historyLimit caps how many prior messages
// are handed to the Responder as context; 0 means no cap.
func NewWorkflow(store Store, fixers *fixer.Service, llm Responder, historyLimit int, logger zerolog.Logger) *Workflow {
	return &Workflow{
		store:        store,
		fixers:       fixers,
		llm:          llm,
		historyLimit: historyLimit,
		logger:       logger.With().Str("component", "chat_workflow").Logger(),
	}
}

// HandleTurn processes one user message and returns the assistant reply.
// Both sides of the exchange are appended to the transcript. Fixer and
// restart errors become user-facing text; only store failures are returned
// as errors.
func (w *Workflow) HandleTurn(ctx context.Context, sessionID, text string) (string, error) {
	if err := w.store.Append(sessionID, NewMessage(RoleUser, text)); err != nil {
		return "", fmt.Errorf("appending user message: %w", err)
	}

	reply := w.dispatch(ctx, sessionID, text)

	if err := w.store.Append(sessionID, NewMessage(RoleAssistant, reply)); err != nil {
		return "", fmt.Errorf("appending assistant message: %w", err)
	}
	return reply, nil
}

// dispatch evaluates the turn against the command rules in order; the first
// match wins and anything else goes to the language model.
func (w *Workflow) dispatch(ctx context.Context, sessionID, text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	switch {
	case lower == "fix help":
		return w.helpReply()

	case lower == "yes" || lower == "y":
		return w.applyPending(ctx, sessionID, nil)

	case lower == "restart":
		return w.restartPending(ctx, sessionID)

	case strings.HasPrefix(lower, "fix "):
		arg := strings.TrimSpace(trimmed[len("fix "):])
		if indices, ok := parseIndexList(arg); ok {
			return w.applyPending(ctx, sessionID, indices)
		}
		fields := strings.Fields(arg)
		if len(fields) > 0 {
			path := ""
			if len(fields) > 1 {
				path = fields[1]
			}
			return w.analyze(sessionID, fields[0], path)
		}
	}

	return w.respond(ctx, sessionID, trimmed)
}

func (w *Workflow) helpReply() string {
	supported := w.fixers.SupportedServices()

	seen := make(map[string]bool)
	var services []string
	for _, svcs := range supported {
		for _, svc := range svcs {
			if !seen[svc] {
				seen[svc] = true
				services = append(services, svc)
			}
		}
	}
	sort.Strings(services)

	if len(services) == 0 {
		return "No config fixer plugins are available."
	}
	return fmt.Sprintf("I can analyze and fix configurations for: %s.\n"+
		"Say \"fix <service>\" to analyze, then \"yes\" to apply all fixes, "+
		"\"fix 1,3\" to apply selected ones, or \"restart\" to restart the service.",
		strings.Join(services, ", "))
}

// analyze runs the fixer for a service and, when issues exist, plants a
// sentinel carrying the full analysis for later "yes"/"fix N"/"restart"
// turns.
func (w *Workflow) analyze(sessionID, service, path string) string {
	analysis, err := w.fixers.Analyze(service, path)
	if err != nil {
		return fmt.Sprintf("I couldn't analyze the %s configuration: %v", service, err)
	}
	if len(analysis.Issues) == 0 {
		return fmt.Sprintf("Good news: no security issues found in the %s configuration (%s).", service, analysis.Path)
	}

	sentinel, err := encodeSentinel(service, analysis)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to encode analysis sentinel")
		return fmt.Sprintf("I couldn't record the analysis result: %v", err)
	}
	if err := w.store.Append(sessionID, NewMessage(RoleSystem, sentinel)); err != nil {
		w.logger.Error().Err(err).Msg("failed to store analysis sentinel")
		return fmt.Sprintf("I couldn't record the analysis result: %v", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d security issue(s) in the %s configuration (%s):\n\n", len(analysis.Issues), service, analysis.Path)
	for i, issue := range analysis.Issues {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, issue.Severity, issue.Description)
		if issue.Current != "" {
			fmt.Fprintf(&b, "   Current: %s\n", issue.Current)
		}
		fmt.Fprintf(&b, "   Fix: %s\n", issue.Fix)
	}
	b.WriteString("\nReply \"yes\" to apply all fixes, or \"fix 1,3\" to apply only selected ones.")
	return b.String()
}

// applyPending applies the most recent pending analysis. A nil index list
// means the whole issue list; otherwise the 1-based selection, with
// out-of-range indices silently ignored.
func (w *Workflow) applyPending(ctx context.Context, sessionID string, indices []int) string {
	service, analysis, ok := w.latestSentinel(sessionID)
	if !ok {
		return "There's nothing pending to apply. Say \"fix <service>\" first to analyze a configuration."
	}

	issues := analysis.Issues
	if indices != nil {
		selected := make([]fixer.Issue, 0, len(indices))
		for _, idx := range indices {
			if idx >= 1 && idx <= len(analysis.Issues) {
				selected = append(selected, analysis.Issues[idx-1])
			}
		}
		issues = selected
	}

	outcome, err := w.fixers.Apply(ctx, service, analysis.Path, issues, true, false)
	if err != nil {
		return fmt.Sprintf("I couldn't apply the fixes to %s: %v", service, err)
	}
	if !outcome.Success {
		return outcome.Message
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", outcome.Message)
	for _, change := range outcome.Changes {
		fmt.Fprintf(&b, "- %s\n", change)
	}
	fmt.Fprintf(&b, "\nWould you like me to restart %s to pick up the changes? Reply \"restart\".", service)
	return b.String()
}

// restartPending restarts the service named by the most recent sentinel.
func (w *Workflow) restartPending(ctx context.Context, sessionID string) string {
	service, _, ok := w.latestSentinel(sessionID)
	if !ok {
		return "There's nothing pending to restart. Say \"fix <service>\" first to analyze a configuration."
	}

	outcome, err := w.fixers.Restart(ctx, service)
	if outcome != nil {
		return outcome.Message
	}
	if err != nil {
		return fmt.Sprintf("I couldn't restart %s: %v", service, err)
	}
	return fmt.Sprintf("Restart of %s finished with no result.", service)
}

// respond forwards an unrecognized message to the language model with the
// prior visible transcript as context.
func (w *Workflow) respond(ctx context.Context, sessionID, text string) string {
	if w.llm == nil {
		return "I don't understand that command. Try \"fix help\"."
	}

	messages, err := w.store.List(sessionID)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to load transcript for LLM context")
		messages = nil
	}
	history := Visible(messages)
	// Drop the message being answered; it goes in the prompt.
	if n := len(history); n > 0 && history[n-1].Role == RoleUser && history[n-1].Content == text {
		history = history[:n-1]
	}
	if w.historyLimit > 0 && len(history) > w.historyLimit {
		history = history[len(history)-w.historyLimit:]
	}

	reply, err := w.llm.Generate(ctx, text, history)
	if err != nil {
		w.logger.Error().Err(err).Msg("language model request failed")
		return fmt.Sprintf("I couldn't reach the language model: %v", err)
	}
	return reply
}

// latestSentinel scans the transcript backward for the newest pending
// analysis. Sentinels that fail to decode are skipped.
func (w *Workflow) latestSentinel(sessionID string) (string, *fixer.Analysis, bool) {
	messages, err := w.store.List(sessionID)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to load transcript")
		return "", nil, false
	}

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != RoleSystem || !strings.HasPrefix(msg.Content, SentinelPrefix) {
			continue
		}
		service, analysis, err := decodeSentinel(msg.Content)
		if err != nil {
			w.logger.Warn().Err(err).Msg("skipping malformed sentinel")
			continue
		}
		return service, analysis, true
	}
	return "", nil, false
}

func encodeSentinel(service string, analysis *fixer.Analysis) (string, error) {
	data, err := json.Marshal(analysis)
	if err != nil {
		return "", err
	}
	return SentinelPrefix + service + ":" + string(data), nil
}

func decodeSentinel(content string) (string, *fixer.Analysis, error) {
	rest := strings.TrimPrefix(content, SentinelPrefix)
	service, payload, ok := strings.Cut(rest, ":")
	if !ok {
		return "", nil, fmt.Errorf("sentinel missing service separator")
	}
	var analysis fixer.Analysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return "", nil, fmt.Errorf("decoding sentinel payload: %w", err)
	}
	return service, &analysis, nil
}

// parseIndexList recognizes a comma-separated 1-based index selection. The
// candidate must contain only digits, commas, and whitespace; anything else
// is a service name or free text for the language model.
func parseIndexList(s string) ([]int, bool) {
	if s == "" {
		return nil, false
	}
	for _, r := range s {
		if r != ',' && r != ' ' && r != '\t' && (r < '0' || r > '9') {
			return nil, false
		}
	}

	var out []int
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, false
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
