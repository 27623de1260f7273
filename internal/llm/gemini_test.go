package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jano-project/jano/internal/chat"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g := NewGemini()
	err := g.Initialize(map[string]any{
		"api_key":      "test-key",
		"api_base_url": server.URL,
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return g
}

func geminiReply(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func TestGemini_RequiresAPIKey(t *testing.T) {
	g := NewGemini()
	if err := g.Initialize(map[string]any{}); err == nil {
		t.Error("Initialize without api_key should fail")
	}
}

func TestGemini_Generate(t *testing.T) {
	var gotPath string
	var gotBody geminiRequest

	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(geminiReply("use PermitRootLogin no")))
	})

	history := []chat.Message{
		chat.NewMessage(chat.RoleUser, "fix ssh"),
		chat.NewMessage(chat.RoleAssistant, "found 2 issues"),
		chat.NewMessage(chat.RoleSystem, "ANALYSIS_RESULT:ssh:{}"),
	}
	reply, err := g.Generate(context.Background(), "what about root login?", history)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "use PermitRootLogin no" {
		t.Errorf("reply = %q", reply)
	}

	// Regular conversation goes to the default model.
	if !strings.Contains(gotPath, "gemini-1.5-flash") {
		t.Errorf("path = %q, want the default model", gotPath)
	}

	// History maps to alternating user/model turns; system entries dropped;
	// prompt appended last.
	if len(gotBody.Contents) != 3 {
		t.Fatalf("contents = %d entries, want 3", len(gotBody.Contents))
	}
	if gotBody.Contents[1].Role != "model" {
		t.Errorf("assistant turn role = %q, want model", gotBody.Contents[1].Role)
	}
	last := gotBody.Contents[len(gotBody.Contents)-1]
	if last.Role != "user" || last.Parts[0].Text != "what about root login?" {
		t.Errorf("last content = %+v, want the prompt", last)
	}
}

func TestGemini_AdvancedPromptsUseAdvancedModel(t *testing.T) {
	var gotPath string
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(geminiReply("ok")))
	})

	if _, err := g.Generate(context.Background(), "run a comprehensive security audit", nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(gotPath, "gemini-1.5-pro") {
		t.Errorf("path = %q, want the advanced model", gotPath)
	}
}

func TestGemini_APIErrorSurfaces(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"key expired","code":403}}`))
	})

	_, err := g.Generate(context.Background(), "hello", nil)
	if err == nil || !strings.Contains(err.Error(), "status 403") {
		t.Errorf("error = %v, want a status 403 failure", err)
	}
}

func TestGemini_EmptyCandidates(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := g.Generate(context.Background(), "hello", nil)
	if err == nil || !strings.Contains(err.Error(), "empty response") {
		t.Errorf("error = %v, want empty-response failure", err)
	}
}

func TestWantsAdvancedModel(t *testing.T) {
	cases := map[string]bool{
		"hi there":                              false,
		"please analyze my sshd config":         true,
		"I need a comprehensive review":         true,
		"run a penetration test on the network": true,
		strings.Repeat("x", 2001):               true,
	}
	for prompt, want := range cases {
		if got := wantsAdvancedModel(prompt); got != want {
			t.Errorf("wantsAdvancedModel(%.30q) = %v, want %v", prompt, got, want)
		}
	}
}
