package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/jano-project/jano/internal/chat"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Gemini is the default LLM backend, talking to the Gemini REST API. The
// HTTP path runs behind a circuit breaker so a flaky upstream degrades into
// fast failures instead of piling up 30s timeouts.
type Gemini struct {
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker

	apiKey        string
	baseURL       string
	model         string
	advancedModel string
	logger        zerolog.Logger
}

// NewGemini builds an uninitialized Gemini backend.
func NewGemini() *Gemini {
	return &Gemini{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "GeminiAPI",
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
		logger: zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("llm", "gemini").Logger(),
	}
}

func (g *Gemini) Name() string        { return "gemini" }
func (g *Gemini) Description() string { return "Google Gemini language-model backend" }

func (g *Gemini) Capabilities() []string {
	return []string{"text_generation", "security_advice", "configuration_analysis", "dynamic_model_selection"}
}

func (g *Gemini) Initialize(settings map[string]any) error {
	g.apiKey = settingString(settings, "api_key", "")
	if g.apiKey == "" {
		return fmt.Errorf("gemini backend requires an api_key setting")
	}
	g.baseURL = settingString(settings, "api_base_url", defaultGeminiBaseURL)
	g.model = settingString(settings, "model", "gemini-1.5-flash")
	g.advancedModel = settingString(settings, "advanced_model", "gemini-1.5-pro")
	return nil
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig map[string]any  `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Generate calls the Gemini generateContent endpoint, picking the advanced
// model for prompts that look like heavyweight analysis work.
func (g *Gemini) Generate(ctx context.Context, prompt string, history []chat.Message) (string, error) {
	model := g.model
	if wantsAdvancedModel(prompt) {
		model = g.advancedModel
	}

	contents := make([]geminiContent, 0, len(history)+1)
	for _, msg := range history {
		role := "user"
		if msg.Role == chat.RoleAssistant {
			role = "model"
		} else if msg.Role == chat.RoleSystem {
			continue
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: msg.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: prompt}}})

	body, err := json.Marshal(geminiRequest{
		Contents: contents,
		GenerationConfig: map[string]any{
			"maxOutputTokens": 4096,
			"temperature":     0.2,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)

	result, cbErr := g.cb.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("calling Gemini API: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("Gemini API error (status %d): %s", resp.StatusCode, string(respBody))
		}

		var gemResp geminiResponse
		if err := json.Unmarshal(respBody, &gemResp); err != nil {
			return "", fmt.Errorf("parsing Gemini response: %w", err)
		}
		if gemResp.Error != nil {
			return "", fmt.Errorf("Gemini API error: %s", gemResp.Error.Message)
		}
		if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("empty response from Gemini")
		}
		return gemResp.Candidates[0].Content.Parts[0].Text, nil
	})
	if cbErr != nil {
		return "", cbErr
	}

	g.logger.Debug().Str("model", model).Msg("generation complete")
	return result.(string), nil
}
